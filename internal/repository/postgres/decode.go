package postgres

import (
	"errors"
	"fmt"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/validation"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	pgUniqueViolation = "23505"
)

// Rows are validated after scanning; nothing read from the database is trusted
// to satisfy the domain invariants on its own.
var documentValidator = validation.New()

func checkDocument(doc interface{}) error {
	if err := documentValidator.Struct(doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
