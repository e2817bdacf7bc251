package postgres

import (
	"context"
	"time"

	"herbal-market-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.PrincipalRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, p *domain.Principal) error {
	query := `INSERT INTO users (id, email, role, onboarding_complete, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query, p.ID, p.Email, p.Role, p.OnboardingComplete, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	query := `SELECT id, email, role, onboarding_complete, created_at, updated_at FROM users WHERE id = $1`
	var p domain.Principal
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.Role, &p.OnboardingComplete, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if err := checkDocument(p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userRepo) SetOnboardingComplete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET onboarding_complete = TRUE, updated_at = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
