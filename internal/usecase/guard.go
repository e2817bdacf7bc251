package usecase

import (
	"context"
	"errors"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/security"
)

// authorize runs the access guard for a core operation. A guest is
// unauthorized, any other denied role is forbidden.
func authorize(ctx context.Context, allowed []domain.Role, p *domain.Principal, resource string) error {
	decision := access.Guard(allowed, p)
	if decision.Allowed {
		return nil
	}
	role := domain.RoleOf(p)
	if role == domain.RoleGuest {
		return apperror.Unauthorized(decision.Reason)
	}
	security.DefaultLogger().LogAccessDenied(ctx, p.ID, string(role), resource, decision.Reason)
	return apperror.Forbidden(decision.Reason)
}

// storeError passes typed errors through and wraps everything else as a store failure.
func storeError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Store(err)
}

// lookupError maps a repository read failure, turning ErrNotFound into msg.
func lookupError(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NotFound(msg)
	}
	return storeError(err)
}
