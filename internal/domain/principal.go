package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleGuest   Role = "guest"
	RoleUser    Role = "user"
	RolePlanter Role = "planter"
	RoleAdmin   Role = "admin"
	// RoleSystem is never assignable at registration. It identifies trusted
	// server-side callers such as the payment gateway callback.
	RoleSystem Role = "system"
)

// PaymentCallbackID is the principal id used for verified payment callbacks.
const PaymentCallbackID = "system:payment"

// Principal is the authenticated actor of an operation.
type Principal struct {
	ID                 string    `json:"id" validate:"required"`
	Email              string    `json:"email"`
	Role               Role      `json:"role" validate:"required,oneof=user planter admin"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RoleOf returns the effective role, treating a nil principal as a guest.
func RoleOf(p *Principal) Role {
	if p == nil || p.Role == "" {
		return RoleGuest
	}
	return p.Role
}

// HasRole reports whether the principal holds one of the allowed roles.
// Admin is a superset role and is admitted by every non-empty set.
func (p *Principal) HasRole(allowed ...Role) bool {
	role := RoleOf(p)
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return role == RoleAdmin && len(allowed) > 0
}

func (p *Principal) IsAdmin() bool {
	return RoleOf(p) == RoleAdmin
}

// SelfDeclarable reports whether a role may be chosen at registration.
func SelfDeclarable(role Role) bool {
	return role == RoleUser || role == RolePlanter
}

type PrincipalRepository interface {
	Create(ctx context.Context, p *Principal) error
	GetByID(ctx context.Context, id string) (*Principal, error)
	SetOnboardingComplete(ctx context.Context, id string, at time.Time) error
}

type IdentityUsecase interface {
	Register(ctx context.Context, subject, email string, declared Role) (*Principal, error)
	Current(ctx context.Context, subject string) (*Principal, error)
	CompleteOnboarding(ctx context.Context, p *Principal) (*Principal, error)
}
