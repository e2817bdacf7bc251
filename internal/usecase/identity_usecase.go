package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
)

type identityUsecase struct {
	principalRepo domain.PrincipalRepository
}

func NewIdentityUsecase(principalRepo domain.PrincipalRepository) domain.IdentityUsecase {
	return &identityUsecase{principalRepo: principalRepo}
}

// Register creates the principal for a verified token subject. The first
// registration wins: later calls return the stored principal and never
// change its role.
func (u *identityUsecase) Register(ctx context.Context, subject, email string, declared domain.Role) (*domain.Principal, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}
	if strings.Contains(subject, domain.ChannelIDSeparator) {
		return nil, apperror.Validation("Subject must not contain " + domain.ChannelIDSeparator)
	}
	if declared == "" {
		declared = domain.RoleUser
	}
	if !domain.SelfDeclarable(declared) {
		return nil, apperror.Validation("Role must be one of: user, planter")
	}

	existing, err := u.principalRepo.GetByID(ctx, subject)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, storeError(err)
	}

	now := time.Now().UTC()
	p := &domain.Principal{
		ID:        subject,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      declared,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.principalRepo.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent registration landed first
			existing, err := u.principalRepo.GetByID(ctx, subject)
			if err != nil {
				return nil, storeError(err)
			}
			return existing, nil
		}
		return nil, storeError(err)
	}
	return p, nil
}

func (u *identityUsecase) Current(ctx context.Context, subject string) (*domain.Principal, error) {
	if subject == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}
	p, err := u.principalRepo.GetByID(ctx, subject)
	if err != nil {
		return nil, lookupError(err, "Principal is not registered")
	}
	return p, nil
}

func (u *identityUsecase) CompleteOnboarding(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	if err := authorize(ctx, access.Members, p, "onboarding"); err != nil {
		return nil, err
	}
	if p.OnboardingComplete {
		return p, nil
	}
	if err := u.principalRepo.SetOnboardingComplete(ctx, p.ID, time.Now().UTC()); err != nil {
		return nil, lookupError(err, "Principal is not registered")
	}
	return u.Current(ctx, p.ID)
}
