package memory

import (
	"context"
	"time"

	"herbal-market-backend/internal/domain"
)

type userRepo struct {
	s *Store
}

func NewUserRepository(s *Store) domain.PrincipalRepository {
	return &userRepo{s: s}
}

func (r *userRepo) Create(ctx context.Context, p *domain.Principal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpUserCreate); err != nil {
		return err
	}
	if _, exists := r.s.users[p.ID]; exists {
		return domain.ErrConflict
	}
	r.s.users[p.ID] = *p
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *userRepo) SetOnboardingComplete(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpSetOnboardingState); err != nil {
		return err
	}
	p, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.OnboardingComplete = true
	p.UpdatedAt = at
	r.s.users[id] = p
	return nil
}
