package memory

import (
	"context"
	"sort"
	"time"

	"herbal-market-backend/internal/domain"
)

type channelRepo struct {
	s *Store
}

func NewChannelRepository(s *Store) domain.ChannelRepository {
	return &channelRepo{s: s}
}

func (r *channelRepo) CreateIfAbsent(ctx context.Context, c *domain.Channel) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpChannelCreate); err != nil {
		return false, err
	}
	if _, exists := r.s.channels[c.ID]; exists {
		return false, nil
	}
	r.s.channels[c.ID] = *c
	return true, nil
}

func (r *channelRepo) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.fault(OpChannelGet); err != nil {
		return nil, err
	}
	c, ok := r.s.channels[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *channelRepo) ListByParticipant(ctx context.Context, participantID string) ([]domain.Channel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var channels []domain.Channel
	for _, c := range r.s.channels {
		if c.HasParticipant(participantID) {
			channels = append(channels, c)
		}
	}
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].LastMessageAt.Equal(channels[j].LastMessageAt) {
			return channels[i].ID < channels[j].ID
		}
		return channels[i].LastMessageAt.After(channels[j].LastMessageAt)
	})
	return channels, nil
}

func (r *channelRepo) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpChannelTouch); err != nil {
		return err
	}
	c, ok := r.s.channels[id]
	if !ok {
		return domain.ErrNotFound
	}
	if at.After(c.LastMessageAt) {
		c.LastMessageAt = at
		r.s.channels[id] = c
	}
	return nil
}
