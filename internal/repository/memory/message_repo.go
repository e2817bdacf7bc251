package memory

import (
	"context"
	"time"

	"herbal-market-backend/internal/domain"
)

type messageRepo struct {
	s *Store
}

func NewMessageRepository(s *Store) domain.MessageRepository {
	return &messageRepo{s: s}
}

func (r *messageRepo) Append(ctx context.Context, m *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpMessageAppend); err != nil {
		return err
	}
	thread := r.s.messages[m.ChannelID]
	for _, stored := range thread {
		if stored.ID == m.ID {
			return domain.ErrConflict
		}
	}
	if n := len(thread); n > 0 {
		floor := thread[n-1].SentAt.Add(time.Microsecond)
		if m.SentAt.Before(floor) {
			m.SentAt = floor
		}
	}
	r.s.messages[m.ChannelID] = append(thread, *m)
	return nil
}

func (r *messageRepo) ListByChannel(ctx context.Context, channelID string) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.fault(OpMessageList); err != nil {
		return nil, err
	}
	return append([]domain.Message{}, r.s.messages[channelID]...), nil
}

func (r *messageRepo) MarkRead(ctx context.Context, channelID, readerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpMessageMarkRead); err != nil {
		return 0, err
	}
	var n int64
	thread := r.s.messages[channelID]
	for i := range thread {
		if !thread[i].IsRead && thread[i].SenderID != readerID {
			thread[i].IsRead = true
			n++
		}
	}
	return n, nil
}
