package postgres

import (
	"context"

	"herbal-market-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type messageRepo struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) domain.MessageRepository {
	return &messageRepo{db: db}
}

// Append clamps sent_at to one microsecond past the channel's latest message.
// A transaction-scoped advisory lock on the channel id serialises concurrent
// appends so the clamp holds under contention. A duplicate id is ErrConflict.
func (r *messageRepo) Append(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, m.ChannelID); err != nil {
		return err
	}

	query := `
		INSERT INTO messages (id, channel_id, sender_id, body, kind, sent_at, is_read)
		VALUES ($1, $2, $3, $4, $5,
			GREATEST($6, COALESCE((SELECT MAX(sent_at) FROM messages WHERE channel_id = $2) + INTERVAL '1 microsecond', $6)),
			$7)
		RETURNING sent_at`
	err = tx.QueryRow(ctx, query,
		m.ID, m.ChannelID, m.SenderID, m.Body, m.Kind, m.SentAt, m.IsRead,
	).Scan(&m.SentAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *messageRepo) ListByChannel(ctx context.Context, channelID string) ([]domain.Message, error) {
	query := `SELECT id, channel_id, sender_id, body, kind, sent_at, is_read
              FROM messages WHERE channel_id = $1 ORDER BY sent_at ASC, id`
	rows, err := r.db.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.Body, &m.Kind, &m.SentAt, &m.IsRead); err != nil {
			return nil, err
		}
		if err := checkDocument(m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *messageRepo) MarkRead(ctx context.Context, channelID, readerID string) (int64, error) {
	query := `UPDATE messages SET is_read = TRUE WHERE channel_id = $1 AND sender_id <> $2 AND is_read = FALSE`
	tag, err := r.db.Exec(ctx, query, channelID, readerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
