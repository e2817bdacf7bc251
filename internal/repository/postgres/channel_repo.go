package postgres

import (
	"context"
	"time"

	"herbal-market-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type channelRepo struct {
	db *pgxpool.Pool
}

func NewChannelRepository(db *pgxpool.Pool) domain.ChannelRepository {
	return &channelRepo{db: db}
}

const channelColumns = `id, participant_a, participant_b, order_id, created_at, last_message_at`

func scanChannel(row pgx.Row) (*domain.Channel, error) {
	var c domain.Channel
	if err := row.Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.OrderID, &c.CreatedAt, &c.LastMessageAt); err != nil {
		return nil, err
	}
	if err := checkDocument(c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateIfAbsent relies on the deterministic primary key: the losing writer
// of a concurrent insert affects no row.
func (r *channelRepo) CreateIfAbsent(ctx context.Context, c *domain.Channel) (bool, error) {
	query := `INSERT INTO channels (` + channelColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (id) DO NOTHING`
	tag, err := r.db.Exec(ctx, query, c.ID, c.ParticipantA, c.ParticipantB, c.OrderID, c.CreatedAt, c.LastMessageAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *channelRepo) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	c, err := scanChannel(r.db.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

func (r *channelRepo) ListByParticipant(ctx context.Context, participantID string) ([]domain.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels
              WHERE participant_a = $1 OR participant_b = $1
              ORDER BY last_message_at DESC, id`
	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, rows.Err()
}

// TouchLastMessage never moves last_message_at backwards.
func (r *channelRepo) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE channels SET last_message_at = GREATEST(last_message_at, $2) WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
