package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// ChannelIDSeparator joins the sorted participant ids. Participant ids must
// not contain it; uuid subjects never do.
const ChannelIDSeparator = "_"

var ErrInvalidParticipant = errors.New("participant id must be non-empty and must not contain " + ChannelIDSeparator)

// Channel is the persisted header of a two-party message thread.
type Channel struct {
	ID            string    `json:"id" validate:"required"`
	ParticipantA  string    `json:"participant_a" validate:"required"`
	ParticipantB  string    `json:"participant_b" validate:"required"`
	OrderID       *string   `json:"order_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// ChannelID derives the channel id of an unordered participant pair.
// ChannelID(a, b) == ChannelID(b, a) for every a, b.
func ChannelID(a, b string) (string, error) {
	for _, id := range []string{a, b} {
		if id == "" || strings.Contains(id, ChannelIDSeparator) {
			return "", ErrInvalidParticipant
		}
	}
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ChannelIDSeparator), nil
}

func (c *Channel) HasParticipant(id string) bool {
	return id != "" && (id == c.ParticipantA || id == c.ParticipantB)
}

// Counterpart returns the other participant of the channel.
func (c *Channel) Counterpart(id string) string {
	if id == c.ParticipantA {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// ChannelPair is the known buyer/provider relationship a channel is resolved in.
// The buyer side is the conventional initiator.
type ChannelPair struct {
	BuyerID    string
	ProviderID string
	OrderID    string
}

type ChannelRepository interface {
	// CreateIfAbsent inserts the channel unless its id already exists.
	// created is false when another writer got there first.
	CreateIfAbsent(ctx context.Context, c *Channel) (created bool, err error)
	GetByID(ctx context.Context, id string) (*Channel, error)
	ListByParticipant(ctx context.Context, participantID string) ([]Channel, error)
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
}

type ChannelUsecase interface {
	Resolve(ctx context.Context, p *Principal, pair ChannelPair) (*Channel, error)
	ResolveForOrder(ctx context.Context, p *Principal, orderID string) (*Channel, error)
	Get(ctx context.Context, p *Principal, channelID string) (*Channel, error)
	ListInbox(ctx context.Context, p *Principal) ([]Channel, error)
}
