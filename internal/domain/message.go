package domain

import (
	"context"
	"time"
)

type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindSystem MessageKind = "system"
)

// SystemSenderID is the sender of system-kind messages.
const SystemSenderID = "system"

// MaxMessageLength bounds a message body in characters.
const MaxMessageLength = 2000

// Message is an append-only entry of a channel, ordered by SentAt.
type Message struct {
	ID        string      `json:"id" validate:"required"`
	ChannelID string      `json:"channel_id" validate:"required"`
	SenderID  string      `json:"sender_id" validate:"required"`
	Body      string      `json:"body" validate:"required"`
	Kind      MessageKind `json:"kind" validate:"required,oneof=text system"`
	SentAt    time.Time   `json:"sent_at" validate:"required"`
	IsRead    bool        `json:"is_read"`
}

// Listener receives the full ordered message list of a channel.
type Listener func(messages []Message)

// StreamPublisher announces that a channel's message list changed.
type StreamPublisher interface {
	Publish(ctx context.Context, channelID string) error
}

// StreamSubscriber registers live listeners. The current list is delivered
// before Subscribe returns.
type StreamSubscriber interface {
	Subscribe(ctx context.Context, channelID string, fn Listener) (unsubscribe func(), err error)
}

type MessageRepository interface {
	// Append stores m. SentAt is clamped so it strictly increases within the
	// channel; the stored value is written back into m. An id that is
	// already stored in the channel returns ErrConflict.
	Append(ctx context.Context, m *Message) error
	ListByChannel(ctx context.Context, channelID string) ([]Message, error)
	// MarkRead marks every unread message of the channel not sent by readerID.
	MarkRead(ctx context.Context, channelID, readerID string) (int64, error)
}

type MessageUsecase interface {
	Send(ctx context.Context, p *Principal, channelID, body string) (*Message, error)
	History(ctx context.Context, p *Principal, channelID string) ([]Message, error)
	MarkRead(ctx context.Context, p *Principal, channelID string) (int64, error)
	Subscribe(ctx context.Context, p *Principal, channelID string, onChange Listener) (unsubscribe func(), err error)
}
