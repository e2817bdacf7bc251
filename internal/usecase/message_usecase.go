package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/logger"
	"herbal-market-backend/pkg/security"
	"herbal-market-backend/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var messageTracer = telemetry.Tracer("usecase/message")

type messageUsecase struct {
	messageRepo domain.MessageRepository
	channelRepo domain.ChannelRepository
	publisher   domain.StreamPublisher
	subscriber  domain.StreamSubscriber
}

func NewMessageUsecase(
	messageRepo domain.MessageRepository,
	channelRepo domain.ChannelRepository,
	publisher domain.StreamPublisher,
	subscriber domain.StreamSubscriber,
) domain.MessageUsecase {
	return &messageUsecase{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		publisher:   publisher,
		subscriber:  subscriber,
	}
}

// participantChannel loads the channel and requires p to be one of its two participants.
func (u *messageUsecase) participantChannel(ctx context.Context, p *domain.Principal, channelID string) (*domain.Channel, error) {
	if err := authorize(ctx, access.Members, p, "messages"); err != nil {
		return nil, err
	}
	channel, err := u.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, lookupError(err, "Channel not found")
	}
	if !channel.HasParticipant(p.ID) {
		security.DefaultLogger().LogForbiddenParty(ctx, p.ID, "channel:"+channelID)
		return nil, apperror.Forbidden("You are not a participant of this channel")
	}
	return channel, nil
}

func (u *messageUsecase) Send(ctx context.Context, p *domain.Principal, channelID, body string) (msg *domain.Message, err error) {
	ctx, span := messageTracer.Start(ctx, "message.send", trace.WithAttributes(
		attribute.String("channel.id", channelID),
	))
	defer func() { endSpan(span, err) }()

	channel, err := u.participantChannel(ctx, p, channelID)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.Validation("Message: is required")
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageLength {
		return nil, apperror.Validation(fmt.Sprintf("Message: must be at most %d characters", domain.MaxMessageLength))
	}

	msg = &domain.Message{
		ID:        uuid.NewString(),
		ChannelID: channel.ID,
		SenderID:  p.ID,
		Body:      body,
		Kind:      domain.MessageKindText,
		SentAt:    time.Now().UTC(),
	}
	if err := u.messageRepo.Append(ctx, msg); err != nil {
		return nil, storeError(err)
	}

	// lastMessageAt only orders the inbox; a failed bump leaves it stale
	if err := u.channelRepo.TouchLastMessage(ctx, channel.ID, msg.SentAt); err != nil {
		logger.Log.Warn("channel last_message_at not updated", "channel_id", channel.ID, "error", err)
	}
	u.publish(ctx, channel.ID)
	return msg, nil
}

func (u *messageUsecase) publish(ctx context.Context, channelID string) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, channelID); err != nil {
		logger.Log.Warn("stream publish failed", "channel_id", channelID, "error", err)
	}
}

// History returns the channel's messages ordered by sentAt.
func (u *messageUsecase) History(ctx context.Context, p *domain.Principal, channelID string) ([]domain.Message, error) {
	if _, err := u.participantChannel(ctx, p, channelID); err != nil {
		return nil, err
	}
	messages, err := u.messageRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, storeError(err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// MarkRead marks the counterpart's messages as read and returns how many changed.
func (u *messageUsecase) MarkRead(ctx context.Context, p *domain.Principal, channelID string) (int64, error) {
	if _, err := u.participantChannel(ctx, p, channelID); err != nil {
		return 0, err
	}
	n, err := u.messageRepo.MarkRead(ctx, channelID, p.ID)
	if err != nil {
		return 0, storeError(err)
	}
	if n > 0 {
		u.publish(ctx, channelID)
	}
	return n, nil
}

// Subscribe delivers the current list to onChange, then the full list after
// every change until the returned function is called.
func (u *messageUsecase) Subscribe(ctx context.Context, p *domain.Principal, channelID string, onChange domain.Listener) (func(), error) {
	if onChange == nil {
		return nil, apperror.Validation("Listener is required")
	}
	if _, err := u.participantChannel(ctx, p, channelID); err != nil {
		return nil, err
	}
	unsubscribe, err := u.subscriber.Subscribe(ctx, channelID, onChange)
	if err != nil {
		return nil, storeError(err)
	}
	return unsubscribe, nil
}
