package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/security"

	"github.com/google/uuid"
)

type channelUsecase struct {
	channelRepo domain.ChannelRepository
	messageRepo domain.MessageRepository
	orderRepo   domain.OrderRepository
}

func NewChannelUsecase(channelRepo domain.ChannelRepository, messageRepo domain.MessageRepository, orderRepo domain.OrderRepository) domain.ChannelUsecase {
	return &channelUsecase{
		channelRepo: channelRepo,
		messageRepo: messageRepo,
		orderRepo:   orderRepo,
	}
}

// Resolve is the idempotent get-or-create of the pair's channel. Only the
// buyer side may create it; the provider side gets ChannelNotReady until then.
func (u *channelUsecase) Resolve(ctx context.Context, p *domain.Principal, pair domain.ChannelPair) (*domain.Channel, error) {
	if err := authorize(ctx, access.Members, p, "channels"); err != nil {
		return nil, err
	}

	id, err := domain.ChannelID(pair.BuyerID, pair.ProviderID)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if pair.BuyerID == pair.ProviderID {
		return nil, apperror.Validation("A channel needs two distinct participants")
	}

	isBuyer := p.ID == pair.BuyerID
	if !isBuyer && p.ID != pair.ProviderID && !p.IsAdmin() {
		security.DefaultLogger().LogForbiddenParty(ctx, p.ID, "channel:"+id)
		return nil, apperror.Forbidden("You are not a participant of this channel")
	}

	existing, err := u.channelRepo.GetByID(ctx, id)
	if err == nil {
		if isBuyer {
			if err := u.ensureOpening(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, storeError(err)
	}
	if !isBuyer {
		return nil, apperror.ChannelNotReady("The buyer has not opened this conversation yet")
	}

	now := time.Now().UTC()
	a, b := pair.BuyerID, pair.ProviderID
	if b < a {
		a, b = b, a
	}
	channel := &domain.Channel{
		ID:            id,
		ParticipantA:  a,
		ParticipantB:  b,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if pair.OrderID != "" {
		orderID := pair.OrderID
		channel.OrderID = &orderID
	}

	created, err := u.channelRepo.CreateIfAbsent(ctx, channel)
	if err != nil {
		return nil, storeError(err)
	}
	if !created {
		// Lost the race to another resolve of the same pair
		channel, err = u.channelRepo.GetByID(ctx, id)
		if err != nil {
			return nil, storeError(err)
		}
	}
	if err := u.ensureOpening(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// ensureOpening writes the opening system message unless the channel already
// has one. A failed write leaves the channel without it, so the buyer's next
// resolve writes it then. The id is derived from the channel id, which keeps
// concurrent writers from storing it twice.
func (u *channelUsecase) ensureOpening(ctx context.Context, channel *domain.Channel) error {
	history, err := u.messageRepo.ListByChannel(ctx, channel.ID)
	if err != nil {
		return storeError(err)
	}
	for _, m := range history {
		if m.Kind == domain.MessageKindSystem {
			return nil
		}
	}

	orderID := ""
	if channel.OrderID != nil {
		orderID = *channel.OrderID
	}
	welcome := &domain.Message{
		ID:        openingMessageID(channel.ID),
		ChannelID: channel.ID,
		SenderID:  domain.SystemSenderID,
		Body:      openingMessage(orderID),
		Kind:      domain.MessageKindSystem,
		SentAt:    time.Now().UTC(),
	}
	if err := u.messageRepo.Append(ctx, welcome); err != nil && !errors.Is(err, domain.ErrConflict) {
		return storeError(err)
	}
	return nil
}

func openingMessageID(channelID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("herbal-market:channel-opening:"+channelID)).String()
}

func openingMessage(orderID string) string {
	if orderID == "" {
		return "Conversation opened. Use this channel to coordinate care details and delivery."
	}
	return fmt.Sprintf("Conversation opened for order %s. Use this channel to coordinate care details and delivery.", orderID)
}

// ResolveForOrder resolves the channel between the two parties of an order.
func (u *channelUsecase) ResolveForOrder(ctx context.Context, p *domain.Principal, orderID string) (*domain.Channel, error) {
	if err := authorize(ctx, access.Members, p, "channels"); err != nil {
		return nil, err
	}
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "Order not found")
	}
	if len(domain.PartiesOf(order, p)) == 0 {
		security.DefaultLogger().LogForbiddenParty(ctx, p.ID, "order:"+orderID)
		return nil, apperror.Forbidden("You are not a party to this order")
	}
	return u.Resolve(ctx, p, domain.ChannelPair{
		BuyerID:    order.BuyerID,
		ProviderID: order.ProviderID,
		OrderID:    order.ID,
	})
}

func (u *channelUsecase) Get(ctx context.Context, p *domain.Principal, channelID string) (*domain.Channel, error) {
	if err := authorize(ctx, access.Members, p, "channels"); err != nil {
		return nil, err
	}
	channel, err := u.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, lookupError(err, "Channel not found")
	}
	if !channel.HasParticipant(p.ID) && !p.IsAdmin() {
		security.DefaultLogger().LogForbiddenParty(ctx, p.ID, "channel:"+channelID)
		return nil, apperror.Forbidden("You are not a participant of this channel")
	}
	return channel, nil
}

// ListInbox returns the caller's channels, most recently active first.
func (u *channelUsecase) ListInbox(ctx context.Context, p *domain.Principal) ([]domain.Channel, error) {
	if err := authorize(ctx, access.Members, p, "channels"); err != nil {
		return nil, err
	}
	channels, err := u.channelRepo.ListByParticipant(ctx, p.ID)
	if err != nil {
		return nil, storeError(err)
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	return channels, nil
}
