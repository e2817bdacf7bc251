package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/repository/memory"
	"herbal-market-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemMessages(messages []domain.Message) int {
	n := 0
	for _, m := range messages {
		if m.Kind == domain.MessageKindSystem {
			n++
		}
	}
	return n
}

func TestChannelResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Should resolve the same channel for both parties", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		fromBuyer, err := f.channels.ResolveForOrder(ctx, buyer, order.ID)
		require.NoError(t, err)
		fromProvider, err := f.channels.ResolveForOrder(ctx, provider, order.ID)
		require.NoError(t, err)

		assert.Equal(t, "p1_u1", fromBuyer.ID)
		assert.Equal(t, fromBuyer.ID, fromProvider.ID)
		assert.Equal(t, "p1", fromBuyer.ParticipantA)
		assert.Equal(t, "u1", fromBuyer.ParticipantB)
		require.NotNil(t, fromBuyer.OrderID)
		assert.Equal(t, order.ID, *fromBuyer.OrderID)
	})

	t.Run("Should make the provider wait for the buyer", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		_, err := f.channels.ResolveForOrder(ctx, provider, order.ID)
		requireKind(t, err, apperror.KindChannelNotReady)

		_, err = f.channels.Get(ctx, provider, "p1_u1")
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("Should write the opening system message once", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		for i := 0; i < 3; i++ {
			_, err := f.channels.ResolveForOrder(ctx, buyer, order.ID)
			require.NoError(t, err)
		}

		history, err := f.messages.History(ctx, provider, "p1_u1")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.MessageKindSystem, history[0].Kind)
		assert.Equal(t, domain.SystemSenderID, history[0].SenderID)
	})

	t.Run("Should write the opening message on retry after a failed append", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		f.store.InjectFault(memory.OpMessageAppend, errors.New("unavailable"))
		_, err := f.channels.ResolveForOrder(ctx, buyer, order.ID)
		requireKind(t, err, apperror.KindStore)
		f.store.InjectFault(memory.OpMessageAppend, nil)

		channel, err := f.channels.ResolveForOrder(ctx, buyer, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "p1_u1", channel.ID)

		history, err := f.messages.History(ctx, provider, channel.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, systemMessages(history))

		_, err = f.channels.ResolveForOrder(ctx, buyer, order.ID)
		require.NoError(t, err)
		history, err = f.messages.History(ctx, provider, channel.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, systemMessages(history))
	})

	t.Run("Should create a single channel under concurrent resolves", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.channels.ResolveForOrder(ctx, buyer, order.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		history, err := f.messages.History(ctx, buyer, "p1_u1")
		require.NoError(t, err)
		assert.Equal(t, 1, systemMessages(history))
	})

	t.Run("Should forbid a third party", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)
		_, err := f.channels.ResolveForOrder(ctx, buyer, order.ID)
		require.NoError(t, err)

		_, err = f.channels.ResolveForOrder(ctx, outsider, order.ID)
		requireKind(t, err, apperror.KindForbidden)
		_, err = f.channels.Get(ctx, outsider, "p1_u1")
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should reject ids that cannot form a channel", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.channels.Resolve(ctx, buyer, domain.ChannelPair{BuyerID: buyer.ID, ProviderID: ""})
		requireKind(t, err, apperror.KindValidation)
		_, err = f.channels.Resolve(ctx, buyer, domain.ChannelPair{BuyerID: buyer.ID, ProviderID: "p_1"})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("Should list the inbox by latest activity", func(t *testing.T) {
		f := newFixture(t)
		first := f.order(t, 1)
		_, err := f.channels.ResolveForOrder(ctx, buyer, first.ID)
		require.NoError(t, err)

		second := &domain.Principal{ID: "p2", Role: domain.RolePlanter}
		_, err = f.channels.Resolve(ctx, buyer, domain.ChannelPair{BuyerID: buyer.ID, ProviderID: second.ID})
		require.NoError(t, err)

		_, err = f.messages.Send(ctx, provider, "p1_u1", "Thursday works for repotting")
		require.NoError(t, err)

		inbox, err := f.channels.ListInbox(ctx, buyer)
		require.NoError(t, err)
		require.Len(t, inbox, 2)
		assert.Equal(t, "p1_u1", inbox[0].ID)
		assert.Equal(t, "p2_u1", inbox[1].ID)
	})
}
