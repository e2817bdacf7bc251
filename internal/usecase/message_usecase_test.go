package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/repository/memory"
	"herbal-market-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChannel(t *testing.T, f *fixture) string {
	t.Helper()
	order := f.order(t, 1)
	channel, err := f.channels.ResolveForOrder(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	return channel.ID
}

type recorder struct {
	mu    sync.Mutex
	lists [][]domain.Message
}

func (r *recorder) listen(messages []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, messages)
}

func (r *recorder) last() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists[len(r.lists)-1]
}

func TestMessageSend(t *testing.T) {
	ctx := context.Background()

	t.Run("Should forbid a sender outside the channel", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		_, err := f.messages.Send(ctx, outsider, channelID, "hi")
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should forbid admins from posting into a private thread", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		_, err := f.messages.Send(ctx, admin, channelID, "hi")
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should fail for an unknown channel", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.messages.Send(ctx, buyer, "p1_u1", "hi")
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("Should validate the body", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		_, err := f.messages.Send(ctx, buyer, channelID, "   ")
		requireKind(t, err, apperror.KindValidation)
		_, err = f.messages.Send(ctx, buyer, channelID, strings.Repeat("a", domain.MaxMessageLength+1))
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("Should check access before validating the body", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		_, err := f.messages.Send(ctx, outsider, channelID, "")
		requireKind(t, err, apperror.KindForbidden)
		_, err = f.messages.Send(ctx, nil, channelID, "")
		requireKind(t, err, apperror.KindUnauthorized)
	})

	t.Run("Should keep sentAt strictly increasing", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		for i := 0; i < 20; i++ {
			sender := buyer
			if i%2 == 1 {
				sender = provider
			}
			_, err := f.messages.Send(ctx, sender, channelID, "ping")
			require.NoError(t, err)
		}

		history, err := f.messages.History(ctx, buyer, channelID)
		require.NoError(t, err)
		require.Len(t, history, 21)
		for i := 1; i < len(history); i++ {
			assert.True(t, history[i].SentAt.After(history[i-1].SentAt))
		}
	})

	t.Run("Should tolerate a failed lastMessageAt bump", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)
		f.store.InjectFault(memory.OpChannelTouch, errors.New("timeout"))

		msg, err := f.messages.Send(ctx, buyer, channelID, "still delivered")
		require.NoError(t, err)
		assert.Equal(t, buyer.ID, msg.SenderID)
	})

	t.Run("Should surface a failed append", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)
		f.store.InjectFault(memory.OpMessageAppend, errors.New("unavailable"))

		_, err := f.messages.Send(ctx, buyer, channelID, "lost")
		requireKind(t, err, apperror.KindStore)
	})
}

func TestMessageSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("Should observe a sent message exactly once", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		rec := &recorder{}
		unsubscribe, err := f.messages.Subscribe(ctx, provider, channelID, rec.listen)
		require.NoError(t, err)
		defer unsubscribe()

		sent, err := f.messages.Send(ctx, buyer, channelID, "Can you come Friday?")
		require.NoError(t, err)

		latest := rec.last()
		count := 0
		for _, m := range latest {
			if m.ID == sent.ID {
				count++
				assert.Equal(t, buyer.ID, m.SenderID)
				assert.Equal(t, "Can you come Friday?", m.Body)
			}
		}
		assert.Equal(t, 1, count)
		for i := 1; i < len(latest); i++ {
			assert.True(t, latest[i].SentAt.After(latest[i-1].SentAt))
		}
	})

	t.Run("Should deliver the current list immediately", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		rec := &recorder{}
		unsubscribe, err := f.messages.Subscribe(ctx, buyer, channelID, rec.listen)
		require.NoError(t, err)
		defer unsubscribe()

		require.Len(t, rec.lists, 1)
		assert.Len(t, rec.last(), 1)
	})

	t.Run("Should stop after unsubscribe", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		rec := &recorder{}
		unsubscribe, err := f.messages.Subscribe(ctx, buyer, channelID, rec.listen)
		require.NoError(t, err)
		unsubscribe()

		_, err = f.messages.Send(ctx, provider, channelID, "hello")
		require.NoError(t, err)
		assert.Len(t, rec.lists, 1)
		assert.Equal(t, 0, f.hub.Listeners(channelID))
	})

	t.Run("Should refuse subscribers outside the channel", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)

		_, err := f.messages.Subscribe(ctx, outsider, channelID, func([]domain.Message) {})
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should push read receipts", func(t *testing.T) {
		f := newFixture(t)
		channelID := openChannel(t, f)
		_, err := f.messages.Send(ctx, buyer, channelID, "one")
		require.NoError(t, err)
		_, err = f.messages.Send(ctx, buyer, channelID, "two")
		require.NoError(t, err)

		rec := &recorder{}
		unsubscribe, err := f.messages.Subscribe(ctx, buyer, channelID, rec.listen)
		require.NoError(t, err)
		defer unsubscribe()

		n, err := f.messages.MarkRead(ctx, provider, channelID)
		require.NoError(t, err)
		// the system message and both texts are from someone else
		assert.Equal(t, int64(3), n)
		assert.Len(t, rec.lists, 2)
		for _, m := range rec.last() {
			assert.True(t, m.IsRead)
		}
	})
}
