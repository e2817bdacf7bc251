// Package stream delivers live message lists to channel subscribers.
package stream

import (
	"context"
	"sync"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/logger"
)

// Loader returns the full ordered message list of a channel.
type Loader func(ctx context.Context, channelID string) ([]domain.Message, error)

// Hub keeps the listeners of every channel on this instance. It also
// satisfies domain.StreamPublisher for single instance deployments.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
	load  Loader
}

type room struct {
	// subscribers between lookup and registration; guarded by Hub.mu
	joining int

	// held while loading and delivering so each listener sees lists in order
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]domain.Listener
}

func NewHub(load Loader) *Hub {
	return &Hub{
		rooms: make(map[string]*room),
		load:  load,
	}
}

func (h *Hub) room(channelID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[channelID]
}

// join returns the channel's room and marks a subscriber as joining it, so
// prune keeps the room registered until the subscriber is in.
func (h *Hub) join(channelID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[channelID]
	if !ok {
		r = &room{listeners: make(map[uint64]domain.Listener)}
		h.rooms[channelID] = r
	}
	r.joining++
	return r
}

func (h *Hub) joined(r *room) {
	h.mu.Lock()
	r.joining--
	h.mu.Unlock()
}

// Subscribe registers fn and delivers the current list to it before returning.
// The returned function removes the listener and is safe to call more than once.
func (h *Hub) Subscribe(ctx context.Context, channelID string, fn domain.Listener) (func(), error) {
	r := h.join(channelID)

	r.mu.Lock()
	messages, err := h.load(ctx, channelID)
	if err != nil {
		r.mu.Unlock()
		h.joined(r)
		h.prune(channelID, r)
		return nil, err
	}
	r.nextID++
	id := r.nextID
	r.listeners[id] = fn
	fn(messages)
	r.mu.Unlock()
	h.joined(r)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
			h.prune(channelID, r)
		})
	}, nil
}

// prune drops an empty room so idle channels hold no memory. A room with a
// subscriber still joining stays registered.
func (h *Hub) prune(channelID string, r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.joining > 0 {
		return
	}

	r.mu.Lock()
	empty := len(r.listeners) == 0
	r.mu.Unlock()
	if empty && h.rooms[channelID] == r {
		delete(h.rooms, channelID)
	}
}

// Notify reloads the channel and hands the full list to every local listener.
// Channels without listeners on this instance are skipped without a read.
func (h *Hub) Notify(ctx context.Context, channelID string) error {
	r := h.room(channelID)
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.listeners) == 0 {
		return nil
	}

	messages, err := h.load(ctx, channelID)
	if err != nil {
		logger.Log.Warn("stream reload failed", "channel_id", channelID, "error", err)
		return err
	}
	for _, fn := range r.listeners {
		fn(messages)
	}
	return nil
}

// Publish notifies local listeners directly.
func (h *Hub) Publish(ctx context.Context, channelID string) error {
	return h.Notify(ctx, channelID)
}

// Listeners reports how many listeners a channel has on this instance.
func (h *Hub) Listeners(channelID string) int {
	r := h.room(channelID)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}
