// Package memory keeps every repository in process memory. It backs the
// STORE_DRIVER=memory development mode and the usecase and router tests.
package memory

import (
	"sync"

	"herbal-market-backend/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	users    map[string]domain.Principal
	products map[string]domain.Product
	orders   map[string]domain.Order
	channels map[string]domain.Channel
	messages map[string][]domain.Message

	faults map[string]error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.Principal),
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
		channels: make(map[string]domain.Channel),
		messages: make(map[string][]domain.Message),
		faults:   make(map[string]error),
	}
}

// Operation names accepted by InjectFault.
const (
	OpUserCreate         = "users.create"
	OpSetOnboardingState = "users.onboarding"
	OpProductCreate      = "products.create"
	OpOrderCreate        = "orders.create"
	OpOrderGet           = "orders.get"
	OpCommittedQuantity  = "orders.committed"
	OpUpdateFulfillment  = "orders.update_fulfillment"
	OpUpdatePayment      = "orders.update_payment"
	OpChannelCreate      = "channels.create"
	OpChannelGet         = "channels.get"
	OpChannelTouch       = "channels.touch"
	OpMessageAppend      = "messages.append"
	OpMessageList        = "messages.list"
	OpMessageMarkRead    = "messages.mark_read"
)

// InjectFault makes every later call of op fail with err until cleared with a nil err.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// fault must be called with s.mu held.
func (s *Store) fault(op string) error {
	return s.faults[op]
}
