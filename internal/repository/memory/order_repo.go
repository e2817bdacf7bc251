package memory

import (
	"context"
	"sort"
	"time"

	"herbal-market-backend/internal/domain"
)

type orderRepo struct {
	s *Store
}

func NewOrderRepository(s *Store) domain.OrderRepository {
	return &orderRepo{s: s}
}

// withTitle must be called with the read lock held.
func (r *orderRepo) withTitle(o domain.Order) domain.Order {
	if p, ok := r.s.products[o.ProductID]; ok {
		title := p.Title
		o.ProductTitle = &title
	}
	return o
}

func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpOrderCreate); err != nil {
		return err
	}
	stored := *o
	stored.ProductTitle = nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.fault(OpOrderGet); err != nil {
		return nil, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o = r.withTitle(o)
	return &o, nil
}

func (r *orderRepo) collect(keep func(domain.Order) bool) []domain.Order {
	var orders []domain.Order
	for _, o := range r.s.orders {
		if keep(o) {
			orders = append(orders, r.withTitle(o))
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(o domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r *orderRepo) ListByProvider(ctx context.Context, providerID string, status domain.FulfillmentStatus) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(o domain.Order) bool {
		return o.ProviderID == providerID && (status == "" || o.FulfillmentStatus == status)
	}), nil
}

func (r *orderRepo) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	orders := r.collect(func(o domain.Order) bool {
		return filter.Status == "" || o.FulfillmentStatus == filter.Status
	})
	return paginate(orders, filter.Limit, filter.Offset), int64(len(orders)), nil
}

func (r *orderRepo) Stats(ctx context.Context) (*domain.OrderStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := &domain.OrderStats{
		ByFulfillment: make(map[domain.FulfillmentStatus]int64),
		ByPayment:     make(map[domain.PaymentStatus]int64),
	}
	for _, o := range r.s.orders {
		stats.Total++
		stats.ByFulfillment[o.FulfillmentStatus]++
		stats.ByPayment[o.PaymentStatus]++
	}
	return stats, nil
}

func (r *orderRepo) CommittedQuantity(ctx context.Context, productID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.fault(OpCommittedQuantity); err != nil {
		return 0, err
	}
	total := 0
	for _, o := range r.s.orders {
		if o.ProductID == productID && o.FulfillmentStatus != domain.FulfillmentCancelled {
			total += o.Quantity
		}
	}
	return total, nil
}

func (r *orderRepo) UpdateFulfillment(ctx context.Context, id string, from, to domain.FulfillmentStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpUpdateFulfillment); err != nil {
		return err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.FulfillmentStatus != from {
		return domain.ErrConflict
	}
	o.FulfillmentStatus = to
	o.LastUpdatedAt = at
	r.s.orders[id] = o
	return nil
}

func (r *orderRepo) UpdatePayment(ctx context.Context, id string, from, to domain.PaymentStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpUpdatePayment); err != nil {
		return err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.PaymentStatus != from {
		return domain.ErrConflict
	}
	o.PaymentStatus = to
	o.LastUpdatedAt = at
	r.s.orders[id] = o
	return nil
}
