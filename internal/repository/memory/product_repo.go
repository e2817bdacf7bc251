package memory

import (
	"context"
	"sort"

	"herbal-market-backend/internal/domain"
)

type productRepo struct {
	s *Store
}

func NewProductRepository(s *Store) domain.ProductRepository {
	return &productRepo{s: s}
}

func cloneProduct(p domain.Product) domain.Product {
	p.CareTags = append([]string(nil), p.CareTags...)
	return p
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpProductCreate); err != nil {
		return err
	}
	r.s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *productRepo) ListByProvider(ctx context.Context, providerID string) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var products []domain.Product
	for _, p := range r.s.products {
		if p.ProviderID == providerID {
			products = append(products, cloneProduct(p))
		}
	}
	sortProductsNewestFirst(products)
	return products, nil
}

func (r *productRepo) ListAvailable(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []domain.Product
	for _, p := range r.s.products {
		if !p.IsAvailable {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	sortProductsNewestFirst(matched)
	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func sortProductsNewestFirst(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
