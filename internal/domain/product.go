package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a service listing owned by a planter.
type Product struct {
	ID          string          `json:"id" validate:"required"`
	ProviderID  string          `json:"provider_id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Unit        string          `json:"unit" validate:"required"`
	Capacity    int             `json:"capacity" validate:"gte=0"`
	Category    string          `json:"category"`
	CareTags    []string        `json:"care_tags"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductDraft is the provider input for a new listing.
// A nil IsAvailable means available.
type ProductDraft struct {
	Title       string          `json:"title" validate:"required,min=3,max=120,valid_title,no_emoji"`
	Description string          `json:"description" validate:"max=2000"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Unit        string          `json:"unit" validate:"required,valid_unit"`
	Capacity    int             `json:"capacity" validate:"gte=0"`
	Category    string          `json:"category" validate:"max=60"`
	CareTags    []string        `json:"care_tags" validate:"max=10,dive,min=1,max=30"`
	IsAvailable *bool           `json:"is_available"`
}

type ProductFilter struct {
	Category string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	ListByProvider(ctx context.Context, providerID string) ([]Product, error)
	ListAvailable(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
}

type CatalogUsecase interface {
	Create(ctx context.Context, p *Principal, draft ProductDraft) (*Product, error)
	ListByProvider(ctx context.Context, p *Principal) ([]Product, error)
	ListAvailable(ctx context.Context, category string, page, pageSize int) (*PaginatedResult[Product], error)
	Get(ctx context.Context, id string) (*Product, error)
}
