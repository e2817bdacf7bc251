package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentConfirmed  FulfillmentStatus = "confirmed"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
)

// FulfillmentStatuses lists every fulfillment state in lifecycle order.
var FulfillmentStatuses = []FulfillmentStatus{
	FulfillmentPending,
	FulfillmentConfirmed,
	FulfillmentProcessing,
	FulfillmentShipped,
	FulfillmentDelivered,
	FulfillmentCancelled,
}

func (s FulfillmentStatus) Valid() bool {
	for _, known := range FulfillmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Order is one purchase of a product by a buyer from a provider.
// Fulfillment and payment are independent axes.
type Order struct {
	ID                string            `json:"id" validate:"required"`
	ProductID         string            `json:"product_id" validate:"required"`
	BuyerID           string            `json:"buyer_id" validate:"required"`
	ProviderID        string            `json:"provider_id" validate:"required"`
	Quantity          int               `json:"quantity" validate:"gt=0"`
	UnitPriceSnapshot decimal.Decimal   `json:"unit_price_snapshot" validate:"gte=0"`
	TotalPrice        decimal.Decimal   `json:"total_price" validate:"gte=0"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	PaymentStatus     PaymentStatus     `json:"payment_status" validate:"required,oneof=pending paid failed"`
	CreatedAt         time.Time         `json:"created_at"`
	LastUpdatedAt     time.Time         `json:"last_updated_at"`

	// Joined for list views
	ProductTitle *string `json:"product_title,omitempty"`
}

// IsParty reports whether id is the buyer or the provider of the order.
func (o *Order) IsParty(id string) bool {
	return id != "" && (id == o.BuyerID || id == o.ProviderID)
}

// OrderStats counts orders per fulfillment status.
type OrderStats struct {
	Total         int64                       `json:"total"`
	ByFulfillment map[FulfillmentStatus]int64 `json:"by_fulfillment"`
	ByPayment     map[PaymentStatus]int64     `json:"by_payment"`
}

type OrderFilter struct {
	Status FulfillmentStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	ListByProvider(ctx context.Context, providerID string, status FulfillmentStatus) ([]Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	Stats(ctx context.Context) (*OrderStats, error)
	// CommittedQuantity sums quantities of the product's non-cancelled orders.
	CommittedQuantity(ctx context.Context, productID string) (int, error)
	// UpdateFulfillment sets the status only while it still equals from.
	// It returns ErrConflict when the precondition fails.
	UpdateFulfillment(ctx context.Context, id string, from, to FulfillmentStatus, at time.Time) error
	// UpdatePayment sets the status only while it still equals from.
	UpdatePayment(ctx context.Context, id string, from, to PaymentStatus, at time.Time) error
}

type OrderUsecase interface {
	Create(ctx context.Context, p *Principal, productID string, quantity int) (*Order, error)
	Get(ctx context.Context, p *Principal, orderID string) (*Order, error)
	Transition(ctx context.Context, p *Principal, orderID string, target FulfillmentStatus) (*Order, error)
	MarkPaid(ctx context.Context, p *Principal, orderID string) (*Order, error)
	MarkFailed(ctx context.Context, p *Principal, orderID string) (*Order, error)
	ListForBuyer(ctx context.Context, p *Principal) ([]Order, error)
	ListForProvider(ctx context.Context, p *Principal, status FulfillmentStatus) ([]Order, error)
	AdminList(ctx context.Context, p *Principal, status FulfillmentStatus, page, pageSize int) (*PaginatedResult[Order], error)
	AdminStats(ctx context.Context, p *Principal) (*OrderStats, error)
}

// ExportColumns are the columns of a provider order queue export, in order.
var ExportColumns = []string{
	"order_id", "product", "buyer_id", "quantity", "unit_price",
	"total_price", "fulfillment_status", "payment_status", "created_at",
}

type OrderExportUsecase interface {
	ExportProviderQueue(ctx context.Context, p *Principal, status FulfillmentStatus, format string) ([]byte, string, error)
}
