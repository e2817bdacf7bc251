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
	"herbal-market-backend/pkg/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var orderTracer = telemetry.Tracer("usecase/order")

type orderUsecase struct {
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
}

func NewOrderUsecase(orderRepo domain.OrderRepository, productRepo domain.ProductRepository) domain.OrderUsecase {
	return &orderUsecase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.KindOf(err)))
	}
	span.End()
}

// Create places an order against an available product. Capacity is checked
// against the committed quantity at read time only; nothing is reserved.
func (u *orderUsecase) Create(ctx context.Context, p *domain.Principal, productID string, quantity int) (order *domain.Order, err error) {
	ctx, span := orderTracer.Start(ctx, "order.create", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("order.quantity", quantity),
	))
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, access.Members, p, "orders"); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, apperror.InvalidQuantity("Quantity must be greater than 0")
	}

	product, err := u.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, lookupError(err, "Product not found")
	}
	if product.ProviderID == p.ID {
		return nil, apperror.Validation("You cannot order your own listing")
	}
	if !product.IsAvailable {
		return nil, apperror.Unavailable("Product is not available")
	}

	committed, err := u.orderRepo.CommittedQuantity(ctx, product.ID)
	if err != nil {
		return nil, storeError(err)
	}
	if remaining := product.Capacity - committed; quantity > remaining {
		if remaining < 0 {
			remaining = 0
		}
		return nil, apperror.Unavailable(fmt.Sprintf("Only %d %s remaining", remaining, product.Unit))
	}

	now := time.Now().UTC()
	order = &domain.Order{
		ID:                uuid.NewString(),
		ProductID:         product.ID,
		BuyerID:           p.ID,
		ProviderID:        product.ProviderID,
		Quantity:          quantity,
		UnitPriceSnapshot: product.UnitPrice,
		TotalPrice:        product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		FulfillmentStatus: domain.FulfillmentPending,
		PaymentStatus:     domain.PaymentPending,
		CreatedAt:         now,
		LastUpdatedAt:     now,
	}
	if err := u.orderRepo.Create(ctx, order); err != nil {
		return nil, storeError(err)
	}
	order.ProductTitle = &product.Title
	span.SetAttributes(attribute.String("order.id", order.ID))
	return order, nil
}

// Get returns an order to its parties and to admins.
func (u *orderUsecase) Get(ctx context.Context, p *domain.Principal, orderID string) (*domain.Order, error) {
	if err := authorize(ctx, access.Members, p, "orders"); err != nil {
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
	return order, nil
}

// Transition moves the fulfillment axis. The write is conditional on the
// status that was read; after a lost race the fresh order is judged again.
func (u *orderUsecase) Transition(ctx context.Context, p *domain.Principal, orderID string, target domain.FulfillmentStatus) (order *domain.Order, err error) {
	ctx, span := orderTracer.Start(ctx, "order.transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.target", string(target)),
	))
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, access.Members, p, "orders"); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("Unknown fulfillment status: %s", target))
	}

	for attempt := 0; attempt < len(domain.FulfillmentStatuses); attempt++ {
		order, err = u.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return nil, lookupError(err, "Order not found")
		}

		parties := domain.PartiesOf(order, p)
		if len(parties) == 0 {
			security.DefaultLogger().LogForbiddenParty(ctx, p.ID, "order:"+orderID)
			return nil, apperror.Forbidden("You are not a party to this order")
		}

		current := order.FulfillmentStatus
		// A retried transition that already happened is a no-op. Cancelled
		// stays a sink, so a repeated cancel is still rejected.
		if current == target && target != domain.FulfillmentCancelled && domain.CanReach(target, parties...) {
			return order, nil
		}
		if !domain.CanTransition(current, target, parties...) {
			security.DefaultLogger().LogIllegalTransition(ctx, p.ID, orderID, string(current), string(target))
			return nil, apperror.IllegalTransition(fmt.Sprintf("Cannot move order from %s to %s", current, target))
		}

		now := time.Now().UTC()
		err = u.orderRepo.UpdateFulfillment(ctx, orderID, current, target, now)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, lookupError(err, "Order not found")
		}

		order.FulfillmentStatus = target
		order.LastUpdatedAt = now
		return order, nil
	}

	return nil, apperror.Store(errors.New("order kept changing during transition"))
}

func (u *orderUsecase) MarkPaid(ctx context.Context, p *domain.Principal, orderID string) (*domain.Order, error) {
	return u.settle(ctx, p, orderID, domain.PaymentPaid)
}

func (u *orderUsecase) MarkFailed(ctx context.Context, p *domain.Principal, orderID string) (*domain.Order, error) {
	return u.settle(ctx, p, orderID, domain.PaymentFailed)
}

// settle records a payment outcome reported by a trusted caller. Repeating
// the outcome already recorded is a no-op.
func (u *orderUsecase) settle(ctx context.Context, p *domain.Principal, orderID string, target domain.PaymentStatus) (order *domain.Order, err error) {
	ctx, span := orderTracer.Start(ctx, "order.settle", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("payment.target", string(target)),
	))
	defer func() { endSpan(span, err) }()

	if err := authorize(ctx, access.Payments, p, "payments"); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		order, err = u.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return nil, lookupError(err, "Order not found")
		}

		current := order.PaymentStatus
		if current == target {
			return order, nil
		}
		if !domain.CanTransitionPayment(current, target) {
			return nil, apperror.IllegalTransition(fmt.Sprintf("Cannot move payment from %s to %s", current, target))
		}

		now := time.Now().UTC()
		err = u.orderRepo.UpdatePayment(ctx, orderID, current, target, now)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, lookupError(err, "Order not found")
		}

		security.DefaultLogger().LogPaymentRecorded(ctx, p.ID, orderID, string(target))
		order.PaymentStatus = target
		order.LastUpdatedAt = now
		return order, nil
	}

	return nil, apperror.Store(errors.New("payment kept changing during update"))
}

// ListForBuyer returns the caller's purchases, newest first.
func (u *orderUsecase) ListForBuyer(ctx context.Context, p *domain.Principal) ([]domain.Order, error) {
	if err := authorize(ctx, access.Members, p, "orders"); err != nil {
		return nil, err
	}
	orders, err := u.orderRepo.ListByBuyer(ctx, p.ID)
	if err != nil {
		return nil, storeError(err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// ListForProvider is the provider order queue with an optional status filter.
func (u *orderUsecase) ListForProvider(ctx context.Context, p *domain.Principal, status domain.FulfillmentStatus) ([]domain.Order, error) {
	if err := authorize(ctx, access.Providers, p, "provider_orders"); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("Unknown fulfillment status: %s", status))
	}
	orders, err := u.orderRepo.ListByProvider(ctx, p.ID, status)
	if err != nil {
		return nil, storeError(err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// AdminList returns every order, paginated
func (u *orderUsecase) AdminList(ctx context.Context, p *domain.Principal, status domain.FulfillmentStatus, page, pageSize int) (*domain.PaginatedResult[domain.Order], error) {
	if err := authorize(ctx, access.Admins, p, "admin_orders"); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("Unknown fulfillment status: %s", status))
	}

	page, pageSize, offset := domain.NormalizePage(page, pageSize)
	orders, total, err := u.orderRepo.List(ctx, domain.OrderFilter{Status: status, Limit: pageSize, Offset: offset})
	if err != nil {
		return nil, storeError(err)
	}
	return domain.NewPaginatedResult(orders, total, page, pageSize), nil
}

// AdminStats counts orders on both axes. Every known status is present.
func (u *orderUsecase) AdminStats(ctx context.Context, p *domain.Principal) (*domain.OrderStats, error) {
	if err := authorize(ctx, access.Admins, p, "admin_orders"); err != nil {
		return nil, err
	}
	stats, err := u.orderRepo.Stats(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if stats.ByFulfillment == nil {
		stats.ByFulfillment = make(map[domain.FulfillmentStatus]int64)
	}
	if stats.ByPayment == nil {
		stats.ByPayment = make(map[domain.PaymentStatus]int64)
	}
	for _, s := range domain.FulfillmentStatuses {
		stats.ByFulfillment[s] += 0
	}
	for _, s := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentPaid, domain.PaymentFailed} {
		stats.ByPayment[s] += 0
	}
	return stats, nil
}
