package usecase_test

import (
	"context"
	"testing"
	"time"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/repository/memory"
	"herbal-market-backend/internal/stream"
	"herbal-market-backend/internal/usecase"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	buyer    = &domain.Principal{ID: "u1", Role: domain.RoleUser}
	provider = &domain.Principal{ID: "p1", Role: domain.RolePlanter}
	outsider = &domain.Principal{ID: "x1", Role: domain.RoleUser}
	admin    = &domain.Principal{ID: "a1", Role: domain.RoleAdmin}
	gateway  = &domain.Principal{ID: domain.PaymentCallbackID, Role: domain.RoleSystem}
)

type fixture struct {
	store    *memory.Store
	orders   domain.OrderRepository
	hub      *stream.Hub
	identity domain.IdentityUsecase
	catalog  domain.CatalogUsecase
	ordering domain.OrderUsecase
	export   domain.OrderExportUsecase
	channels domain.ChannelUsecase
	messages domain.MessageUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	productRepo := memory.NewProductRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	channelRepo := memory.NewChannelRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	hub := stream.NewHub(messageRepo.ListByChannel)

	ordering := usecase.NewOrderUsecase(orderRepo, productRepo)
	return &fixture{
		store:    store,
		orders:   orderRepo,
		hub:      hub,
		identity: usecase.NewIdentityUsecase(userRepo),
		catalog:  usecase.NewCatalogUsecase(productRepo, validation.New()),
		ordering: ordering,
		export:   usecase.NewOrderExportUsecase(ordering),
		channels: usecase.NewChannelUsecase(channelRepo, messageRepo, orderRepo),
		messages: usecase.NewMessageUsecase(messageRepo, channelRepo, hub, hub),
	}
}

func (f *fixture) listing(t *testing.T, price int64, capacity int) *domain.Product {
	t.Helper()
	product, err := f.catalog.Create(context.Background(), provider, domain.ProductDraft{
		Title:     "Monstera repotting",
		UnitPrice: decimal.NewFromInt(price),
		Unit:      "pot",
		Capacity:  capacity,
		Category:  "repotting",
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) order(t *testing.T, quantity int) *domain.Order {
	t.Helper()
	product := f.listing(t, 15000, 10)
	order, err := f.ordering.Create(context.Background(), buyer, product.ID, quantity)
	require.NoError(t, err)
	return order
}

// seedOrder stores an order directly in the given fulfillment state.
func (f *fixture) seedOrder(t *testing.T, id string, status domain.FulfillmentStatus) *domain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &domain.Order{
		ID:                id,
		ProductID:         "prod-" + id,
		BuyerID:           buyer.ID,
		ProviderID:        provider.ID,
		Quantity:          1,
		UnitPriceSnapshot: decimal.NewFromInt(100),
		TotalPrice:        decimal.NewFromInt(100),
		FulfillmentStatus: status,
		PaymentStatus:     domain.PaymentPending,
		CreatedAt:         now,
		LastUpdatedAt:     now,
	}
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}
