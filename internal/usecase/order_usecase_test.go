package usecase_test

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/repository/memory"
	"herbal-market-backend/internal/usecase"
	"herbal-market-backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should snapshot price and start both axes pending", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 15000, 10)

		order, err := f.ordering.Create(ctx, buyer, product.ID, 3)
		require.NoError(t, err)
		assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(45000)))
		assert.True(t, order.UnitPriceSnapshot.Equal(decimal.NewFromInt(15000)))
		assert.Equal(t, domain.FulfillmentPending, order.FulfillmentStatus)
		assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
		assert.Equal(t, buyer.ID, order.BuyerID)
		assert.Equal(t, provider.ID, order.ProviderID)
	})

	t.Run("Should reject non positive quantities", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 100, 10)

		for _, qty := range []int{0, -2} {
			_, err := f.ordering.Create(ctx, buyer, product.ID, qty)
			requireKind(t, err, apperror.KindInvalidQuantity)
		}
	})

	t.Run("Should fail for a missing product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ordering.Create(ctx, buyer, "missing", 1)
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("Should fail for an unavailable product", func(t *testing.T) {
		f := newFixture(t)
		off := false
		product, err := f.catalog.Create(ctx, provider, domain.ProductDraft{
			Title: "Bonsai styling", Unit: "session", Capacity: 5, IsAvailable: &off,
		})
		require.NoError(t, err)

		_, err = f.ordering.Create(ctx, buyer, product.ID, 1)
		requireKind(t, err, apperror.KindUnavailable)
	})

	t.Run("Should enforce the remaining capacity", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 100, 5)

		first, err := f.ordering.Create(ctx, buyer, product.ID, 4)
		require.NoError(t, err)

		_, err = f.ordering.Create(ctx, outsider, product.ID, 2)
		requireKind(t, err, apperror.KindUnavailable)

		// Cancelled orders release their quantity
		_, err = f.ordering.Transition(ctx, buyer, first.ID, domain.FulfillmentCancelled)
		require.NoError(t, err)
		_, err = f.ordering.Create(ctx, outsider, product.ID, 5)
		assert.NoError(t, err)
	})

	t.Run("Should make a zero capacity listing unorderable", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 100, 0)
		_, err := f.ordering.Create(ctx, buyer, product.ID, 1)
		requireKind(t, err, apperror.KindUnavailable)
	})

	t.Run("Should refuse an order on the caller's own listing", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 100, 5)
		_, err := f.ordering.Create(ctx, provider, product.ID, 1)
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("Should require a signed in principal", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 100, 5)
		_, err := f.ordering.Create(ctx, nil, product.ID, 1)
		requireKind(t, err, apperror.KindUnauthorized)
	})

	t.Run("Should surface store failures on write", func(t *testing.T) {
		f := newFixture(t)
		product := f.listing(t, 100, 5)
		f.store.InjectFault(memory.OpOrderCreate, errors.New("deadline exceeded"))

		_, err := f.ordering.Create(ctx, buyer, product.ID, 1)
		requireKind(t, err, apperror.KindStore)
	})
}

func TestOrderTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject confirmed to shipped", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 3)

		_, err := f.ordering.Transition(ctx, provider, order.ID, domain.FulfillmentConfirmed)
		require.NoError(t, err)

		_, err = f.ordering.Transition(ctx, provider, order.ID, domain.FulfillmentShipped)
		requireKind(t, err, apperror.KindIllegalTransition)

		stored, err := f.ordering.Get(ctx, buyer, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FulfillmentConfirmed, stored.FulfillmentStatus)
	})

	t.Run("Should walk the full lifecycle", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		steps := []struct {
			actor  *domain.Principal
			target domain.FulfillmentStatus
		}{
			{provider, domain.FulfillmentConfirmed},
			{provider, domain.FulfillmentProcessing},
			{provider, domain.FulfillmentShipped},
			{buyer, domain.FulfillmentDelivered},
		}
		for _, step := range steps {
			updated, err := f.ordering.Transition(ctx, step.actor, order.ID, step.target)
			require.NoError(t, err)
			assert.Equal(t, step.target, updated.FulfillmentStatus)
			assert.False(t, updated.LastUpdatedAt.Before(order.CreatedAt))
		}

		stored, err := f.ordering.Get(ctx, provider, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, stored.PaymentStatus)
	})

	t.Run("Should reject every pair missing from the table", func(t *testing.T) {
		f := newFixture(t)
		actors := map[domain.Party]*domain.Principal{
			domain.PartyBuyer:    buyer,
			domain.PartyProvider: provider,
		}

		for _, from := range domain.FulfillmentStatuses {
			for _, to := range domain.FulfillmentStatuses {
				for party, actor := range actors {
					if domain.CanTransition(from, to, party) {
						continue
					}
					if from == to && to != domain.FulfillmentCancelled && domain.CanReach(to, party) {
						continue
					}
					order := f.seedOrder(t, fmt.Sprintf("%s-%s-%s", from, to, party), from)
					_, err := f.ordering.Transition(ctx, actor, order.ID, to)
					requireKind(t, err, apperror.KindIllegalTransition)
				}
			}
		}
	})

	t.Run("Should keep cancelled as a sink", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		_, err := f.ordering.Transition(ctx, buyer, order.ID, domain.FulfillmentCancelled)
		require.NoError(t, err)

		for _, target := range domain.FulfillmentStatuses {
			for _, actor := range []*domain.Principal{buyer, provider, admin} {
				_, err := f.ordering.Transition(ctx, actor, order.ID, target)
				requireKind(t, err, apperror.KindIllegalTransition)
			}
		}
	})

	t.Run("Should treat a repeated transition as a no-op", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		first, err := f.ordering.Transition(ctx, provider, order.ID, domain.FulfillmentConfirmed)
		require.NoError(t, err)
		second, err := f.ordering.Transition(ctx, provider, order.ID, domain.FulfillmentConfirmed)
		require.NoError(t, err)

		assert.Equal(t, domain.FulfillmentConfirmed, second.FulfillmentStatus)
		assert.Equal(t, first.LastUpdatedAt, second.LastUpdatedAt)
	})

	t.Run("Should not let the buyer replay a provider-only step", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		_, err := f.ordering.Transition(ctx, provider, order.ID, domain.FulfillmentConfirmed)
		require.NoError(t, err)
		_, err = f.ordering.Transition(ctx, buyer, order.ID, domain.FulfillmentConfirmed)
		requireKind(t, err, apperror.KindIllegalTransition)
	})

	t.Run("Should forbid callers outside the order", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		_, err := f.ordering.Transition(ctx, outsider, order.ID, domain.FulfillmentCancelled)
		requireKind(t, err, apperror.KindForbidden)
		_, err = f.ordering.Get(ctx, outsider, order.ID)
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should let an admin run any row of the table", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		_, err := f.ordering.Transition(ctx, admin, order.ID, domain.FulfillmentConfirmed)
		require.NoError(t, err)
		_, err = f.ordering.Transition(ctx, admin, order.ID, domain.FulfillmentShipped)
		requireKind(t, err, apperror.KindIllegalTransition)
	})

	t.Run("Should reject unknown statuses", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)
		_, err := f.ordering.Transition(ctx, provider, order.ID, "returned")
		requireKind(t, err, apperror.KindValidation)
	})
}

type MockOrderRepo struct {
	mock.Mock
	domain.OrderRepository
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) UpdateFulfillment(ctx context.Context, id string, from, to domain.FulfillmentStatus, at time.Time) error {
	return m.Called(ctx, id, from, to, at).Error(0)
}

func TestOrderTransitionRaces(t *testing.T) {
	ctx := context.Background()
	pending := &domain.Order{ID: "o1", BuyerID: buyer.ID, ProviderID: provider.ID, FulfillmentStatus: domain.FulfillmentPending}
	confirmed := &domain.Order{ID: "o1", BuyerID: buyer.ID, ProviderID: provider.ID, FulfillmentStatus: domain.FulfillmentConfirmed}
	cancelled := &domain.Order{ID: "o1", BuyerID: buyer.ID, ProviderID: provider.ID, FulfillmentStatus: domain.FulfillmentCancelled}

	t.Run("Should settle as a no-op when a concurrent retry already won", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("GetByID", ctx, "o1").Return(pending, nil).Once()
		repo.On("UpdateFulfillment", ctx, "o1", domain.FulfillmentPending, domain.FulfillmentConfirmed, mock.Anything).Return(domain.ErrConflict).Once()
		repo.On("GetByID", ctx, "o1").Return(confirmed, nil).Once()

		uc := usecase.NewOrderUsecase(repo, nil)
		order, err := uc.Transition(ctx, provider, "o1", domain.FulfillmentConfirmed)
		require.NoError(t, err)
		assert.Equal(t, domain.FulfillmentConfirmed, order.FulfillmentStatus)
		repo.AssertExpectations(t)
	})

	t.Run("Should judge the fresh state after losing to a cancel", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("GetByID", ctx, "o1").Return(pending, nil).Once()
		repo.On("UpdateFulfillment", ctx, "o1", domain.FulfillmentPending, domain.FulfillmentConfirmed, mock.Anything).Return(domain.ErrConflict).Once()
		repo.On("GetByID", ctx, "o1").Return(cancelled, nil).Once()

		uc := usecase.NewOrderUsecase(repo, nil)
		_, err := uc.Transition(ctx, provider, "o1", domain.FulfillmentConfirmed)
		requireKind(t, err, apperror.KindIllegalTransition)
		repo.AssertExpectations(t)
	})

	t.Run("Should not retry a failed write", func(t *testing.T) {
		repo := new(MockOrderRepo)
		repo.On("GetByID", ctx, "o1").Return(pending, nil).Once()
		repo.On("UpdateFulfillment", ctx, "o1", domain.FulfillmentPending, domain.FulfillmentConfirmed, mock.Anything).Return(errors.New("connection reset")).Once()

		uc := usecase.NewOrderUsecase(repo, nil)
		_, err := uc.Transition(ctx, provider, "o1", domain.FulfillmentConfirmed)
		requireKind(t, err, apperror.KindStore)
		repo.AssertNumberOfCalls(t, "UpdateFulfillment", 1)
	})
}

func TestOrderPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Should record payment from the gateway without touching fulfillment", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		paid, err := f.ordering.MarkPaid(ctx, gateway, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)
		assert.Equal(t, domain.FulfillmentPending, paid.FulfillmentStatus)

		again, err := f.ordering.MarkPaid(ctx, gateway, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, again.PaymentStatus)

		_, err = f.ordering.MarkFailed(ctx, admin, order.ID)
		requireKind(t, err, apperror.KindIllegalTransition)
	})

	t.Run("Should not let the parties self-report payment", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		_, err := f.ordering.MarkPaid(ctx, buyer, order.ID)
		requireKind(t, err, apperror.KindForbidden)
		_, err = f.ordering.MarkFailed(ctx, provider, order.ID)
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should allow admins to mark a failure", func(t *testing.T) {
		f := newFixture(t)
		order := f.order(t, 1)

		failed, err := f.ordering.MarkFailed(ctx, admin, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, failed.PaymentStatus)
	})
}

func TestOrderViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.order(t, 1)
	second := f.order(t, 2)
	_, err := f.ordering.Transition(ctx, provider, second.ID, domain.FulfillmentConfirmed)
	require.NoError(t, err)

	t.Run("Should list the buyer's purchases", func(t *testing.T) {
		orders, err := f.ordering.ListForBuyer(ctx, buyer)
		require.NoError(t, err)
		assert.Len(t, orders, 2)

		orders, err = f.ordering.ListForBuyer(ctx, outsider)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("Should filter the provider queue", func(t *testing.T) {
		orders, err := f.ordering.ListForProvider(ctx, provider, domain.FulfillmentPending)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, first.ID, orders[0].ID)
		require.NotNil(t, orders[0].ProductTitle)

		_, err = f.ordering.ListForProvider(ctx, buyer, "")
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should page the admin overview", func(t *testing.T) {
		result, err := f.ordering.AdminList(ctx, admin, "", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Total)
		assert.Equal(t, 2, result.TotalPages)
		assert.Len(t, result.Data, 1)

		_, err = f.ordering.AdminList(ctx, provider, "", 1, 10)
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should count orders per status", func(t *testing.T) {
		stats, err := f.ordering.AdminStats(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Total)
		assert.Equal(t, int64(1), stats.ByFulfillment[domain.FulfillmentConfirmed])
		assert.Equal(t, int64(0), stats.ByFulfillment[domain.FulfillmentCancelled])
		assert.Equal(t, int64(2), stats.ByPayment[domain.PaymentPending])
	})

	t.Run("Should export the queue as csv", func(t *testing.T) {
		data, filename, err := f.export.ExportProviderQueue(ctx, provider, "", usecase.ExportFormatCSV)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(filename, ".csv"))

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, domain.ExportColumns, rows[0])
	})

	t.Run("Should export the queue as xlsx", func(t *testing.T) {
		data, filename, err := f.export.ExportProviderQueue(ctx, provider, "", "")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(filename, ".xlsx"))
		assert.NotEmpty(t, data)

		_, _, err = f.export.ExportProviderQueue(ctx, provider, "", "pdf")
		requireKind(t, err, apperror.KindValidation)
	})
}
