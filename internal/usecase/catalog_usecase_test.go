package usecase_test

import (
	"context"
	"testing"

	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should default to available", func(t *testing.T) {
		f := newFixture(t)
		product, err := f.catalog.Create(ctx, provider, domain.ProductDraft{
			Title:     "  Fiddle leaf fig pruning ",
			UnitPrice: decimal.RequireFromString("12500.50"),
			Unit:      "plant",
			Capacity:  4,
			CareTags:  []string{"pruning", "indoor"},
		})
		require.NoError(t, err)
		assert.True(t, product.IsAvailable)
		assert.Equal(t, "Fiddle leaf fig pruning", product.Title)
		assert.Equal(t, provider.ID, product.ProviderID)
		assert.NotEmpty(t, product.ID)
	})

	t.Run("Should reject a negative price", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalog.Create(ctx, provider, domain.ProductDraft{
			Title: "Soil testing", UnitPrice: decimal.NewFromInt(-1), Unit: "sample", Capacity: 1,
		})
		requireKind(t, err, apperror.KindValidation)
		assert.Contains(t, err.Error(), "Unit price")
	})

	t.Run("Should reject a negative capacity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalog.Create(ctx, provider, domain.ProductDraft{
			Title: "Soil testing", Unit: "sample", Capacity: -3,
		})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("Should only let planters list services", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalog.Create(ctx, buyer, domain.ProductDraft{Title: "Soil testing", Unit: "sample"})
		requireKind(t, err, apperror.KindForbidden)

		_, err = f.catalog.ListByProvider(ctx, buyer)
		requireKind(t, err, apperror.KindForbidden)
	})
}

func TestCatalogBrowse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.listing(t, 100, 1)
	f.listing(t, 200, 1)
	off := false
	_, err := f.catalog.Create(ctx, provider, domain.ProductDraft{Title: "Hidden", Unit: "pot", IsAvailable: &off})
	require.NoError(t, err)

	t.Run("Should list only available products", func(t *testing.T) {
		page, err := f.catalog.ListAvailable(ctx, "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Len(t, page.Data, 2)
	})

	t.Run("Should filter by category", func(t *testing.T) {
		page, err := f.catalog.ListAvailable(ctx, "propagation", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
	})

	t.Run("Should show the provider every own listing", func(t *testing.T) {
		products, err := f.catalog.ListByProvider(ctx, provider)
		require.NoError(t, err)
		assert.Len(t, products, 3)
	})

	t.Run("Should report missing products", func(t *testing.T) {
		_, err := f.catalog.Get(ctx, "nope")
		requireKind(t, err, apperror.KindNotFound)
	})
}
