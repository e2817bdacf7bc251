package usecase

import (
	"context"
	"strings"
	"time"

	"herbal-market-backend/internal/access"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type catalogUsecase struct {
	productRepo domain.ProductRepository
	validate    *validator.Validate
}

func NewCatalogUsecase(productRepo domain.ProductRepository, validate *validator.Validate) domain.CatalogUsecase {
	return &catalogUsecase{
		productRepo: productRepo,
		validate:    validate,
	}
}

func (u *catalogUsecase) Create(ctx context.Context, p *domain.Principal, draft domain.ProductDraft) (*domain.Product, error) {
	if err := authorize(ctx, access.Providers, p, "products"); err != nil {
		return nil, err
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Unit = strings.TrimSpace(draft.Unit)
	draft.Category = strings.TrimSpace(draft.Category)
	if err := u.validate.Struct(draft); err != nil {
		return nil, apperror.Validation(strings.Join(validation.FormatValidationErrors(err), "; "))
	}

	available := true
	if draft.IsAvailable != nil {
		available = *draft.IsAvailable
	}
	careTags := draft.CareTags
	if careTags == nil {
		careTags = []string{}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.NewString(),
		ProviderID:  p.ID,
		Title:       draft.Title,
		Description: strings.TrimSpace(draft.Description),
		UnitPrice:   draft.UnitPrice,
		Unit:        draft.Unit,
		Capacity:    draft.Capacity,
		Category:    draft.Category,
		CareTags:    careTags,
		IsAvailable: available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.productRepo.Create(ctx, product); err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

// ListByProvider returns the caller's own listings, newest first.
func (u *catalogUsecase) ListByProvider(ctx context.Context, p *domain.Principal) ([]domain.Product, error) {
	if err := authorize(ctx, access.Providers, p, "products"); err != nil {
		return nil, err
	}
	products, err := u.productRepo.ListByProvider(ctx, p.ID)
	if err != nil {
		return nil, storeError(err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// ListAvailable is the public browse of orderable listings.
func (u *catalogUsecase) ListAvailable(ctx context.Context, category string, page, pageSize int) (*domain.PaginatedResult[domain.Product], error) {
	page, pageSize, offset := domain.NormalizePage(page, pageSize)
	products, total, err := u.productRepo.ListAvailable(ctx, domain.ProductFilter{
		Category: strings.TrimSpace(category),
		Limit:    pageSize,
		Offset:   offset,
	})
	if err != nil {
		return nil, storeError(err)
	}
	return domain.NewPaginatedResult(products, total, page, pageSize), nil
}

func (u *catalogUsecase) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := u.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Product not found")
	}
	return product, nil
}
