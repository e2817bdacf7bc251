package postgres

import (
	"context"

	"herbal-market-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type productRepo struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) domain.ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, provider_id, title, description, unit_price, unit, capacity, category, care_tags, is_available, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var careTags []string
	err := row.Scan(
		&p.ID, &p.ProviderID, &p.Title, &p.Description, &p.UnitPrice, &p.Unit,
		&p.Capacity, &p.Category, pq.Array(&careTags), &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if careTags == nil {
		careTags = []string{}
	}
	p.CareTags = careTags
	if err := checkDocument(p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.ProviderID, p.Title, p.Description, p.UnitPrice, p.Unit,
		p.Capacity, p.Category, pq.Array(p.CareTags), p.IsAvailable, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

func (r *productRepo) list(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepo) ListByProvider(ctx context.Context, providerID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE provider_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, providerID)
}

// ListAvailable returns one page of orderable listings; an empty category matches all.
func (r *productRepo) ListAvailable(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	query := `SELECT ` + productColumns + ` FROM products
              WHERE is_available = TRUE AND ($1 = '' OR category = $1)
              ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	products, err := r.list(ctx, query, filter.Category, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM products WHERE is_available = TRUE AND ($1 = '' OR category = $1)`
	if err := r.db.QueryRow(ctx, countQuery, filter.Category).Scan(&total); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
