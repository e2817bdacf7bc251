package postgres

import (
	"context"
	"time"

	"herbal-market-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepo{db: db}
}

const orderSelect = `
		SELECT o.id, o.product_id, o.buyer_id, o.provider_id, o.quantity,
			o.unit_price_snapshot, o.total_price, o.fulfillment_status, o.payment_status,
			o.created_at, o.last_updated_at, p.title
		FROM orders o
		LEFT JOIN products p ON p.id = o.product_id`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.ProductID, &o.BuyerID, &o.ProviderID, &o.Quantity,
		&o.UnitPriceSnapshot, &o.TotalPrice, &o.FulfillmentStatus, &o.PaymentStatus,
		&o.CreatedAt, &o.LastUpdatedAt, &o.ProductTitle,
	)
	if err != nil {
		return nil, err
	}
	if err := checkDocument(o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) list(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (id, product_id, buyer_id, provider_id, quantity, unit_price_snapshot,
              total_price, fulfillment_status, payment_status, created_at, last_updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, query,
		o.ID, o.ProductID, o.BuyerID, o.ProviderID, o.Quantity, o.UnitPriceSnapshot,
		o.TotalPrice, o.FulfillmentStatus, o.PaymentStatus, o.CreatedAt, o.LastUpdatedAt,
	)
	return err
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return o, nil
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return r.list(ctx, orderSelect+` WHERE o.buyer_id = $1 ORDER BY o.created_at DESC, o.id`, buyerID)
}

func (r *orderRepo) ListByProvider(ctx context.Context, providerID string, status domain.FulfillmentStatus) ([]domain.Order, error) {
	query := orderSelect + ` WHERE o.provider_id = $1 AND ($2 = '' OR o.fulfillment_status = $2)
		ORDER BY o.created_at DESC, o.id`
	return r.list(ctx, query, providerID, string(status))
}

func (r *orderRepo) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	query := orderSelect + ` WHERE ($1 = '' OR o.fulfillment_status = $1)
		ORDER BY o.created_at DESC, o.id LIMIT $2 OFFSET $3`
	orders, err := r.list(ctx, query, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM orders WHERE ($1 = '' OR fulfillment_status = $1)`
	if err := r.db.QueryRow(ctx, countQuery, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepo) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{
		ByFulfillment: make(map[domain.FulfillmentStatus]int64),
		ByPayment:     make(map[domain.PaymentStatus]int64),
	}

	rows, err := r.db.Query(ctx, `SELECT fulfillment_status, payment_status, COUNT(*) FROM orders GROUP BY fulfillment_status, payment_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var fulfillment domain.FulfillmentStatus
		var payment domain.PaymentStatus
		var count int64
		if err := rows.Scan(&fulfillment, &payment, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByFulfillment[fulfillment] += count
		stats.ByPayment[payment] += count
	}
	return stats, rows.Err()
}

func (r *orderRepo) CommittedQuantity(ctx context.Context, productID string) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM orders WHERE product_id = $1 AND fulfillment_status <> 'cancelled'`
	var total int
	if err := r.db.QueryRow(ctx, query, productID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateFulfillment is a compare-and-set on the status column.
func (r *orderRepo) UpdateFulfillment(ctx context.Context, id string, from, to domain.FulfillmentStatus, at time.Time) error {
	query := `UPDATE orders SET fulfillment_status = $3, last_updated_at = $4 WHERE id = $1 AND fulfillment_status = $2`
	tag, err := r.db.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return err
	}
	return r.settleUpdate(ctx, id, tag.RowsAffected())
}

func (r *orderRepo) UpdatePayment(ctx context.Context, id string, from, to domain.PaymentStatus, at time.Time) error {
	query := `UPDATE orders SET payment_status = $3, last_updated_at = $4 WHERE id = $1 AND payment_status = $2`
	tag, err := r.db.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return err
	}
	return r.settleUpdate(ctx, id, tag.RowsAffected())
}

// settleUpdate tells a missing order apart from a failed precondition.
func (r *orderRepo) settleUpdate(ctx context.Context, id string, affected int64) error {
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
