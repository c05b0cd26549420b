package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	if err := tx.QueryRow(ctx, `
INSERT INTO orders (id, customer_id, shipping_address, subtotal_cents, discount_cents, shipping_cents, total_cents, currency, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at
`, order.ID, order.CustomerID, address, order.SubtotalCents, order.DiscountCents, order.ShippingCents, order.TotalCents, order.Currency, order.Status).Scan(&order.CreatedAt); err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, unit_price_cents, quantity, total_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text
`, item.OrderID, item.ProductID, item.ProductName, item.UnitPriceCents, item.Quantity, item.TotalCents).Scan(&item.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("order repo: created order=%s customer=%s total=%d", order.ID, order.CustomerID, order.TotalCents)
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, customer_id::text, shipping_address, subtotal_cents, discount_cents, shipping_cents, total_cents, currency, status, created_at, paid_at
FROM orders
WHERE id = $1
`
	var o domain.Order
	var address []byte
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&o.ID,
		&o.CustomerID,
		&address,
		&o.SubtotalCents,
		&o.DiscountCents,
		&o.ShippingCents,
		&o.TotalCents,
		&o.Currency,
		&o.Status,
		&o.CreatedAt,
		&o.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID, status string) ([]domain.Order, error) {
	q := `
SELECT id::text, customer_id::text, shipping_address, subtotal_cents, discount_cents, shipping_cents, total_cents, currency, status, created_at, paid_at
FROM orders
WHERE customer_id = $1
`
	args := []interface{}{customerID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var o domain.Order
		var address []byte
		if err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&address,
			&o.SubtotalCents,
			&o.DiscountCents,
			&o.ShippingCents,
			&o.TotalCents,
			&o.Currency,
			&o.Status,
			&o.CreatedAt,
			&o.PaidAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		items, err := r.itemsFor(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $2, paid_at = $3
WHERE id = $1
`, id, domain.OrderPaid, paidAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $2
WHERE id = $1
`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM orders
WHERE id = $1 AND status = $2
`, id, domain.OrderUnpaid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrOrderNotDeletable
		}
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) itemsFor(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, product_name, unit_price_cents, quantity, total_cents
FROM order_items
WHERE order_id = $1
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPriceCents, &item.Quantity, &item.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
