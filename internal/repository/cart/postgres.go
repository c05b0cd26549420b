package cart

import (
	"context"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreateByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (customer_id)
VALUES ($1)
ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
RETURNING id::text, customer_id::text, created_at
`
	var cart domain.Cart
	if err := r.pool.QueryRow(ctx, q, customerID).Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt); err != nil {
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, quantity, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.CartID, &line.ProductID, &line.Quantity, &line.CreatedAt); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *postgresRepo) UpsertLine(ctx context.Context, cartID, productID string, quantity int) error {
	const q = `
INSERT INTO cart_lines (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
`
	_, err := r.pool.Exec(ctx, q, cartID, productID, quantity)
	return err
}

func (r *postgresRepo) RemoveLine(ctx context.Context, cartID, productID string) error {
	const q = `
DELETE FROM cart_lines
WHERE cart_id = $1 AND product_id = $2
`
	_, err := r.pool.Exec(ctx, q, cartID, productID)
	return err
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	const q = `
DELETE FROM cart_lines
WHERE cart_id = $1
`
	_, err := r.pool.Exec(ctx, q, cartID)
	return err
}
