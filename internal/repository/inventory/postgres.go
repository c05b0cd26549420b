package inventory

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresLedger struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Ledger {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresLedger{pool: pool, logger: logger}
}

func (l *postgresLedger) Reserve(ctx context.Context, orderID, productID string, qty int) (*domain.Reservation, error) {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Compare-and-swap decrement: only succeeds when enough stock remains.
	cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`, productID, qty)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		var available int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}

	res := domain.Reservation{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  qty,
		State:     domain.ReservationHeld,
	}
	if err := tx.QueryRow(ctx, `
INSERT INTO stock_reservations (id, order_id, product_id, quantity, state)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at
`, res.ID, res.OrderID, res.ProductID, res.Quantity, res.State).Scan(&res.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	l.logger.Printf("inventory: reserved product=%s qty=%d order=%s", productID, qty, orderID)
	return &res, nil
}

func (l *postgresLedger) Release(ctx context.Context, reservationID string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var productID string
	var qty int
	err = tx.QueryRow(ctx, `
UPDATE stock_reservations
SET state = $2
WHERE id = $1 AND state = $3
RETURNING product_id::text, quantity
`, reservationID, domain.ReservationReleased, domain.ReservationHeld).Scan(&productID, &qty)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already released or committed: idempotent no-op, but an unknown
		// handle is still an error.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_reservations WHERE id = $1)`, reservationID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return tx.Commit(ctx)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, productID, qty); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	l.logger.Printf("inventory: released reservation=%s product=%s qty=%d", reservationID, productID, qty)
	return nil
}

func (l *postgresLedger) ReleaseOrder(ctx context.Context, orderID string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
UPDATE stock_reservations
SET state = $2
WHERE order_id = $1 AND state = $3
RETURNING product_id::text, quantity
`, orderID, domain.ReservationReleased, domain.ReservationHeld)
	if err != nil {
		return err
	}
	type released struct {
		productID string
		qty       int
	}
	var freed []released
	for rows.Next() {
		var r released
		if err := rows.Scan(&r.productID, &r.qty); err != nil {
			rows.Close()
			return err
		}
		freed = append(freed, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, f := range freed {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, f.productID, f.qty); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if len(freed) > 0 {
		l.logger.Printf("inventory: released %d reservations for order=%s", len(freed), orderID)
	}
	return nil
}

func (l *postgresLedger) CommitOrder(ctx context.Context, orderID string) error {
	// No stock change: Reserve already decremented.
	_, err := l.pool.Exec(ctx, `
UPDATE stock_reservations
SET state = $2
WHERE order_id = $1 AND state = $3
`, orderID, domain.ReservationCommitted, domain.ReservationHeld)
	return err
}

func (l *postgresLedger) AvailableStock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := l.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

func (l *postgresLedger) ByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error) {
	rows, err := l.pool.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, quantity, state, created_at
FROM stock_reservations
WHERE order_id = $1
ORDER BY created_at ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reservation
	for rows.Next() {
		var r domain.Reservation
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.Quantity, &r.State, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
