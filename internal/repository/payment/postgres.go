package payment

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, session *domain.PaymentSession) error {
	return r.pool.QueryRow(ctx, `
INSERT INTO payment_sessions (id, order_id, state, client_token, amount_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at
`, session.ID, session.OrderID, session.State, session.ClientToken, session.AmountCents, session.Currency).Scan(&session.CreatedAt)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.PaymentSession, error) {
	const q = `
SELECT id::text, order_id::text, state, COALESCE(client_token, ''), amount_cents, currency, COALESCE(transaction_id, ''), COALESCE(decline_reason, ''), created_at, attempted_at
FROM payment_sessions
WHERE id = $1
`
	var s domain.PaymentSession
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&s.ID,
		&s.OrderID,
		&s.State,
		&s.ClientToken,
		&s.AmountCents,
		&s.Currency,
		&s.TransactionID,
		&s.DeclineReason,
		&s.CreatedAt,
		&s.AttemptedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.PaymentSession, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, state, COALESCE(client_token, ''), amount_cents, currency, COALESCE(transaction_id, ''), COALESCE(decline_reason, ''), created_at, attempted_at
FROM payment_sessions
WHERE order_id = $1
ORDER BY created_at ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentSession
	for rows.Next() {
		var s domain.PaymentSession
		if err := rows.Scan(
			&s.ID,
			&s.OrderID,
			&s.State,
			&s.ClientToken,
			&s.AmountCents,
			&s.Currency,
			&s.TransactionID,
			&s.DeclineReason,
			&s.CreatedAt,
			&s.AttemptedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *postgresRepo) HasPending(ctx context.Context, orderID string) (bool, error) {
	var pending bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM payment_sessions WHERE order_id = $1 AND state = $2)
`, orderID, domain.SessionPending).Scan(&pending)
	return pending, err
}

func (r *postgresRepo) MarkPending(ctx context.Context, id string) error {
	// The partial unique index on (order_id) WHERE state = 'pending' is the
	// authority for the one-pending-session-per-order invariant.
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_sessions
SET state = $2
WHERE id = $1 AND state = $3
`, id, domain.SessionPending, domain.SessionCreated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrOrderHasPendingPayment
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Revert(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_sessions
SET state = $2
WHERE id = $1 AND state = $3
`, id, domain.SessionCreated, domain.SessionPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkSettled(ctx context.Context, id, transactionID string, attemptedAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_sessions
SET state = $2, transaction_id = $3, attempted_at = $4
WHERE id = $1 AND state = $5
`, id, domain.SessionSettled, transactionID, attemptedAt, domain.SessionPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkDeclined(ctx context.Context, id, reason string, attemptedAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_sessions
SET state = $2, decline_reason = $3, attempted_at = $4
WHERE id = $1 AND state = $5
`, id, domain.SessionDeclined, reason, attemptedAt, domain.SessionPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM payment_sessions
WHERE state = $1 AND created_at < $2
`, domain.SessionCreated, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
