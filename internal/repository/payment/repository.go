package payment

import (
	"context"
	"time"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, session *domain.PaymentSession) error
	GetByID(ctx context.Context, id string) (*domain.PaymentSession, error)
	// ListByOrder returns all attempts against an order, oldest first.
	// Terminal sessions are retained for audit.
	ListByOrder(ctx context.Context, orderID string) ([]domain.PaymentSession, error)
	// HasPending reports whether any session for the order is pending.
	HasPending(ctx context.Context, orderID string) (bool, error)
	// MarkPending transitions created -> pending. Fails with
	// ErrOrderHasPendingPayment if another session for the same order is
	// already pending, and ErrNotFound if the session is absent or not in
	// created state.
	MarkPending(ctx context.Context, id string) error
	// Revert transitions pending -> created after a gateway timeout so the
	// attempt can be retried.
	Revert(ctx context.Context, id string) error
	MarkSettled(ctx context.Context, id, transactionID string, attemptedAt time.Time) error
	MarkDeclined(ctx context.Context, id, reason string, attemptedAt time.Time) error
	// ExpireStale deletes created sessions older than the cutoff and
	// returns how many were removed.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}
