package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

type Repository interface {
	// Create persists the order and its items in one transaction.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByCustomer returns the customer's orders, newest first, optionally
	// filtered by status.
	ListByCustomer(ctx context.Context, customerID, status string) ([]domain.Order, error)
	// MarkPaid sets status to paid and records the settlement time.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
	// SetStatus applies a status transition without touching paid_at.
	SetStatus(ctx context.Context, id, status string) error
	// Delete removes an unpaid order; paid or delivered orders are refused
	// with ErrOrderNotDeletable.
	Delete(ctx context.Context, id string) error
}
