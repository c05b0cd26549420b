package inventory

import (
	"context"

	"storefront/internal/domain"
)

// Ledger tracks available stock per product and the reservations taken
// against it. Reserve decrements available stock atomically; a held
// reservation is reversible via Release until CommitOrder finalizes it.
// Available stock can never go negative, and two concurrent reservations for
// the last unit can never both succeed.
type Ledger interface {
	// Reserve atomically decrements available stock for the product if at
	// least qty is available, recording a held reservation tied to orderID.
	// Fails with *domain.InsufficientStockError otherwise.
	Reserve(ctx context.Context, orderID, productID string, qty int) (*domain.Reservation, error)
	// Release returns a held reservation's quantity to available stock.
	// Releasing an already-released or committed reservation is a no-op.
	Release(ctx context.Context, reservationID string) error
	// ReleaseOrder releases every held reservation for the order.
	ReleaseOrder(ctx context.Context, orderID string) error
	// CommitOrder marks every held reservation for the order committed,
	// making the decrement permanent.
	CommitOrder(ctx context.Context, orderID string) error
	// AvailableStock reads the current uncommitted stock level.
	AvailableStock(ctx context.Context, productID string) (int, error)
	// ByOrder lists the reservations recorded against an order.
	ByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error)
}
