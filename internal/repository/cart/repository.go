package cart

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// GetOrCreateByCustomer returns the customer's cart, creating an empty
	// one on first use. Lines are always loaded.
	GetOrCreateByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	// UpsertLine sets the quantity for (cart, product). An existing line is
	// replaced, never duplicated.
	UpsertLine(ctx context.Context, cartID, productID string, quantity int) error
	// RemoveLine deletes the line if present; absence is not an error.
	RemoveLine(ctx context.Context, cartID, productID string) error
	// Clear deletes every line in the cart.
	Clear(ctx context.Context, cartID string) error
}
