package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository exposes the catalog reads the checkout core depends on. Stock
// numbers read here are advisory; the inventory ledger is authoritative at
// order-creation time.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
