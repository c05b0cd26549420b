package cart

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// Service owns the mutable cart. Stock checks here are advisory reads; the
// inventory ledger takes authoritative reservations at order creation.
type Service struct {
	repo     cartRepo
	products productRepo
}

type cartRepo interface {
	GetOrCreateByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	UpsertLine(ctx context.Context, cartID, productID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// AddOrUpdate sets the quantity for a product in the customer's cart. An
// existing line is replaced, never duplicated.
func (s *Service) AddOrUpdate(ctx context.Context, customerID, productID string, quantity int) (*domain.CartSnapshot, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock == 0 {
		return nil, domain.ErrProductUnavailable
	}
	if quantity > product.Stock {
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: product.Stock}
	}

	cart, err := s.repo.GetOrCreateByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertLine(ctx, cart.ID, productID, quantity); err != nil {
		return nil, err
	}
	return s.Snapshot(ctx, customerID)
}

// UpdateQuantity follows the same validation as AddOrUpdate; zero removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.CartSnapshot, error) {
	if quantity == 0 {
		if err := s.Remove(ctx, customerID, productID); err != nil {
			return nil, err
		}
		return s.Snapshot(ctx, customerID)
	}
	return s.AddOrUpdate(ctx, customerID, productID, quantity)
}

// Remove deletes the product's line; absence is a no-op.
func (s *Service) Remove(ctx context.Context, customerID, productID string) error {
	cart, err := s.repo.GetOrCreateByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.repo.RemoveLine(ctx, cart.ID, productID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, customerID string) error {
	cart, err := s.repo.GetOrCreateByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, cart.ID)
}

// Snapshot returns the cart with price-at-read-time annotations. Prices are
// not locked here; the order snapshot locks them.
func (s *Service) Snapshot(ctx context.Context, customerID string) (*domain.CartSnapshot, error) {
	cart, err := s.repo.GetOrCreateByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	snap := &domain.CartSnapshot{CartID: cart.ID, Lines: []domain.SnapshotLine{}}
	for _, line := range cart.Lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("annotate line product %s: %w", line.ProductID, err)
		}
		lineTotal := product.PriceCents * int64(line.Quantity)
		snap.Lines = append(snap.Lines, domain.SnapshotLine{
			ProductID:        product.ID,
			ProductName:      product.Name,
			Quantity:         line.Quantity,
			UnitPriceCents:   product.PriceCents,
			ShippingFeeCents: product.ShippingFeeCents,
			TotalCents:       lineTotal,
		})
		snap.TotalItems += line.Quantity
		snap.SubtotalCents += lineTotal
		snap.ShippingCents += product.ShippingFeeCents
		if snap.Currency == "" {
			snap.Currency = product.Currency
		}
	}
	snap.TotalCents = snap.SubtotalCents + snap.ShippingCents
	if snap.Currency == "" {
		snap.Currency = "USD"
	}
	return snap, nil
}
