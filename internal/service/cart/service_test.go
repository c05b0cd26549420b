package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubCartRepo struct {
	cart          *domain.Cart
	getErr        error
	upsertErr     error
	removeErr     error
	clearErr      error
	lastUpsertPID string
	lastUpsertQty int
	lastRemovePID string
	cleared       bool
}

func (s *stubCartRepo) GetOrCreateByCustomer(_ context.Context, _ string) (*domain.Cart, error) {
	return s.cart, s.getErr
}

func (s *stubCartRepo) UpsertLine(_ context.Context, _, productID string, quantity int) error {
	s.lastUpsertPID = productID
	s.lastUpsertQty = quantity
	if s.upsertErr == nil {
		replaced := false
		for i := range s.cart.Lines {
			if s.cart.Lines[i].ProductID == productID {
				s.cart.Lines[i].Quantity = quantity
				replaced = true
			}
		}
		if !replaced {
			s.cart.Lines = append(s.cart.Lines, domain.CartLine{ProductID: productID, Quantity: quantity, CartID: s.cart.ID})
		}
	}
	return s.upsertErr
}

func (s *stubCartRepo) RemoveLine(_ context.Context, _, productID string) error {
	s.lastRemovePID = productID
	if s.removeErr == nil {
		lines := s.cart.Lines[:0]
		for _, l := range s.cart.Lines {
			if l.ProductID != productID {
				lines = append(lines, l)
			}
		}
		s.cart.Lines = lines
	}
	return s.removeErr
}

func (s *stubCartRepo) Clear(_ context.Context, _ string) error {
	s.cleared = true
	if s.clearErr == nil {
		s.cart.Lines = nil
	}
	return s.clearErr
}

type stubProductRepo struct {
	products map[string]*domain.Product
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func newFixture(products ...*domain.Product) (*Service, *stubCartRepo) {
	byID := make(map[string]*domain.Product)
	for _, p := range products {
		byID[p.ID] = p
	}
	repo := &stubCartRepo{cart: &domain.Cart{ID: "cart-1", CustomerID: "cust"}}
	return &Service{repo: repo, products: &stubProductRepo{products: byID}}, repo
}

func TestAddOrUpdateInvalidQuantity(t *testing.T) {
	svc, _ := newFixture()
	_, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 0)
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestAddOrUpdateUnknownProduct(t *testing.T) {
	svc, _ := newFixture()
	_, err := svc.AddOrUpdate(context.Background(), "cust", "missing", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddOrUpdateOutOfStock(t *testing.T) {
	svc, _ := newFixture(&domain.Product{ID: "p1", Name: "Mug", PriceCents: 1299, Stock: 0})
	_, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 1)
	if !errors.Is(err, domain.ErrProductUnavailable) {
		t.Fatalf("expected product unavailable, got %v", err)
	}
}

func TestAddOrUpdateExceedsStock(t *testing.T) {
	svc, _ := newFixture(&domain.Product{ID: "p1", Name: "Mug", PriceCents: 1299, Stock: 2})
	_, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 3)
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestAddOrUpdateReplacesExistingLine(t *testing.T) {
	svc, repo := newFixture(&domain.Product{ID: "p1", Name: "Mug", PriceCents: 1000, Stock: 10, Currency: "USD"})

	if _, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	snap, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 5)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(repo.cart.Lines) != 1 {
		t.Fatalf("line was duplicated: %+v", repo.cart.Lines)
	}
	if repo.lastUpsertQty != 5 {
		t.Fatalf("expected replace with quantity 5, got %d", repo.lastUpsertQty)
	}
	if snap.TotalItems != 5 || snap.SubtotalCents != 5000 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	svc, repo := newFixture(&domain.Product{ID: "p1", Name: "Mug", PriceCents: 1000, Stock: 10})
	if _, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	snap, err := svc.UpdateQuantity(context.Background(), "cust", "p1", 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if repo.lastRemovePID != "p1" {
		t.Fatalf("remove was not invoked")
	}
	if len(snap.Lines) != 0 || snap.TotalItems != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestUpdateQuantityNegative(t *testing.T) {
	svc, _ := newFixture(&domain.Product{ID: "p1", Stock: 10})
	_, err := svc.UpdateQuantity(context.Background(), "cust", "p1", -1)
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestRemoveAbsentLineIsNoOp(t *testing.T) {
	svc, _ := newFixture(&domain.Product{ID: "p1", Stock: 10})
	if err := svc.Remove(context.Background(), "cust", "p-absent"); err != nil {
		t.Fatalf("remove of absent line must not error: %v", err)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	svc, repo := newFixture(&domain.Product{ID: "p1", Name: "Mug", PriceCents: 1000, Stock: 10})
	if _, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Clear(context.Background(), "cust"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !repo.cleared || len(repo.cart.Lines) != 0 {
		t.Fatalf("cart not cleared")
	}
}

func TestSnapshotAnnotatesCurrentPrices(t *testing.T) {
	mug := &domain.Product{ID: "p1", Name: "Mug", PriceCents: 1000, ShippingFeeCents: 200, Stock: 10, Currency: "USD"}
	svc, _ := newFixture(mug)
	if _, err := svc.AddOrUpdate(context.Background(), "cust", "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Catalog price changes are reflected by the next snapshot: prices are
	// locked at order creation, not in the cart.
	mug.PriceCents = 1500
	snap, err := svc.Snapshot(context.Background(), "cust")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.SubtotalCents != 3000 || snap.ShippingCents != 200 || snap.TotalCents != 3200 {
		t.Fatalf("unexpected totals %+v", snap)
	}
	if snap.Lines[0].UnitPriceCents != 1500 {
		t.Fatalf("snapshot must show price at read time, got %d", snap.Lines[0].UnitPriceCents)
	}
}
