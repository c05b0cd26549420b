package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/pricing"
	"github.com/google/uuid"
)

// ErrAddressRequired is returned when neither the request nor the customer
// profile carries a shipping address.
var ErrAddressRequired = errors.New("shipping address was not provided")

// Service converts carts into orders. Order creation is the authoritative
// stock checkpoint: every line is reserved against the inventory ledger, and
// a failure on any line rolls the whole attempt back.
type Service struct {
	carts     cartRepo
	products  productRepo
	customers customerRepo
	orders    orderRepo
	ledger    ledger
	discount  pricing.DiscountPolicy
	shipping  pricing.ShippingPolicy
	logger    *log.Logger
}

type cartRepo interface {
	GetOrCreateByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type customerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type orderRepo interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID, status string) ([]domain.Order, error)
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type ledger interface {
	Reserve(ctx context.Context, orderID, productID string, qty int) (*domain.Reservation, error)
	Release(ctx context.Context, reservationID string) error
	ReleaseOrder(ctx context.Context, orderID string) error
}

func New(carts cartRepo, products productRepo, customers customerRepo, orders orderRepo, ledger ledger, discount pricing.DiscountPolicy, shipping pricing.ShippingPolicy, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if discount == nil {
		discount = pricing.NoDiscount{}
	}
	if shipping == nil {
		shipping = pricing.PerItemShipping{}
	}
	return &Service{
		carts:     carts,
		products:  products,
		customers: customers,
		orders:    orders,
		ledger:    ledger,
		discount:  discount,
		shipping:  shipping,
		logger:    logger,
	}
}

// CreateOrder snapshots the customer's cart into an unpaid order. Prices are
// locked at this moment; later catalog changes never alter the order. The
// cart is cleared on success.
func (s *Service) CreateOrder(ctx context.Context, customerID string, address *domain.Address) (*domain.Order, error) {
	cart, err := s.carts.GetOrCreateByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	if address == nil {
		customer, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if customer.Address == nil {
			return nil, ErrAddressRequired
		}
		address = customer.Address
	}

	lines := make([]pricing.Line, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		lines = append(lines, pricing.Line{Product: *product, Quantity: line.Quantity})
	}

	orderID := uuid.NewString()

	// All-or-nothing reservation: any failure rolls back every reservation
	// taken so far in this call.
	var reserved []string
	rollback := func() {
		for _, id := range reserved {
			if err := s.ledger.Release(ctx, id); err != nil {
				s.logger.Printf("checkout: rollback release %s: %v", id, err)
			}
		}
	}
	for _, line := range lines {
		res, err := s.ledger.Reserve(ctx, orderID, line.Product.ID, line.Quantity)
		if err != nil {
			rollback()
			return nil, err
		}
		reserved = append(reserved, res.ID)
	}

	order := s.buildOrder(orderID, customerID, *address, lines)
	if err := s.orders.Create(ctx, order); err != nil {
		rollback()
		return nil, err
	}

	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		// The order stands; an uncleared cart is recoverable.
		s.logger.Printf("checkout: clear cart %s after order %s: %v", cart.ID, order.ID, err)
	}

	metrics.OrdersCreated.Inc()
	s.logger.Printf("checkout: created order=%s customer=%s total=%d", order.ID, customerID, order.TotalCents)
	return order, nil
}

func (s *Service) buildOrder(orderID, customerID string, address domain.Address, lines []pricing.Line) *domain.Order {
	order := &domain.Order{
		ID:              orderID,
		CustomerID:      customerID,
		ShippingAddress: address,
		Status:          domain.OrderUnpaid,
	}
	for _, line := range lines {
		lineTotal := line.Product.PriceCents * int64(line.Quantity)
		order.Items = append(order.Items, domain.OrderItem{
			OrderID:        orderID,
			ProductID:      line.Product.ID,
			ProductName:    line.Product.Name,
			UnitPriceCents: line.Product.PriceCents,
			Quantity:       line.Quantity,
			TotalCents:     lineTotal,
		})
		order.SubtotalCents += lineTotal
		if order.Currency == "" {
			order.Currency = line.Product.Currency
		}
	}
	if order.Currency == "" {
		order.Currency = "USD"
	}
	order.DiscountCents = s.discount.DiscountCents(lines)
	order.ShippingCents = s.shipping.ShippingCents(lines)
	order.TotalCents = order.SubtotalCents - order.DiscountCents + order.ShippingCents
	return order
}

// Get returns the customer's order; orders of other customers read as not
// found.
func (s *Service) Get(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// List returns the customer's orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, customerID, status string) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, status)
}

// Delete removes an unpaid order and releases any inventory still held for
// it.
func (s *Service) Delete(ctx context.Context, customerID, orderID string) error {
	if _, err := s.Get(ctx, customerID, orderID); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	return s.ledger.ReleaseOrder(ctx, orderID)
}

// MarkDelivered accepts the external fulfillment transition paid ->
// delivered.
func (s *Service) MarkDelivered(ctx context.Context, customerID, orderID string) error {
	order, err := s.Get(ctx, customerID, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderPaid {
		return domain.ErrOrderNotPaid
	}
	return s.orders.SetStatus(ctx, orderID, domain.OrderDelivered)
}
