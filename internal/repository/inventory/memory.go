package inventory

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"github.com/google/uuid"
)

// MemoryLedger is an in-process implementation with the same atomicity
// guarantees as the postgres one, scoped to a single mutex. Used by tests and
// by environments without a database.
type MemoryLedger struct {
	mu           sync.Mutex
	stock        map[string]int
	reservations map[string]*domain.Reservation
}

func NewMemory() *MemoryLedger {
	return &MemoryLedger{
		stock:        make(map[string]int),
		reservations: make(map[string]*domain.Reservation),
	}
}

// SetStock initializes the available stock for a product.
func (l *MemoryLedger) SetStock(productID string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[productID] = qty
}

func (l *MemoryLedger) Reserve(_ context.Context, orderID, productID string, qty int) (*domain.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	available, ok := l.stock[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if available < qty {
		return nil, &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	l.stock[productID] = available - qty

	res := &domain.Reservation{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  qty,
		State:     domain.ReservationHeld,
		CreatedAt: time.Now().UTC(),
	}
	l.reservations[res.ID] = res
	clone := *res
	return &clone, nil
}

func (l *MemoryLedger) Release(_ context.Context, reservationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.reservations[reservationID]
	if !ok {
		return domain.ErrNotFound
	}
	if res.State != domain.ReservationHeld {
		return nil
	}
	res.State = domain.ReservationReleased
	l.stock[res.ProductID] += res.Quantity
	return nil
}

func (l *MemoryLedger) ReleaseOrder(_ context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, res := range l.reservations {
		if res.OrderID == orderID && res.State == domain.ReservationHeld {
			res.State = domain.ReservationReleased
			l.stock[res.ProductID] += res.Quantity
		}
	}
	return nil
}

func (l *MemoryLedger) CommitOrder(_ context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, res := range l.reservations {
		if res.OrderID == orderID && res.State == domain.ReservationHeld {
			res.State = domain.ReservationCommitted
		}
	}
	return nil
}

func (l *MemoryLedger) AvailableStock(_ context.Context, productID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stock, ok := l.stock[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return stock, nil
}

func (l *MemoryLedger) ByOrder(_ context.Context, orderID string) ([]domain.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []domain.Reservation
	for _, res := range l.reservations {
		if res.OrderID == orderID {
			result = append(result, *res)
		}
	}
	return result, nil
}
