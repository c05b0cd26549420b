package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MemoryRepo stores payment sessions in-process with the same
// one-pending-per-order guarantee the postgres partial index provides.
type MemoryRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.PaymentSession
}

func NewMemory() *MemoryRepo {
	return &MemoryRepo{sessions: make(map[string]*domain.PaymentSession)}
}

func (r *MemoryRepo) Create(_ context.Context, session *domain.PaymentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*domain.PaymentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *MemoryRepo) ListByOrder(_ context.Context, orderID string) ([]domain.PaymentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.PaymentSession
	for _, s := range r.sessions {
		if s.OrderID == orderID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepo) HasPending(_ context.Context, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingLocked(orderID), nil
}

func (r *MemoryRepo) MarkPending(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.State != domain.SessionCreated {
		return domain.ErrNotFound
	}
	if r.pendingLocked(s.OrderID) {
		return domain.ErrOrderHasPendingPayment
	}
	s.State = domain.SessionPending
	return nil
}

func (r *MemoryRepo) Revert(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.State != domain.SessionPending {
		return domain.ErrNotFound
	}
	s.State = domain.SessionCreated
	return nil
}

func (r *MemoryRepo) MarkSettled(_ context.Context, id, transactionID string, attemptedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.State != domain.SessionPending {
		return domain.ErrNotFound
	}
	s.State = domain.SessionSettled
	s.TransactionID = transactionID
	s.AttemptedAt = &attemptedAt
	return nil
}

func (r *MemoryRepo) MarkDeclined(_ context.Context, id, reason string, attemptedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.State != domain.SessionPending {
		return domain.ErrNotFound
	}
	s.State = domain.SessionDeclined
	s.DeclineReason = reason
	s.AttemptedAt = &attemptedAt
	return nil
}

func (r *MemoryRepo) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, s := range r.sessions {
		if s.State == domain.SessionCreated && s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepo) pendingLocked(orderID string) bool {
	for _, s := range r.sessions {
		if s.OrderID == orderID && s.State == domain.SessionPending {
			return true
		}
	}
	return false
}
