package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/metrics"
	"github.com/google/uuid"
)

// Service runs the payment-session lifecycle against the card gateway. A
// session is created with the amount locked from the order, goes pending for
// exactly one in-flight charge, and ends settled or declined. A gateway
// timeout is the one non-terminal exit: the session drops back to created so
// the customer can retry.
type Service struct {
	sessions sessionRepo
	orders   orderRepo
	ledger   ledger
	gateway  gateway.Gateway
	recorder recorder
	logger   *log.Logger
}

type sessionRepo interface {
	Create(ctx context.Context, session *domain.PaymentSession) error
	GetByID(ctx context.Context, id string) (*domain.PaymentSession, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.PaymentSession, error)
	HasPending(ctx context.Context, orderID string) (bool, error)
	MarkPending(ctx context.Context, id string) error
	Revert(ctx context.Context, id string) error
	MarkSettled(ctx context.Context, id, transactionID string, attemptedAt time.Time) error
	MarkDeclined(ctx context.Context, id, reason string, attemptedAt time.Time) error
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type ledger interface {
	ReleaseOrder(ctx context.Context, orderID string) error
}

type recorder interface {
	Finalize(ctx context.Context, order *domain.Order, transactionID string, paidAt time.Time) error
}

func New(sessions sessionRepo, orders orderRepo, ledger ledger, gw gateway.Gateway, recorder recorder, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		sessions: sessions,
		orders:   orders,
		ledger:   ledger,
		gateway:  gw,
		recorder: recorder,
		logger:   logger,
	}
}

// StartSession opens a payment attempt for the order. The charge amount is
// copied from the order total here and never re-read, so a session always
// charges what the customer saw. Refused while the order is already paid or
// another session for it is pending.
func (s *Service) StartSession(ctx context.Context, customerID, orderID string) (*domain.PaymentSession, error) {
	order, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, domain.ErrOrderAlreadyPaid
	}
	pending, err := s.sessions.HasPending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrOrderHasPendingPayment
	}

	token, err := s.gateway.CreateClientToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("create client token: %w", err)
	}

	session := &domain.PaymentSession{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		State:       domain.SessionCreated,
		ClientToken: token,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Printf("payment: session=%s opened for order=%s amount=%d", session.ID, orderID, session.AmountCents)
	return session, nil
}

// SubmitPayment exchanges the payment-method nonce for a charge. Exactly one
// submission per order can be in flight; the pending transition enforces
// that before any money moves.
func (s *Service) SubmitPayment(ctx context.Context, customerID, sessionID, nonce string) (*domain.PaymentSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	order, err := s.ownedOrder(ctx, customerID, session.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, domain.ErrOrderAlreadyPaid
	}

	if err := s.sessions.MarkPending(ctx, sessionID); err != nil {
		return nil, err
	}

	attemptedAt := time.Now().UTC()
	start := time.Now()
	result, err := s.gateway.SubmitPayment(ctx, nonce, session.AmountCents, session.Currency)
	metrics.ObserveGateway(start)
	if err != nil {
		// No decision from the gateway: the attempt did not happen as far
		// as the ledger is concerned. Reopen the session for retry.
		if revertErr := s.sessions.Revert(ctx, sessionID); revertErr != nil {
			s.logger.Printf("payment: revert session=%s: %v", sessionID, revertErr)
		}
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			metrics.PaymentAttempts.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		}
		return nil, err
	}

	if !result.Success {
		if err := s.sessions.MarkDeclined(ctx, sessionID, result.DeclineReason, attemptedAt); err != nil {
			return nil, err
		}
		if err := s.ledger.ReleaseOrder(ctx, order.ID); err != nil {
			s.logger.Printf("payment: release reservations order=%s after decline: %v", order.ID, err)
		}
		metrics.PaymentAttempts.WithLabelValues(metrics.OutcomeDeclined).Inc()
		s.logger.Printf("payment: session=%s declined order=%s reason=%q", sessionID, order.ID, result.DeclineReason)
		return nil, &domain.PaymentDeclinedError{Reason: result.DeclineReason}
	}

	if err := s.sessions.MarkSettled(ctx, sessionID, result.TransactionID, attemptedAt); err != nil {
		return nil, err
	}
	if err := s.recorder.Finalize(ctx, order, result.TransactionID, attemptedAt); err != nil {
		// The charge went through but the order is not yet paid in our own
		// books. Finalize is safe to re-run, so try once more before leaving
		// the mismatch to the operator.
		s.logger.Printf("payment: finalize order=%s tx=%s: %v, retrying", order.ID, result.TransactionID, err)
		if err := s.recorder.Finalize(ctx, order, result.TransactionID, attemptedAt); err != nil {
			s.logger.Printf("payment: finalize order=%s tx=%s failed after retry, order left unpaid: %v", order.ID, result.TransactionID, err)
		}
	}
	metrics.PaymentAttempts.WithLabelValues(metrics.OutcomeSettled).Inc()
	s.logger.Printf("payment: session=%s settled order=%s tx=%s", sessionID, order.ID, result.TransactionID)

	return s.sessions.GetByID(ctx, sessionID)
}

// Session returns one of the customer's payment sessions.
func (s *Service) Session(ctx context.Context, customerID, sessionID string) (*domain.PaymentSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedOrder(ctx, customerID, session.OrderID); err != nil {
		return nil, err
	}
	return session, nil
}

// SessionsForOrder returns every attempt against the order, oldest first.
func (s *Service) SessionsForOrder(ctx context.Context, customerID, orderID string) ([]domain.PaymentSession, error) {
	if _, err := s.ownedOrder(ctx, customerID, orderID); err != nil {
		return nil, err
	}
	return s.sessions.ListByOrder(ctx, orderID)
}

// ReapStale deletes created sessions older than ttl. Pending and terminal
// sessions are never reaped.
func (s *Service) ReapStale(ctx context.Context, ttl time.Duration) {
	n, err := s.sessions.ExpireStale(ctx, time.Now().UTC().Add(-ttl))
	if err != nil {
		s.logger.Printf("payment: reap stale sessions: %v", err)
		return
	}
	if n > 0 {
		s.logger.Printf("payment: reaped %d stale sessions", n)
	}
}

func (s *Service) ownedOrder(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}
