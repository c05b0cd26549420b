package domain

import "time"

// Payment session state machine: created -> pending -> settled | declined.
// Settled and declined are terminal. A declined session is never reused;
// retries are new sessions against the same order.
const (
	SessionCreated  = "created"
	SessionPending  = "pending"
	SessionSettled  = "settled"
	SessionDeclined = "declined"
)

type PaymentSession struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	ClientToken string `json:"clientToken,omitempty"`
	// AmountCents is fixed from the order total at session creation and is
	// the exact amount sent to the gateway.
	AmountCents   int64      `json:"amountCents"`
	Currency      string     `json:"currency"`
	TransactionID string     `json:"transactionId,omitempty"`
	DeclineReason string     `json:"declineReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	AttemptedAt   *time.Time `json:"attemptedAt,omitempty"`
}

func (s *PaymentSession) Terminal() bool {
	return s.State == SessionSettled || s.State == SessionDeclined
}
