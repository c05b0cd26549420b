package domain

import "time"

// Reservation state machine: held -> committed | released. A held
// reservation has already decremented available stock; releasing returns the
// quantity, committing makes the decrement permanent.
const (
	ReservationHeld      = "held"
	ReservationCommitted = "committed"
	ReservationReleased  = "released"
)

type Reservation struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}
