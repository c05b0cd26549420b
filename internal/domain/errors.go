package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation on insert.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidQuantity is returned for cart quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrProductUnavailable is returned when a product has no stock left.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrEmptyCart is returned when an order is requested from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderAlreadyPaid rejects payment attempts against a paid order.
	ErrOrderAlreadyPaid = errors.New("order already paid")
	// ErrOrderHasPendingPayment rejects a second concurrent payment attempt.
	ErrOrderHasPendingPayment = errors.New("order has a pending payment")
	// ErrOrderNotPaid rejects transitions that require a paid order.
	ErrOrderNotPaid = errors.New("order not paid")
	// ErrOrderNotDeletable rejects deletion of a paid or delivered order.
	ErrOrderNotDeletable = errors.New("order can only be deleted while unpaid")

	// ErrGatewayUnavailable covers gateway timeouts and network failures,
	// distinct from a processor decline.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// PaymentDeclinedError carries the gateway's decline reason verbatim.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}
