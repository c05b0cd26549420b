package domain

import "time"

// Order status state machine: unpaid -> paid -> delivered.
const (
	OrderUnpaid    = "unpaid"
	OrderPaid      = "paid"
	OrderDelivered = "delivered"
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is an immutable snapshot of purchasable lines. Item prices are copied
// from the catalog at creation time and never recomputed afterwards.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customerId"`
	ShippingAddress Address     `json:"shippingAddress"`
	Items           []OrderItem `json:"items"`
	SubtotalCents   int64       `json:"subtotalCents"`
	DiscountCents   int64       `json:"discountCents"`
	ShippingCents   int64       `json:"shippingCents"`
	TotalCents      int64       `json:"totalCents"`
	Currency        string      `json:"currency"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	PaidAt          *time.Time  `json:"paidAt,omitempty"`
}

type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	TotalCents     int64  `json:"totalCents"`
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderPaid
}
