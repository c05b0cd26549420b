package domain

import "time"

type Cart struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customerId"`
	CreatedAt  time.Time  `json:"createdAt"`
	Lines      []CartLine `json:"lines,omitempty"`
}

// CartLine holds a product and quantity only. Prices are not locked into the
// cart; they are read from the catalog at snapshot time and locked at order
// creation.
type CartLine struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cartId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartSnapshot is the read view of a cart with price-at-read-time annotated.
type CartSnapshot struct {
	CartID        string         `json:"cartId"`
	Lines         []SnapshotLine `json:"lines"`
	TotalItems    int            `json:"totalItems"`
	SubtotalCents int64          `json:"subtotalCents"`
	ShippingCents int64          `json:"shippingCents"`
	TotalCents    int64          `json:"totalCents"`
	Currency      string         `json:"currency"`
}

type SnapshotLine struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	Quantity         int    `json:"quantity"`
	UnitPriceCents   int64  `json:"unitPriceCents"`
	ShippingFeeCents int64  `json:"shippingFeeCents"`
	TotalCents       int64  `json:"totalCents"`
}
