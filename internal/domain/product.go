package domain

import "time"

type Product struct {
	ID               string    `json:"id"`
	SKU              string    `json:"sku"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	PriceCents       int64     `json:"priceCents"`
	ShippingFeeCents int64     `json:"shippingFeeCents"`
	Currency         string    `json:"currency"`
	Stock            int       `json:"stock"`
	CreatedAt        time.Time `json:"createdAt"`
}
