// Package pricing holds the discount and shipping-cost policies consulted at
// order creation. Both are pure functions of the order lines; the checkout
// service locks their results into the order snapshot.
package pricing

import "storefront/internal/domain"

// Line is one priced cart line handed to the policies.
type Line struct {
	Product  domain.Product
	Quantity int
}

// DiscountPolicy maps order lines to a total discount in minor units.
type DiscountPolicy interface {
	DiscountCents(lines []Line) int64
}

// ShippingPolicy maps order lines to a total shipping cost in minor units.
type ShippingPolicy interface {
	ShippingCents(lines []Line) int64
}

// NoDiscount applies no discount.
type NoDiscount struct{}

func (NoDiscount) DiscountCents([]Line) int64 { return 0 }

// PercentageDiscount takes a flat percentage off the subtotal, truncated to
// the minor unit.
type PercentageDiscount struct {
	Percent int64
}

func (p PercentageDiscount) DiscountCents(lines []Line) int64 {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.Product.PriceCents * int64(l.Quantity)
	}
	return subtotal * p.Percent / 100
}

// PerItemShipping sums each product's shipping fee once per line, matching
// the catalog's per-product flat fee model.
type PerItemShipping struct{}

func (PerItemShipping) ShippingCents(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Product.ShippingFeeCents
	}
	return total
}

// FlatShipping charges a fixed fee for any non-empty order.
type FlatShipping struct {
	FeeCents int64
}

func (f FlatShipping) ShippingCents(lines []Line) int64 {
	if len(lines) == 0 {
		return 0
	}
	return f.FeeCents
}
