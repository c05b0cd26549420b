package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

// Apply inserts basic seed data for manual testing. It is idempotent: the
// repository upserts by SKU, so re-running refreshes the same rows.
func Apply(ctx context.Context, products productrepo.Repository) error {
	rows := []domain.Product{
		{
			SKU:              "SKU-KETTLE",
			Name:             "Electric Kettle",
			Description:      "1.7L stainless steel kettle",
			PriceCents:       3499,
			ShippingFeeCents: 599,
			Currency:         "USD",
			Stock:            25,
		},
		{
			SKU:              "SKU-MUG",
			Name:             "Ceramic Mug",
			Description:      "350ml glazed ceramic mug",
			PriceCents:       1299,
			ShippingFeeCents: 250,
			Currency:         "USD",
			Stock:            100,
		},
		{
			SKU:              "SKU-GRINDER",
			Name:             "Burr Coffee Grinder",
			Description:      "Conical burr grinder with 18 settings",
			PriceCents:       7999,
			ShippingFeeCents: 899,
			Currency:         "USD",
			Stock:            8,
		},
		{
			SKU:              "SKU-SCALE",
			Name:             "Pour-Over Scale",
			Description:      "0.1g precision scale with timer",
			PriceCents:       2499,
			ShippingFeeCents: 350,
			Currency:         "USD",
			Stock:            0,
		},
	}

	for _, p := range rows {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	return nil
}
