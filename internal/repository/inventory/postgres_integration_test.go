package inventory

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestReserve_ConcurrentLastUnit_Integration(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE stock_reservations, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	var productID string
	if err := pool.QueryRow(ctx, `
INSERT INTO products (sku, name, price_cents, stock)
VALUES ('SKU-LAST', 'Last Unit', 1000, 1)
RETURNING id::text
`).Scan(&productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	ledger := NewPostgres(pool, nil)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(ctx, uuid.NewString(), productID, 1)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			var stockErr *domain.InsufficientStockError
			if !errors.As(err, &stockErr) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}

	stock, err := ledger.AvailableStock(ctx, productID)
	if err != nil {
		t.Fatalf("AvailableStock: %v", err)
	}
	if stock != 0 {
		t.Fatalf("stock = %d, want 0", stock)
	}
}
