package settlement

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/export"
	"storefront/internal/metrics"
)

// Recorder applies the bookkeeping for a successful charge: committed
// reservations, a paid order row, and a line in the paid-orders export. The
// export is best effort; a failed append never unwinds a settlement.
type Recorder struct {
	ledger   ledger
	orders   orderRepo
	exporter exporter
	logger   *log.Logger
}

type ledger interface {
	CommitOrder(ctx context.Context, orderID string) error
}

type orderRepo interface {
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

type exporter interface {
	Append(rec export.Record) error
}

func New(ledger ledger, orders orderRepo, exporter exporter, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Recorder{ledger: ledger, orders: orders, exporter: exporter, logger: logger}
}

// Finalize records a settled charge against the order. The ledger commit and
// the paid transition must both land; the export append is logged on failure
// and retried by no one, operators replay from payment_sessions if needed.
func (r *Recorder) Finalize(ctx context.Context, order *domain.Order, transactionID string, paidAt time.Time) error {
	if err := r.ledger.CommitOrder(ctx, order.ID); err != nil {
		return fmt.Errorf("commit reservations for order %s: %w", order.ID, err)
	}
	if err := r.orders.MarkPaid(ctx, order.ID, paidAt); err != nil {
		return fmt.Errorf("mark order %s paid: %w", order.ID, err)
	}

	rec := export.Record{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		TransactionID: transactionID,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
		PaidAt:        paidAt,
	}
	if err := r.exporter.Append(rec); err != nil {
		metrics.ExportFailures.Inc()
		r.logger.Printf("settlement: export append order=%s: %v", order.ID, err)
	}
	return nil
}
