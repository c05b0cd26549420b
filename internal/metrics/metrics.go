// Package metrics registers the Prometheus instruments for the checkout
// flow. All instruments are registered on the default registry and exposed
// on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "orders_created_total",
		Help:      "Orders successfully created from carts",
	})

	PaymentAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "payment_attempts_total",
		Help:      "Payment settlement attempts by outcome",
	}, []string{"outcome"})

	GatewayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of settlement requests to the card gateway",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	ExportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "export_write_failures_total",
		Help:      "Paid-orders export appends that failed",
	})
)

// Outcome labels for PaymentAttempts.
const (
	OutcomeSettled     = "settled"
	OutcomeDeclined    = "declined"
	OutcomeUnavailable = "gateway_unavailable"
)

// ObserveGateway records one gateway round trip.
func ObserveGateway(start time.Time) {
	GatewayDuration.Observe(time.Since(start).Seconds())
}
