package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/export"
	"storefront/internal/gateway"
	"storefront/internal/httpserver"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
	customerrepo "storefront/internal/repository/customer"
	inventoryrepo "storefront/internal/repository/inventory"
	orderrepo "storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	paymentsvc "storefront/internal/service/payment"
	"storefront/internal/service/settlement"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	sessionRepo := paymentrepo.NewPostgres(dbpool)
	ledger := inventoryrepo.NewPostgres(dbpool, logger)

	var gw gateway.Gateway
	if cfg.GatewayURL == "" {
		logger.Printf("GATEWAY_URL empty, using sandbox gateway")
		gw = gateway.NewSandbox()
	} else {
		gw = gateway.NewHTTP(cfg.GatewayURL, cfg.GatewayTimeout, logger)
	}

	exporter := export.NewCSVWriter(cfg.ExportPath)
	recorder := settlement.New(ledger, orderRepo, exporter, logger)

	customerService := customersvc.New(customerRepo, tokenrepo.NewPostgres(dbpool))
	cartService := cartsvc.New(cartRepo, productRepo)
	checkoutService := checkoutsvc.New(cartRepo, productRepo, customerRepo, orderRepo, ledger, pricing.NoDiscount{}, pricing.PerItemShipping{}, logger)
	paymentService := paymentsvc.New(sessionRepo, orderRepo, ledger, gw, recorder, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CustomerSvc: customerService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		PaymentSvc:  paymentService,
		Products:    productRepo,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go runSessionReaper(reaperCtx, paymentService, cfg.SessionTTL)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// runSessionReaper expires unsubmitted payment sessions on a fixed cadence.
func runSessionReaper(ctx context.Context, svc *paymentsvc.Service, ttl time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.ReapStale(ctx, ttl)
		}
	}
}
