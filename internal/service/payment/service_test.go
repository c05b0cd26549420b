package payment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/export"
	"storefront/internal/gateway"
	"storefront/internal/repository/inventory"
	"storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
	"storefront/internal/service/settlement"
)

type unreachableGateway struct{}

func (unreachableGateway) CreateClientToken(_ context.Context) (string, error) {
	return "", domain.ErrGatewayUnavailable
}

func (unreachableGateway) SubmitPayment(_ context.Context, _ string, _ int64, _ string) (*gateway.SaleResult, error) {
	return nil, domain.ErrGatewayUnavailable
}

type fixture struct {
	svc        *Service
	sessions   *paymentrepo.MemoryRepo
	orders     *order.MemoryRepo
	ledger     *inventory.MemoryLedger
	exportPath string
	order      *domain.Order
}

// newFixture seeds a two-unit order with its stock already reserved, the
// state an order is in right after checkout.
func newFixture(t *testing.T, gw gateway.Gateway) *fixture {
	t.Helper()

	orders := order.NewMemory()
	sessions := paymentrepo.NewMemory()
	ledger := inventory.NewMemory()
	exportPath := filepath.Join(t.TempDir(), "paid_orders.csv")

	o := &domain.Order{
		ID:         "order-1",
		CustomerID: "cust-1",
		Items: []domain.OrderItem{{
			OrderID:        "order-1",
			ProductID:      "prod-1",
			ProductName:    "Kettle",
			UnitPriceCents: 1000,
			Quantity:       2,
			TotalCents:     2000,
		}},
		SubtotalCents: 2000,
		ShippingCents: 500,
		TotalCents:    2500,
		Currency:      "USD",
		Status:        domain.OrderUnpaid,
	}
	if err := orders.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	ledger.SetStock("prod-1", 2)
	if _, err := ledger.Reserve(context.Background(), o.ID, "prod-1", 2); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	recorder := settlement.New(ledger, orders, export.NewCSVWriter(exportPath), nil)
	svc := New(sessions, orders, ledger, gw, recorder, nil)
	return &fixture{svc: svc, sessions: sessions, orders: orders, ledger: ledger, exportPath: exportPath, order: o}
}

func TestStartSessionLocksAmount(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session.State != domain.SessionCreated {
		t.Fatalf("state = %q, want %q", session.State, domain.SessionCreated)
	}
	if session.AmountCents != 2500 {
		t.Fatalf("amount = %d, want 2500", session.AmountCents)
	}
	if session.ClientToken == "" {
		t.Fatal("client token missing")
	}
}

func TestStartSessionRefusedForForeignOrder(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	if _, err := f.svc.StartSession(context.Background(), "cust-2", f.order.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStartSessionRefusedWhilePending(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := f.sessions.MarkPending(context.Background(), session.ID); err != nil {
		t.Fatalf("MarkPending: %v", err)
	}

	if _, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID); !errors.Is(err, domain.ErrOrderHasPendingPayment) {
		t.Fatalf("err = %v, want ErrOrderHasPendingPayment", err)
	}
}

func TestSubmitPaymentSettles(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	settled, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-valid-nonce")
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if settled.State != domain.SessionSettled {
		t.Fatalf("state = %q, want %q", settled.State, domain.SessionSettled)
	}
	if settled.TransactionID == "" {
		t.Fatal("transaction id missing")
	}

	got, err := f.orders.GetByID(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.OrderPaid || got.PaidAt == nil {
		t.Fatalf("order not paid: status=%q paidAt=%v", got.Status, got.PaidAt)
	}

	// Committed stock stays out of circulation.
	left, err := f.ledger.AvailableStock(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("AvailableStock: %v", err)
	}
	if left != 0 {
		t.Fatalf("stock = %d, want 0", left)
	}
	if err := f.ledger.ReleaseOrder(context.Background(), f.order.ID); err != nil {
		t.Fatalf("ReleaseOrder: %v", err)
	}
	if left, _ = f.ledger.AvailableStock(context.Background(), "prod-1"); left != 0 {
		t.Fatalf("committed reservation released, stock = %d", left)
	}

	data, err := os.ReadFile(f.exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "Order Id") {
		t.Fatalf("export missing header: %q", body)
	}
	if !strings.Contains(body, f.order.ID) || !strings.Contains(body, "2500") {
		t.Fatalf("export missing settlement row: %q", body)
	}
}

type flakyRecorder struct {
	inner recorder
	calls int
}

func (r *flakyRecorder) Finalize(ctx context.Context, order *domain.Order, transactionID string, paidAt time.Time) error {
	r.calls++
	if r.calls == 1 {
		return errors.New("orders table unavailable")
	}
	return r.inner.Finalize(ctx, order, transactionID, paidAt)
}

func TestSubmitPaymentRetriesFinalize(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())
	flaky := &flakyRecorder{inner: f.svc.recorder}
	f.svc.recorder = flaky

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	settled, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-valid-nonce")
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if settled.State != domain.SessionSettled {
		t.Fatalf("state = %q, want %q", settled.State, domain.SessionSettled)
	}
	if flaky.calls != 2 {
		t.Fatalf("finalize calls = %d, want 2", flaky.calls)
	}

	got, err := f.orders.GetByID(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.OrderPaid {
		t.Fatalf("order status = %q, want %q", got.Status, domain.OrderPaid)
	}
}

func TestSubmitPaymentDeclineRestoresStock(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	_, err = f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-declined-nonce")
	var declined *domain.PaymentDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("err = %v, want PaymentDeclinedError", err)
	}
	if declined.Reason == "" {
		t.Fatal("decline reason missing")
	}

	got, err := f.sessions.GetByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != domain.SessionDeclined {
		t.Fatalf("state = %q, want %q", got.State, domain.SessionDeclined)
	}

	left, err := f.ledger.AvailableStock(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("AvailableStock: %v", err)
	}
	if left != 2 {
		t.Fatalf("stock after decline = %d, want 2", left)
	}

	o, err := f.orders.GetByID(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if o.Status != domain.OrderUnpaid {
		t.Fatalf("order status = %q, want %q", o.Status, domain.OrderUnpaid)
	}
	if _, err := os.Stat(f.exportPath); !os.IsNotExist(err) {
		t.Fatalf("declined payment must not be exported: %v", err)
	}
}

func TestSubmitPaymentGatewayDownReopensSession(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	f.svc.gateway = unreachableGateway{}
	if _, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-valid-nonce"); !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}

	got, err := f.sessions.GetByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != domain.SessionCreated {
		t.Fatalf("state = %q, want %q", got.State, domain.SessionCreated)
	}

	// Stock stays held for the retry.
	left, err := f.ledger.AvailableStock(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("AvailableStock: %v", err)
	}
	if left != 0 {
		t.Fatalf("stock = %d, want 0", left)
	}

	// The retry against a healthy gateway succeeds on the same session.
	f.svc.gateway = gateway.NewSandbox()
	if _, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-valid-nonce"); err != nil {
		t.Fatalf("retry SubmitPayment: %v", err)
	}
}

func TestSubmitPaymentTerminalSessionRefused(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "bad-nonce"); err == nil {
		t.Fatal("expected decline")
	}

	if _, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-valid-nonce"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitPaymentPaidOrderRefused(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	session, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := f.orders.MarkPaid(context.Background(), f.order.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	if _, err := f.svc.SubmitPayment(context.Background(), "cust-1", session.ID, "fake-valid-nonce"); !errors.Is(err, domain.ErrOrderAlreadyPaid) {
		t.Fatalf("err = %v, want ErrOrderAlreadyPaid", err)
	}
}

func TestStartSessionGatewayDown(t *testing.T) {
	f := newFixture(t, unreachableGateway{})

	if _, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID); !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}

func TestReapStale(t *testing.T) {
	f := newFixture(t, gateway.NewSandbox())

	stale := &domain.PaymentSession{
		ID:        "stale-1",
		OrderID:   f.order.ID,
		State:     domain.SessionCreated,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	if err := f.sessions.Create(context.Background(), stale); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fresh, err := f.svc.StartSession(context.Background(), "cust-1", f.order.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	f.svc.ReapStale(context.Background(), time.Hour)

	if _, err := f.sessions.GetByID(context.Background(), stale.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stale session survived: %v", err)
	}
	if _, err := f.sessions.GetByID(context.Background(), fresh.ID); err != nil {
		t.Fatalf("fresh session reaped: %v", err)
	}
}
