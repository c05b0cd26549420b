package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCustomerService struct {
	customer  *domain.Customer
	signupErr error
	loginErr  error
	lookupErr error
}

func (s *stubCustomerService) Signup(_ context.Context, _ customersvc.SignupInput) (*domain.Customer, error) {
	return s.customer, s.signupErr
}

func (s *stubCustomerService) Login(_ context.Context, _, _ string) (*domain.Customer, string, error) {
	return s.customer, "access-token", s.loginErr
}

func (s *stubCustomerService) LookupByToken(_ context.Context, _ string) (*domain.Customer, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.customer, nil
}

func (s *stubCustomerService) AccessTTLSeconds() int { return 3600 }

type stubCartService struct {
	snapshot *domain.CartSnapshot
	err      error
}

func (s *stubCartService) AddOrUpdate(_ context.Context, _, _ string, _ int) (*domain.CartSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, _, _ string, _ int) (*domain.CartSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubCartService) Remove(_ context.Context, _, _ string) error { return s.err }

func (s *stubCartService) Clear(_ context.Context, _ string) error { return s.err }

func (s *stubCartService) Snapshot(_ context.Context, _ string) (*domain.CartSnapshot, error) {
	return s.snapshot, s.err
}

type stubCheckoutService struct {
	order *domain.Order
	err   error
}

func (s *stubCheckoutService) CreateOrder(_ context.Context, _ string, _ *domain.Address) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubCheckoutService) Get(_ context.Context, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubCheckoutService) List(_ context.Context, _, _ string) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.order == nil {
		return nil, nil
	}
	return []domain.Order{*s.order}, nil
}

func (s *stubCheckoutService) Delete(_ context.Context, _, _ string) error { return s.err }

func (s *stubCheckoutService) MarkDelivered(_ context.Context, _, _ string) error { return s.err }

type stubPaymentService struct {
	session *domain.PaymentSession
	err     error
}

func (s *stubPaymentService) StartSession(_ context.Context, _, _ string) (*domain.PaymentSession, error) {
	return s.session, s.err
}

func (s *stubPaymentService) SubmitPayment(_ context.Context, _, _, _ string) (*domain.PaymentSession, error) {
	return s.session, s.err
}

func (s *stubPaymentService) Session(_ context.Context, _, _ string) (*domain.PaymentSession, error) {
	return s.session, s.err
}

func (s *stubPaymentService) SessionsForOrder(_ context.Context, _, _ string) ([]domain.PaymentSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.session == nil {
		return nil, nil
	}
	return []domain.PaymentSession{*s.session}, nil
}

type stubCatalog struct {
	product *domain.Product
	err     error
}

func (s *stubCatalog) GetByID(_ context.Context, _ string) (*domain.Product, error) {
	if s.err != nil || s.product == nil {
		if s.err != nil {
			return nil, s.err
		}
		return nil, domain.ErrNotFound
	}
	return s.product, nil
}

func (s *stubCatalog) List(_ context.Context) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.product == nil {
		return nil, nil
	}
	return []domain.Product{*s.product}, nil
}

type testDeps struct {
	customer *stubCustomerService
	cart     *stubCartService
	checkout *stubCheckoutService
	payment  *stubPaymentService
	catalog  *stubCatalog
}

func newTestDeps() *testDeps {
	return &testDeps{
		customer: &stubCustomerService{customer: &domain.Customer{ID: "cust-1", Email: "user@example.com"}},
		cart:     &stubCartService{snapshot: &domain.CartSnapshot{Currency: "USD"}},
		checkout: &stubCheckoutService{},
		payment:  &stubPaymentService{},
		catalog:  &stubCatalog{},
	}
}

func (d *testDeps) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, Deps{
		CustomerSvc: d.customer,
		CartSvc:     d.cart,
		CheckoutSvc: d.checkout,
		PaymentSvc:  d.payment,
		Products:    d.catalog,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouter_MissingDeps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if _, err := buildRouter(logDiscard(), nil, Deps{}); err == nil {
		t.Fatal("expected error for empty deps")
	}
}

func TestSignupHandler_Created(t *testing.T) {
	deps := newTestDeps()
	router := deps.router(t)

	body := `{"email":"user@example.com","password":"Abcdefg1"}`
	rec := doJSON(router, http.MethodPost, "/signup", body, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"user@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	deps := newTestDeps()
	deps.customer.loginErr = customersvc.ErrInvalidCredentials
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/login", `{"email":"a@b.c","password":"nope"}`, "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	deps := newTestDeps()
	router := deps.router(t)

	rec := doJSON(router, http.MethodGet, "/me/cart", "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	deps := newTestDeps()
	deps.customer.lookupErr = customersvc.ErrInvalidToken
	router := deps.router(t)

	rec := doJSON(router, http.MethodGet, "/me/cart", "", "bogus")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCartAddLine_InsufficientStock(t *testing.T) {
	deps := newTestDeps()
	deps.cart.err = &domain.InsufficientStockError{ProductID: "prod-1", Requested: 5, Available: 2}
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/cart/lines", `{"productId":"prod-1","quantity":5}`, "tok")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "insufficient stock") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCartSnapshot_OK(t *testing.T) {
	deps := newTestDeps()
	deps.cart.snapshot = &domain.CartSnapshot{
		Lines:         []domain.SnapshotLine{{ProductID: "prod-1", ProductName: "Kettle", Quantity: 2, UnitPriceCents: 1000, TotalCents: 2000}},
		TotalItems:    2,
		SubtotalCents: 2000,
		ShippingCents: 500,
		TotalCents:    2500,
		Currency:      "USD",
	}
	router := deps.router(t)

	rec := doJSON(router, http.MethodGet, "/me/cart", "", "tok")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"totalCents":2500`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	deps := newTestDeps()
	deps.checkout.err = domain.ErrEmptyCart
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/orders", "", "tok")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateOrder_Created(t *testing.T) {
	deps := newTestDeps()
	deps.checkout.order = &domain.Order{ID: "order-1", CustomerID: "cust-1", TotalCents: 2500, Currency: "USD", Status: domain.OrderUnpaid}
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/orders", `{"shippingAddress":{"street":"1 Main St","city":"Springfield","postalCode":"62701","country":"US"}}`, "tok")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":"order-1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestDeleteOrder_Paid(t *testing.T) {
	deps := newTestDeps()
	deps.checkout.err = domain.ErrOrderNotDeletable
	router := deps.router(t)

	rec := doJSON(router, http.MethodDelete, "/me/orders/order-1", "", "tok")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestStartPaymentSession_AlreadyPending(t *testing.T) {
	deps := newTestDeps()
	deps.payment.err = domain.ErrOrderHasPendingPayment
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/orders/order-1/payment-sessions", "", "tok")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmitPayment_Declined(t *testing.T) {
	deps := newTestDeps()
	deps.payment.err = &domain.PaymentDeclinedError{Reason: "processor declined"}
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/payment-sessions/sess-1/submit", `{"nonce":"fake-card"}`, "tok")

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "processor declined") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestSubmitPayment_GatewayDown(t *testing.T) {
	deps := newTestDeps()
	deps.payment.err = domain.ErrGatewayUnavailable
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/payment-sessions/sess-1/submit", `{"nonce":"fake-card"}`, "tok")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmitPayment_Settled(t *testing.T) {
	deps := newTestDeps()
	deps.payment.session = &domain.PaymentSession{ID: "sess-1", OrderID: "order-1", State: domain.SessionSettled, TransactionID: "tx-1", AmountCents: 2500, Currency: "USD"}
	router := deps.router(t)

	rec := doJSON(router, http.MethodPost, "/me/payment-sessions/sess-1/submit", `{"nonce":"fake-valid-card"}`, "tok")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"state":"settled"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestListProducts_OK(t *testing.T) {
	deps := newTestDeps()
	deps.catalog.product = &domain.Product{ID: "prod-1", Name: "Kettle", PriceCents: 1000, Currency: "USD", Stock: 3}
	router := deps.router(t)

	rec := doJSON(router, http.MethodGet, "/products", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"name":"Kettle"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
