package httpserver

import (
	"context"
	"errors"
	"log"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CustomerService covers signup, login, and token lookup.
type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

// CartService mutates and reads the customer's cart.
type CartService interface {
	AddOrUpdate(ctx context.Context, customerID, productID string, quantity int) (*domain.CartSnapshot, error)
	UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.CartSnapshot, error)
	Remove(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
	Snapshot(ctx context.Context, customerID string) (*domain.CartSnapshot, error)
}

// CheckoutService turns carts into orders and manages their lifecycle.
type CheckoutService interface {
	CreateOrder(ctx context.Context, customerID string, address *domain.Address) (*domain.Order, error)
	Get(ctx context.Context, customerID, orderID string) (*domain.Order, error)
	List(ctx context.Context, customerID, status string) ([]domain.Order, error)
	Delete(ctx context.Context, customerID, orderID string) error
	MarkDelivered(ctx context.Context, customerID, orderID string) error
}

// PaymentService runs payment sessions against the gateway.
type PaymentService interface {
	StartSession(ctx context.Context, customerID, orderID string) (*domain.PaymentSession, error)
	SubmitPayment(ctx context.Context, customerID, sessionID, nonce string) (*domain.PaymentSession, error)
	Session(ctx context.Context, customerID, sessionID string) (*domain.PaymentSession, error)
	SessionsForOrder(ctx context.Context, customerID, orderID string) ([]domain.PaymentSession, error)
}

// ProductCatalog is the read side of the product listing.
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// Deps carries the services the router depends on.
type Deps struct {
	CustomerSvc CustomerService
	CartSvc     CartService
	CheckoutSvc CheckoutService
	PaymentSvc  PaymentService
	Products    ProductCatalog
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CustomerSvc == nil || deps.CartSvc == nil || deps.CheckoutSvc == nil || deps.PaymentSvc == nil || deps.Products == nil {
		return nil, errors.New("httpserver: missing dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/products", h.listProducts)
	router.GET("/products/:productID", h.getProduct)

	router.POST("/signup", h.signup)
	router.POST("/login", h.login)

	me := router.Group("/me", authMiddleware(deps.CustomerSvc))
	{
		me.GET("", h.profile)

		me.GET("/cart", h.cartSnapshot)
		me.POST("/cart/lines", h.cartAddLine)
		me.PUT("/cart/lines/:productID", h.cartUpdateLine)
		me.DELETE("/cart/lines/:productID", h.cartRemoveLine)
		me.DELETE("/cart", h.cartClear)

		me.GET("/orders", h.listOrders)
		me.POST("/orders", h.createOrder)
		me.GET("/orders/:orderID", h.getOrder)
		me.DELETE("/orders/:orderID", h.deleteOrder)
		me.POST("/orders/:orderID/deliver", h.markDelivered)

		me.GET("/orders/:orderID/payment-sessions", h.listPaymentSessions)
		me.POST("/orders/:orderID/payment-sessions", h.startPaymentSession)
		me.GET("/payment-sessions/:sessionID", h.getPaymentSession)
		me.POST("/payment-sessions/:sessionID/submit", h.submitPayment)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
