package httpserver

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// logged and surface as a bare 500.
func (h *handlers) writeError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	var declined *domain.PaymentDeclinedError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, checkoutsvc.ErrAddressRequired):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrOrderAlreadyPaid),
		errors.Is(err, domain.ErrOrderHasPendingPayment),
		errors.Is(err, domain.ErrOrderNotDeletable),
		errors.Is(err, domain.ErrOrderNotPaid):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, errorResponse{Error: "insufficient stock", Reason: stockErr.Error()})
	case errors.As(err, &declined):
		c.JSON(http.StatusPaymentRequired, errorResponse{Error: "payment declined", Reason: declined.Reason})
	case errors.Is(err, domain.ErrGatewayUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "payment gateway unavailable"})
	case errors.Is(err, customersvc.ErrInvalidCredentials),
		errors.Is(err, customersvc.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		h.logger.Printf("http: unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

type addressJSON struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type orderItemJSON struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	TotalCents     int64  `json:"totalCents"`
}

type orderJSON struct {
	ID              string          `json:"id"`
	ShippingAddress addressJSON     `json:"shippingAddress"`
	Items           []orderItemJSON `json:"items"`
	SubtotalCents   int64           `json:"subtotalCents"`
	DiscountCents   int64           `json:"discountCents"`
	ShippingCents   int64           `json:"shippingCents"`
	TotalCents      int64           `json:"totalCents"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
}

func toOrderJSON(o domain.Order) orderJSON {
	items := make([]orderItemJSON, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemJSON{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			TotalCents:     it.TotalCents,
		})
	}
	return orderJSON{
		ID: o.ID,
		ShippingAddress: addressJSON{
			Street:     o.ShippingAddress.Street,
			City:       o.ShippingAddress.City,
			State:      o.ShippingAddress.State,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		Items:         items,
		SubtotalCents: o.SubtotalCents,
		DiscountCents: o.DiscountCents,
		ShippingCents: o.ShippingCents,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}

type sessionJSON struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"orderId"`
	State         string     `json:"state"`
	ClientToken   string     `json:"clientToken,omitempty"`
	AmountCents   int64      `json:"amountCents"`
	Currency      string     `json:"currency"`
	TransactionID string     `json:"transactionId,omitempty"`
	DeclineReason string     `json:"declineReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	AttemptedAt   *time.Time `json:"attemptedAt,omitempty"`
}

func toSessionJSON(s domain.PaymentSession) sessionJSON {
	return sessionJSON{
		ID:            s.ID,
		OrderID:       s.OrderID,
		State:         s.State,
		ClientToken:   s.ClientToken,
		AmountCents:   s.AmountCents,
		Currency:      s.Currency,
		TransactionID: s.TransactionID,
		DeclineReason: s.DeclineReason,
		CreatedAt:     s.CreatedAt,
		AttemptedAt:   s.AttemptedAt,
	}
}

type productJSON struct {
	ID               string `json:"id"`
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	PriceCents       int64  `json:"priceCents"`
	ShippingFeeCents int64  `json:"shippingFeeCents"`
	Currency         string `json:"currency"`
	Stock            int    `json:"stock"`
}

func toProductJSON(p domain.Product) productJSON {
	return productJSON{
		ID:               p.ID,
		SKU:              p.SKU,
		Name:             p.Name,
		Description:      p.Description,
		PriceCents:       p.PriceCents,
		ShippingFeeCents: p.ShippingFeeCents,
		Currency:         p.Currency,
		Stock:            p.Stock,
	}
}
