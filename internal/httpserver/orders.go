package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ShippingAddress *addressJSON `json:"shippingAddress"`
}

func (h *handlers) createOrder(c *gin.Context) {
	var in createOrderRequest
	if err := c.ShouldBindJSON(&in); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Reason: err.Error()})
		return
	}
	var address *domain.Address
	if in.ShippingAddress != nil {
		address = &domain.Address{
			Street:     in.ShippingAddress.Street,
			City:       in.ShippingAddress.City,
			State:      in.ShippingAddress.State,
			PostalCode: in.ShippingAddress.PostalCode,
			Country:    in.ShippingAddress.Country,
		}
	}
	order, err := h.deps.CheckoutSvc.CreateOrder(c.Request.Context(), customerFrom(c).ID, address)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": toOrderJSON(*order)})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.CheckoutSvc.List(c.Request.Context(), customerFrom(c).ID, c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.CheckoutSvc.Get(c.Request.Context(), customerFrom(c).ID, c.Param("orderID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderJSON(*order)})
}

func (h *handlers) deleteOrder(c *gin.Context) {
	if err := h.deps.CheckoutSvc.Delete(c.Request.Context(), customerFrom(c).ID, c.Param("orderID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) markDelivered(c *gin.Context) {
	customerID := customerFrom(c).ID
	orderID := c.Param("orderID")
	if err := h.deps.CheckoutSvc.MarkDelivered(c.Request.Context(), customerID, orderID); err != nil {
		h.writeError(c, err)
		return
	}
	order, err := h.deps.CheckoutSvc.Get(c.Request.Context(), customerID, orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderJSON(*order)})
}
