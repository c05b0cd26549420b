package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

type cartLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type cartLineJSON struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	Quantity         int    `json:"quantity"`
	UnitPriceCents   int64  `json:"unitPriceCents"`
	ShippingFeeCents int64  `json:"shippingFeeCents"`
	TotalCents       int64  `json:"totalCents"`
}

type cartJSON struct {
	Lines         []cartLineJSON `json:"lines"`
	TotalItems    int            `json:"totalItems"`
	SubtotalCents int64          `json:"subtotalCents"`
	ShippingCents int64          `json:"shippingCents"`
	TotalCents    int64          `json:"totalCents"`
	Currency      string         `json:"currency"`
}

func toCartJSON(snap domain.CartSnapshot) cartJSON {
	lines := make([]cartLineJSON, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, cartLineJSON{
			ProductID:        l.ProductID,
			ProductName:      l.ProductName,
			Quantity:         l.Quantity,
			UnitPriceCents:   l.UnitPriceCents,
			ShippingFeeCents: l.ShippingFeeCents,
			TotalCents:       l.TotalCents,
		})
	}
	return cartJSON{
		Lines:         lines,
		TotalItems:    snap.TotalItems,
		SubtotalCents: snap.SubtotalCents,
		ShippingCents: snap.ShippingCents,
		TotalCents:    snap.TotalCents,
		Currency:      snap.Currency,
	}
}

func (h *handlers) cartSnapshot(c *gin.Context) {
	snap, err := h.deps.CartSvc.Snapshot(c.Request.Context(), customerFrom(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartJSON(*snap)})
}

func (h *handlers) cartAddLine(c *gin.Context) {
	var in cartLineRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Reason: err.Error()})
		return
	}
	snap, err := h.deps.CartSvc.AddOrUpdate(c.Request.Context(), customerFrom(c).ID, in.ProductID, in.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartJSON(*snap)})
}

func (h *handlers) cartUpdateLine(c *gin.Context) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Reason: err.Error()})
		return
	}
	snap, err := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), customerFrom(c).ID, c.Param("productID"), in.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartJSON(*snap)})
}

func (h *handlers) cartRemoveLine(c *gin.Context) {
	if err := h.deps.CartSvc.Remove(c.Request.Context(), customerFrom(c).ID, c.Param("productID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) cartClear(c *gin.Context) {
	if err := h.deps.CartSvc.Clear(c.Request.Context(), customerFrom(c).ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
