package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type submitPaymentRequest struct {
	Nonce string `json:"nonce" binding:"required"`
}

func (h *handlers) startPaymentSession(c *gin.Context) {
	session, err := h.deps.PaymentSvc.StartSession(c.Request.Context(), customerFrom(c).ID, c.Param("orderID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": toSessionJSON(*session)})
}

func (h *handlers) listPaymentSessions(c *gin.Context) {
	sessions, err := h.deps.PaymentSvc.SessionsForOrder(c.Request.Context(), customerFrom(c).ID, c.Param("orderID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *handlers) getPaymentSession(c *gin.Context) {
	session, err := h.deps.PaymentSvc.Session(c.Request.Context(), customerFrom(c).ID, c.Param("sessionID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": toSessionJSON(*session)})
}

func (h *handlers) submitPayment(c *gin.Context) {
	var in submitPaymentRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Reason: err.Error()})
		return
	}
	session, err := h.deps.PaymentSvc.SubmitPayment(c.Request.Context(), customerFrom(c).ID, c.Param("sessionID"), in.Nonce)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": toSessionJSON(*session)})
}
