package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Customer    customerJSON `json:"customer"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int          `json:"expiresIn"`
}

type customerJSON struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	FirstName string       `json:"firstName,omitempty"`
	LastName  string       `json:"lastName,omitempty"`
	Address   *addressJSON `json:"address,omitempty"`
}

func toCustomerJSON(c domain.Customer) customerJSON {
	out := customerJSON{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
	if c.Address != nil {
		out.Address = &addressJSON{
			Street:     c.Address.Street,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		}
	}
	return out
}

func (h *handlers) signup(c *gin.Context) {
	var in customersvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Reason: err.Error()})
		return
	}
	customer, err := h.deps.CustomerSvc.Signup(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": toCustomerJSON(*customer)})
}

func (h *handlers) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body", Reason: err.Error()})
		return
	}
	customer, access, err := h.deps.CustomerSvc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		Customer:    toCustomerJSON(*customer),
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.CustomerSvc.AccessTTLSeconds(),
	})
}

func (h *handlers) profile(c *gin.Context) {
	customer := customerFrom(c)
	c.JSON(http.StatusOK, gin.H{"customer": toCustomerJSON(*customer)})
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Products.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, toProductJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *handlers) getProduct(c *gin.Context) {
	product, err := h.deps.Products.GetByID(c.Request.Context(), c.Param("productID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductJSON(*product)})
}
