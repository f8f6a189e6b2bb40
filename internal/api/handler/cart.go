package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/api/middleware"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/service"
)

// CartHandler handles cart endpoints. The cart owner is the authenticated
// user or the X-Session-ID header.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// CartItemRequest adds or updates one cart line.
type CartItemRequest struct {
	GemstoneID string `json:"gemstone_id"`
	Quantity   int    `json:"quantity"`
}

// CartResponse is the cart with a computed subtotal in minor units.
type CartResponse struct {
	Items    []domain.CartItem `json:"items"`
	Subtotal int64             `json:"subtotal"`
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(c *gin.Context) {
	h.writeCart(c, http.StatusOK)
}

// AddItem handles POST /api/v1/cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.carts.Add(c.Request.Context(), middleware.OwnerID(c), req.GemstoneID, req.Quantity); err != nil {
		respondError(c, err, "Failed to add cart item")
		return
	}
	h.writeCart(c, http.StatusCreated)
}

// UpdateItem handles PUT /api/v1/cart/items/:gemstoneId.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := h.carts.SetQuantity(c.Request.Context(), middleware.OwnerID(c), c.Param("gemstoneId"), req.Quantity); err != nil {
		respondError(c, err, "Failed to update cart item")
		return
	}
	h.writeCart(c, http.StatusOK)
}

// RemoveItem handles DELETE /api/v1/cart/items/:gemstoneId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.carts.Remove(c.Request.Context(), middleware.OwnerID(c), c.Param("gemstoneId")); err != nil {
		respondError(c, err, "Failed to remove cart item")
		return
	}
	h.writeCart(c, http.StatusOK)
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.OwnerID(c)); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) writeCart(c *gin.Context, status int) {
	items, err := h.carts.List(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		respondError(c, err, "Failed to load cart")
		return
	}
	resp := CartResponse{Items: items}
	for _, item := range items {
		if item.Gemstone != nil {
			resp.Subtotal += item.Gemstone.PriceAmount * int64(item.Quantity)
		}
	}
	c.JSON(status, resp)
}
