package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/api/middleware"
	"github.com/timmy/gemstore/internal/service"
)

// OrderHandler handles checkout and order endpoints.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// StatusRequest moves an order to a new status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// Checkout handles POST /api/v1/orders.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	order, err := h.orders.Checkout(c.Request.Context(), middleware.OwnerID(c), req)
	if err != nil {
		respondError(c, err, "Checkout failed")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	orders, err := h.orders.List(c.Request.Context(), middleware.OwnerID(c), limit)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"), middleware.OwnerID(c))
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// Events handles GET /api/v1/orders/:id/events.
func (h *OrderHandler) Events(c *gin.Context) {
	events, err := h.orders.Events(c.Request.Context(), c.Param("id"), middleware.OwnerID(c))
	if err != nil {
		respondError(c, err, "Failed to get order events")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

// UpdateStatus handles PATCH /api/v1/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		respondError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

// Pay handles POST /api/v1/orders/:id/pay with a simulated payment.
func (h *OrderHandler) Pay(c *gin.Context) {
	order, err := h.orders.SimulatePayment(c.Request.Context(), c.Param("id"), middleware.OwnerID(c))
	if err != nil {
		respondError(c, err, "Payment failed")
		return
	}
	c.JSON(http.StatusOK, order)
}
