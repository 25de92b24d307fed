package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Checkout handles POST /v1/orders
// The whole cart becomes one pending order.
func (h *Handlers) Checkout(c *gin.Context) {
	order, err := h.Orders.CreateOrderFromCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetMyOrders handles GET /v1/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListMyOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetMyOrder handles GET /v1/orders/:id
func (h *Handlers) GetMyOrder(c *gin.Context) {
	order, err := h.Orders.GetUserOrder(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
