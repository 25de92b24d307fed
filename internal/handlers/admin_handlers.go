package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Admin Handlers ---
//
// Mounted behind AdminMiddleware.
//

// GetAllCarts handles GET /v1/admin/carts
func (h *Handlers) GetAllCarts(c *gin.Context) {
	carts, err := h.Carts.GetAllCarts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carts)
}

// GetCartByID handles GET /v1/admin/carts/:id
func (h *Handlers) GetCartByID(c *gin.Context) {
	view, err := h.Carts.GetCartByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetAllOrders handles GET /v1/admin/orders
func (h *Handlers) GetAllOrders(c *gin.Context) {
	orders, err := h.Orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetAllUsers handles GET /v1/admin/users
func (h *Handlers) GetAllUsers(c *gin.Context) {
	users, err := h.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
