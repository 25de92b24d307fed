package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-api/internal/cart"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers (Logged-in users) ---
//

// AddToCartInput defines the JSON for adding an item to the cart.
// productId may name a variant, or a STANDALONE base together with size (and color).
type AddToCartInput struct {
	ProductID string  `json:"productId" binding:"required"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
}

// GetCart is the handler for GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	view, err := h.Carts.GetOrCreateCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddToCart is the handler for POST /v1/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.Carts.AddToCart(c.Request.Context(), currentUserID(c), cart.AddInput{
		ProductID: input.ProductID,
		Size:      input.Size,
		Color:     input.Color,
		Quantity:  input.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateCartItemInput defines the JSON for updating an item's quantity.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"required,gte=1"`
}

// UpdateCartItem is the handler for PATCH /v1/cart/items/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.Carts.UpdateCartItem(c.Request.Context(), currentUserID(c), c.Param("id"), input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	view, err := h.Carts.RemoveFromCart(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart is the handler for DELETE /v1/cart/clear
func (h *Handlers) ClearCart(c *gin.Context) {
	view, err := h.Carts.ClearCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
