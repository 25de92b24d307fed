package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-api/internal/catalog"
	"github.com/gin-gonic/gin"
)

// CreateCategory handles POST /v1/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input catalog.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.Categories.CreateCategory(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetAllCategories handles GET /v1/categories
func (h *Handlers) GetAllCategories(c *gin.Context) {
	categories, err := h.Categories.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategory handles GET /v1/categories/:id
func (h *Handlers) GetCategory(c *gin.Context) {
	category, err := h.Categories.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
