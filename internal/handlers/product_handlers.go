package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-api/internal/catalog"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Product Handlers ---
//
// Writes take multipart forms: scalar fields as form values, sizes and colors as JSON
// strings, and image files under "images".
//

func baseInputFromForm(c *gin.Context) (catalog.CreateBaseInput, error) {
	var in catalog.CreateBaseInput
	var err error
	if in.Title, err = requiredForm(c, "title"); err != nil {
		return in, err
	}
	if in.Name, err = requiredForm(c, "name"); err != nil {
		return in, err
	}
	if in.CategoryID, err = requiredForm(c, "categoryId"); err != nil {
		return in, err
	}
	in.Description = formOptional(c, "description")
	in.Note = formOptional(c, "note")
	if v, _ := formString(c, "productType"); v != "" {
		in.ProductType = models.ProductType(v)
	}
	quantity, err := formInt(c, "quantity")
	if err != nil {
		return in, err
	}
	if quantity != nil {
		in.Quantity = *quantity
	}
	sizes, err := formJSON[[]catalog.SizeInput](c, "sizes")
	if err != nil {
		return in, err
	}
	if sizes != nil {
		in.Sizes = *sizes
	}
	colors, err := formJSON[[]catalog.ColorInput](c, "colors")
	if err != nil {
		return in, err
	}
	if colors != nil {
		in.Colors = *colors
	}
	return in, nil
}

// CreateProduct handles POST /v1/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	// 1. --- Read the form ---
	in, err := baseInputFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	files, err := readImages(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// 2. --- Create ---
	p, err := h.Catalog.CreateBase(c.Request.Context(), in, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// CreateVariant handles POST /v1/products/:id/variants
func (h *Handlers) CreateVariant(c *gin.Context) {
	var in catalog.CreateVariantInput
	var err error
	if in.Title, err = requiredForm(c, "title"); err != nil {
		respondError(c, err)
		return
	}
	if in.Name, err = requiredForm(c, "name"); err != nil {
		respondError(c, err)
		return
	}
	if in.Size, err = requiredForm(c, "size"); err != nil {
		respondError(c, err)
		return
	}
	in.Description = formOptional(c, "description")
	in.Note = formOptional(c, "note")
	if color, _ := formString(c, "color"); color != "" {
		in.Color = &color
	}
	quantity, err := formInt(c, "quantity")
	if err != nil {
		respondError(c, err)
		return
	}
	if quantity != nil {
		in.Quantity = *quantity
	}
	price, err := formFloat(c, "price")
	if err != nil {
		respondError(c, err)
		return
	}
	if price != nil {
		in.Price = *price
	}
	files, err := readImages(c)
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := h.Catalog.CreateVariant(c.Request.Context(), c.Param("id"), in, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// UpdateProduct handles PATCH /v1/products/:id
// Only the fields present in the form are changed.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var in catalog.UpdateInput
	var err error
	in.Title = formOptional(c, "title")
	in.Name = formOptional(c, "name")
	in.Description = formOptional(c, "description")
	in.Note = formOptional(c, "note")
	in.CategoryID = formOptional(c, "categoryId")
	if v := formOptional(c, "productType"); v != nil {
		pt := models.ProductType(*v)
		in.ProductType = &pt
	}
	if in.Quantity, err = formInt(c, "quantity"); err != nil {
		respondError(c, err)
		return
	}
	if in.Price, err = formFloat(c, "price"); err != nil {
		respondError(c, err)
		return
	}
	if in.Sizes, err = formJSON[[]catalog.SizeInput](c, "sizes"); err != nil {
		respondError(c, err)
		return
	}
	if in.Colors, err = formJSON[[]catalog.ColorInput](c, "colors"); err != nil {
		respondError(c, err)
		return
	}
	files, err := readImages(c)
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.Catalog.Update(c.Request.Context(), c.Param("id"), in, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct handles DELETE /v1/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// ListProducts handles GET /v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
