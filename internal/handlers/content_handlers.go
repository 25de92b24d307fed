package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/storefront-api/internal/news"
	"github.com/01moynul/storefront-api/internal/promotions"
	"github.com/gin-gonic/gin"
)

// includeInactive reads the optional ?includeInactive= flag.
func includeInactive(c *gin.Context) (bool, bool) {
	raw := c.Query("includeInactive")
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "includeInactive must be true or false"})
		return false, false
	}
	return v, true
}

//
// --- Promotions ---
//

// GetActivePromotions handles GET /v1/promotions/active
func (h *Handlers) GetActivePromotions(c *gin.Context) {
	out, err := h.Promotions.Live(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetAllPromotions handles GET /v1/promotions
func (h *Handlers) GetAllPromotions(c *gin.Context) {
	all, ok := includeInactive(c)
	if !ok {
		return
	}
	out, err := h.Promotions.List(c.Request.Context(), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetPromotion handles GET /v1/promotions/:id
func (h *Handlers) GetPromotion(c *gin.Context) {
	p, err := h.Promotions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePromotion handles POST /v1/promotions
func (h *Handlers) CreatePromotion(c *gin.Context) {
	var input promotions.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Promotions.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePromotion handles PATCH /v1/promotions/:id
func (h *Handlers) UpdatePromotion(c *gin.Context) {
	var input promotions.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Promotions.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// TogglePromotion handles PATCH /v1/promotions/:id/toggle-active
func (h *Handlers) TogglePromotion(c *gin.Context) {
	p, err := h.Promotions.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePromotion handles DELETE /v1/promotions/:id
func (h *Handlers) DeletePromotion(c *gin.Context) {
	if err := h.Promotions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Promotion deleted successfully"})
}

//
// --- News ---
//

// GetActiveNews handles GET /v1/news/active
func (h *Handlers) GetActiveNews(c *gin.Context) {
	out, err := h.News.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetAllNews handles GET /v1/news
func (h *Handlers) GetAllNews(c *gin.Context) {
	all, ok := includeInactive(c)
	if !ok {
		return
	}
	out, err := h.News.List(c.Request.Context(), all)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetNews handles GET /v1/news/:id
func (h *Handlers) GetNews(c *gin.Context) {
	n, err := h.News.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// CreateNews handles POST /v1/news
func (h *Handlers) CreateNews(c *gin.Context) {
	var input news.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.News.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// UpdateNews handles PATCH /v1/news/:id
func (h *Handlers) UpdateNews(c *gin.Context) {
	var input news.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.News.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// ToggleNews handles PATCH /v1/news/:id/toggle-active
func (h *Handlers) ToggleNews(c *gin.Context) {
	n, err := h.News.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// DeleteNews handles DELETE /v1/news/:id
func (h *Handlers) DeleteNews(c *gin.Context) {
	if err := h.News.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "News deleted successfully"})
}

//
// --- App Config ---
//

// GetAboutUs handles GET /v1/app-config/about-us
func (h *Handlers) GetAboutUs(c *gin.Context) {
	cfg, err := h.AppConfig.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type aboutUsInput struct {
	AboutUs *string `json:"aboutUs"`
}

// UpdateAboutUs handles PATCH /v1/app-config/about-us
func (h *Handlers) UpdateAboutUs(c *gin.Context) {
	var input aboutUsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	cfg, err := h.AppConfig.SetAboutUs(c.Request.Context(), input.AboutUs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetAppConfig handles GET /v1/app-config
func (h *Handlers) GetAppConfig(c *gin.Context) {
	cfg, err := h.AppConfig.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
