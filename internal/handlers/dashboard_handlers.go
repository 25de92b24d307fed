package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Admin Dashboard ---
//

// GetDashboardStats returns every KPI block in one response
// GET /v1/dashboard/stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats, err := h.Dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetDashboardOverview handles GET /v1/dashboard/overview
func (h *Handlers) GetDashboardOverview(c *gin.Context) {
	counts, err := h.Dashboard.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// GetProductsByCategory handles GET /v1/dashboard/products/by-category
func (h *Handlers) GetProductsByCategory(c *gin.Context) {
	out, err := h.Dashboard.ProductsByCategory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetRecentActivity handles GET /v1/dashboard/recent-activity
func (h *Handlers) GetRecentActivity(c *gin.Context) {
	activity, err := h.Dashboard.RecentActivity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// GetCartStatistics handles GET /v1/dashboard/cart-statistics
func (h *Handlers) GetCartStatistics(c *gin.Context) {
	stats, err := h.Dashboard.CartStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
