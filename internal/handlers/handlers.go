package handlers

import (
	"net/http"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/appconfig"
	"github.com/01moynul/storefront-api/internal/cart"
	"github.com/01moynul/storefront-api/internal/catalog"
	"github.com/01moynul/storefront-api/internal/dashboard"
	"github.com/01moynul/storefront-api/internal/middleware"
	"github.com/01moynul/storefront-api/internal/news"
	"github.com/01moynul/storefront-api/internal/orders"
	"github.com/01moynul/storefront-api/internal/promotions"
	"github.com/01moynul/storefront-api/internal/users"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Catalog    *catalog.Service
	Categories *catalog.CategoryService
	Carts      *cart.Service
	Orders     *orders.Service
	Users      *users.Service
	Promotions *promotions.Service
	News       *news.Service
	AppConfig  *appconfig.Service
	Dashboard  *dashboard.Service
}

// respondError writes err with the status of its kind. Server-side failures are
// attached to the context so the request logger records the cause.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

// badRequest is for bodies that failed to bind.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
