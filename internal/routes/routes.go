package routes

import (
	"net/http"

	"github.com/01moynul/storefront-api/internal/auth"
	"github.com/01moynul/storefront-api/internal/handlers"
	"github.com/01moynul/storefront-api/internal/logger"
	"github.com/01moynul/storefront-api/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	AllowedOrigin string
	// UploadDir is served under /uploads when images are stored locally.
	UploadDir string
	Tokens    *auth.Issuer
	Roles     middleware.RoleReader
	Log       *zap.Logger
}

// CORSMiddleware tells the browser that the configured frontend may call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// The browser sends an empty preflight first; answer it with 204.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger(opts.Log))

	// This must run before any route handler
	router.Use(CORSMiddleware(opts.AllowedOrigin))

	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/auth/signup", h.Signup)
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/login-mobile", h.LoginByMobile)

		// --- Public Catalog Routes ---
		v1.GET("/categories", h.GetAllCategories)
		v1.GET("/categories/:id", h.GetCategory)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)

		// --- Public Storefront Content ---
		v1.GET("/promotions/active", h.GetActivePromotions)
		v1.GET("/promotions", h.GetAllPromotions)
		v1.GET("/promotions/:id", h.GetPromotion)
		v1.GET("/news/active", h.GetActiveNews)
		v1.GET("/news", h.GetAllNews)
		v1.GET("/news/:id", h.GetNews)
		v1.GET("/app-config/about-us", h.GetAboutUs)

		// --- Protected Routes (Login Required) ---
		authed := v1.Group("/")
		authed.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			// --- Cart ---
			authed.GET("/cart", h.GetCart)
			authed.POST("/cart/items", h.AddToCart)
			authed.PATCH("/cart/items/:id", h.UpdateCartItem)
			authed.DELETE("/cart/items/:id", h.DeleteCartItem)
			authed.DELETE("/cart/clear", h.ClearCart)

			// --- Orders ---
			authed.POST("/orders", h.Checkout)
			authed.GET("/orders", h.GetMyOrders)
			authed.GET("/orders/:id", h.GetMyOrder)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/")
		admin.Use(middleware.AuthMiddleware(opts.Tokens))
		admin.Use(middleware.AdminMiddleware(opts.Roles))
		{
			admin.POST("/categories", h.CreateCategory)

			admin.POST("/products", h.CreateProduct)
			admin.POST("/products/:id/variants", h.CreateVariant)
			admin.PATCH("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.GET("/admin/carts", h.GetAllCarts)
			admin.GET("/admin/carts/:id", h.GetCartByID)
			admin.GET("/admin/orders", h.GetAllOrders)
			admin.GET("/admin/users", h.GetAllUsers)

			admin.POST("/promotions", h.CreatePromotion)
			admin.PATCH("/promotions/:id", h.UpdatePromotion)
			admin.PATCH("/promotions/:id/toggle-active", h.TogglePromotion)
			admin.DELETE("/promotions/:id", h.DeletePromotion)

			admin.POST("/news", h.CreateNews)
			admin.PATCH("/news/:id", h.UpdateNews)
			admin.PATCH("/news/:id/toggle-active", h.ToggleNews)
			admin.DELETE("/news/:id", h.DeleteNews)

			admin.GET("/app-config", h.GetAppConfig)
			admin.PATCH("/app-config/about-us", h.UpdateAboutUs)

			admin.GET("/dashboard/stats", h.GetDashboardStats)
			admin.GET("/dashboard/overview", h.GetDashboardOverview)
			admin.GET("/dashboard/products/by-category", h.GetProductsByCategory)
			admin.GET("/dashboard/recent-activity", h.GetRecentActivity)
			admin.GET("/dashboard/cart-statistics", h.GetCartStatistics)
		}
	}

	return router
}
