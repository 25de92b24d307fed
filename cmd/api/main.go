package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/storefront-api/internal/appconfig"
	"github.com/01moynul/storefront-api/internal/auth"
	"github.com/01moynul/storefront-api/internal/cache"
	"github.com/01moynul/storefront-api/internal/cart"
	"github.com/01moynul/storefront-api/internal/catalog"
	"github.com/01moynul/storefront-api/internal/config"
	"github.com/01moynul/storefront-api/internal/dashboard"
	"github.com/01moynul/storefront-api/internal/database"
	"github.com/01moynul/storefront-api/internal/handlers"
	"github.com/01moynul/storefront-api/internal/logger"
	"github.com/01moynul/storefront-api/internal/news"
	"github.com/01moynul/storefront-api/internal/orders"
	"github.com/01moynul/storefront-api/internal/promotions"
	"github.com/01moynul/storefront-api/internal/routes"
	"github.com/01moynul/storefront-api/internal/storage"
	"github.com/01moynul/storefront-api/internal/store"
	"github.com/01moynul/storefront-api/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	cfg := config.LoadEnv()

	// 1. --- Logger ---
	appLogger, err := logger.New(cfg.Logger, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. --- Database Connection ---
	db, err := database.OpenDB(cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	st := store.New(db)

	// 3. --- Image Storage ---
	var (
		backend   storage.Backend
		uploadDir string
	)
	switch cfg.Storage.Driver {
	case "cloudinary":
		backend, err = storage.NewCloudinaryBackend(cfg.Storage.CloudinaryURL)
	case "local":
		backend, err = storage.NewLocalBackend(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
		uploadDir = cfg.Storage.UploadDir
	default:
		err = errors.New("unknown STORAGE_DRIVER " + cfg.Storage.Driver)
	}
	if err != nil {
		appLogger.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	files := storage.New(backend, cfg.Storage.Folder, cfg.Timeouts.Storage, appLogger)
	appLogger.Info("Image storage ready", zap.String("driver", cfg.Storage.Driver))

	// 4. --- Read Cache (optional) ---
	var readCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "storefront:", cfg.Redis.TTL)
		if err != nil {
			// The catalog still works from the database alone.
			appLogger.Warn("Could not connect to Redis, running without read cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			readCache = redisCache
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5. --- Services ---
	tokens := auth.NewIssuer(cfg.JWT.SecretKey, cfg.JWT.TTL)
	catalogService := catalog.NewService(st, files, readCache, cfg.Timeouts.Store, appLogger)
	userService := users.NewService(st, tokens, cfg.Timeouts.Store, appLogger)

	app := &handlers.Handlers{
		Catalog:    catalogService,
		Categories: catalog.NewCategoryService(st, cfg.Timeouts.Store, appLogger),
		Carts:      cart.NewService(st, catalogService, cfg.Timeouts.Store, appLogger),
		Orders:     orders.NewService(st, catalogService, cfg.Timeouts.Store, appLogger),
		Users:      userService,
		Promotions: promotions.NewService(st, cfg.Timeouts.Store, appLogger),
		News:       news.NewService(st, cfg.Timeouts.Store, appLogger),
		AppConfig:  appconfig.NewService(st, cfg.Timeouts.Store, appLogger),
		Dashboard:  dashboard.NewService(st, cfg.Timeouts.Store, appLogger),
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		AllowedOrigin: cfg.Server.CORSAllowedOrigin,
		UploadDir:     uploadDir,
		Tokens:        tokens,
		Roles:         userService,
		Log:           appLogger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	go func() {
		appLogger.Info("Starting storefront API server", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
