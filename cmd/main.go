package main

import (
	"net/http"

	"storefront-service/internal/handler"
	mid "storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/pkg/config"
	"storefront-service/pkg/database"
	"storefront-service/pkg/jwtutil"
	"storefront-service/pkg/logger"
	"storefront-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting storefront-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Run migrations
	err = database.MigrateModels(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentLog{},
		&model.ActivityLog{},
		&model.StoreSetting{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations applied")

	// Wire handlers with configuration and the gateway client
	handler.Initialize(appConfig)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes (public)
	authAPI := e.Group("/api/auth")
	authAPI.POST("/register", handler.Register)
	authAPI.POST("/verify", handler.VerifyEmail)
	authAPI.POST("/login", handler.Login)

	// Catalog routes - public reads with optional auth for admin visibility
	e.GET("/api/products", handler.ListProducts, mid.OptionalAuthMiddleware)
	e.GET("/api/products/:id", handler.GetProduct, mid.OptionalAuthMiddleware)

	// Catalog admin routes
	productAdmin := e.Group("/api/products", mid.AuthMiddleware, mid.RequireStoreAdmin)
	productAdmin.POST("", handler.CreateProduct)
	productAdmin.PUT("/:id", handler.UpdateProduct)
	productAdmin.DELETE("/:id", handler.DeleteProduct)
	productAdmin.PATCH("/:id/stock", handler.UpdateStock)

	// hide/block are owner-exclusive
	e.PATCH("/api/products/:id/hide", handler.HideProduct, mid.AuthMiddleware, mid.RequireOwner)
	e.PATCH("/api/products/:id/block", handler.BlockProduct, mid.AuthMiddleware, mid.RequireOwner)

	// Cart routes
	cartAPI := e.Group("/api/cart", mid.AuthMiddleware)
	cartAPI.GET("", handler.GetCart)
	cartAPI.PUT("", handler.UpdateCart)
	cartAPI.POST("/merge", handler.MergeCart)

	// Order routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.POST("", handler.CreateOrder)
	orderAPI.GET("", handler.ListOrders)
	orderAPI.GET("/:id", handler.GetOrder)
	orderAPI.PATCH("/:id", handler.UpdateOrder, mid.RequireStoreAdmin)
	orderAPI.DELETE("/:id", handler.DeleteOrder, mid.RequireStoreAdmin)

	// Payment routes; the webhook authenticates by signature only
	paymentAPI := e.Group("/api/payments")
	paymentAPI.POST("/create-order", handler.CreateGatewayOrder, mid.AuthMiddleware)
	paymentAPI.POST("/verify", handler.VerifyPayment, mid.AuthMiddleware)
	paymentAPI.POST("/webhook", handler.Webhook)

	// User administration routes
	userAPI := e.Group("/api/users", mid.AuthMiddleware)
	userAPI.GET("", handler.ListUsers, mid.RequireStoreAdmin)
	userAPI.PATCH("/:id/ban", handler.BanUser, mid.RequireStoreAdmin)
	userAPI.PATCH("/:id/unban", handler.UnbanUser, mid.RequireStoreAdmin)
	userAPI.PATCH("/:id/promote", handler.PromoteUser, mid.RequireOwner)
	userAPI.PATCH("/:id/demote", handler.DemoteUser, mid.RequireOwner)

	// Activity log routes (owner only)
	logAPI := e.Group("/api/logs", mid.AuthMiddleware, mid.RequireOwner)
	logAPI.GET("", handler.ListLogs)
	logAPI.GET("/stats", handler.LogStats)
	logAPI.POST("/export", handler.ExportLogs)
	logAPI.DELETE("", handler.DeleteLogs)

	// Store settings (owner only)
	settingsAPI := e.Group("/api/settings", mid.AuthMiddleware, mid.RequireOwner)
	settingsAPI.GET("", handler.GetSettings)
	settingsAPI.PUT("", handler.UpdateSettings)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server error", zap.Error(err))
	}
}
