package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timmy/gemstore/internal/api/handler"
	"github.com/timmy/gemstore/internal/api/middleware"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/config"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/service"
	"github.com/timmy/gemstore/internal/source"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// Services bundles what the HTTP layer serves.
type Services struct {
	DB        *gorm.DB
	Search    *service.SearchService
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService
	Import    *service.ImportService
	Sources   map[string]source.Source
	Tokens    *auth.TokenManager
	Logger    *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, cfg *config.Config, serviceName string) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	if cfg.Telemetry.TracingEnabled {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(middleware.LoggerMiddleware(svc.Logger))
	r.Use(middleware.CORS(cfg.Server.CORS))
	r.Use(middleware.Authenticate(svc.Tokens))

	// Create handlers
	healthHandler := handler.NewHealthHandler(svc.DB)
	searchHandler := handler.NewSearchHandler(svc.Search)
	gemstoneHandler := handler.NewGemstoneHandler(svc.Catalog)
	cartHandler := handler.NewCartHandler(svc.Carts)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	adminHandler := handler.NewAdminHandler(svc.Import, svc.Analytics, svc.Sources, svc.Logger)

	// Health check
	r.GET("/health", healthHandler.Health)
	if cfg.Telemetry.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	admin := middleware.RequireAdmin()

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Search
		v1.POST("/search", searchHandler.Search)
		v1.GET("/search", searchHandler.SearchGet)
		v1.POST("/search/facets", searchHandler.Facets)
		v1.GET("/search/suggestions", searchHandler.Suggestions)
		v1.GET("/search/locale", searchHandler.Locale)

		// Catalog
		v1.GET("/gemstones/:id", gemstoneHandler.GetGemstone)
		v1.POST("/gemstones", admin, gemstoneHandler.CreateGemstone)
		v1.PUT("/gemstones/:id", admin, gemstoneHandler.UpdateGemstone)
		v1.DELETE("/gemstones/:id", admin, gemstoneHandler.DeleteGemstone)
		v1.POST("/gemstones/:id/images", admin, gemstoneHandler.AddImage)
		v1.POST("/translations", admin, gemstoneHandler.UpsertTranslation)

		// Cart
		v1.GET("/cart", cartHandler.GetCart)
		v1.DELETE("/cart", cartHandler.ClearCart)
		v1.POST("/cart/items", cartHandler.AddItem)
		v1.PUT("/cart/items/:gemstoneId", cartHandler.UpdateItem)
		v1.DELETE("/cart/items/:gemstoneId", cartHandler.RemoveItem)

		// Orders
		v1.POST("/orders", orderHandler.Checkout)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.GET("/orders/:id/events", orderHandler.Events)
		v1.PATCH("/orders/:id/status", admin, orderHandler.UpdateStatus)
		v1.POST("/orders/:id/pay", orderHandler.Pay)

		// Admin
		adminGroup := v1.Group("/admin")
		{
			adminGroup.GET("/analytics/top-queries", adminHandler.TopQueries)
			adminGroup.GET("/analytics/zero-results", adminHandler.ZeroResultQueries)
			adminGroup.POST("/reindex", admin, gemstoneHandler.Reindex)
			adminGroup.POST("/import", admin, adminHandler.TriggerImport)
			adminGroup.GET("/import/status", admin, adminHandler.GetImportStatus)
			adminGroup.GET("/import/jobs", admin, adminHandler.ListImportJobs)
		}
	}

	return r
}
