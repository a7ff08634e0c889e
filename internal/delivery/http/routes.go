package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/allergenapp/backend/config"
	"github.com/allergenapp/backend/internal/infrastructure/metrics"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, collector *metrics.Collector, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if collector != nil {
		router.Use(MetricsMiddleware(collector))
	}

	// Health check and metrics stay outside the rate limit
	router.GET("/health", handler.HealthCheck)
	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, logger))
	{
		v1.GET("/allergens", handler.ListAllergens)
		v1.GET("/alternatives", handler.Alternatives)

		users := v1.Group("/users/:id")
		{
			users.GET("/allergens", handler.GetAllergens)
			users.PUT("/allergens", handler.PutAllergens)
			users.GET("/history", handler.History)

			scan := users.Group("/scan")
			{
				scan.POST("/barcode", handler.ScanBarcode)
				scan.POST("/search", handler.SearchProduct)
				scan.POST("/label", handler.ScanLabel)
			}
		}
	}

	return router
}
