package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stocklens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		reconcile := v1.Group("/reconcile")
		{
			reconcile.POST("/invoice", handler.ReconcileInvoice)
			reconcile.POST("/audio", handler.ReconcileAudio)
			reconcile.POST("/apply", handler.ApplyReconciliation)
		}

		stock := v1.Group("/stock")
		{
			stock.GET("", handler.ListStock)
			stock.POST("", handler.CreateStockItem)
			stock.GET("/search", handler.SearchStock)
			stock.GET("/:id", handler.GetStockItem)
			stock.PUT("/:id", handler.UpdateStockItem)
			stock.DELETE("/:id", handler.DeleteStockItem)
			stock.POST("/:id/entry", handler.StockEntry)
			stock.POST("/:id/exit", handler.StockExit)
			stock.GET("/:id/movements", handler.ListMovements)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.GET("", handler.ListRecipes)
			recipes.POST("", handler.CreateRecipe)
			recipes.GET("/:id", handler.GetRecipe)
			recipes.PUT("/:id", handler.UpdateRecipe)
			recipes.DELETE("/:id", handler.DeleteRecipe)
		}

		production := v1.Group("/production")
		{
			production.GET("/selection", handler.GetSelection)
			production.PUT("/selection", handler.SetSelection)
			production.POST("/potential", handler.CalculatePotential)
		}
	}

	return router
}
