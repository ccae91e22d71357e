package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stocklens/backend/config"
	httpDelivery "github.com/stocklens/backend/internal/delivery/http"
	"github.com/stocklens/backend/internal/domain"
	"github.com/stocklens/backend/internal/infrastructure/cache"
	"github.com/stocklens/backend/internal/infrastructure/extraction"
	"github.com/stocklens/backend/internal/infrastructure/storage"
	"github.com/stocklens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	domain.SetLogger(logger)

	logger.Info("Starting StockLens Backend v1.0.0",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
	)

	// Initialize infrastructure dependencies
	stockStore := storage.NewStockStore()
	recipeStore := storage.NewRecipeStore()
	selectionStore := storage.NewSelectionStore()

	var cacheRepo domain.CacheRepository
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Cache.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		cacheRepo = redisCache
	default:
		cacheRepo = cache.NewMemoryCache()
	}
	logger.Info("Cache initialized", zap.Duration("ttl", cfg.Cache.TTL))

	extractionClient := extraction.NewClient(extraction.ClientConfig{
		APIKey:             cfg.Extraction.APIKey,
		BaseURL:            cfg.Extraction.BaseURL,
		VisionModel:        cfg.Extraction.VisionModel,
		TranscriptionModel: cfg.Extraction.TranscriptionModel,
		Timeout:            cfg.Extraction.Timeout,
		RequestsPerMinute:  cfg.RateLimit.Extraction,
	}, logger)
	gateway := extraction.NewCachedGateway(extractionClient, cacheRepo, cfg.Cache.TTL, logger)

	// Initialize usecase layer
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		Threshold:          cfg.Matching.Threshold,
		SimilarityWeight:   cfg.Matching.SimilarityWeight,
		CoverageWeight:     cfg.Matching.CoverageWeight,
		ContainmentBonus:   cfg.Matching.ContainmentBonus,
		LengthBonus:        cfg.Matching.LengthBonus,
		ContainmentFloor:   cfg.Matching.ContainmentFloor,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, logger)
	reconciler := usecase.NewReconcileService(matcher, logger)
	stockService := usecase.NewStockService(stockStore, stockStore, logger)
	recipeService := usecase.NewRecipeService(recipeStore, stockStore, logger)
	productionService := usecase.NewProductionService(recipeStore, stockStore, selectionStore, logger)

	logger.Info("Matching configured",
		zap.Float64("threshold", cfg.Matching.Threshold),
		zap.Bool("debug", cfg.Matching.EnableDebugLogging),
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(
		stockService,
		recipeService,
		productionService,
		reconciler,
		matcher,
		gateway,
		logger,
	)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Server.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
