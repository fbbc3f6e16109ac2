// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/domain/catalogs/warehouse"
	"lotkeeper/internal/domain/documents/adjustment"
	"lotkeeper/internal/domain/documents/issue"
	"lotkeeper/internal/domain/documents/receipt"
	"lotkeeper/internal/domain/documents/transfer"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/movement"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/internal/infrastructure/http/v1/handlers"
	"lotkeeper/internal/infrastructure/http/v1/middleware"
	"lotkeeper/internal/infrastructure/storage/postgres"
	"lotkeeper/pkg/logger"
)

// RouterConfig holds the wired services the HTTP layer exposes.
type RouterConfig struct {
	// Pool is the database pool, used by health checks
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	Warehouses  *warehouse.Service
	Stock       *stock.Service
	Ledger      *ledger.Service
	Pricing     *pricing.Service
	Movements   *movement.Engine
	Receipts    *receipt.Service
	Issues      *issue.Service
	Transfers   *transfer.Service
	Adjustments *adjustment.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	// API v1, bearer token required
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))
	{
		handlers.NewWarehouseHandler(base, cfg.Warehouses).RegisterRoutes(api.Group("/catalog/warehouses"))
		handlers.NewStockHandler(base, cfg.Stock).RegisterRoutes(api.Group("/stock"))
		handlers.NewLedgerHandler(base, cfg.Ledger).RegisterRoutes(api.Group("/ledger"))
		handlers.NewPricingHandler(base, cfg.Pricing).RegisterRoutes(api.Group("/pricing"))
		handlers.NewMovementHandler(base, cfg.Movements).RegisterRoutes(api.Group("/moves"))

		docs := api.Group("/documents")
		handlers.NewReceiptHandler(base, cfg.Receipts).RegisterRoutes(docs.Group("/receipts"))
		handlers.NewIssueHandler(base, cfg.Issues).RegisterRoutes(docs.Group("/issues"))
		handlers.NewTransferHandler(base, cfg.Transfers).RegisterRoutes(docs.Group("/transfers"))
		handlers.NewAdjustmentHandler(base, cfg.Adjustments).RegisterRoutes(docs.Group("/adjustments"))
	}

	return router
}
