// Package main is the entry point for the lotkeeper API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"lotkeeper/internal/core/policy"
	"lotkeeper/internal/domain/allocation"
	"lotkeeper/internal/domain/catalogs/warehouse"
	"lotkeeper/internal/domain/documents/adjustment"
	"lotkeeper/internal/domain/documents/issue"
	"lotkeeper/internal/domain/documents/receipt"
	"lotkeeper/internal/domain/documents/transfer"
	"lotkeeper/internal/domain/gateway"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/movement"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
	v1 "lotkeeper/internal/infrastructure/http/v1"
	"lotkeeper/internal/infrastructure/http/v1/middleware"
	"lotkeeper/internal/infrastructure/storage/postgres"
	"lotkeeper/internal/infrastructure/storage/postgres/allocation_repo"
	"lotkeeper/internal/infrastructure/storage/postgres/catalog_repo"
	"lotkeeper/internal/infrastructure/storage/postgres/document_repo"
	"lotkeeper/internal/infrastructure/storage/postgres/ledger_repo"
	"lotkeeper/internal/infrastructure/storage/postgres/pricing_repo"
	"lotkeeper/internal/infrastructure/storage/postgres/stock_repo"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting lotkeeper server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional, quote caching) ---
	var redisClient *redis.Client
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unavailable, quote caching disabled", "error", err)
			redisClient = nil
		} else {
			log.Info("redis connection established")
		}
	}

	// --- Repositories ---
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	shelfRepo := catalog_repo.NewShelfRepo(txManager)
	stockRepo := stock_repo.NewStockRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	pricingRepo := pricing_repo.NewPricingRepo(txManager)
	allocationRepo := allocation_repo.NewAllocationRepo(txManager)
	receiptRepo := document_repo.NewReceiptRepo(txManager)
	issueRepo := document_repo.NewIssueRepo(txManager)
	transferRepo := document_repo.NewTransferRepo(txManager)
	adjustmentRepo := document_repo.NewAdjustmentRepo(txManager)

	// --- Shared infrastructure ---
	numeratorService := numerator.New(pool)
	publisher := postgres.NewOutboxPublisher(txManager)
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	resolver := gateway.NewHTTPResolver(mustEnv("CATALOG_URL"))

	postingPolicy := buildPostingPolicy(log)
	guard, err := buildPostingGuard()
	if err != nil {
		log.Fatalw("failed to load posting rules", "error", err)
	}

	// --- Domain services ---
	warehouseService := warehouse.NewService(warehouseRepo, shelfRepo, numeratorService, txManager)
	stockService := stock.NewService(stockRepo, txManager)
	ledgerService := ledger.NewService(ledgerRepo)
	pricingService := pricing.NewService(pricingRepo, txManager, pricing.NewQuoteCache(redisClient))
	movementEngine := movement.NewEngine(stockRepo, ledgerService, pricingService, txManager)
	allocationEngine := allocation.NewEngine(allocationRepo, stockRepo)

	receiptService := receipt.NewService(receipt.Deps{
		Repo:      receiptRepo,
		Stocks:    stockRepo,
		Ledger:    ledgerService,
		Pricing:   pricingService,
		Resolver:  resolver,
		Numerator: numeratorService,
		TxManager: txManager,
		Policy:    postingPolicy,
		Guard:     guard,
		Publisher: publisher,
		Auditor:   auditor,
	})
	issueService := issue.NewService(issue.Deps{
		Repo:        issueRepo,
		Stocks:      stockRepo,
		Allocations: allocationEngine,
		Ledger:      ledgerService,
		Resolver:    resolver,
		Numerator:   numeratorService,
		TxManager:   txManager,
		Policy:      postingPolicy,
		Guard:       guard,
		Publisher:   publisher,
		Auditor:     auditor,
	})
	transferService := transfer.NewService(transfer.Deps{
		Repo:      transferRepo,
		Stocks:    stockRepo,
		Ledger:    ledgerService,
		Pricing:   pricingService,
		Resolver:  resolver,
		Numerator: numeratorService,
		TxManager: txManager,
		Policy:    postingPolicy,
		Guard:     guard,
		Publisher: publisher,
		Auditor:   auditor,
	})
	adjustmentService := adjustment.NewService(adjustment.Deps{
		Repo:      adjustmentRepo,
		Stocks:    stockRepo,
		Ledger:    ledgerService,
		Numerator: numeratorService,
		TxManager: txManager,
		Policy:    postingPolicy,
		Guard:     guard,
		Publisher: publisher,
		Auditor:   auditor,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		TokenValidator: middleware.NewJWTValidator(mustEnv("JWT_SECRET")),
		Warehouses:     warehouseService,
		Stock:          stockService,
		Ledger:         ledgerService,
		Pricing:        pricingService,
		Movements:      movementEngine,
		Receipts:       receiptService,
		Issues:         issueService,
		Transfers:      transferService,
		Adjustments:    adjustmentService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// buildPostingPolicy reads CLOSED_UNTIL (YYYY-MM-DD). Absent means open period.
func buildPostingPolicy(log *logger.Logger) policy.PostingPolicy {
	raw := getEnv("CLOSED_UNTIL", "")
	if raw == "" {
		return policy.OpenPolicy{}
	}
	closedUntil, err := time.Parse("2006-01-02", raw)
	if err != nil {
		log.Fatalw("invalid CLOSED_UNTIL", "value", raw, "error", err)
	}
	log.Infow("strict posting policy enabled", "closed_until", closedUntil)
	return policy.NewStrictPolicy(closedUntil)
}

// buildPostingGuard loads CEL rules from the file named by POSTING_RULES_FILE.
// A nil guard permits everything.
func buildPostingGuard() (*policy.Guard, error) {
	path := getEnv("POSTING_RULES_FILE", "")
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rules []policy.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	return policy.NewGuard(rules)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
