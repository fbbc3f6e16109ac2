// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/policy"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/audit"
	"lotkeeper/internal/domain/catalogs/warehouse"
	"lotkeeper/internal/domain/documents/receipt"
	"lotkeeper/internal/domain/events"
	"lotkeeper/internal/domain/gateway"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/infrastructure/storage/postgres"
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
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	numeratorService := numerator.New(pool)

	warehouseService := warehouse.NewService(
		catalog_repo.NewWarehouseRepo(txManager),
		catalog_repo.NewShelfRepo(txManager),
		numeratorService,
		txManager,
	)

	wh, shelf, err := seedWarehouses(ctx, warehouseService, log)
	if err != nil {
		log.Fatalw("failed to seed warehouses", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoReceipt(ctx, txManager, numeratorService, wh, shelf, log); err != nil {
			log.Fatalw("failed to seed demo receipt", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedWarehouses creates the default warehouse layout: one main warehouse
// with a receiving shelf and a picking shelf.
func seedWarehouses(ctx context.Context, svc *warehouse.Service, log *logger.Logger) (*warehouse.Warehouse, *warehouse.Shelf, error) {
	wh := warehouse.NewWarehouse("WH-MAIN", "Main warehouse", warehouse.TypeMain)
	wh.IsDefault = true
	if err := svc.CreateWarehouse(ctx, wh); err != nil {
		return nil, nil, fmt.Errorf("create warehouse: %w", err)
	}
	log.Infow("created warehouse", "id", wh.ID, "code", wh.Code)

	receiving := warehouse.NewShelf(wh.ID, "RCV-01", "Receiving dock")
	if err := svc.CreateShelf(ctx, receiving); err != nil {
		return nil, nil, fmt.Errorf("create shelf: %w", err)
	}

	picking := warehouse.NewShelf(wh.ID, "PICK-01", "Picking zone A")
	if err := svc.CreateShelf(ctx, picking); err != nil {
		return nil, nil, fmt.Errorf("create shelf: %w", err)
	}
	log.Infow("created shelves", "warehouse_id", wh.ID)

	return wh, receiving, nil
}

// seedDemoReceipt posts one received receipt so the ledger and stock tables
// have data to look at.
func seedDemoReceipt(
	ctx context.Context,
	txManager *postgres.TxManager,
	numeratorService numerator.Generator,
	wh *warehouse.Warehouse,
	shelf *warehouse.Shelf,
	log *logger.Logger,
) error {
	productID := id.New()

	resolver := gateway.NewStaticResolver()
	resolver.Add(productID, nil, gateway.Item{SKU: "DEMO-001", Name: "Demo widget"})

	ledgerService := ledger.NewService(ledger_repo.NewLedgerRepo(txManager))
	pricingService := pricing.NewService(pricing_repo.NewPricingRepo(txManager), txManager, pricing.NewQuoteCache(nil))

	receiptService := receipt.NewService(receipt.Deps{
		Repo:      document_repo.NewReceiptRepo(txManager),
		Stocks:    stock_repo.NewStockRepo(txManager),
		Ledger:    ledgerService,
		Pricing:   pricingService,
		Resolver:  resolver,
		Numerator: numeratorService,
		TxManager: txManager,
		Policy:    policy.OpenPolicy{},
		Publisher: events.NopPublisher{},
		Auditor:   audit.NopRecorder{},
	})

	doc := receipt.New(wh.ID, "USD")
	doc.SupplierRef = "DEMO-SUP-001"
	doc.Comment = "Seeded demo receipt"
	doc.Lines = []receipt.Line{{
		LineID:    id.New(),
		LineNo:    1,
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(100),
		UnitCost:  types.NewMoney(9.50),
		LotNumber: "LOT-2026-001",
		ExpiryDate: func() *time.Time {
			t := time.Now().AddDate(1, 0, 0)
			return &t
		}(),
		ShelfID: shelf.ID,
	}}

	if err := receiptService.Create(ctx, doc); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	if err := receiptService.Receive(ctx, doc.ID); err != nil {
		return fmt.Errorf("receive receipt: %w", err)
	}

	log.Infow("seeded demo receipt", "id", doc.ID, "number", doc.Number, "product_id", productID)
	return nil
}
