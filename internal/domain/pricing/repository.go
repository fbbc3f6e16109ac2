package pricing

import (
	"context"
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// LotQuote is a priced available lot: the result of joining available stock
// records against cost or price rows.
type LotQuote struct {
	StockRecordID id.ID          `db:"stock_record_id" json:"stockRecordId"`
	Amount        types.Money    `db:"amount" json:"amount"`
	Currency      string         `db:"currency" json:"currency"`
	Available     types.Quantity `db:"available" json:"available"`
}

// Repository defines persistence for cost and price rows.
type Repository interface {
	// --- Cost ---

	// CreateCost inserts a cost row.
	CreateCost(ctx context.Context, cost InventoryCost) error

	// GetCostByRecord returns the cost of a stock record, or NOT_FOUND.
	GetCostByRecord(ctx context.Context, stockRecordID id.ID) (InventoryCost, error)

	// AmendCostAmount corrects the cost amount in place.
	AmendCostAmount(ctx context.Context, stockRecordID id.ID, amount types.Money) error

	// --- Price ---

	// InsertPrice inserts a price interval row.
	InsertPrice(ctx context.Context, price StockItemPrice) error

	// GetActivePriceAt returns the price row covering the given instant,
	// tie-broken by latest effective_from; NO_ACTIVE_PRICE if none.
	GetActivePriceAt(ctx context.Context, stockRecordID id.ID, at time.Time) (StockItemPrice, error)

	// ClosePrice sets effective_to on an open or overlapping interval.
	ClosePrice(ctx context.Context, priceID id.ID, at time.Time) error

	// GetNextPriceAfter returns the earliest interval of a record starting
	// strictly after the given instant, or NOT_FOUND.
	GetNextPriceAfter(ctx context.Context, stockRecordID id.ID, after time.Time) (StockItemPrice, error)

	// ListPricesByRecord returns all intervals of a record, ordered by
	// effective_from.
	ListPricesByRecord(ctx context.Context, stockRecordID id.ID) ([]StockItemPrice, error)

	// GetRecordProduct returns the product id a stock record belongs to.
	GetRecordProduct(ctx context.Context, stockRecordID id.ID) (id.ID, error)

	// --- Joins against available stock ---

	// CheapestAvailableCost joins available records to cost rows and returns
	// the cheapest, or NO_AVAILABLE_STOCK.
	CheapestAvailableCost(ctx context.Context, productID id.ID, variantID *id.ID, warehouseID *id.ID) (LotQuote, error)

	// CheapestDisplayPrice joins available records to price intervals active
	// at the given instant and returns the cheapest, or NO_AVAILABLE_STOCK.
	CheapestDisplayPrice(ctx context.Context, productID id.ID, variantID *id.ID, warehouseID *id.ID, at time.Time) (LotQuote, error)
}
