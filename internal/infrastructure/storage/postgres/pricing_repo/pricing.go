// Package pricing_repo provides the PostgreSQL implementation of the cost and
// price repository.
package pricing_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const (
	costsTable  = "inventory_costs"
	pricesTable = "stock_prices"
)

var (
	costColumns  = []string{"id", "stock_record_id", "amount", "currency", "recorded_at"}
	priceColumns = []string{"id", "stock_record_id", "amount", "currency", "effective_from", "effective_to"}
)

// PricingRepo implements pricing.Repository.
type PricingRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPricingRepo creates a new pricing repository.
func NewPricingRepo(txManager *postgres.TxManager) *PricingRepo {
	return &PricingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateCost inserts a cost row.
func (r *PricingRepo) CreateCost(ctx context.Context, cost pricing.InventoryCost) error {
	q := r.builder.Insert(costsTable).
		Columns(costColumns...).
		Values(cost.ID, cost.StockRecordID, cost.Amount, cost.Currency, cost.RecordedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cost: %w", err)
	}

	return nil
}

// GetCostByRecord returns the cost of a stock record.
func (r *PricingRepo) GetCostByRecord(ctx context.Context, stockRecordID id.ID) (pricing.InventoryCost, error) {
	var cost pricing.InventoryCost

	q := r.builder.Select(costColumns...).
		From(costsTable).
		Where(squirrel.Eq{"stock_record_id": stockRecordID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return cost, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &cost, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return cost, apperror.NewNotFound("InventoryCost", stockRecordID)
		}
		return cost, fmt.Errorf("get cost: %w", err)
	}

	return cost, nil
}

// AmendCostAmount corrects the cost amount in place.
func (r *PricingRepo) AmendCostAmount(ctx context.Context, stockRecordID id.ID, amount types.Money) error {
	q := r.builder.Update(costsTable).
		Set("amount", amount).
		Set("recorded_at", time.Now().UTC()).
		Where(squirrel.Eq{"stock_record_id": stockRecordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("amend cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("InventoryCost", stockRecordID)
	}

	return nil
}

// InsertPrice inserts a price interval row.
func (r *PricingRepo) InsertPrice(ctx context.Context, price pricing.StockItemPrice) error {
	q := r.builder.Insert(pricesTable).
		Columns(priceColumns...).
		Values(price.ID, price.StockRecordID, price.Amount, price.Currency,
			price.EffectiveFrom, price.EffectiveTo)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert price: %w", err)
	}

	return nil
}

// GetActivePriceAt returns the price covering the given instant.
// Intervals are half-open: [effective_from, effective_to).
func (r *PricingRepo) GetActivePriceAt(ctx context.Context, stockRecordID id.ID, at time.Time) (pricing.StockItemPrice, error) {
	var price pricing.StockItemPrice

	sql := `
		SELECT id, stock_record_id, amount, currency, effective_from, effective_to
		FROM stock_prices
		WHERE stock_record_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1
	`

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &price, sql, stockRecordID, at); err != nil {
		if pgxscan.NotFound(err) {
			return price, apperror.NewNoActivePrice(stockRecordID)
		}
		return price, fmt.Errorf("get active price: %w", err)
	}

	return price, nil
}

// ClosePrice sets effective_to on an interval.
func (r *PricingRepo) ClosePrice(ctx context.Context, priceID id.ID, at time.Time) error {
	q := r.builder.Update(pricesTable).
		Set("effective_to", at).
		Where(squirrel.Eq{"id": priceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("close price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("StockItemPrice", priceID)
	}

	return nil
}

// GetNextPriceAfter returns the earliest interval starting strictly after the
// given instant.
func (r *PricingRepo) GetNextPriceAfter(ctx context.Context, stockRecordID id.ID, after time.Time) (pricing.StockItemPrice, error) {
	var price pricing.StockItemPrice

	q := r.builder.Select(priceColumns...).
		From(pricesTable).
		Where(squirrel.Eq{"stock_record_id": stockRecordID}).
		Where(squirrel.Gt{"effective_from": after}).
		OrderBy("effective_from ASC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return price, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &price, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return price, apperror.NewNotFound("StockItemPrice", stockRecordID)
		}
		return price, fmt.Errorf("get next price: %w", err)
	}

	return price, nil
}

// GetRecordProduct returns the product id a stock record belongs to.
func (r *PricingRepo) GetRecordProduct(ctx context.Context, stockRecordID id.ID) (id.ID, error) {
	q := r.builder.Select("product_id").
		From("stock_records").
		Where(squirrel.Eq{"id": stockRecordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return id.Nil(), fmt.Errorf("build query: %w", err)
	}

	var productID id.ID
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &productID, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return id.Nil(), apperror.NewNotFound("StockRecord", stockRecordID)
		}
		return id.Nil(), fmt.Errorf("get record product: %w", err)
	}

	return productID, nil
}

// ListPricesByRecord returns all intervals of a record.
func (r *PricingRepo) ListPricesByRecord(ctx context.Context, stockRecordID id.ID) ([]pricing.StockItemPrice, error) {
	q := r.builder.Select(priceColumns...).
		From(pricesTable).
		Where(squirrel.Eq{"stock_record_id": stockRecordID}).
		OrderBy("effective_from")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var prices []pricing.StockItemPrice
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &prices, sql, args...); err != nil {
		return nil, fmt.Errorf("select prices: %w", err)
	}

	return prices, nil
}

// CheapestAvailableCost joins available records to cost rows and returns the
// cheapest lot.
func (r *PricingRepo) CheapestAvailableCost(ctx context.Context, productID id.ID, variantID *id.ID, warehouseID *id.ID) (pricing.LotQuote, error) {
	var quote pricing.LotQuote

	sql := `
		SELECT r.id AS stock_record_id,
		       c.amount,
		       c.currency,
		       (r.on_hand - r.reserved - r.blocked) AS available
		FROM stock_records r
		JOIN inventory_costs c ON c.stock_record_id = r.id
		WHERE r.product_id = $1
		  AND ($2::uuid IS NULL OR r.variant_id = $2)
		  AND ($3::uuid IS NULL OR r.warehouse_id = $3)
		  AND r.deletion_mark = false
		  AND (r.on_hand - r.reserved - r.blocked) > 0
		ORDER BY c.amount ASC, r.id ASC
		LIMIT 1
	`

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &quote, sql, productID, variantID, warehouseID); err != nil {
		if pgxscan.NotFound(err) {
			return quote, apperror.NewNoAvailableStock(productID)
		}
		return quote, fmt.Errorf("get cheapest cost: %w", err)
	}

	return quote, nil
}

// CheapestDisplayPrice joins available records to price intervals active at
// the given instant and returns the cheapest lot.
func (r *PricingRepo) CheapestDisplayPrice(ctx context.Context, productID id.ID, variantID *id.ID, warehouseID *id.ID, at time.Time) (pricing.LotQuote, error) {
	var quote pricing.LotQuote

	sql := `
		SELECT r.id AS stock_record_id,
		       p.amount,
		       p.currency,
		       (r.on_hand - r.reserved - r.blocked) AS available
		FROM stock_records r
		JOIN stock_prices p ON p.stock_record_id = r.id
		WHERE r.product_id = $1
		  AND ($2::uuid IS NULL OR r.variant_id = $2)
		  AND ($3::uuid IS NULL OR r.warehouse_id = $3)
		  AND r.deletion_mark = false
		  AND (r.on_hand - r.reserved - r.blocked) > 0
		  AND p.effective_from <= $4
		  AND (p.effective_to IS NULL OR p.effective_to > $4)
		ORDER BY p.amount ASC, r.id ASC
		LIMIT 1
	`

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &quote, sql, productID, variantID, warehouseID, at); err != nil {
		if pgxscan.NotFound(err) {
			return quote, apperror.NewNoAvailableStock(productID)
		}
		return quote, fmt.Errorf("get cheapest price: %w", err)
	}

	return quote, nil
}

// Ensure interface compliance.
var _ pricing.Repository = (*PricingRepo)(nil)
