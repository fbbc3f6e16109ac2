// Package stock_repo provides the PostgreSQL implementation of the stock
// record repository.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const stockRecordsTable = "stock_records"

var stockColumns = []string{
	"id", "deletion_mark", "version",
	"product_id", "variant_id", "warehouse_id", "lot_number", "expiry_date", "shelf_id",
	"on_hand", "reserved", "blocked", "block_reason",
	"created_at", "updated_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock record repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new stock record.
func (r *StockRepo) Create(ctx context.Context, record *stock.Record) error {
	q := r.builder.Insert(stockRecordsTable).
		Columns(stockColumns...).
		Values(
			record.ID, record.DeletionMark, record.Version,
			record.ProductID, record.VariantID, record.WarehouseID,
			record.LotNumber, record.ExpiryDate, record.ShelfID,
			record.OnHand, record.Reserved, record.Blocked, record.BlockReason,
			record.CreatedAt, record.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock record: %w", err)
	}

	return nil
}

// Update persists counter changes with optimistic locking. The WHERE clause
// pins the version that was loaded; zero affected rows means another
// transaction got there first.
func (r *StockRepo) Update(ctx context.Context, record *stock.Record) error {
	q := r.builder.Update(stockRecordsTable).
		Set("on_hand", record.OnHand).
		Set("reserved", record.Reserved).
		Set("blocked", record.Blocked).
		Set("block_reason", record.BlockReason).
		Set("deletion_mark", record.DeletionMark).
		Set("updated_at", record.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{
			"id":      record.ID,
			"version": record.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("StockRecord", record.ID)
	}

	record.SetVersion(record.Version + 1)
	return nil
}

// GetByID retrieves a record by primary key.
func (r *StockRepo) GetByID(ctx context.Context, recordID id.ID) (*stock.Record, error) {
	q := r.builder.Select(stockColumns...).
		From(stockRecordsTable).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var record stock.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("StockRecord", recordID)
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}

	return &record, nil
}

// GetByKey retrieves a record by its composite identity.
func (r *StockRepo) GetByKey(ctx context.Context, key stock.Key) (*stock.Record, error) {
	q := r.builder.Select(stockColumns...).
		From(stockRecordsTable).
		Where(squirrel.Eq{
			"product_id":   key.ProductID,
			"warehouse_id": key.WarehouseID,
			"lot_number":   key.LotNumber,
			"shelf_id":     key.ShelfID,
		})
	q = whereNullableID(q, "variant_id", key.VariantID)
	if key.ExpiryDate != nil {
		q = q.Where(squirrel.Eq{"expiry_date": *key.ExpiryDate})
	} else {
		q = q.Where("expiry_date IS NULL")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var record stock.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("StockRecord", key.ProductID)
		}
		return nil, fmt.Errorf("get stock record by key: %w", err)
	}

	return &record, nil
}

// ListAvailable returns records with available quantity, joined with the cost
// recording time used as the expiry tie-break during allocation.
func (r *StockRepo) ListAvailable(ctx context.Context, productID id.ID, variantID *id.ID, warehouseID id.ID) ([]stock.AvailableRecord, error) {
	sql := `
		SELECT r.id, r.deletion_mark, r.version,
		       r.product_id, r.variant_id, r.warehouse_id, r.lot_number, r.expiry_date, r.shelf_id,
		       r.on_hand, r.reserved, r.blocked, r.block_reason,
		       r.created_at, r.updated_at,
		       c.recorded_at AS cost_recorded_at
		FROM stock_records r
		LEFT JOIN inventory_costs c ON c.stock_record_id = r.id
		WHERE r.product_id = $1
		  AND r.warehouse_id = $2
		  AND ($3::uuid IS NULL OR r.variant_id = $3)
		  AND r.deletion_mark = false
		  AND (r.on_hand - r.reserved - r.blocked) > 0
		ORDER BY r.expiry_date ASC NULLS LAST, c.recorded_at ASC NULLS LAST, r.id ASC
	`

	var records []stock.AvailableRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, productID, warehouseID, variantID); err != nil {
		return nil, fmt.Errorf("select available records: %w", err)
	}

	return records, nil
}

// ListByWarehouse returns records in a warehouse.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID, filter stock.ListFilter) ([]stock.Record, error) {
	q := r.builder.Select(stockColumns...).
		From(stockRecordsTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.Eq{"deletion_mark": false})

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}
	if filter.ShelfID != nil {
		q = q.Where(squirrel.Eq{"shelf_id": *filter.ShelfID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"on_hand": int64(0)})
	}

	q = q.OrderBy("product_id", "expiry_date ASC NULLS LAST")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []stock.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}

	return records, nil
}

// AvailabilityByProduct sums available quantity across records of a product.
func (r *StockRepo) AvailabilityByProduct(ctx context.Context, productID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(on_hand - reserved - blocked), 0)
		FROM stock_records
		WHERE product_id = $1
		  AND ($2::uuid IS NULL OR warehouse_id = $2)
		  AND deletion_mark = false
	`

	var availableScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID, warehouseID).Scan(&availableScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum availability: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(availableScaled), nil
}

// whereNullableID adds an equality or IS NULL condition for an optional id
// column. A typed nil pointer inside squirrel.Eq would not render IS NULL.
func whereNullableID(q squirrel.SelectBuilder, column string, v *id.ID) squirrel.SelectBuilder {
	if v != nil {
		return q.Where(squirrel.Eq{column: *v})
	}
	return q.Where(column + " IS NULL")
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
