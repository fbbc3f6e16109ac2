package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain/catalogs/warehouse"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const (
	warehouseTable = "cat_warehouses"
	shelfTable     = "cat_shelves"
)

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			warehouseTable,
			postgres.ExtractDBColumns[warehouse.Warehouse](),
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		),
	}
}

// ClearDefault clears the default flag on all warehouses.
func (r *WarehouseRepo) ClearDefault(ctx context.Context) error {
	q := r.Builder().
		Update(warehouseTable).
		Set("is_default", false).
		Where(squirrel.Eq{"is_default": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default: %w", err)
	}

	return nil
}

// ShelfRepo implements warehouse.ShelfRepository.
type ShelfRepo struct {
	*BaseCatalogRepo[*warehouse.Shelf]
}

// NewShelfRepo creates a new shelf repository.
func NewShelfRepo(txManager *postgres.TxManager) *ShelfRepo {
	return &ShelfRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			shelfTable,
			postgres.ExtractDBColumns[warehouse.Shelf](),
			func() *warehouse.Shelf { return &warehouse.Shelf{} },
		),
	}
}

// ListByWarehouse returns shelves of a warehouse.
func (r *ShelfRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*warehouse.Shelf, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var shelves []*warehouse.Shelf
	if err := pgxscan.Select(ctx, r.querier(ctx), &shelves, sql, args...); err != nil {
		return nil, fmt.Errorf("select shelves: %w", err)
	}

	return shelves, nil
}

// Ensure interface compliance.
var (
	_ warehouse.Repository      = (*WarehouseRepo)(nil)
	_ warehouse.ShelfRepository = (*ShelfRepo)(nil)
)
