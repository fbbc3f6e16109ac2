package warehouse

import (
	"context"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
)

// Repository defines persistence for the warehouse catalog.
type Repository interface {
	Create(ctx context.Context, wh *Warehouse) error
	Update(ctx context.Context, wh *Warehouse) error
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	GetByCode(ctx context.Context, code string) (*Warehouse, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Warehouse], error)

	// ClearDefault clears the default flag on all warehouses.
	ClearDefault(ctx context.Context) error
}

// ShelfRepository defines persistence for shelves.
type ShelfRepository interface {
	Create(ctx context.Context, shelf *Shelf) error
	Update(ctx context.Context, shelf *Shelf) error
	GetByID(ctx context.Context, shelfID id.ID) (*Shelf, error)
	ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*Shelf, error)
}
