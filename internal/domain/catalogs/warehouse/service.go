package warehouse

import (
	"context"
	"fmt"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/tx"
	"lotkeeper/internal/domain"
	"lotkeeper/pkg/numerator"
)

// Service provides business logic for the warehouse and shelf catalogs.
type Service struct {
	warehouses Repository
	shelves    ShelfRepository
	numerator  numerator.Generator
	txManager  tx.Manager
}

// NewService creates a warehouse catalog service.
func NewService(warehouses Repository, shelves ShelfRepository, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{warehouses: warehouses, shelves: shelves, numerator: gen, txManager: txManager}
}

// CreateWarehouse validates and persists a new warehouse. An empty code is
// auto-generated; a new default demotes the previous one.
func (s *Service) CreateWarehouse(ctx context.Context, wh *Warehouse) error {
	if err := wh.Validate(ctx); err != nil {
		return err
	}
	if wh.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("WH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		wh.Code = code
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if wh.IsDefault {
			if err := s.warehouses.ClearDefault(ctx); err != nil {
				return err
			}
		}
		return s.warehouses.Create(ctx, wh)
	})
}

// UpdateWarehouse persists catalog changes.
func (s *Service) UpdateWarehouse(ctx context.Context, wh *Warehouse) error {
	if err := wh.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if wh.IsDefault {
			if err := s.warehouses.ClearDefault(ctx); err != nil {
				return err
			}
		}
		return s.warehouses.Update(ctx, wh)
	})
}

// GetWarehouse retrieves a warehouse by id.
func (s *Service) GetWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	return s.warehouses.GetByID(ctx, warehouseID)
}

// ListWarehouses lists the catalog.
func (s *Service) ListWarehouses(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Warehouse], error) {
	return s.warehouses.List(ctx, filter)
}

// CreateShelf validates and persists a shelf, checking the parent warehouse
// exists and is operational.
func (s *Service) CreateShelf(ctx context.Context, shelf *Shelf) error {
	if err := shelf.Validate(ctx); err != nil {
		return err
	}
	wh, err := s.warehouses.GetByID(ctx, shelf.WarehouseID)
	if err != nil {
		return err
	}
	if !wh.CanAcceptStock() {
		return apperror.NewValidation("warehouse is not operational").
			WithDetail("warehouse_id", wh.ID.String())
	}
	if shelf.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SH"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		shelf.Code = code
	}
	return s.shelves.Create(ctx, shelf)
}

// UpdateShelf persists shelf changes.
func (s *Service) UpdateShelf(ctx context.Context, shelf *Shelf) error {
	if err := shelf.Validate(ctx); err != nil {
		return err
	}
	return s.shelves.Update(ctx, shelf)
}

// GetShelf retrieves a shelf by id.
func (s *Service) GetShelf(ctx context.Context, shelfID id.ID) (*Shelf, error) {
	return s.shelves.GetByID(ctx, shelfID)
}

// ListShelves lists the shelves of a warehouse.
func (s *Service) ListShelves(ctx context.Context, warehouseID id.ID) ([]*Shelf, error) {
	return s.shelves.ListByWarehouse(ctx, warehouseID)
}
