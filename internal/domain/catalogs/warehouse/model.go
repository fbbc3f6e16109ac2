// Package warehouse provides the warehouse and shelf catalogs. Warehouses are
// physical storage locations; shelves subdivide a warehouse into addressable
// storage positions that stock records point at.
package warehouse

import (
	"context"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
)

// WarehouseType defines the type of warehouse.
type WarehouseType string

const (
	TypeMain         WarehouseType = "main"
	TypeDistribution WarehouseType = "distribution"
	TypeRetail       WarehouseType = "retail"
	TypeTransit      WarehouseType = "transit"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.BaseCatalog

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// Type defines the warehouse category
	Type WarehouseType `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates the warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// IsDefault marks the warehouse used when a document omits one
	IsDefault bool `db:"is_default" json:"isDefault"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string, whType WarehouseType) *Warehouse {
	return &Warehouse{
		BaseCatalog: entity.NewBaseCatalog(),
		Code:        code,
		Name:        name,
		Type:        whType,
		IsActive:    true,
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !isValidWarehouseType(w.Type) {
		return apperror.NewValidation("invalid warehouse type").
			WithDetail("field", "type").
			WithDetail("value", string(w.Type))
	}
	return nil
}

// CanAcceptStock reports whether the warehouse can take goods in.
func (w *Warehouse) CanAcceptStock() bool {
	return w.IsActive && !w.DeletionMark
}

func isValidWarehouseType(t WarehouseType) bool {
	switch t {
	case TypeMain, TypeDistribution, TypeRetail, TypeTransit:
		return true
	}
	return false
}

// Shelf is an addressable storage position inside a warehouse.
type Shelf struct {
	entity.BaseCatalog

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`

	// Zone groups shelves for picking routes (optional)
	Zone string `db:"zone" json:"zone,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewShelf creates a shelf in the given warehouse.
func NewShelf(warehouseID id.ID, code, name string) *Shelf {
	return &Shelf{
		BaseCatalog: entity.NewBaseCatalog(),
		WarehouseID: warehouseID,
		Code:        code,
		Name:        name,
		IsActive:    true,
	}
}

// Validate implements entity.Validatable.
func (s *Shelf) Validate(ctx context.Context) error {
	if id.IsNil(s.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if s.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
