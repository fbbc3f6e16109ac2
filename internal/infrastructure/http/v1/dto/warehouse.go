package dto

import (
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain/catalogs/warehouse"
)

// CreateWarehouseRequest creates a warehouse.
type CreateWarehouseRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	Address     *string `json:"address"`
	IsDefault   bool    `json:"isDefault"`
	Description *string `json:"description"`
}

// ToEntity converts the request to a domain warehouse.
func (r CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	wh := warehouse.NewWarehouse(r.Code, r.Name, warehouse.WarehouseType(r.Type))
	wh.Address = r.Address
	wh.IsDefault = r.IsDefault
	wh.Description = r.Description
	return wh
}

// UpdateWarehouseRequest updates a warehouse. Nil fields are left unchanged.
type UpdateWarehouseRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Address     *string `json:"address"`
	IsActive    *bool   `json:"isActive"`
	IsDefault   *bool   `json:"isDefault"`
	Description *string `json:"description"`
}

// ApplyTo merges the request onto an existing warehouse.
func (r UpdateWarehouseRequest) ApplyTo(wh *warehouse.Warehouse) {
	if r.Name != nil {
		wh.Name = *r.Name
	}
	if r.Type != nil {
		wh.Type = warehouse.WarehouseType(*r.Type)
	}
	if r.Address != nil {
		wh.Address = r.Address
	}
	if r.IsActive != nil {
		wh.IsActive = *r.IsActive
	}
	if r.IsDefault != nil {
		wh.IsDefault = *r.IsDefault
	}
	if r.Description != nil {
		wh.Description = r.Description
	}
}

// CreateShelfRequest creates a shelf inside a warehouse.
type CreateShelfRequest struct {
	WarehouseID id.ID  `json:"warehouseId" binding:"required"`
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Zone        string `json:"zone"`
}

// ToEntity converts the request to a domain shelf.
func (r CreateShelfRequest) ToEntity() *warehouse.Shelf {
	shelf := warehouse.NewShelf(r.WarehouseID, r.Code, r.Name)
	shelf.Zone = r.Zone
	return shelf
}

// UpdateShelfRequest updates a shelf. Nil fields are left unchanged.
type UpdateShelfRequest struct {
	Name     *string `json:"name"`
	Zone     *string `json:"zone"`
	IsActive *bool   `json:"isActive"`
}

// ApplyTo merges the request onto an existing shelf.
func (r UpdateShelfRequest) ApplyTo(shelf *warehouse.Shelf) {
	if r.Name != nil {
		shelf.Name = *r.Name
	}
	if r.Zone != nil {
		shelf.Zone = *r.Zone
	}
	if r.IsActive != nil {
		shelf.IsActive = *r.IsActive
	}
}
