package dto

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// BlockStockRequest blocks quantity of a stock record.
type BlockStockRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
	Reason   string         `json:"reason" binding:"required"`
}

// UnblockStockRequest releases blocked quantity.
type UnblockStockRequest struct {
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// MoveStockRequest relocates quantity of a stock record to another shelf.
type MoveStockRequest struct {
	SourceRecordID id.ID          `json:"sourceRecordId" binding:"required"`
	TargetShelfID  id.ID          `json:"targetShelfId" binding:"required"`
	Quantity       types.Quantity `json:"quantity" binding:"required"`
	Note           string         `json:"note"`
}

// AvailabilityResponse is the summed availability of a product.
type AvailabilityResponse struct {
	ProductID   id.ID          `json:"productId"`
	WarehouseID *id.ID         `json:"warehouseId,omitempty"`
	Available   types.Quantity `json:"available"`
}

// CorrectCostRequest amends a stock record's cost amount in place.
type CorrectCostRequest struct {
	Amount types.Money `json:"amount" binding:"required"`
}

// SetPriceRequest opens a new price interval for a stock record.
type SetPriceRequest struct {
	Amount        types.Money `json:"amount" binding:"required"`
	Currency      string      `json:"currency" binding:"required"`
	EffectiveFrom *time.Time  `json:"effectiveFrom"`
	EffectiveTo   *time.Time  `json:"effectiveTo"`
}
