package dto

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/documents/transfer"
)

// TransferLineRequest is one transferred line.
type TransferLineRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	VariantID *id.ID         `json:"variantId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
}

func (r TransferLineRequest) toLine(lineNo int) transfer.Line {
	return transfer.Line{
		LineID:    id.New(),
		LineNo:    lineNo,
		ProductID: r.ProductID,
		VariantID: r.VariantID,
		SKU:       r.SKU,
		Name:      r.Name,
		Quantity:  r.Quantity,
	}
}

// CreateTransferRequest creates a draft transfer.
type CreateTransferRequest struct {
	Date              *time.Time            `json:"date"`
	SourceWarehouseID id.ID                 `json:"sourceWarehouseId" binding:"required"`
	DestWarehouseID   id.ID                 `json:"destWarehouseId" binding:"required"`
	Comment           string                `json:"comment"`
	Lines             []TransferLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain transfer.
func (r CreateTransferRequest) ToEntity() *transfer.Transfer {
	doc := transfer.New(r.SourceWarehouseID, r.DestWarehouseID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment
	for i, line := range r.Lines {
		doc.Lines = append(doc.Lines, line.toLine(i+1))
	}
	return doc
}

// UpdateTransferRequest replaces the mutable parts of a draft transfer.
type UpdateTransferRequest struct {
	Date    *time.Time            `json:"date"`
	Comment *string               `json:"comment"`
	Lines   []TransferLineRequest `json:"lines"`
}

// ApplyTo merges the request onto an existing transfer.
func (r UpdateTransferRequest) ApplyTo(doc *transfer.Transfer) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.Lines != nil {
		doc.Lines = doc.Lines[:0]
		for i, line := range r.Lines {
			doc.Lines = append(doc.Lines, line.toLine(i+1))
		}
	}
}

// ReceiveSegmentRequest lands one in-transit segment on a destination shelf.
type ReceiveSegmentRequest struct {
	DestShelfID id.ID `json:"destShelfId" binding:"required"`
}
