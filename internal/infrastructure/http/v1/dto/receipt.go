package dto

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/documents/receipt"
)

// ReceiptLineRequest is one incoming line. SKU and Name may be omitted; the
// service resolves them from the catalog gateway.
type ReceiptLineRequest struct {
	ProductID  id.ID          `json:"productId" binding:"required"`
	VariantID  *id.ID         `json:"variantId"`
	SKU        string         `json:"sku"`
	Name       string         `json:"name"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	UnitCost   types.Money    `json:"unitCost"`
	LotNumber  string         `json:"lotNumber"`
	ExpiryDate *time.Time     `json:"expiryDate"`
	ShelfID    id.ID          `json:"shelfId" binding:"required"`
}

func (r ReceiptLineRequest) toLine(lineNo int) receipt.Line {
	return receipt.Line{
		LineID:     id.New(),
		LineNo:     lineNo,
		ProductID:  r.ProductID,
		VariantID:  r.VariantID,
		SKU:        r.SKU,
		Name:       r.Name,
		Quantity:   r.Quantity,
		UnitCost:   r.UnitCost,
		LotNumber:  r.LotNumber,
		ExpiryDate: r.ExpiryDate,
		ShelfID:    r.ShelfID,
	}
}

// CreateReceiptRequest creates a draft receipt.
type CreateReceiptRequest struct {
	Date        *time.Time           `json:"date"`
	WarehouseID id.ID                `json:"warehouseId" binding:"required"`
	SupplierRef string               `json:"supplierRef"`
	Currency    string               `json:"currency" binding:"required"`
	Comment     string               `json:"comment"`
	Lines       []ReceiptLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain receipt.
func (r CreateReceiptRequest) ToEntity() *receipt.Receipt {
	doc := receipt.New(r.WarehouseID, r.Currency)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.SupplierRef = r.SupplierRef
	doc.Comment = r.Comment
	for i, line := range r.Lines {
		doc.Lines = append(doc.Lines, line.toLine(i+1))
	}
	return doc
}

// UpdateReceiptRequest replaces the mutable parts of a draft receipt.
type UpdateReceiptRequest struct {
	Date        *time.Time           `json:"date"`
	SupplierRef *string              `json:"supplierRef"`
	Comment     *string              `json:"comment"`
	Lines       []ReceiptLineRequest `json:"lines"`
}

// ApplyTo merges the request onto an existing receipt. A non-nil Lines slice
// replaces the whole table part.
func (r UpdateReceiptRequest) ApplyTo(doc *receipt.Receipt) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.SupplierRef != nil {
		doc.SupplierRef = *r.SupplierRef
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
