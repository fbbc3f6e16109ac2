// Package allocation provides FEFO lot allocation: binding issue document
// lines to concrete stock records and reserving the quantities.
package allocation

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// Allocation binds part of a document line to one stock record. The reserved
// counter of the record covers the allocated quantity until the document is
// posted or canceled.
type Allocation struct {
	ID            id.ID          `db:"id" json:"id"`
	DocumentID    id.ID          `db:"document_id" json:"documentId"`
	LineID        id.ID          `db:"line_id" json:"lineId"`
	StockRecordID id.ID          `db:"stock_record_id" json:"stockRecordId"`
	Quantity      types.Quantity `db:"quantity" json:"quantity"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// NewAllocation creates an allocation row.
func NewAllocation(documentID, lineID, stockRecordID id.ID, qty types.Quantity) Allocation {
	return Allocation{
		ID:            id.New(),
		DocumentID:    documentID,
		LineID:        lineID,
		StockRecordID: stockRecordID,
		Quantity:      qty,
		CreatedAt:     time.Now().UTC(),
	}
}
