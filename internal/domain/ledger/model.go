// Package ledger provides the append-only stock movement log.
// Entries are immutable: created exactly once per mutating operation, never
// updated or deleted. They are the audit and reconciliation source of truth.
package ledger

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementReceipt         MovementType = "receipt"
	MovementIssue           MovementType = "issue"
	MovementTransferOut     MovementType = "transfer_out"
	MovementTransferIn      MovementType = "transfer_in"
	MovementAdjustmentPlus  MovementType = "adjustment_plus"
	MovementAdjustmentMinus MovementType = "adjustment_minus"
)

// signs maps movement types to their effect on on-hand quantity.
var signs = map[MovementType]int{
	MovementReceipt:         +1,
	MovementTransferIn:      +1,
	MovementAdjustmentPlus:  +1,
	MovementIssue:           -1,
	MovementTransferOut:     -1,
	MovementAdjustmentMinus: -1,
}

// Sign returns +1 for inbound movements and -1 for outbound.
func (t MovementType) Sign() int {
	return signs[t]
}

// IsValid reports whether the movement type is one of the known kinds.
func (t MovementType) IsValid() bool {
	_, ok := signs[t]
	return ok
}

// Entry is one immutable ledger row.
type Entry struct {
	// EntryID is unique per row (UUIDv7, so entries sort by creation time)
	EntryID id.ID `db:"entry_id" json:"entryId"`

	// StockRecordID is the record whose counters this entry changed
	StockRecordID id.ID `db:"stock_record_id" json:"stockRecordId"`

	MovementType MovementType   `db:"movement_type" json:"movementType"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`

	// DocumentID/DocumentType reference the recorder: the document or move
	// operation that produced the entry (weak reference by id, never a
	// back-pointer)
	DocumentID   id.ID  `db:"document_id" json:"documentId"`
	DocumentType string `db:"document_type" json:"documentType"`

	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry creates a ledger entry.
func NewEntry(stockRecordID id.ID, movementType MovementType, qty types.Quantity, documentID id.ID, documentType, note string) Entry {
	return Entry{
		EntryID:       id.New(),
		StockRecordID: stockRecordID,
		MovementType:  movementType,
		Quantity:      qty,
		DocumentID:    documentID,
		DocumentType:  documentType,
		Note:          note,
		CreatedAt:     time.Now().UTC(),
	}
}

// SignedQuantity returns the entry quantity with its movement sign applied.
func (e *Entry) SignedQuantity() types.Quantity {
	if e.MovementType.Sign() < 0 {
		return e.Quantity.Neg()
	}
	return e.Quantity
}
