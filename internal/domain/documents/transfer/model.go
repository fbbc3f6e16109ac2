// Package transfer provides the Transfer document: goods moving between two
// warehouses with an in-transit phase tracked per segment.
package transfer

import (
	"context"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/gateway"
)

// DocumentType is the type name used in ledger entries, events and audit.
const DocumentType = "Transfer"

// Machine is the transfer lifecycle. Shipping removes stock from the source;
// each received segment adds stock at the destination. Only a draft can be
// canceled: shipped goods are in transit and must be received somewhere.
var Machine = entity.StatusMachine{
	entity.StatusDraft:             {entity.StatusShipped, entity.StatusCanceled},
	entity.StatusShipped:           {entity.StatusPartiallyReceived, entity.StatusCompleted},
	entity.StatusPartiallyReceived: {entity.StatusPartiallyReceived, entity.StatusCompleted},
}

// Transfer records an inter-warehouse stock movement.
type Transfer struct {
	entity.Document

	SourceWarehouseID id.ID `db:"source_warehouse_id" json:"sourceWarehouseId"`
	DestWarehouseID   id.ID `db:"dest_warehouse_id" json:"destWarehouseId"`

	Lines []Line `db:"-" json:"lines"`

	// Segments track per-lot in-transit portions; created at shipping
	Segments []Segment `db:"-" json:"segments"`
}

// Line is one transferred item.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// SegmentStatus is the in-transit state of one segment.
type SegmentStatus string

const (
	SegmentInTransit SegmentStatus = "in_transit"
	SegmentReceived  SegmentStatus = "received"
)

// Segment is one shipped lot portion. Shipping creates segments from the
// FEFO plan; receiving lands a segment's quantity on a destination shelf
// with the same lot dimensions.
type Segment struct {
	SegmentID  id.ID `db:"segment_id" json:"segmentId"`
	TransferID id.ID `db:"transfer_id" json:"transferId"`
	LineID     id.ID `db:"line_id" json:"lineId"`

	// SourceRecordID anchors the origin (for cost copy on receive)
	SourceRecordID id.ID `db:"source_record_id" json:"sourceRecordId"`

	ProductID  id.ID      `db:"product_id" json:"productId"`
	VariantID  *id.ID     `db:"variant_id" json:"variantId,omitempty"`
	LotNumber  string     `db:"lot_number" json:"lotNumber,omitempty"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Status   SegmentStatus  `db:"status" json:"status"`

	ReceivedAt  *time.Time `db:"received_at" json:"receivedAt,omitempty"`
	DestShelfID *id.ID     `db:"dest_shelf_id" json:"destShelfId,omitempty"`
}

// New creates a draft transfer.
func New(sourceWarehouseID, destWarehouseID id.ID) *Transfer {
	return &Transfer{
		Document:          entity.NewDocument(),
		SourceWarehouseID: sourceWarehouseID,
		DestWarehouseID:   destWarehouseID,
		Lines:             make([]Line, 0),
	}
}

// AddLine appends a line with a resolved catalog identity.
func (t *Transfer) AddLine(item gateway.Item, productID id.ID, variantID *id.ID, qty types.Quantity) {
	t.Lines = append(t.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(t.Lines) + 1,
		ProductID: productID,
		VariantID: variantID,
		SKU:       item.SKU,
		Name:      item.Name,
		Quantity:  qty,
	})
}

// TotalQuantity sums line quantities.
func (t *Transfer) TotalQuantity() types.Quantity {
	var total types.Quantity
	for _, line := range t.Lines {
		total += line.Quantity
	}
	return total
}

// AllSegmentsReceived reports whether no segment remains in transit.
func (t *Transfer) AllSegmentsReceived() bool {
	for _, seg := range t.Segments {
		if seg.Status != SegmentReceived {
			return false
		}
	}
	return len(t.Segments) > 0
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.SourceWarehouseID) {
		return apperror.NewValidation("source warehouse is required").
			WithDetail("field", "sourceWarehouseId")
	}
	if id.IsNil(t.DestWarehouseID) {
		return apperror.NewValidation("destination warehouse is required").
			WithDetail("field", "destWarehouseId")
	}
	if t.SourceWarehouseID == t.DestWarehouseID {
		return apperror.NewValidation("destination warehouse must differ from source").
			WithDetail("warehouse_id", t.SourceWarehouseID.String())
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, line := range t.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
	}
	return nil
}

// ActivationContext builds the document view posting rules evaluate against.
func (t *Transfer) ActivationContext() map[string]any {
	return map[string]any{
		"source_warehouse_id": t.SourceWarehouseID.String(),
		"dest_warehouse_id":   t.DestWarehouseID.String(),
		"line_count":          len(t.Lines),
		"total_quantity":      t.TotalQuantity().Float64(),
	}
}
