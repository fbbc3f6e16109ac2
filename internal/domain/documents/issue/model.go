// Package issue provides the Issue document: goods leaving warehouse stock
// for a customer order or internal consumption.
package issue

import (
	"context"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/gateway"
)

// DocumentType is the type name used in ledger entries, events and audit.
const DocumentType = "Issue"

// Machine is the issue lifecycle. Posting converts reservations into
// decreases; a draft can be canceled, a posted document cannot.
var Machine = entity.StatusMachine{
	entity.StatusDraft: {entity.StatusPosted, entity.StatusCanceled},
}

// Issue records outbound goods.
type Issue struct {
	entity.Document

	// WarehouseID is where the goods leave from
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// OrderRef is the external order reference this issue fulfills
	OrderRef string `db:"order_ref" json:"orderRef,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one issued item.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a draft issue.
func New(warehouseID id.ID) *Issue {
	return &Issue{
		Document:    entity.NewDocument(),
		WarehouseID: warehouseID,
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a line with a resolved catalog identity.
func (d *Issue) AddLine(item gateway.Item, productID id.ID, variantID *id.ID, qty types.Quantity) {
	d.Lines = append(d.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(d.Lines) + 1,
		ProductID: productID,
		VariantID: variantID,
		SKU:       item.SKU,
		Name:      item.Name,
		Quantity:  qty,
	})
}

// TotalQuantity sums line quantities.
func (d *Issue) TotalQuantity() types.Quantity {
	var total types.Quantity
	for _, line := range d.Lines {
		total += line.Quantity
	}
	return total
}

// Validate implements entity.Validatable.
func (d *Issue) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, line := range d.Lines {
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
func (d *Issue) ActivationContext() map[string]any {
	return map[string]any{
		"warehouse_id":   d.WarehouseID.String(),
		"line_count":     len(d.Lines),
		"total_quantity": d.TotalQuantity().Float64(),
	}
}

// UnderallocatedLineNos returns line numbers whose allocations do not cover
// the line quantity. allocated maps line id to allocated total.
func (d *Issue) UnderallocatedLineNos(allocated map[id.ID]types.Quantity) []int {
	var lineNos []int
	for _, line := range d.Lines {
		if allocated[line.LineID] < line.Quantity {
			lineNos = append(lineNos, line.LineNo)
		}
	}
	return lineNos
}
