// Package receipt provides the Receipt document: goods arriving from a
// supplier into warehouse stock.
package receipt

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
const DocumentType = "Receipt"

// Machine is the receipt lifecycle. Received applies the stock effect;
// Approved is the terminal confirmation with no further quantity effect.
var Machine = entity.StatusMachine{
	entity.StatusDraft:    {entity.StatusReceived, entity.StatusCanceled},
	entity.StatusReceived: {entity.StatusApproved, entity.StatusCanceled},
}

// Receipt records incoming goods from a supplier.
type Receipt struct {
	entity.Document

	// WarehouseID is where the goods arrive
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// SupplierRef is the external supplier document reference
	SupplierRef string `db:"supplier_ref" json:"supplierRef,omitempty"`

	entity.CurrencyAware

	// Table part: received goods
	Lines []Line `db:"-" json:"lines"`
}

// Line is one received item. SKU and Name are resolved from the catalog
// gateway when the line is added and stored denormalized.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`

	// Lot dimensions of the stock record the line lands on
	LotNumber  string     `db:"lot_number" json:"lotNumber,omitempty"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	ShelfID    id.ID      `db:"shelf_id" json:"shelfId"`
}

// New creates a draft receipt.
func New(warehouseID id.ID, currency string) *Receipt {
	return &Receipt{
		Document:      entity.NewDocument(),
		WarehouseID:   warehouseID,
		CurrencyAware: entity.CurrencyAware{Currency: currency},
		Lines:         make([]Line, 0),
	}
}

// AddLine appends a line with a resolved catalog identity.
func (r *Receipt) AddLine(item gateway.Item, productID id.ID, variantID *id.ID, qty types.Quantity, unitCost types.Money, lotNumber string, expiry *time.Time, shelfID id.ID) {
	r.Lines = append(r.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(r.Lines) + 1,
		ProductID:  productID,
		VariantID:  variantID,
		SKU:        item.SKU,
		Name:       item.Name,
		Quantity:   qty,
		UnitCost:   unitCost,
		LotNumber:  lotNumber,
		ExpiryDate: expiry,
		ShelfID:    shelfID,
	})
}

// TotalQuantity sums line quantities.
func (r *Receipt) TotalQuantity() types.Quantity {
	var total types.Quantity
	for _, line := range r.Lines {
		total += line.Quantity
	}
	return total
}

// TotalCost sums line extended costs.
func (r *Receipt) TotalCost() types.Money {
	total := types.ZeroMoney()
	for _, line := range r.Lines {
		total = total.Add(line.UnitCost.Mul(types.NewMoney(line.Quantity.Float64())))
	}
	return total
}

// Validate implements entity.Validatable.
func (r *Receipt) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}
	if err := r.ValidateCurrency(ctx); err != nil {
		return err
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, line := range r.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if id.IsNil(line.ShelfID) {
			return apperror.NewValidation("shelf is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
	}
	return nil
}

// ActivationContext builds the document view posting rules evaluate against.
func (r *Receipt) ActivationContext() map[string]any {
	return map[string]any{
		"warehouse_id":   r.WarehouseID.String(),
		"line_count":     len(r.Lines),
		"total_quantity": r.TotalQuantity().Float64(),
		"total_cost":     r.TotalCost().InexactFloat64(),
		"currency":       r.Currency,
	}
}
