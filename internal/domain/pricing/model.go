// Package pricing provides the cost and price registry: one active purchase
// cost per stock record, and non-overlapping time-sliced selling prices.
package pricing

import (
	"context"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// InventoryCost is the purchase cost of a stock record's lot. There is
// exactly one active cost per record; corrections amend the amount in place
// and keep no temporal history.
type InventoryCost struct {
	ID            id.ID `db:"id" json:"id"`
	StockRecordID id.ID `db:"stock_record_id" json:"stockRecordId"`

	Amount types.Money `db:"amount" json:"amount"`
	entity.CurrencyAware

	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`
}

// NewInventoryCost creates a cost row for a stock record.
func NewInventoryCost(stockRecordID id.ID, amount types.Money, currency string) InventoryCost {
	return InventoryCost{
		ID:            id.New(),
		StockRecordID: stockRecordID,
		Amount:        amount,
		CurrencyAware: entity.CurrencyAware{Currency: currency},
		RecordedAt:    time.Now().UTC(),
	}
}

// CopyFor clones the cost basis onto another record, with a fresh id and
// recording time. Used when a move or transfer creates a destination record:
// cost basis follows the lot.
func (c InventoryCost) CopyFor(stockRecordID id.ID) InventoryCost {
	return NewInventoryCost(stockRecordID, c.Amount, c.Currency)
}

// StockItemPrice is a selling price valid over the half-open interval
// [EffectiveFrom, EffectiveTo); a nil EffectiveTo means open-ended. For a
// given stock record no two rows overlap.
type StockItemPrice struct {
	ID            id.ID `db:"id" json:"id"`
	StockRecordID id.ID `db:"stock_record_id" json:"stockRecordId"`

	Amount types.Money `db:"amount" json:"amount"`
	entity.CurrencyAware

	EffectiveFrom time.Time  `db:"effective_from" json:"effectiveFrom"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effectiveTo,omitempty"`
}

// NewStockItemPrice creates a price row.
func NewStockItemPrice(stockRecordID id.ID, amount types.Money, currency string, from time.Time, to *time.Time) StockItemPrice {
	return StockItemPrice{
		ID:            id.New(),
		StockRecordID: stockRecordID,
		Amount:        amount,
		CurrencyAware: entity.CurrencyAware{Currency: currency},
		EffectiveFrom: from,
		EffectiveTo:   to,
	}
}

// ActiveAt reports whether the interval covers the given instant.
func (p *StockItemPrice) ActiveAt(at time.Time) bool {
	if at.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || at.Before(*p.EffectiveTo)
}

// Validate implements entity.Validatable.
func (p *StockItemPrice) Validate(ctx context.Context) error {
	if id.IsNil(p.StockRecordID) {
		return apperror.NewValidation("stock record is required").
			WithDetail("field", "stockRecordId")
	}
	if p.Amount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", "amount")
	}
	if err := p.ValidateCurrency(ctx); err != nil {
		return err
	}
	if p.EffectiveFrom.IsZero() {
		return apperror.NewValidation("effectiveFrom is required").
			WithDetail("field", "effectiveFrom")
	}
	if p.EffectiveTo != nil && !p.EffectiveFrom.Before(*p.EffectiveTo) {
		return apperror.NewValidation("effectiveTo must be after effectiveFrom").
			WithDetail("effectiveFrom", p.EffectiveFrom).
			WithDetail("effectiveTo", *p.EffectiveTo)
	}
	return nil
}
