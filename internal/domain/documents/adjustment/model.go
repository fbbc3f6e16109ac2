// Package adjustment provides the Adjustment document: signed stock
// corrections after counts, damage or loss.
package adjustment

import (
	"context"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// DocumentType is the type name used in ledger entries, events and audit.
const DocumentType = "Adjustment"

// Machine is the adjustment lifecycle.
var Machine = entity.StatusMachine{
	entity.StatusDraft: {entity.StatusPosted, entity.StatusCanceled},
}

// Adjustment records signed corrections against existing stock records.
type Adjustment struct {
	entity.Document

	// Reason classifies the adjustment (count, damage, loss, found)
	Reason string `db:"reason" json:"reason"`

	Lines []Line `db:"-" json:"lines"`
}

// Line corrects one stock record by a signed delta.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	StockRecordID id.ID `db:"stock_record_id" json:"stockRecordId"`

	// QtyDelta is signed: positive adds to on-hand, negative removes
	QtyDelta types.Quantity `db:"qty_delta" json:"qtyDelta"`

	Note string `db:"note" json:"note,omitempty"`
}

// New creates a draft adjustment.
func New(reason string) *Adjustment {
	return &Adjustment{
		Document: entity.NewDocument(),
		Reason:   reason,
		Lines:    make([]Line, 0),
	}
}

// AddLine appends a signed correction.
func (a *Adjustment) AddLine(stockRecordID id.ID, qtyDelta types.Quantity, note string) {
	a.Lines = append(a.Lines, Line{
		LineID:        id.New(),
		LineNo:        len(a.Lines) + 1,
		StockRecordID: stockRecordID,
		QtyDelta:      qtyDelta,
		Note:          note,
	})
}

// MaxAbsDelta returns the largest absolute line delta. Exposed to posting
// rules so oversized corrections can be blocked by configuration.
func (a *Adjustment) MaxAbsDelta() types.Quantity {
	var max types.Quantity
	for _, line := range a.Lines {
		if abs := line.QtyDelta.Abs(); abs > max {
			max = abs
		}
	}
	return max
}

// Validate implements entity.Validatable.
func (a *Adjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if a.Reason == "" {
		return apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}
	if len(a.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for _, line := range a.Lines {
		if id.IsNil(line.StockRecordID) {
			return apperror.NewValidation("stock record is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if line.QtyDelta.IsZero() {
			return apperror.NewValidation("delta must not be zero").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
	}
	return nil
}

// ActivationContext builds the document view posting rules evaluate against.
func (a *Adjustment) ActivationContext() map[string]any {
	return map[string]any{
		"reason":        a.Reason,
		"line_count":    len(a.Lines),
		"max_abs_delta": a.MaxAbsDelta().Float64(),
	}
}
