package dto

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/documents/adjustment"
)

// AdjustmentLineRequest corrects one stock record by a signed delta.
type AdjustmentLineRequest struct {
	StockRecordID id.ID          `json:"stockRecordId" binding:"required"`
	QtyDelta      types.Quantity `json:"qtyDelta" binding:"required"`
	Note          string         `json:"note"`
}

func (r AdjustmentLineRequest) toLine(lineNo int) adjustment.Line {
	return adjustment.Line{
		LineID:        id.New(),
		LineNo:        lineNo,
		StockRecordID: r.StockRecordID,
		QtyDelta:      r.QtyDelta,
		Note:          r.Note,
	}
}

// CreateAdjustmentRequest creates a draft adjustment.
type CreateAdjustmentRequest struct {
	Date    *time.Time              `json:"date"`
	Reason  string                  `json:"reason" binding:"required"`
	Comment string                  `json:"comment"`
	Lines   []AdjustmentLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain adjustment.
func (r CreateAdjustmentRequest) ToEntity() *adjustment.Adjustment {
	doc := adjustment.New(r.Reason)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.Comment = r.Comment
	for i, line := range r.Lines {
		doc.Lines = append(doc.Lines, line.toLine(i+1))
	}
	return doc
}

// UpdateAdjustmentRequest replaces the mutable parts of a draft adjustment.
type UpdateAdjustmentRequest struct {
	Date    *time.Time              `json:"date"`
	Reason  *string                 `json:"reason"`
	Comment *string                 `json:"comment"`
	Lines   []AdjustmentLineRequest `json:"lines"`
}

// ApplyTo merges the request onto an existing adjustment.
func (r UpdateAdjustmentRequest) ApplyTo(doc *adjustment.Adjustment) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Reason != nil {
		doc.Reason = *r.Reason
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
