package entity

import (
	"context"
	"time"

	"lotkeeper/internal/core/apperror"
)

// Document is the base type for stock-affecting business transactions:
// Receipt, Issue, Transfer, Adjustment.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status is the current lifecycle state; the status machine of the
	// concrete document type is the sole gate on mutation and posting.
	Status Status `db:"status" json:"status"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new draft document.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       StatusDraft,
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if d.Status == "" {
		return apperror.NewValidation("status is required").
			WithDetail("field", "status")
	}
	return nil
}

// CanModify checks if document lines may still be changed.
// Only draft documents are mutable.
func (d *Document) CanModify() error {
	if d.Status != StatusDraft {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidStateTransition,
			"Only draft documents can be modified",
		).WithDetail("document_id", d.ID.String()).
			WithDetail("status", string(d.Status))
	}
	return nil
}

// IsDraft reports whether the document is still in its mutable state.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}
