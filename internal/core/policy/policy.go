// Package policy provides posting-time rules shared by all document types.
package policy

import (
	"context"
	"time"

	"lotkeeper/internal/core/apperror"
)

// PostingPolicy defines period rules for document posting.
type PostingPolicy interface {
	// CanPost checks if a document with the given date may be posted
	CanPost(ctx context.Context, docDate time.Time) error

	// CanCancel checks if a document with the given date may be canceled
	CanCancel(ctx context.Context, docDate time.Time) error

	// ClosedUntil returns the date before which the period is closed
	ClosedUntil(ctx context.Context) time.Time
}

// StrictPolicy forbids any changes inside the closed period.
// Used for regulatory compliance.
type StrictPolicy struct {
	closedUntil time.Time
}

// NewStrictPolicy creates a policy that forbids changes before closedUntil.
func NewStrictPolicy(closedUntil time.Time) *StrictPolicy {
	return &StrictPolicy{closedUntil: closedUntil}
}

func (p *StrictPolicy) CanPost(ctx context.Context, docDate time.Time) error {
	if docDate.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01"))
	}
	return nil
}

func (p *StrictPolicy) CanCancel(ctx context.Context, docDate time.Time) error {
	return p.CanPost(ctx, docDate)
}

func (p *StrictPolicy) ClosedUntil(ctx context.Context) time.Time {
	return p.closedUntil
}

// OpenPolicy allows all operations (development and tests).
type OpenPolicy struct{}

func (OpenPolicy) CanPost(ctx context.Context, docDate time.Time) error   { return nil }
func (OpenPolicy) CanCancel(ctx context.Context, docDate time.Time) error { return nil }
func (OpenPolicy) ClosedUntil(ctx context.Context) time.Time              { return time.Time{} }
