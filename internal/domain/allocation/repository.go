package allocation

import (
	"context"

	"lotkeeper/internal/core/id"
)

// Repository defines persistence for allocations.
type Repository interface {
	// CreateBatch inserts allocation rows (inside the caller's transaction).
	CreateBatch(ctx context.Context, allocations []Allocation) error

	// ListByDocument returns all allocations of a document.
	ListByDocument(ctx context.Context, documentID id.ID) ([]Allocation, error)

	// ListByLine returns the allocations of one line.
	ListByLine(ctx context.Context, lineID id.ID) ([]Allocation, error)

	// DeleteByDocument removes all allocations of a document. Used when the
	// document posts (allocations convert to issues) or cancels (reservations
	// are released).
	DeleteByDocument(ctx context.Context, documentID id.ID) error
}
