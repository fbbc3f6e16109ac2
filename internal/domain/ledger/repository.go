package ledger

import (
	"context"
	"time"

	"lotkeeper/internal/core/id"
)

// Repository defines persistence for ledger entries. Append-only: there are
// deliberately no update or delete operations.
type Repository interface {
	// Append batch-inserts entries (used during posting, inside the same
	// transaction as the stock counter writes).
	Append(ctx context.Context, entries []Entry) error

	// ListByRecord returns entries for a stock record.
	ListByRecord(ctx context.Context, stockRecordID id.ID, filter Filter) ([]Entry, error)

	// ListByDocument returns entries produced by one document.
	ListByDocument(ctx context.Context, documentID id.ID) ([]Entry, error)
}

// Filter narrows ledger history queries.
type Filter struct {
	MovementType *MovementType
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}
