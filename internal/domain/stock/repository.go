package stock

import (
	"context"
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

// AvailableRecord is a stock record joined with the recording time of its
// cost row. The cost timestamp is the FEFO tie-break for equal expiry dates
// (oldest-received lot first).
type AvailableRecord struct {
	Record
	CostRecordedAt *time.Time `db:"cost_recorded_at" json:"costRecordedAt,omitempty"`
}

// Repository defines persistence for stock records.
type Repository interface {
	// Create inserts a new stock record.
	Create(ctx context.Context, record *Record) error

	// Update persists counter changes with optimistic locking; a stale
	// version surfaces CONCURRENT_MODIFICATION.
	Update(ctx context.Context, record *Record) error

	// GetByID retrieves a record by primary key.
	GetByID(ctx context.Context, recordID id.ID) (*Record, error)

	// GetByKey retrieves a record by its composite identity, or NOT_FOUND.
	GetByKey(ctx context.Context, key Key) (*Record, error)

	// ListAvailable returns records matching product/variant/warehouse with
	// available > 0, joined with cost recording times for FEFO ordering.
	ListAvailable(ctx context.Context, productID id.ID, variantID *id.ID, warehouseID id.ID) ([]AvailableRecord, error)

	// ListByWarehouse returns records in a warehouse.
	ListByWarehouse(ctx context.Context, warehouseID id.ID, filter ListFilter) ([]Record, error)

	// AvailabilityByProduct sums available quantity across all records of a
	// product, optionally narrowed to one warehouse.
	AvailabilityByProduct(ctx context.Context, productID id.ID, warehouseID *id.ID) (types.Quantity, error)
}

// ListFilter narrows warehouse stock listings.
type ListFilter struct {
	ProductIDs  []id.ID
	ShelfID     *id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}
