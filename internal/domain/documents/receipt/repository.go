package receipt

import (
	"context"
	"time"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
)

// Repository defines persistence for receipt documents.
type Repository interface {
	Create(ctx context.Context, doc *Receipt) error
	GetByID(ctx context.Context, docID id.ID) (*Receipt, error)
	GetByNumber(ctx context.Context, number string) (*Receipt, error)

	// Update persists header changes with optimistic locking; a stale
	// version surfaces CONCURRENT_MODIFICATION.
	Update(ctx context.Context, doc *Receipt) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Receipt], error)
}

// ListFilter narrows receipt listings.
type ListFilter struct {
	domain.ListFilter

	WarehouseID *id.ID
	Status      *entity.Status
	DateFrom    *time.Time
	DateTo      *time.Time
}
