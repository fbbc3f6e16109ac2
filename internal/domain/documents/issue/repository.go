package issue

import (
	"context"
	"time"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
)

// Repository defines persistence for issue documents.
type Repository interface {
	Create(ctx context.Context, doc *Issue) error
	GetByID(ctx context.Context, docID id.ID) (*Issue, error)
	GetByNumber(ctx context.Context, number string) (*Issue, error)
	Update(ctx context.Context, doc *Issue) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Issue], error)
}

// ListFilter narrows issue listings.
type ListFilter struct {
	domain.ListFilter

	WarehouseID *id.ID
	Status      *entity.Status
	OrderRef    *string
	DateFrom    *time.Time
	DateTo      *time.Time
}
