package adjustment

import (
	"context"
	"time"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
)

// Repository defines persistence for adjustment documents.
type Repository interface {
	Create(ctx context.Context, doc *Adjustment) error
	GetByID(ctx context.Context, docID id.ID) (*Adjustment, error)
	GetByNumber(ctx context.Context, number string) (*Adjustment, error)
	Update(ctx context.Context, doc *Adjustment) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error)
}

// ListFilter narrows adjustment listings.
type ListFilter struct {
	domain.ListFilter

	Reason   *string
	Status   *entity.Status
	DateFrom *time.Time
	DateTo   *time.Time
}
