package transfer

import (
	"context"
	"time"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
)

// Repository defines persistence for transfer documents.
type Repository interface {
	Create(ctx context.Context, doc *Transfer) error
	GetByID(ctx context.Context, docID id.ID) (*Transfer, error)
	GetByNumber(ctx context.Context, number string) (*Transfer, error)
	Update(ctx context.Context, doc *Transfer) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	GetSegments(ctx context.Context, docID id.ID) ([]Segment, error)
	SaveSegments(ctx context.Context, docID id.ID, segments []Segment) error
	UpdateSegment(ctx context.Context, segment Segment) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error)
}

// ListFilter narrows transfer listings.
type ListFilter struct {
	domain.ListFilter

	SourceWarehouseID *id.ID
	DestWarehouseID   *id.ID
	Status            *entity.Status
	DateFrom          *time.Time
	DateTo            *time.Time
}
