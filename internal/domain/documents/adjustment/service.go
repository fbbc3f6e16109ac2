package adjustment

import (
	"context"
	"fmt"
	"time"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/policy"
	"lotkeeper/internal/core/security"
	"lotkeeper/internal/core/tx"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/audit"
	"lotkeeper/internal/domain/events"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/numerator"
)

// Deps are the collaborators of the adjustment service.
type Deps struct {
	Repo      Repository
	Stocks    stock.Repository
	Ledger    *ledger.Service
	Numerator numerator.Generator
	TxManager tx.Manager
	Policy    policy.PostingPolicy
	Guard     *policy.Guard
	Publisher events.Publisher
	Auditor   audit.Recorder
}

// Service provides business operations for adjustment documents.
type Service struct {
	deps Deps
}

// NewService creates an adjustment service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Create validates and persists a new draft adjustment. Referenced stock
// records must exist.
func (s *Service) Create(ctx context.Context, doc *Adjustment) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	for _, line := range doc.Lines {
		if _, err := s.deps.Stocks.GetByID(ctx, line.StockRecordID); err != nil {
			return err
		}
	}

	if doc.Number == "" {
		number, err := s.deps.Numerator.GetNextNumber(ctx, numerator.DefaultConfig("ADJ"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}
	doc.CreatedBy = security.GetUserID(ctx)
	doc.UpdatedBy = doc.CreatedBy

	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.deps.Repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return s.deps.Repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "adjustment created", "id", doc.ID, "number", doc.Number)
	return nil
}

// Update persists changes to a draft adjustment.
func (s *Service) Update(ctx context.Context, doc *Adjustment) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.UpdatedBy = security.GetUserID(ctx)

	return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.deps.Repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
}

// GetByID retrieves an adjustment with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	doc, err := s.deps.Repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.deps.Repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List retrieves adjustments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error) {
	return s.deps.Repo.List(ctx, filter)
}

// Post applies each line's signed delta to its stock record with the matching
// adjustment ledger entry. A negative delta that would cut into reserved or
// blocked quantity fails the whole document.
func (s *Service) Post(ctx context.Context, docID id.ID) error {
	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := s.deps.Policy.CanPost(ctx, doc.Date); err != nil {
			return err
		}
		if err := s.deps.Guard.Check(ctx, DocumentType, doc.ActivationContext()); err != nil {
			return err
		}
		if err := doc.Transition(DocumentType, Machine, entity.StatusPosted); err != nil {
			return err
		}

		entries := make([]ledger.Entry, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			rec, err := s.deps.Stocks.GetByID(ctx, line.StockRecordID)
			if err != nil {
				return err
			}

			movement := ledger.MovementAdjustmentPlus
			if line.QtyDelta.IsPositive() {
				if err := rec.Increase(line.QtyDelta); err != nil {
					return err
				}
			} else {
				movement = ledger.MovementAdjustmentMinus
				if err := rec.Decrease(line.QtyDelta.Abs()); err != nil {
					return err
				}
			}
			if err := s.deps.Stocks.Update(ctx, rec); err != nil {
				return err
			}
			entries = append(entries, ledger.NewEntry(
				rec.ID, movement, line.QtyDelta.Abs(), doc.ID, DocumentType, line.Note))
		}
		if err := s.deps.Ledger.Record(ctx, entries); err != nil {
			return err
		}

		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeAdjustmentPosted,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionPost, doc)
	})
}

// Cancel voids a draft adjustment.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.Transition(DocumentType, Machine, entity.StatusCanceled); err != nil {
			return err
		}

		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionCancel, doc)
	})
}
