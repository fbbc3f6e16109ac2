package issue

import (
	"context"
	"fmt"
	"time"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/policy"
	"lotkeeper/internal/core/security"
	"lotkeeper/internal/core/tx"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/allocation"
	"lotkeeper/internal/domain/audit"
	"lotkeeper/internal/domain/events"
	"lotkeeper/internal/domain/gateway"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/numerator"
)

// Deps are the collaborators of the issue service.
type Deps struct {
	Repo        Repository
	Stocks      stock.Repository
	Allocations *allocation.Engine
	Ledger      *ledger.Service
	Resolver    gateway.Resolver
	Numerator   numerator.Generator
	TxManager   tx.Manager
	Policy      policy.PostingPolicy
	Guard       *policy.Guard
	Publisher   events.Publisher
	Auditor     audit.Recorder
}

// Service provides business operations for issue documents.
type Service struct {
	deps Deps
}

// NewService creates an issue service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Create validates and persists a new draft issue.
func (s *Service) Create(ctx context.Context, doc *Issue) error {
	if err := s.resolveLines(ctx, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.deps.Numerator.GetNextNumber(ctx, numerator.DefaultConfig("IS"), nil, time.Now())
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

	logger.Info(ctx, "issue created", "id", doc.ID, "number", doc.Number)
	return nil
}

// Update persists changes to a draft issue. Existing allocations are released
// first: edited lines invalidate the reservation set.
func (s *Service) Update(ctx context.Context, doc *Issue) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := s.resolveLines(ctx, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.UpdatedBy = security.GetUserID(ctx)

	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		if err := s.deps.Allocations.ReleaseDocument(ctx, doc.ID); err != nil {
			return err
		}
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.deps.Repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
}

// GetByID retrieves an issue with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Issue, error) {
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

// List retrieves issues with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Issue], error) {
	return s.deps.Repo.List(ctx, filter)
}

// Allocate runs FEFO allocation for every line of a draft issue, reserving
// stock. Previously held allocations are released and rebuilt so the call is
// repeatable. All or nothing across the document.
func (s *Service) Allocate(ctx context.Context, docID id.ID) ([]allocation.Allocation, error) {
	var result []allocation.Allocation
	err := tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if err := s.deps.Allocations.ReleaseDocument(ctx, doc.ID); err != nil {
			return err
		}

		result = result[:0]
		for _, line := range doc.Lines {
			rows, err := s.deps.Allocations.AllocateLine(ctx, doc.ID, allocation.Demand{
				LineID:      line.LineID,
				ProductID:   line.ProductID,
				VariantID:   line.VariantID,
				WarehouseID: doc.WarehouseID,
				Quantity:    line.Quantity,
			})
			if err != nil {
				return err
			}
			result = append(result, rows...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Post converts the document's reservations into actual stock decreases with
// Issue ledger entries. Every line must be fully allocated.
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

		allocations, err := s.deps.Allocations.ByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		allocated := make(map[id.ID]types.Quantity, len(allocations))
		for _, a := range allocations {
			allocated[a.LineID] += a.Quantity
		}
		if lineNos := doc.UnderallocatedLineNos(allocated); len(lineNos) > 0 {
			return apperror.NewUnallocatedLines(doc.ID.String(), lineNos)
		}

		entries := make([]ledger.Entry, 0, len(allocations))
		for _, a := range allocations {
			rec, err := s.deps.Stocks.GetByID(ctx, a.StockRecordID)
			if err != nil {
				return err
			}
			if err := rec.Release(a.Quantity); err != nil {
				return err
			}
			if err := rec.Decrease(a.Quantity); err != nil {
				return err
			}
			if err := s.deps.Stocks.Update(ctx, rec); err != nil {
				return err
			}
			entries = append(entries, ledger.NewEntry(
				rec.ID, ledger.MovementIssue, a.Quantity, doc.ID, DocumentType, doc.OrderRef))
		}
		if err := s.deps.Ledger.Record(ctx, entries); err != nil {
			return err
		}
		if err := s.deps.Allocations.Consume(ctx, doc.ID); err != nil {
			return err
		}

		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeIssuePosted,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionPost, doc)
	})
}

// Cancel voids a draft issue, releasing any held allocations.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.Transition(DocumentType, Machine, entity.StatusCanceled); err != nil {
			return err
		}
		if err := s.deps.Allocations.ReleaseDocument(ctx, doc.ID); err != nil {
			return err
		}

		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeIssueCanceled,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionCancel, doc)
	})
}

// resolveLines fills SKU and Name from the catalog for lines missing them.
func (s *Service) resolveLines(ctx context.Context, doc *Issue) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.SKU != "" {
			continue
		}
		item, err := s.deps.Resolver.ResolveItem(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return err
		}
		line.SKU = item.SKU
		line.Name = item.Name
	}
	return nil
}
