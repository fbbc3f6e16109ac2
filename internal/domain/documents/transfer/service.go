package transfer

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
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/allocation"
	"lotkeeper/internal/domain/audit"
	"lotkeeper/internal/domain/events"
	"lotkeeper/internal/domain/gateway"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/numerator"
)

// Deps are the collaborators of the transfer service.
type Deps struct {
	Repo      Repository
	Stocks    stock.Repository
	Ledger    *ledger.Service
	Pricing   *pricing.Service
	Resolver  gateway.Resolver
	Numerator numerator.Generator
	TxManager tx.Manager
	Policy    policy.PostingPolicy
	Guard     *policy.Guard
	Publisher events.Publisher
	Auditor   audit.Recorder
}

// Service provides business operations for transfer documents.
type Service struct {
	deps Deps
}

// NewService creates a transfer service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Create validates and persists a new draft transfer.
func (s *Service) Create(ctx context.Context, doc *Transfer) error {
	if err := s.resolveLines(ctx, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.deps.Numerator.GetNextNumber(ctx, numerator.DefaultConfig("TR"), nil, time.Now())
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

	logger.Info(ctx, "transfer created", "id", doc.ID, "number", doc.Number)
	return nil
}

// Update persists changes to a draft transfer.
func (s *Service) Update(ctx context.Context, doc *Transfer) error {
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

	return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.deps.Repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
}

// GetByID retrieves a transfer with lines and segments.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	doc, err := s.deps.Repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Lines, err = s.deps.Repo.GetLines(ctx, docID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	if doc.Segments, err = s.deps.Repo.GetSegments(ctx, docID); err != nil {
		return nil, fmt.Errorf("get segments: %w", err)
	}
	return doc, nil
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error) {
	return s.deps.Repo.List(ctx, filter)
}

// Ship removes the transferred goods from source stock. Lots are chosen
// first-expired-first-out per line; each taken portion becomes an in-transit
// segment awaiting receipt at the destination.
func (s *Service) Ship(ctx context.Context, docID id.ID) error {
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
		if err := doc.Transition(DocumentType, Machine, entity.StatusShipped); err != nil {
			return err
		}

		var segments []Segment
		var entries []ledger.Entry
		for _, line := range doc.Lines {
			candidates, err := s.deps.Stocks.ListAvailable(ctx, line.ProductID, line.VariantID, doc.SourceWarehouseID)
			if err != nil {
				return err
			}
			plan, err := allocation.PlanFefo(candidates, line.Quantity)
			if err != nil {
				return err
			}
			for _, portion := range plan {
				rec := &portion.Record.Record
				if err := rec.Decrease(portion.Quantity); err != nil {
					return err
				}
				if err := s.deps.Stocks.Update(ctx, rec); err != nil {
					return err
				}
				segments = append(segments, Segment{
					SegmentID:      id.New(),
					TransferID:     doc.ID,
					LineID:         line.LineID,
					SourceRecordID: rec.ID,
					ProductID:      rec.ProductID,
					VariantID:      rec.VariantID,
					LotNumber:      rec.LotNumber,
					ExpiryDate:     rec.ExpiryDate,
					Quantity:       portion.Quantity,
					Status:         SegmentInTransit,
				})
				entries = append(entries, ledger.NewEntry(
					rec.ID, ledger.MovementTransferOut, portion.Quantity, doc.ID, DocumentType, doc.Comment))
			}
		}

		if err := s.deps.Ledger.Record(ctx, entries); err != nil {
			return err
		}
		if err := s.deps.Repo.SaveSegments(ctx, doc.ID, segments); err != nil {
			return err
		}

		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeTransferShipped,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionPost, doc)
	})
}

// ReceiveSegment lands one in-transit segment on a destination shelf. The
// stock record keeps the segment's lot dimensions; cost basis is copied from
// the origin record. The document completes once all segments are received.
func (s *Service) ReceiveSegment(ctx context.Context, docID, segmentID, destShelfID id.ID) error {
	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != entity.StatusShipped && doc.Status != entity.StatusPartiallyReceived {
			return apperror.NewInvalidStateTransition(DocumentType, string(doc.Status), string(entity.StatusPartiallyReceived))
		}

		seg := findSegment(doc.Segments, segmentID)
		if seg == nil {
			return apperror.NewNotFound("transfer segment", segmentID)
		}
		if seg.Status == SegmentReceived {
			return apperror.NewValidation("segment is already received").
				WithDetail("segment_id", segmentID.String())
		}

		key := stock.Key{
			ProductID:   seg.ProductID,
			VariantID:   seg.VariantID,
			WarehouseID: doc.DestWarehouseID,
			LotNumber:   seg.LotNumber,
			ExpiryDate:  seg.ExpiryDate,
			ShelfID:     destShelfID,
		}
		rec, err := s.deps.Stocks.GetByKey(ctx, key)
		switch {
		case err == nil:
			if err := rec.Increase(seg.Quantity); err != nil {
				return err
			}
			if err := s.deps.Stocks.Update(ctx, rec); err != nil {
				return err
			}
		case apperror.IsNotFound(err):
			rec = stock.NewRecord(key)
			if err := rec.Increase(seg.Quantity); err != nil {
				return err
			}
			if err := s.deps.Stocks.Create(ctx, rec); err != nil {
				return err
			}
			if err := s.deps.Pricing.CopyCostTo(ctx, seg.SourceRecordID, rec.ID); err != nil {
				return err
			}
		default:
			return err
		}

		if err := s.deps.Ledger.Record(ctx, []ledger.Entry{
			ledger.NewEntry(rec.ID, ledger.MovementTransferIn, seg.Quantity, doc.ID, DocumentType, doc.Comment),
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		seg.Status = SegmentReceived
		seg.ReceivedAt = &now
		seg.DestShelfID = &destShelfID
		if err := s.deps.Repo.UpdateSegment(ctx, *seg); err != nil {
			return err
		}

		target := entity.StatusPartiallyReceived
		if doc.AllSegmentsReceived() {
			target = entity.StatusCompleted
		}
		if err := doc.Transition(DocumentType, Machine, target); err != nil {
			return err
		}
		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeTransferReceived,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionPost, doc)
	})
}

// Cancel voids a draft transfer. Shipped transfers cannot be canceled; the
// in-transit goods must be received.
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

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeTransferCanceled,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionCancel, doc)
	})
}

func findSegment(segments []Segment, segmentID id.ID) *Segment {
	for i := range segments {
		if segments[i].SegmentID == segmentID {
			return &segments[i]
		}
	}
	return nil
}

// resolveLines fills SKU and Name from the catalog for lines missing them.
func (s *Service) resolveLines(ctx context.Context, doc *Transfer) error {
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
