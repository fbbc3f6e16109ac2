package receipt

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
	"lotkeeper/internal/domain/audit"
	"lotkeeper/internal/domain/events"
	"lotkeeper/internal/domain/gateway"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/logger"
	"lotkeeper/pkg/numerator"
)

// Deps are the collaborators of the receipt service.
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

// Service provides business operations for receipt documents.
type Service struct {
	deps Deps
}

// NewService creates a receipt service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Create validates and persists a new draft receipt. Line identities are
// verified against the catalog gateway.
func (s *Service) Create(ctx context.Context, doc *Receipt) error {
	if err := s.resolveLines(ctx, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.deps.Numerator.GetNextNumber(ctx, numerator.DefaultConfig("RC"), nil, time.Now())
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

	logger.Info(ctx, "receipt created", "id", doc.ID, "number", doc.Number)
	return nil
}

// Update persists changes to a draft receipt.
func (s *Service) Update(ctx context.Context, doc *Receipt) error {
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

// GetByID retrieves a receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Receipt, error) {
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

// List retrieves receipts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Receipt], error) {
	return s.deps.Repo.List(ctx, filter)
}

// Receive applies the stock effect: every line lands on its stock record
// (resolved or created by key), on-hand increases, a Receipt ledger entry is
// written and the record's cost is set if absent. Retried on conflicts.
func (s *Service) Receive(ctx context.Context, docID id.ID) error {
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
		if err := doc.Transition(DocumentType, Machine, entity.StatusReceived); err != nil {
			return err
		}

		entries := make([]ledger.Entry, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			rec, err := s.applyLine(ctx, doc, line)
			if err != nil {
				return err
			}
			entries = append(entries, ledger.NewEntry(
				rec.ID, ledger.MovementReceipt, line.Quantity, doc.ID, DocumentType, doc.Comment))
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
			EventType:     events.TypeReceiptReceived,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionPost, doc)
	})
}

// Approve confirms a received document. No quantity effect.
func (s *Service) Approve(ctx context.Context, docID id.ID) error {
	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.Transition(DocumentType, Machine, entity.StatusApproved); err != nil {
			return err
		}
		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeReceiptApproved,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionPost, doc)
	})
}

// Cancel voids a receipt. Canceling a received document reverses the stock
// effect with adjustment entries; the original receipt entries stay in the
// ledger untouched.
func (s *Service) Cancel(ctx context.Context, docID id.ID) error {
	return tx.RunWithConflictRetry(ctx, s.deps.TxManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		doc, err := s.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		wasReceived := doc.Status == entity.StatusReceived
		if err := doc.Transition(DocumentType, Machine, entity.StatusCanceled); err != nil {
			return err
		}

		if wasReceived {
			if err := s.deps.Policy.CanCancel(ctx, doc.Date); err != nil {
				return err
			}
			if err := s.reverseLines(ctx, doc); err != nil {
				return err
			}
		}

		doc.UpdatedBy = security.GetUserID(ctx)
		if err := s.deps.Repo.Update(ctx, doc); err != nil {
			return err
		}

		if err := s.deps.Publisher.Publish(ctx, events.Event{
			AggregateType: DocumentType,
			AggregateID:   doc.ID,
			EventType:     events.TypeReceiptCanceled,
			Payload:       doc,
		}); err != nil {
			return err
		}
		return s.deps.Auditor.Snapshot(ctx, DocumentType, doc.ID, audit.ActionCancel, doc)
	})
}

// applyLine lands one line on its stock record, creating the record and its
// cost row when the key is new.
func (s *Service) applyLine(ctx context.Context, doc *Receipt, line Line) (*stock.Record, error) {
	key := stock.Key{
		ProductID:   line.ProductID,
		VariantID:   line.VariantID,
		WarehouseID: doc.WarehouseID,
		LotNumber:   line.LotNumber,
		ExpiryDate:  line.ExpiryDate,
		ShelfID:     line.ShelfID,
	}

	rec, err := s.deps.Stocks.GetByKey(ctx, key)
	switch {
	case err == nil:
		if err := rec.Increase(line.Quantity); err != nil {
			return nil, err
		}
		if err := s.deps.Stocks.Update(ctx, rec); err != nil {
			return nil, err
		}
	case apperror.IsNotFound(err):
		rec = stock.NewRecord(key)
		if err := rec.Increase(line.Quantity); err != nil {
			return nil, err
		}
		if err := s.deps.Stocks.Create(ctx, rec); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.setCostIfAbsent(ctx, rec.ID, line.UnitCost, doc.Currency); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) setCostIfAbsent(ctx context.Context, recordID id.ID, unitCost types.Money, currency string) error {
	_, err := s.deps.Pricing.CostOf(ctx, recordID)
	if err == nil {
		return nil
	}
	if !apperror.IsNotFound(err) {
		return err
	}
	_, err = s.deps.Pricing.RecordCost(ctx, recordID, unitCost, currency)
	return err
}

// reverseLines backs the received quantities out with adjustment entries.
func (s *Service) reverseLines(ctx context.Context, doc *Receipt) error {
	entries := make([]ledger.Entry, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		key := stock.Key{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			WarehouseID: doc.WarehouseID,
			LotNumber:   line.LotNumber,
			ExpiryDate:  line.ExpiryDate,
			ShelfID:     line.ShelfID,
		}
		rec, err := s.deps.Stocks.GetByKey(ctx, key)
		if err != nil {
			return err
		}
		if err := rec.Decrease(line.Quantity); err != nil {
			return err
		}
		if err := s.deps.Stocks.Update(ctx, rec); err != nil {
			return err
		}
		entries = append(entries, ledger.NewEntry(
			rec.ID, ledger.MovementAdjustmentMinus, line.Quantity, doc.ID, DocumentType,
			"reversal of canceled receipt"))
	}
	return s.deps.Ledger.Record(ctx, entries)
}

// resolveLines fills SKU and Name from the catalog for lines missing them.
func (s *Service) resolveLines(ctx context.Context, doc *Receipt) error {
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
