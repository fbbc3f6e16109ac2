package ledger

import (
	"context"
	"fmt"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/pkg/logger"
)

// Service records and queries ledger entries.
// Record is called during posting within the caller's transaction.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and appends entries.
func (s *Service) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, e := range entries {
		if !e.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: quantity must be positive", i))
		}
		if !e.MovementType.IsValid() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: unknown movement type %q", i, e.MovementType))
		}
		if id.IsNil(e.StockRecordID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: stock_record_id is required", i))
		}
		if id.IsNil(e.DocumentID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: document_id is required", i))
		}
	}

	if err := s.repo.Append(ctx, entries); err != nil {
		return fmt.Errorf("append ledger entries: %w", err)
	}

	logger.Info(ctx, "recorded ledger entries",
		"count", len(entries),
		"document_id", entries[0].DocumentID,
		"document_type", entries[0].DocumentType,
	)

	return nil
}

// HistoryByRecord returns the movement history of a stock record.
func (s *Service) HistoryByRecord(ctx context.Context, stockRecordID id.ID, filter Filter) ([]Entry, error) {
	return s.repo.ListByRecord(ctx, stockRecordID, filter)
}

// EntriesByDocument returns all entries a document produced.
func (s *Service) EntriesByDocument(ctx context.Context, documentID id.ID) ([]Entry, error) {
	return s.repo.ListByDocument(ctx, documentID)
}
