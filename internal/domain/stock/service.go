package stock

import (
	"context"
	"fmt"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/tx"
	"lotkeeper/internal/core/types"
	"lotkeeper/pkg/logger"
)

// Service provides read operations and the block/unblock commands over stock
// records. Quantity changes happen only through the movement/allocation
// engines and document posting; this service never touches on-hand.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a stock service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// RecordByID returns a single stock record.
func (s *Service) RecordByID(ctx context.Context, recordID id.ID) (*Record, error) {
	return s.repo.GetByID(ctx, recordID)
}

// WarehouseStock lists records in a warehouse.
func (s *Service) WarehouseStock(ctx context.Context, warehouseID id.ID, filter ListFilter) ([]Record, error) {
	records, err := s.repo.ListByWarehouse(ctx, warehouseID, filter)
	if err != nil {
		return nil, fmt.Errorf("list warehouse stock: %w", err)
	}
	return records, nil
}

// ProductAvailability returns total available quantity for a product,
// optionally narrowed to one warehouse.
func (s *Service) ProductAvailability(ctx context.Context, productID id.ID, warehouseID *id.ID) (types.Quantity, error) {
	qty, err := s.repo.AvailabilityByProduct(ctx, productID, warehouseID)
	if err != nil {
		return 0, fmt.Errorf("availability by product: %w", err)
	}
	return qty, nil
}

// BlockStock moves quantity of a record into the blocked counter with a
// reason. On-hand is untouched, so no ledger entry is written.
func (s *Service) BlockStock(ctx context.Context, recordID id.ID, qty types.Quantity, reason string) (*Record, error) {
	var rec *Record
	err := tx.RunWithConflictRetry(ctx, s.txManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if err := rec.Block(qty, reason); err != nil {
			return err
		}
		return s.repo.Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "blocked stock",
		"stock_record_id", recordID,
		"quantity", qty,
		"reason", reason,
	)
	return rec, nil
}

// UnblockStock releases quantity from the blocked counter.
func (s *Service) UnblockStock(ctx context.Context, recordID id.ID, qty types.Quantity) (*Record, error) {
	var rec *Record
	err := tx.RunWithConflictRetry(ctx, s.txManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if err := rec.Unblock(qty); err != nil {
			return err
		}
		return s.repo.Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "unblocked stock",
		"stock_record_id", recordID,
		"quantity", qty,
	)
	return rec, nil
}
