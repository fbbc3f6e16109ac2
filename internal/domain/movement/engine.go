// Package movement provides the low-level stock relocation engine: moving a
// quantity of one stock record to another shelf, atomically and under
// optimistic concurrency.
package movement

import (
	"context"
	"fmt"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/tx"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/logger"
)

// DocumentType identifies ledger entries produced by shelf moves. Moves are
// not documents; the generated move id serves as the recorder reference.
const DocumentType = "stock_move"

// Result describes a completed move.
type Result struct {
	MoveID         id.ID          `json:"moveId"`
	SourceRecordID id.ID          `json:"sourceRecordId"`
	DestRecordID   id.ID          `json:"destRecordId"`
	Quantity       types.Quantity `json:"quantity"`

	// MovedBlocked is the portion taken from the blocked counter; it arrives
	// blocked on the destination with the reason carried over
	MovedBlocked types.Quantity `json:"movedBlocked"`
}

// Engine relocates stock between shelves.
type Engine struct {
	records   stock.Repository
	ledger    *ledger.Service
	pricing   *pricing.Service
	txManager tx.Manager
}

// NewEngine creates a movement engine.
func NewEngine(records stock.Repository, ledgerSvc *ledger.Service, pricingSvc *pricing.Service, txManager tx.Manager) *Engine {
	return &Engine{records: records, ledger: ledgerSvc, pricing: pricingSvc, txManager: txManager}
}

// MoveStock relocates qty of the source record onto the target shelf.
//
// Available quantity moves first; any remainder is drawn from the blocked
// counter and arrives still blocked on the destination. Reserved quantity
// never moves. The whole operation runs in one transaction and is retried on
// optimistic conflicts.
func (e *Engine) MoveStock(ctx context.Context, sourceRecordID, targetShelfID id.ID, qty types.Quantity, note string) (Result, error) {
	if !qty.IsPositive() {
		return Result{}, apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", qty.String())
	}
	if id.IsNil(targetShelfID) {
		return Result{}, apperror.NewValidation("target shelf is required").
			WithDetail("field", "targetShelfId")
	}

	var result Result
	err := tx.RunWithConflictRetry(ctx, e.txManager, tx.DefaultConflictAttempts, func(ctx context.Context) error {
		var err error
		result, err = e.moveOnce(ctx, sourceRecordID, targetShelfID, qty, note)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info(ctx, "moved stock",
		"move_id", result.MoveID,
		"source_record_id", result.SourceRecordID,
		"dest_record_id", result.DestRecordID,
		"quantity", result.Quantity,
		"moved_blocked", result.MovedBlocked,
	)
	return result, nil
}

func (e *Engine) moveOnce(ctx context.Context, sourceRecordID, targetShelfID id.ID, qty types.Quantity, note string) (Result, error) {
	source, err := e.records.GetByID(ctx, sourceRecordID)
	if err != nil {
		return Result{}, err
	}
	if source.ShelfID == targetShelfID {
		return Result{}, apperror.NewTargetEqualsSource(targetShelfID)
	}
	if qty > source.OnHand {
		return Result{}, apperror.NewInsufficientOnHand(
			source.ID.String(), qty.String(), source.OnHand.String())
	}

	// split the moved quantity into available-first and blocked remainder
	movingAvailable := qty.Min(source.Available())
	if movingAvailable.IsNegative() {
		movingAvailable = 0
	}
	movingBlocked := qty - movingAvailable
	if movingBlocked > source.Blocked {
		return Result{}, apperror.NewBlockedQuantityExceeded(
			source.ID.String(), movingBlocked.String(), source.Blocked.String())
	}

	dest, created, err := e.resolveDestination(ctx, source, targetShelfID)
	if err != nil {
		return Result{}, err
	}

	blockReason := source.BlockReason
	if movingBlocked.IsPositive() {
		if err := source.Unblock(movingBlocked); err != nil {
			return Result{}, err
		}
	}
	if err := source.Decrease(qty); err != nil {
		return Result{}, err
	}
	if err := dest.Increase(qty); err != nil {
		return Result{}, err
	}
	if movingBlocked.IsPositive() {
		if err := dest.Block(movingBlocked, blockReason); err != nil {
			return Result{}, err
		}
	}

	if err := e.records.Update(ctx, source); err != nil {
		return Result{}, err
	}
	if created {
		if err := e.records.Create(ctx, dest); err != nil {
			return Result{}, err
		}
		if err := e.pricing.CopyCostTo(ctx, source.ID, dest.ID); err != nil {
			return Result{}, err
		}
	} else if err := e.records.Update(ctx, dest); err != nil {
		return Result{}, err
	}

	moveID := id.New()
	entries := []ledger.Entry{
		ledger.NewEntry(source.ID, ledger.MovementTransferOut, qty, moveID, DocumentType, note),
		ledger.NewEntry(dest.ID, ledger.MovementTransferIn, qty, moveID, DocumentType, note),
	}
	if err := e.ledger.Record(ctx, entries); err != nil {
		return Result{}, fmt.Errorf("record move entries: %w", err)
	}

	// availability shifted between shelves; cached quotes may name stale lots
	e.pricing.InvalidateQuotes(ctx, source.Key.ProductID)

	return Result{
		MoveID:         moveID,
		SourceRecordID: source.ID,
		DestRecordID:   dest.ID,
		Quantity:       qty,
		MovedBlocked:   movingBlocked,
	}, nil
}

// resolveDestination finds the record with the source's key on the target
// shelf, or prepares a fresh one. The new record is not persisted here; the
// caller creates it after the counters are applied.
func (e *Engine) resolveDestination(ctx context.Context, source *stock.Record, targetShelfID id.ID) (*stock.Record, bool, error) {
	destKey := source.Key.WithShelf(targetShelfID)
	dest, err := e.records.GetByKey(ctx, destKey)
	if err == nil {
		return dest, false, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, false, err
	}
	return stock.NewRecord(destKey), true, nil
}
