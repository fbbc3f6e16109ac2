package allocation

import (
	"context"
	"fmt"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/logger"
)

// Demand is one line's allocation request.
type Demand struct {
	LineID      id.ID
	ProductID   id.ID
	VariantID   *id.ID
	WarehouseID id.ID
	Quantity    types.Quantity
}

// Engine allocates document lines against available stock. All methods run
// inside the caller's transaction; document services wrap calls in their own
// conflict-retried transactions.
type Engine struct {
	allocations Repository
	records     stock.Repository
}

// NewEngine creates an allocation engine.
func NewEngine(allocations Repository, records stock.Repository) *Engine {
	return &Engine{allocations: allocations, records: records}
}

// AllocateLine plans FEFO coverage for one demand, reserves the planned
// quantities and persists the allocation rows. The line either allocates in
// full or not at all.
func (e *Engine) AllocateLine(ctx context.Context, documentID id.ID, demand Demand) ([]Allocation, error) {
	candidates, err := e.records.ListAvailable(ctx, demand.ProductID, demand.VariantID, demand.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("list available stock: %w", err)
	}

	plan, err := PlanFefo(candidates, demand.Quantity)
	if err != nil {
		return nil, err
	}

	allocations := make([]Allocation, 0, len(plan))
	for _, portion := range plan {
		rec := &portion.Record.Record
		if err := rec.Reserve(portion.Quantity); err != nil {
			return nil, err
		}
		if err := e.records.Update(ctx, rec); err != nil {
			return nil, err
		}
		allocations = append(allocations, NewAllocation(documentID, demand.LineID, rec.ID, portion.Quantity))
	}

	if err := e.allocations.CreateBatch(ctx, allocations); err != nil {
		return nil, fmt.Errorf("persist allocations: %w", err)
	}

	logger.Info(ctx, "allocated line",
		"document_id", documentID,
		"line_id", demand.LineID,
		"portions", len(allocations),
	)
	return allocations, nil
}

// ReleaseDocument releases the reservations behind a document's allocations
// and deletes the rows. Used when a draft with allocations is canceled.
func (e *Engine) ReleaseDocument(ctx context.Context, documentID id.ID) error {
	allocations, err := e.allocations.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	for _, a := range allocations {
		rec, err := e.records.GetByID(ctx, a.StockRecordID)
		if err != nil {
			return err
		}
		if err := rec.Release(a.Quantity); err != nil {
			return err
		}
		if err := e.records.Update(ctx, rec); err != nil {
			return err
		}
	}
	if err := e.allocations.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}
	return nil
}

// ByDocument returns the persisted allocations of a document.
func (e *Engine) ByDocument(ctx context.Context, documentID id.ID) ([]Allocation, error) {
	return e.allocations.ListByDocument(ctx, documentID)
}

// Consume deletes a document's allocation rows after posting converted them
// into issues. The caller has already released the reservations and decreased
// on-hand inside the same transaction.
func (e *Engine) Consume(ctx context.Context, documentID id.ID) error {
	return e.allocations.DeleteByDocument(ctx, documentID)
}
