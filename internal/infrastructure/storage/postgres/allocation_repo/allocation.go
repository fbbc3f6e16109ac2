// Package allocation_repo provides the PostgreSQL implementation of the
// allocation repository.
package allocation_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain/allocation"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const allocationsTable = "allocations"

var allocationColumns = []string{
	"id", "document_id", "line_id", "stock_record_id", "quantity", "created_at",
}

// AllocationRepo implements allocation.Repository.
type AllocationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewAllocationRepo creates a new allocation repository.
func NewAllocationRepo(txManager *postgres.TxManager) *AllocationRepo {
	return &AllocationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch inserts allocations.
func (r *AllocationRepo) CreateBatch(ctx context.Context, allocations []allocation.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}

	q := r.builder.Insert(allocationsTable).Columns(allocationColumns...)
	for _, a := range allocations {
		q = q.Values(a.ID, a.DocumentID, a.LineID, a.StockRecordID, a.Quantity, a.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocations: %w", err)
	}

	return nil
}

// ListByDocument returns allocations of a document.
func (r *AllocationRepo) ListByDocument(ctx context.Context, documentID id.ID) ([]allocation.Allocation, error) {
	return r.list(ctx, squirrel.Eq{"document_id": documentID})
}

// ListByLine returns allocations of one document line.
func (r *AllocationRepo) ListByLine(ctx context.Context, lineID id.ID) ([]allocation.Allocation, error) {
	return r.list(ctx, squirrel.Eq{"line_id": lineID})
}

func (r *AllocationRepo) list(ctx context.Context, cond squirrel.Eq) ([]allocation.Allocation, error) {
	q := r.builder.Select(allocationColumns...).
		From(allocationsTable).
		Where(cond).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var allocations []allocation.Allocation
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &allocations, sql, args...); err != nil {
		return nil, fmt.Errorf("select allocations: %w", err)
	}

	return allocations, nil
}

// DeleteByDocument removes all allocations of a document.
func (r *AllocationRepo) DeleteByDocument(ctx context.Context, documentID id.ID) error {
	q := r.builder.Delete(allocationsTable).
		Where(squirrel.Eq{"document_id": documentID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ allocation.Repository = (*AllocationRepo)(nil)
