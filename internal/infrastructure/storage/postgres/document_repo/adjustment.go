package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/documents/adjustment"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const (
	adjustmentTable      = "doc_adjustments"
	adjustmentLinesTable = "doc_adjustment_lines"
)

var adjustmentLineColumns = []string{
	"document_id", "line_id", "line_no", "stock_record_id", "qty_delta", "note",
}

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	*BaseDocumentRepo[*adjustment.Adjustment]
}

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txManager *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			adjustmentTable,
			postgres.ExtractDBColumns[adjustment.Adjustment](),
			func() *adjustment.Adjustment { return &adjustment.Adjustment{} },
		),
	}
}

// GetLines returns the table part of an adjustment.
func (r *AdjustmentRepo) GetLines(ctx context.Context, docID id.ID) ([]adjustment.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "stock_record_id", "qty_delta", "note").
		From(adjustmentLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []adjustment.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select adjustment lines: %w", err)
	}

	return lines, nil
}

// SaveLines rewrites the table part of an adjustment.
func (r *AdjustmentRepo) SaveLines(ctx context.Context, docID id.ID, lines []adjustment.Line) error {
	insert := r.Builder().Insert(adjustmentLinesTable).Columns(adjustmentLineColumns...)
	for _, line := range lines {
		insert = insert.Values(
			docID, line.LineID, line.LineNo,
			line.StockRecordID, line.QtyDelta, line.Note,
		)
	}

	return r.replaceLines(ctx, adjustmentLinesTable, docID, insert, len(lines) > 0)
}

// List retrieves adjustments with filtering and pagination.
func (r *AdjustmentRepo) List(ctx context.Context, filter adjustment.ListFilter) (domain.ListResult[*adjustment.Adjustment], error) {
	q := r.baseSelect()

	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	return r.listPage(ctx, q, filter.ListFilter)
}

// Ensure interface compliance.
var _ adjustment.Repository = (*AdjustmentRepo)(nil)
