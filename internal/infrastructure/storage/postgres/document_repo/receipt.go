package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/documents/receipt"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const (
	receiptTable      = "doc_receipts"
	receiptLinesTable = "doc_receipt_lines"
)

var receiptLineColumns = []string{
	"document_id", "line_id", "line_no",
	"product_id", "variant_id", "sku", "name",
	"quantity", "unit_cost", "lot_number", "expiry_date", "shelf_id",
}

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	*BaseDocumentRepo[*receipt.Receipt]
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			receiptTable,
			postgres.ExtractDBColumns[receipt.Receipt](),
			func() *receipt.Receipt { return &receipt.Receipt{} },
		),
	}
}

// GetLines returns the table part of a receipt.
func (r *ReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]receipt.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "variant_id", "sku", "name",
			"quantity", "unit_cost", "lot_number", "expiry_date", "shelf_id").
		From(receiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []receipt.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select receipt lines: %w", err)
	}

	return lines, nil
}

// SaveLines rewrites the table part of a receipt.
func (r *ReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []receipt.Line) error {
	insert := r.Builder().Insert(receiptLinesTable).Columns(receiptLineColumns...)
	for _, line := range lines {
		insert = insert.Values(
			docID, line.LineID, line.LineNo,
			line.ProductID, line.VariantID, line.SKU, line.Name,
			line.Quantity, line.UnitCost, line.LotNumber, line.ExpiryDate, line.ShelfID,
		)
	}

	return r.replaceLines(ctx, receiptLinesTable, docID, insert, len(lines) > 0)
}

// List retrieves receipts with filtering and pagination.
func (r *ReceiptRepo) List(ctx context.Context, filter receipt.ListFilter) (domain.ListResult[*receipt.Receipt], error) {
	q := r.baseSelect()

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
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
var _ receipt.Repository = (*ReceiptRepo)(nil)
