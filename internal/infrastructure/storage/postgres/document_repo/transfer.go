package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/documents/transfer"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const (
	transferTable         = "doc_transfers"
	transferLinesTable    = "doc_transfer_lines"
	transferSegmentsTable = "doc_transfer_segments"
)

var (
	transferLineColumns = []string{
		"document_id", "line_id", "line_no",
		"product_id", "variant_id", "sku", "name", "quantity",
	}
	transferSegmentColumns = []string{
		"segment_id", "transfer_id", "line_id", "source_record_id",
		"product_id", "variant_id", "lot_number", "expiry_date",
		"quantity", "status", "received_at", "dest_shelf_id",
	}
)

// TransferRepo implements transfer.Repository.
type TransferRepo struct {
	*BaseDocumentRepo[*transfer.Transfer]
}

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			transferTable,
			postgres.ExtractDBColumns[transfer.Transfer](),
			func() *transfer.Transfer { return &transfer.Transfer{} },
		),
	}
}

// GetLines returns the table part of a transfer.
func (r *TransferRepo) GetLines(ctx context.Context, docID id.ID) ([]transfer.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "variant_id", "sku", "name", "quantity").
		From(transferLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []transfer.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select transfer lines: %w", err)
	}

	return lines, nil
}

// SaveLines rewrites the table part of a transfer.
func (r *TransferRepo) SaveLines(ctx context.Context, docID id.ID, lines []transfer.Line) error {
	insert := r.Builder().Insert(transferLinesTable).Columns(transferLineColumns...)
	for _, line := range lines {
		insert = insert.Values(
			docID, line.LineID, line.LineNo,
			line.ProductID, line.VariantID, line.SKU, line.Name, line.Quantity,
		)
	}

	return r.replaceLines(ctx, transferLinesTable, docID, insert, len(lines) > 0)
}

// GetSegments returns the in-transit segments of a transfer.
func (r *TransferRepo) GetSegments(ctx context.Context, docID id.ID) ([]transfer.Segment, error) {
	q := r.Builder().
		Select(transferSegmentColumns...).
		From(transferSegmentsTable).
		Where(squirrel.Eq{"transfer_id": docID}).
		OrderBy("segment_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var segments []transfer.Segment
	if err := pgxscan.Select(ctx, r.querier(ctx), &segments, sql, args...); err != nil {
		return nil, fmt.Errorf("select transfer segments: %w", err)
	}

	return segments, nil
}

// SaveSegments inserts segments created at shipping time. Segments are only
// created once per document, so this is a plain batch insert.
func (r *TransferRepo) SaveSegments(ctx context.Context, docID id.ID, segments []transfer.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	insert := r.Builder().Insert(transferSegmentsTable).Columns(transferSegmentColumns...)
	for _, seg := range segments {
		insert = insert.Values(
			seg.SegmentID, docID, seg.LineID, seg.SourceRecordID,
			seg.ProductID, seg.VariantID, seg.LotNumber, seg.ExpiryDate,
			seg.Quantity, seg.Status, seg.ReceivedAt, seg.DestShelfID,
		)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transfer segments: %w", err)
	}

	return nil
}

// UpdateSegment marks one segment received.
func (r *TransferRepo) UpdateSegment(ctx context.Context, segment transfer.Segment) error {
	q := r.Builder().
		Update(transferSegmentsTable).
		Set("status", segment.Status).
		Set("received_at", segment.ReceivedAt).
		Set("dest_shelf_id", segment.DestShelfID).
		Where(squirrel.Eq{"segment_id": segment.SegmentID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transfer segment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("TransferSegment", segment.SegmentID.String())
	}

	return nil
}

// List retrieves transfers with filtering and pagination.
func (r *TransferRepo) List(ctx context.Context, filter transfer.ListFilter) (domain.ListResult[*transfer.Transfer], error) {
	q := r.baseSelect()

	if filter.SourceWarehouseID != nil {
		q = q.Where(squirrel.Eq{"source_warehouse_id": *filter.SourceWarehouseID})
	}
	if filter.DestWarehouseID != nil {
		q = q.Where(squirrel.Eq{"dest_warehouse_id": *filter.DestWarehouseID})
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
var _ transfer.Repository = (*TransferRepo)(nil)
