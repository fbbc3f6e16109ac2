// Package ledger_repo provides the PostgreSQL implementation of the
// append-only ledger repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const ledgerEntriesTable = "ledger_entries"

var ledgerColumns = []string{
	"entry_id", "stock_record_id", "movement_type", "quantity",
	"document_id", "document_type", "note", "created_at",
}

// LedgerRepo implements ledger.Repository. The table has no UPDATE or DELETE
// path; corrections are compensating entries.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append batch inserts entries.
func (r *LedgerRepo) Append(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.EntryID, e.StockRecordID, e.MovementType, e.Quantity,
				e.DocumentID, e.DocumentType, e.Note, e.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerEntriesTable, ledgerColumns, rows); err != nil {
			return fmt.Errorf("copy ledger entries: %w", err)
		}
		return nil
	}

	// Fallback: non-transactional insert. Prefer calling Append within tx.
	q := r.builder.Insert(ledgerEntriesTable).Columns(ledgerColumns...)
	for _, e := range entries {
		q = q.Values(
			e.EntryID, e.StockRecordID, e.MovementType, e.Quantity,
			e.DocumentID, e.DocumentType, e.Note, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entries: %w", err)
	}

	return nil
}

// ListByRecord returns entries for a stock record.
func (r *LedgerRepo) ListByRecord(ctx context.Context, stockRecordID id.ID, filter ledger.Filter) ([]ledger.Entry, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"stock_record_id": stockRecordID})

	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.MovementType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "entry_id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}

	return entries, nil
}

// ListByDocument returns entries produced by one document.
func (r *LedgerRepo) ListByDocument(ctx context.Context, documentID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerEntriesTable).
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at", "entry_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}

	return entries, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
