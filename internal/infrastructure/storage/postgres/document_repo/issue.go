package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/documents/issue"
	"lotkeeper/internal/infrastructure/storage/postgres"
)

const (
	issueTable      = "doc_issues"
	issueLinesTable = "doc_issue_lines"
)

var issueLineColumns = []string{
	"document_id", "line_id", "line_no",
	"product_id", "variant_id", "sku", "name", "quantity",
}

// IssueRepo implements issue.Repository.
type IssueRepo struct {
	*BaseDocumentRepo[*issue.Issue]
}

// NewIssueRepo creates a new issue repository.
func NewIssueRepo(txManager *postgres.TxManager) *IssueRepo {
	return &IssueRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			issueTable,
			postgres.ExtractDBColumns[issue.Issue](),
			func() *issue.Issue { return &issue.Issue{} },
		),
	}
}

// GetLines returns the table part of an issue.
func (r *IssueRepo) GetLines(ctx context.Context, docID id.ID) ([]issue.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "variant_id", "sku", "name", "quantity").
		From(issueLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []issue.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select issue lines: %w", err)
	}

	return lines, nil
}

// SaveLines rewrites the table part of an issue.
func (r *IssueRepo) SaveLines(ctx context.Context, docID id.ID, lines []issue.Line) error {
	insert := r.Builder().Insert(issueLinesTable).Columns(issueLineColumns...)
	for _, line := range lines {
		insert = insert.Values(
			docID, line.LineID, line.LineNo,
			line.ProductID, line.VariantID, line.SKU, line.Name, line.Quantity,
		)
	}

	return r.replaceLines(ctx, issueLinesTable, docID, insert, len(lines) > 0)
}

// List retrieves issues with filtering and pagination.
func (r *IssueRepo) List(ctx context.Context, filter issue.ListFilter) (domain.ListResult[*issue.Issue], error) {
	q := r.baseSelect()

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.OrderRef != nil {
		q = q.Where(squirrel.Eq{"order_ref": *filter.OrderRef})
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
var _ issue.Repository = (*IssueRepo)(nil)
