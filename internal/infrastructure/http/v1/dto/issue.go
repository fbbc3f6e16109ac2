package dto

import (
	"time"

	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/documents/issue"
)

// IssueLineRequest is one outgoing line.
type IssueLineRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	VariantID *id.ID         `json:"variantId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
}

func (r IssueLineRequest) toLine(lineNo int) issue.Line {
	return issue.Line{
		LineID:    id.New(),
		LineNo:    lineNo,
		ProductID: r.ProductID,
		VariantID: r.VariantID,
		SKU:       r.SKU,
		Name:      r.Name,
		Quantity:  r.Quantity,
	}
}

// CreateIssueRequest creates a draft issue.
type CreateIssueRequest struct {
	Date        *time.Time         `json:"date"`
	WarehouseID id.ID              `json:"warehouseId" binding:"required"`
	OrderRef    string             `json:"orderRef"`
	Comment     string             `json:"comment"`
	Lines       []IssueLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain issue.
func (r CreateIssueRequest) ToEntity() *issue.Issue {
	doc := issue.New(r.WarehouseID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.OrderRef = r.OrderRef
	doc.Comment = r.Comment
	for i, line := range r.Lines {
		doc.Lines = append(doc.Lines, line.toLine(i+1))
	}
	return doc
}

// UpdateIssueRequest replaces the mutable parts of a draft issue.
type UpdateIssueRequest struct {
	Date     *time.Time         `json:"date"`
	OrderRef *string            `json:"orderRef"`
	Comment  *string            `json:"comment"`
	Lines    []IssueLineRequest `json:"lines"`
}

// ApplyTo merges the request onto an existing issue.
func (r UpdateIssueRequest) ApplyTo(doc *issue.Issue) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.OrderRef != nil {
		doc.OrderRef = *r.OrderRef
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.Lines != nil {
		doc.Lines = doc.Lines[:0]
		for i, line := range r.Lines {
			doc.Lines = append(doc.Lines, line.toLine(i+1))
		}
	}
}
