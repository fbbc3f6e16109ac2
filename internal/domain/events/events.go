// Package events defines the domain event contract. Posting operations emit
// events through a Publisher inside their transaction; the infrastructure
// outbox guarantees at-least-once delivery to the broker.
package events

import (
	"context"

	"lotkeeper/internal/core/id"
)

// Event types emitted by the engine.
const (
	TypeReceiptReceived  = "ReceiptReceived"
	TypeReceiptApproved  = "ReceiptApproved"
	TypeReceiptCanceled  = "ReceiptCanceled"
	TypeIssuePosted      = "IssuePosted"
	TypeIssueCanceled    = "IssueCanceled"
	TypeTransferShipped  = "TransferShipped"
	TypeTransferReceived = "TransferReceived"
	TypeTransferCanceled = "TransferCanceled"
	TypeAdjustmentPosted = "AdjustmentPosted"
	TypeStockMoved       = "StockMoved"
)

// Event is one domain event.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher persists events transactionally. Must be called inside the
// transaction that produced the state change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	PublishBatch(ctx context.Context, events []Event) error
}

// NopPublisher discards events. Used in tests and the seed tool.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error        { return nil }
func (NopPublisher) PublishBatch(context.Context, []Event) error { return nil }
