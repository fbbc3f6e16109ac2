// Package audit defines the audit trail contract. Document services snapshot
// the full document state on every posting transition; the infrastructure
// implementation compresses and stores the snapshots.
package audit

import (
	"context"

	"lotkeeper/internal/core/id"
)

// Action classifies an audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionPost   Action = "post"
	ActionCancel Action = "cancel"
)

// Recorder stores audit snapshots. Implementations must tolerate being
// called inside a transaction.
type Recorder interface {
	// Snapshot stores the serialized state of an entity after an action.
	Snapshot(ctx context.Context, entityType string, entityID id.ID, action Action, state any) error
}

// NopRecorder discards snapshots. Used in tests.
type NopRecorder struct{}

func (NopRecorder) Snapshot(context.Context, string, id.ID, Action, any) error { return nil }
