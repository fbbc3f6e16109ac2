package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/id"
)

// fakeRows serves pre-built outbox messages through the pgx.Rows interface.
// Unused interface methods come from the embedded nil and would panic.
type fakeRows struct {
	pgx.Rows
	msgs   []OutboxMessage
	idx    int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.idx < len(r.msgs) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	m := r.msgs[r.idx-1]
	*(dest[0].(*id.ID)) = m.ID
	*(dest[1].(*string)) = m.AggregateType
	*(dest[2].(*id.ID)) = m.AggregateID
	*(dest[3].(*string)) = m.EventType
	*(dest[4].(*[]byte)) = m.Payload
	*(dest[5].(*OutboxStatus)) = m.Status
	*(dest[6].(*int)) = m.RetryCount
	*(dest[7].(**string)) = m.LastError
	*(dest[8].(**time.Time)) = m.NextRetryAt
	*(dest[9].(*time.Time)) = m.CreatedAt
	*(dest[10].(**time.Time)) = m.PublishedAt
	return nil
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() { r.closed = true }

// fakeTx records every statement run inside the batch transaction.
type fakeTx struct {
	pgx.Tx
	rows *fakeRows

	queries    []string
	execs      []string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	t.queries = append(t.queries, sql)
	return t.rows, nil
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if !t.rows.closed {
		return pgconn.CommandTag{}, fmt.Errorf("exec before result set drained")
	}
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeRelayDB struct {
	tx *fakeTx
}

func (d *fakeRelayDB) Begin(_ context.Context) (pgx.Tx, error) { return d.tx, nil }

func (d *fakeRelayDB) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("DELETE 0"), nil
}

// flakyHandler fails delivery for the listed event types.
type flakyHandler struct {
	handled []string
	fail    map[string]bool
}

func (h *flakyHandler) Handle(_ context.Context, msg *OutboxMessage) error {
	h.handled = append(h.handled, msg.EventType)
	if h.fail[msg.EventType] {
		return fmt.Errorf("broker unavailable")
	}
	return nil
}

func pendingMessage(eventType string) OutboxMessage {
	return OutboxMessage{
		ID:            id.New(),
		AggregateType: "Receipt",
		AggregateID:   id.New(),
		EventType:     eventType,
		Payload:       []byte(`{}`),
		Status:        OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestOutboxRelay_ProcessBatchCommitsFetchAndMarkTogether(t *testing.T) {
	ctx := context.Background()

	rows := &fakeRows{msgs: []OutboxMessage{
		pendingMessage("ReceiptReceived"),
		pendingMessage("IssuePosted"),
	}}
	tx := &fakeTx{rows: rows}
	handler := &flakyHandler{}
	relay := &OutboxRelay{db: &fakeRelayDB{tx: tx}, batchSize: 10, handler: handler}

	processed, err := relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"ReceiptReceived", "IssuePosted"}, handler.handled)

	// the locking select and the status updates ran on one transaction
	require.Len(t, tx.queries, 1)
	assert.Contains(t, tx.queries[0], "FOR UPDATE SKIP LOCKED")
	require.Len(t, tx.execs, 2)
	for _, sql := range tx.execs {
		assert.True(t, strings.Contains(sql, "UPDATE sys_outbox"))
	}
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestOutboxRelay_FailedDeliverySchedulesRetryInSameTransaction(t *testing.T) {
	ctx := context.Background()

	rows := &fakeRows{msgs: []OutboxMessage{
		pendingMessage("ReceiptReceived"),
		pendingMessage("IssuePosted"),
	}}
	tx := &fakeTx{rows: rows}
	handler := &flakyHandler{fail: map[string]bool{"ReceiptReceived": true}}
	relay := &OutboxRelay{db: &fakeRelayDB{tx: tx}, batchSize: 10, handler: handler}

	processed, err := relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	// one retry bookkeeping update, one published update, both committed
	require.Len(t, tx.execs, 2)
	assert.Contains(t, tx.execs[0], "retry_count")
	assert.Contains(t, tx.execs[1], "published_at")
	assert.True(t, tx.committed)
}
