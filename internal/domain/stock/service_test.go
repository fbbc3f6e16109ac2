package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

type memRepo struct {
	records map[id.ID]*Record

	conflictsLeft int
	updateCalls   int
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[id.ID]*Record)}
}

func (r *memRepo) put(rec *Record) { r.records[rec.ID] = rec }

func (r *memRepo) Create(_ context.Context, rec *Record) error {
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memRepo) Update(_ context.Context, rec *Record) error {
	r.updateCalls++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return apperror.NewConcurrentModification("stock_record", rec.ID)
	}
	clone := *rec
	clone.Version++
	r.records[rec.ID] = &clone
	rec.Version = clone.Version
	return nil
}

func (r *memRepo) GetByID(_ context.Context, recordID id.ID) (*Record, error) {
	rec, ok := r.records[recordID]
	if !ok {
		return nil, apperror.NewNotFound("stock record", recordID)
	}
	clone := *rec
	return &clone, nil
}

func (r *memRepo) GetByKey(_ context.Context, key Key) (*Record, error) {
	for _, rec := range r.records {
		if rec.Key == key {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("stock record", key)
}

func (r *memRepo) ListAvailable(_ context.Context, _ id.ID, _ *id.ID, _ id.ID) ([]AvailableRecord, error) {
	return nil, nil
}

func (r *memRepo) ListByWarehouse(_ context.Context, _ id.ID, _ ListFilter) ([]Record, error) {
	return nil, nil
}

func (r *memRepo) AvailabilityByProduct(_ context.Context, _ id.ID, _ *id.ID) (types.Quantity, error) {
	return 0, nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestRecord() *Record {
	rec := NewRecord(Key{
		ProductID:   id.New(),
		WarehouseID: id.New(),
		ShelfID:     id.New(),
	})
	rec.OnHand = qty(100)
	return rec
}

func TestBlockStock(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, noopTxManager{})

	rec := newTestRecord()
	repo.put(rec)

	updated, err := svc.BlockStock(ctx, rec.ID, qty(30), "damaged packaging")
	require.NoError(t, err)

	assert.Equal(t, qty(30), updated.Blocked)
	assert.Equal(t, "damaged packaging", updated.BlockReason)
	assert.Equal(t, qty(70), updated.Available())

	stored := repo.records[rec.ID]
	assert.Equal(t, qty(30), stored.Blocked)
}

func TestBlockStock_ExceedsAvailable(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, noopTxManager{})

	rec := newTestRecord()
	require.NoError(t, rec.Reserve(qty(80)))
	repo.put(rec)

	_, err := svc.BlockStock(ctx, rec.ID, qty(30), "qa hold")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
}

func TestUnblockStock_ClearsReasonWhenDrained(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, noopTxManager{})

	rec := newTestRecord()
	require.NoError(t, rec.Block(qty(40), "recall check"))
	repo.put(rec)

	updated, err := svc.UnblockStock(ctx, rec.ID, qty(15))
	require.NoError(t, err)
	assert.Equal(t, qty(25), updated.Blocked)
	assert.Equal(t, "recall check", updated.BlockReason)

	updated, err = svc.UnblockStock(ctx, rec.ID, qty(25))
	require.NoError(t, err)
	assert.True(t, updated.Blocked.IsZero())
	assert.Empty(t, updated.BlockReason)
}

func TestUnblockStock_ExceedsBlocked(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, noopTxManager{})

	rec := newTestRecord()
	require.NoError(t, rec.Block(qty(10), "qa hold"))
	repo.put(rec)

	_, err := svc.UnblockStock(ctx, rec.ID, qty(20))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBlockStock_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, noopTxManager{})

	rec := newTestRecord()
	repo.put(rec)
	repo.conflictsLeft = 2

	updated, err := svc.BlockStock(ctx, rec.ID, qty(5), "hold")
	require.NoError(t, err)
	assert.Equal(t, qty(5), updated.Blocked)
	assert.Equal(t, 3, repo.updateCalls)
}

func TestBlockStock_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(), noopTxManager{})

	_, err := svc.BlockStock(ctx, id.New(), qty(5), "hold")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}
