package allocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/stock"
)

type memAllocRepo struct {
	rows []Allocation
}

func (r *memAllocRepo) CreateBatch(_ context.Context, allocations []Allocation) error {
	r.rows = append(r.rows, allocations...)
	return nil
}

func (r *memAllocRepo) ListByDocument(_ context.Context, documentID id.ID) ([]Allocation, error) {
	var out []Allocation
	for _, a := range r.rows {
		if a.DocumentID == documentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAllocRepo) ListByLine(_ context.Context, lineID id.ID) ([]Allocation, error) {
	var out []Allocation
	for _, a := range r.rows {
		if a.LineID == lineID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAllocRepo) DeleteByDocument(_ context.Context, documentID id.ID) error {
	kept := r.rows[:0]
	for _, a := range r.rows {
		if a.DocumentID != documentID {
			kept = append(kept, a)
		}
	}
	r.rows = kept
	return nil
}

type memStockRepo struct {
	records map[id.ID]*stock.Record
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{records: make(map[id.ID]*stock.Record)}
}

func (r *memStockRepo) put(rec *stock.Record) { r.records[rec.ID] = rec }

func (r *memStockRepo) Create(_ context.Context, rec *stock.Record) error {
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memStockRepo) Update(_ context.Context, rec *stock.Record) error {
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memStockRepo) GetByID(_ context.Context, recordID id.ID) (*stock.Record, error) {
	rec, ok := r.records[recordID]
	if !ok {
		return nil, apperror.NewNotFound("stock record", recordID)
	}
	clone := *rec
	return &clone, nil
}

func (r *memStockRepo) GetByKey(_ context.Context, key stock.Key) (*stock.Record, error) {
	return nil, apperror.NewNotFound("stock record", key)
}

func (r *memStockRepo) ListAvailable(_ context.Context, productID id.ID, _ *id.ID, warehouseID id.ID) ([]stock.AvailableRecord, error) {
	var out []stock.AvailableRecord
	for _, rec := range r.records {
		if rec.ProductID == productID && rec.WarehouseID == warehouseID && rec.Available().IsPositive() {
			out = append(out, stock.AvailableRecord{Record: *rec})
		}
	}
	return out, nil
}

func (r *memStockRepo) ListByWarehouse(_ context.Context, _ id.ID, _ stock.ListFilter) ([]stock.Record, error) {
	return nil, nil
}

func (r *memStockRepo) AvailabilityByProduct(_ context.Context, _ id.ID, _ *id.ID) (types.Quantity, error) {
	return 0, nil
}

func seedRecord(repo *memStockRepo, productID, warehouseID id.ID, onHand float64) *stock.Record {
	rec := stock.NewRecord(stock.Key{
		ProductID:   productID,
		WarehouseID: warehouseID,
		ShelfID:     id.New(),
	})
	rec.OnHand = qty(onHand)
	repo.put(rec)
	return rec
}

func TestAllocateLine_ReservesAndPersists(t *testing.T) {
	ctx := context.Background()
	stocks := newMemStockRepo()
	allocs := &memAllocRepo{}
	engine := NewEngine(allocs, stocks)

	productID, warehouseID := id.New(), id.New()
	rec := seedRecord(stocks, productID, warehouseID, 100)

	docID := id.New()
	demand := Demand{LineID: id.New(), ProductID: productID, WarehouseID: warehouseID, Quantity: qty(40)}

	rows, err := engine.AllocateLine(ctx, docID, demand)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rec.ID, rows[0].StockRecordID)
	assert.Equal(t, qty(40), rows[0].Quantity)

	assert.Equal(t, qty(40), stocks.records[rec.ID].Reserved)
	assert.Equal(t, qty(60), stocks.records[rec.ID].Available())
	assert.Len(t, allocs.rows, 1)
}

func TestAllocateLine_SpansRecords(t *testing.T) {
	ctx := context.Background()
	stocks := newMemStockRepo()
	engine := NewEngine(&memAllocRepo{}, stocks)

	productID, warehouseID := id.New(), id.New()
	seedRecord(stocks, productID, warehouseID, 30)
	seedRecord(stocks, productID, warehouseID, 30)

	rows, err := engine.AllocateLine(ctx, id.New(), Demand{
		LineID: id.New(), ProductID: productID, WarehouseID: warehouseID, Quantity: qty(50),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var total types.Quantity
	for _, a := range rows {
		total += a.Quantity
	}
	assert.Equal(t, qty(50), total)
}

func TestAllocateLine_InsufficientLeavesNothing(t *testing.T) {
	ctx := context.Background()
	stocks := newMemStockRepo()
	allocs := &memAllocRepo{}
	engine := NewEngine(allocs, stocks)

	productID, warehouseID := id.New(), id.New()
	rec := seedRecord(stocks, productID, warehouseID, 20)

	_, err := engine.AllocateLine(ctx, id.New(), Demand{
		LineID: id.New(), ProductID: productID, WarehouseID: warehouseID, Quantity: qty(25),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.True(t, stocks.records[rec.ID].Reserved.IsZero())
	assert.Empty(t, allocs.rows)
}

func TestReleaseDocument_UnwindsReservations(t *testing.T) {
	ctx := context.Background()
	stocks := newMemStockRepo()
	allocs := &memAllocRepo{}
	engine := NewEngine(allocs, stocks)

	productID, warehouseID := id.New(), id.New()
	rec := seedRecord(stocks, productID, warehouseID, 100)

	docID := id.New()
	_, err := engine.AllocateLine(ctx, docID, Demand{
		LineID: id.New(), ProductID: productID, WarehouseID: warehouseID, Quantity: qty(70),
	})
	require.NoError(t, err)
	require.Equal(t, qty(70), stocks.records[rec.ID].Reserved)

	require.NoError(t, engine.ReleaseDocument(ctx, docID))
	assert.True(t, stocks.records[rec.ID].Reserved.IsZero())
	assert.Empty(t, allocs.rows)
}
