package movement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
)

type memStockRepo struct {
	records map[id.ID]*stock.Record

	// conflictsLeft makes the next N updates fail with a concurrency conflict
	conflictsLeft int
	updateCalls   int
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

func (r *memStockRepo) GetByID(_ context.Context, recordID id.ID) (*stock.Record, error) {
	rec, ok := r.records[recordID]
	if !ok {
		return nil, apperror.NewNotFound("stock record", recordID)
	}
	clone := *rec
	return &clone, nil
}

func (r *memStockRepo) GetByKey(_ context.Context, key stock.Key) (*stock.Record, error) {
	for _, rec := range r.records {
		if rec.Key == key {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("stock record", key)
}

func (r *memStockRepo) ListAvailable(_ context.Context, _ id.ID, _ *id.ID, _ id.ID) ([]stock.AvailableRecord, error) {
	return nil, nil
}

func (r *memStockRepo) ListByWarehouse(_ context.Context, _ id.ID, _ stock.ListFilter) ([]stock.Record, error) {
	return nil, nil
}

func (r *memStockRepo) AvailabilityByProduct(_ context.Context, _ id.ID, _ *id.ID) (types.Quantity, error) {
	return 0, nil
}

type memLedgerRepo struct {
	entries []ledger.Entry
}

func (r *memLedgerRepo) Append(_ context.Context, entries []ledger.Entry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memLedgerRepo) ListByRecord(_ context.Context, _ id.ID, _ ledger.Filter) ([]ledger.Entry, error) {
	return nil, nil
}

func (r *memLedgerRepo) ListByDocument(_ context.Context, _ id.ID) ([]ledger.Entry, error) {
	return nil, nil
}

type memPricingRepo struct {
	costs map[id.ID]pricing.InventoryCost
}

func newMemPricingRepo() *memPricingRepo {
	return &memPricingRepo{costs: make(map[id.ID]pricing.InventoryCost)}
}

func (r *memPricingRepo) CreateCost(_ context.Context, cost pricing.InventoryCost) error {
	r.costs[cost.StockRecordID] = cost
	return nil
}

func (r *memPricingRepo) GetCostByRecord(_ context.Context, recordID id.ID) (pricing.InventoryCost, error) {
	cost, ok := r.costs[recordID]
	if !ok {
		return pricing.InventoryCost{}, apperror.NewNotFound("inventory cost", recordID)
	}
	return cost, nil
}

func (r *memPricingRepo) AmendCostAmount(_ context.Context, _ id.ID, _ types.Money) error {
	return nil
}

func (r *memPricingRepo) InsertPrice(_ context.Context, _ pricing.StockItemPrice) error { return nil }

func (r *memPricingRepo) GetActivePriceAt(_ context.Context, recordID id.ID, _ time.Time) (pricing.StockItemPrice, error) {
	return pricing.StockItemPrice{}, apperror.NewNoActivePrice(recordID)
}

func (r *memPricingRepo) ClosePrice(_ context.Context, _ id.ID, _ time.Time) error { return nil }

func (r *memPricingRepo) GetNextPriceAfter(_ context.Context, recordID id.ID, _ time.Time) (pricing.StockItemPrice, error) {
	return pricing.StockItemPrice{}, apperror.NewNotFound("price", recordID)
}

func (r *memPricingRepo) GetRecordProduct(_ context.Context, recordID id.ID) (id.ID, error) {
	return id.Nil(), apperror.NewNotFound("stock record", recordID)
}

func (r *memPricingRepo) ListPricesByRecord(_ context.Context, _ id.ID) ([]pricing.StockItemPrice, error) {
	return nil, nil
}

func (r *memPricingRepo) CheapestAvailableCost(_ context.Context, productID id.ID, _ *id.ID, _ *id.ID) (pricing.LotQuote, error) {
	return pricing.LotQuote{}, apperror.NewNoAvailableStock(productID)
}

func (r *memPricingRepo) CheapestDisplayPrice(_ context.Context, productID id.ID, _ *id.ID, _ *id.ID, _ time.Time) (pricing.LotQuote, error) {
	return pricing.LotQuote{}, apperror.NewNoAvailableStock(productID)
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type testEnv struct {
	engine  *Engine
	stocks  *memStockRepo
	ledger  *memLedgerRepo
	pricing *memPricingRepo
}

func newTestEnv() *testEnv {
	stocks := newMemStockRepo()
	ledgerRepo := &memLedgerRepo{}
	pricingRepo := newMemPricingRepo()
	m := noopTxManager{}
	return &testEnv{
		engine:  NewEngine(stocks, ledger.NewService(ledgerRepo), pricing.NewService(pricingRepo, m, nil), m),
		stocks:  stocks,
		ledger:  ledgerRepo,
		pricing: pricingRepo,
	}
}

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func newSourceRecord(shelfID id.ID) *stock.Record {
	return stock.NewRecord(stock.Key{
		ProductID:   id.New(),
		WarehouseID: id.New(),
		LotNumber:   "LOT-1",
		ShelfID:     shelfID,
	})
}

func TestMoveStock_ToEmptyShelf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(100)
	env.stocks.put(source)
	env.pricing.costs[source.ID] = pricing.NewInventoryCost(source.ID, types.MustMoney("5.50"), "EUR")

	target := id.New()
	res, err := env.engine.MoveStock(ctx, source.ID, target, qty(30), "restocking")
	require.NoError(t, err)

	src := env.stocks.records[source.ID]
	dst := env.stocks.records[res.DestRecordID]
	assert.Equal(t, qty(70), src.OnHand)
	assert.Equal(t, qty(30), dst.OnHand)
	assert.Equal(t, target, dst.ShelfID)
	assert.Equal(t, source.Key.WithShelf(target), dst.Key)
	assert.True(t, res.MovedBlocked.IsZero())

	// cost basis follows the lot to the new record
	copied, ok := env.pricing.costs[dst.ID]
	require.True(t, ok)
	assert.True(t, copied.Amount.Equal(types.MustMoney("5.50")))

	require.Len(t, env.ledger.entries, 2)
	assert.Equal(t, ledger.MovementTransferOut, env.ledger.entries[0].MovementType)
	assert.Equal(t, source.ID, env.ledger.entries[0].StockRecordID)
	assert.Equal(t, ledger.MovementTransferIn, env.ledger.entries[1].MovementType)
	assert.Equal(t, dst.ID, env.ledger.entries[1].StockRecordID)
	assert.Equal(t, res.MoveID, env.ledger.entries[0].DocumentID)
	assert.Equal(t, DocumentType, env.ledger.entries[0].DocumentType)
}

func TestMoveStock_MergesIntoExistingRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	target := id.New()
	source := newSourceRecord(id.New())
	source.OnHand = qty(50)
	env.stocks.put(source)

	existing := stock.NewRecord(source.Key.WithShelf(target))
	existing.OnHand = qty(10)
	env.stocks.put(existing)

	res, err := env.engine.MoveStock(ctx, source.ID, target, qty(20), "")
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.DestRecordID)
	assert.Equal(t, qty(30), env.stocks.records[existing.ID].OnHand)
	assert.Equal(t, qty(30), env.stocks.records[source.ID].OnHand)
}

func TestMoveStock_TargetEqualsSource(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(10)
	env.stocks.put(source)

	_, err := env.engine.MoveStock(ctx, source.ID, source.ShelfID, qty(5), "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeTargetEqualsSource))
}

func TestMoveStock_BlockedRemainderMoves(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(100)
	require.NoError(t, source.Reserve(qty(20)))
	require.NoError(t, source.Block(qty(30), "damaged packaging"))
	// available = 50
	env.stocks.put(source)

	res, err := env.engine.MoveStock(ctx, source.ID, id.New(), qty(60), "")
	require.NoError(t, err)
	assert.Equal(t, qty(10), res.MovedBlocked)

	src := env.stocks.records[source.ID]
	assert.Equal(t, qty(40), src.OnHand)
	assert.Equal(t, qty(20), src.Reserved)
	assert.Equal(t, qty(20), src.Blocked)
	assert.Equal(t, "damaged packaging", src.BlockReason)

	dst := env.stocks.records[res.DestRecordID]
	assert.Equal(t, qty(60), dst.OnHand)
	assert.Equal(t, qty(10), dst.Blocked)
	assert.Equal(t, "damaged packaging", dst.BlockReason)
}

func TestMoveStock_BlockedQuantityExceeded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(100)
	require.NoError(t, source.Reserve(qty(60)))
	require.NoError(t, source.Block(qty(10), "qa hold"))
	// available = 30; moving 50 needs 20 from blocked but only 10 is blocked
	env.stocks.put(source)

	_, err := env.engine.MoveStock(ctx, source.ID, id.New(), qty(50), "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBlockedQuantityExceeded))
}

func TestMoveStock_ExceedsOnHand(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(10)
	// nothing blocked: over-draining must still report the on-hand shortfall
	env.stocks.put(source)

	_, err := env.engine.MoveStock(ctx, source.ID, id.New(), qty(15), "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientOnHand))
	assert.Equal(t, qty(10), env.stocks.records[source.ID].OnHand)
}

func TestMoveStock_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(100)
	env.stocks.put(source)
	env.stocks.conflictsLeft = 2

	res, err := env.engine.MoveStock(ctx, source.ID, id.New(), qty(10), "")
	require.NoError(t, err)
	assert.Equal(t, qty(90), env.stocks.records[source.ID].OnHand)
	assert.Equal(t, qty(10), env.stocks.records[res.DestRecordID].OnHand)
}

func TestMoveStock_ExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	source := newSourceRecord(id.New())
	source.OnHand = qty(100)
	env.stocks.put(source)
	env.stocks.conflictsLeft = 100

	_, err := env.engine.MoveStock(ctx, source.ID, id.New(), qty(10), "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrencyExhausted))
	assert.Equal(t, 5, env.stocks.updateCalls)
}

func TestMoveStock_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	_, err := env.engine.MoveStock(ctx, id.New(), id.New(), qty(0), "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = env.engine.MoveStock(ctx, id.New(), id.Nil(), qty(1), "")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
