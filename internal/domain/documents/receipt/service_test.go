package receipt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/policy"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/audit"
	"lotkeeper/internal/domain/events"
	"lotkeeper/internal/domain/gateway"
	"lotkeeper/internal/domain/ledger"
	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/domain/stock"
	"lotkeeper/pkg/numerator"
)

type memRepo struct {
	docs  map[id.ID]*Receipt
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*Receipt), lines: make(map[id.ID][]Line)}
}

func (r *memRepo) Create(_ context.Context, doc *Receipt) error {
	clone := *doc
	clone.Lines = nil
	r.docs[doc.ID] = &clone
	return nil
}

func (r *memRepo) GetByID(_ context.Context, docID id.ID) (*Receipt, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("receipt", docID)
	}
	clone := *doc
	return &clone, nil
}

func (r *memRepo) GetByNumber(_ context.Context, number string) (*Receipt, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			clone := *doc
			return &clone, nil
		}
	}
	return nil, apperror.NewNotFound("receipt", number)
}

func (r *memRepo) Update(_ context.Context, doc *Receipt) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("receipt", doc.ID)
	}
	clone := *doc
	clone.Lines = nil
	clone.Version++
	r.docs[doc.ID] = &clone
	doc.Version = clone.Version
	return nil
}

func (r *memRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *memRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = lines
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Receipt], error) {
	return domain.ListResult[*Receipt]{}, nil
}

type memStockRepo struct {
	records map[id.ID]*stock.Record
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{records: make(map[id.ID]*stock.Record)}
}

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

type stubNumerator struct {
	next int
}

func (n *stubNumerator) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, _ time.Time) (string, error) {
	n.next++
	return fmt.Sprintf("%s-2026-%05d", cfg.Prefix, n.next), nil
}

func (n *stubNumerator) SetNextNumber(_ context.Context, _ numerator.Config, _ time.Time, _ int64) error {
	return nil
}

type testEnv struct {
	service   *Service
	repo      *memRepo
	stocks    *memStockRepo
	ledger    *memLedgerRepo
	pricing   *memPricingRepo
	resolver  *gateway.StaticResolver
	productID id.ID
	shelfID   id.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:      newMemRepo(),
		stocks:    newMemStockRepo(),
		ledger:    &memLedgerRepo{},
		pricing:   newMemPricingRepo(),
		resolver:  gateway.NewStaticResolver(),
		productID: id.New(),
		shelfID:   id.New(),
	}
	env.resolver.Add(env.productID, nil, gateway.Item{SKU: "SKU-001", Name: "Widget"})

	m := noopTxManager{}
	env.service = NewService(Deps{
		Repo:      env.repo,
		Stocks:    env.stocks,
		Ledger:    ledger.NewService(env.ledger),
		Pricing:   pricing.NewService(env.pricing, m, nil),
		Resolver:  env.resolver,
		Numerator: &stubNumerator{},
		TxManager: m,
		Policy:    policy.OpenPolicy{},
		Publisher: events.NopPublisher{},
		Auditor:   audit.NopRecorder{},
	})
	return env
}

func (env *testEnv) newDraft(t *testing.T, ctx context.Context, qty float64, cost string) *Receipt {
	t.Helper()

	doc := New(id.New(), "USD")
	doc.Lines = []Line{{
		LineID:    id.New(),
		LineNo:    1,
		ProductID: env.productID,
		Quantity:  types.NewQuantityFromFloat64(qty),
		UnitCost:  types.MustMoney(cost),
		LotNumber: "LOT-1",
		ShelfID:   env.shelfID,
	}}
	require.NoError(t, env.service.Create(ctx, doc))
	return doc
}

func TestCreate_AssignsNumberAndResolvesLines(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "2.50")

	assert.Equal(t, "RC-2026-00001", doc.Number)
	assert.Equal(t, entity.StatusDraft, doc.Status)

	lines := env.repo.lines[doc.ID]
	require.Len(t, lines, 1)
	assert.Equal(t, "SKU-001", lines[0].SKU)
	assert.Equal(t, "Widget", lines[0].Name)
}

func TestCreate_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := New(id.New(), "USD")
	doc.Lines = []Line{{
		LineID:    id.New(),
		LineNo:    1,
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromFloat64(5),
		UnitCost:  types.MustMoney("1.00"),
		ShelfID:   env.shelfID,
	}}

	err := env.service.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestReceive_CreatesRecordAndLedgerEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 100, "4.20")
	require.NoError(t, env.service.Receive(ctx, doc.ID))

	stored, err := env.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReceived, stored.Status)

	require.Len(t, env.stocks.records, 1)
	var rec *stock.Record
	for _, r := range env.stocks.records {
		rec = r
	}
	assert.Equal(t, types.NewQuantityFromFloat64(100), rec.OnHand)
	assert.Equal(t, doc.WarehouseID, rec.WarehouseID)
	assert.Equal(t, "LOT-1", rec.LotNumber)

	require.Len(t, env.ledger.entries, 1)
	assert.Equal(t, ledger.MovementReceipt, env.ledger.entries[0].MovementType)
	assert.Equal(t, doc.ID, env.ledger.entries[0].DocumentID)
	assert.Equal(t, DocumentType, env.ledger.entries[0].DocumentType)

	cost, ok := env.pricing.costs[rec.ID]
	require.True(t, ok)
	assert.True(t, cost.Amount.Equal(types.MustMoney("4.20")))
	assert.Equal(t, "USD", cost.Currency)
}

func TestReceive_MergesIntoExistingRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first := env.newDraft(t, ctx, 60, "3.00")
	require.NoError(t, env.service.Receive(ctx, first.ID))

	// second receipt into the same warehouse, lot and shelf
	second := New(first.WarehouseID, "USD")
	second.Lines = []Line{{
		LineID:    id.New(),
		LineNo:    1,
		ProductID: env.productID,
		Quantity:  types.NewQuantityFromFloat64(40),
		UnitCost:  types.MustMoney("3.50"),
		LotNumber: "LOT-1",
		ShelfID:   env.shelfID,
	}}
	require.NoError(t, env.service.Create(ctx, second))
	require.NoError(t, env.service.Receive(ctx, second.ID))

	require.Len(t, env.stocks.records, 1)
	for _, rec := range env.stocks.records {
		assert.Equal(t, types.NewQuantityFromFloat64(100), rec.OnHand)
		// cost stays at the first lot's value
		cost := env.pricing.costs[rec.ID]
		assert.True(t, cost.Amount.Equal(types.MustMoney("3.00")))
	}
}

func TestReceive_Twice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "1.00")
	require.NoError(t, env.service.Receive(ctx, doc.ID))

	err := env.service.Receive(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "1.00")
	require.NoError(t, env.service.Receive(ctx, doc.ID))
	require.NoError(t, env.service.Approve(ctx, doc.ID))

	stored, err := env.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, stored.Status)

	// approval has no quantity effect
	require.Len(t, env.ledger.entries, 1)
}

func TestApprove_FromDraft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "1.00")
	err := env.service.Approve(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestCancel_Draft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "1.00")
	require.NoError(t, env.service.Cancel(ctx, doc.ID))

	stored, err := env.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCanceled, stored.Status)
	assert.Empty(t, env.ledger.entries)
	assert.Empty(t, env.stocks.records)
}

func TestCancel_ReceivedReversesStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 100, "2.00")
	require.NoError(t, env.service.Receive(ctx, doc.ID))
	require.NoError(t, env.service.Cancel(ctx, doc.ID))

	require.Len(t, env.stocks.records, 1)
	for _, rec := range env.stocks.records {
		assert.True(t, rec.OnHand.IsZero())
	}

	require.Len(t, env.ledger.entries, 2)
	assert.Equal(t, ledger.MovementReceipt, env.ledger.entries[0].MovementType)
	assert.Equal(t, ledger.MovementAdjustmentMinus, env.ledger.entries[1].MovementType)
}

func TestCancel_ClosedPeriod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "1.00")
	require.NoError(t, env.service.Receive(ctx, doc.ID))

	// swap in a policy that closes the period after receiving
	env.service.deps.Policy = policy.NewStrictPolicy(time.Now().Add(24 * time.Hour))

	err := env.service.Cancel(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))
}

func TestReceive_GuardBlocks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	guard, err := policy.NewGuard([]policy.Rule{{
		Name:    "max-lines",
		Expr:    `type == "Receipt" ? doc.line_count < 1 : true`,
		Message: "too many lines",
	}})
	require.NoError(t, err)
	env.service.deps.Guard = guard

	doc := env.newDraft(t, ctx, 10, "1.00")
	recErr := env.service.Receive(ctx, doc.ID)
	require.Error(t, recErr)
	assert.True(t, apperror.HasCode(recErr, apperror.CodeBusinessRule))

	stored, getErr := env.service.GetByID(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, entity.StatusDraft, stored.Status)
}

func TestUpdate_AfterReceive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	doc := env.newDraft(t, ctx, 10, "1.00")
	require.NoError(t, env.service.Receive(ctx, doc.ID))

	stored, err := env.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	stored.Comment = "late edit"

	updErr := env.service.Update(ctx, stored)
	require.Error(t, updErr)
	assert.True(t, apperror.HasCode(updErr, apperror.CodeInvalidStateTransition))
}
