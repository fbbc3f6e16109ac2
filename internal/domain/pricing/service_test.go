package pricing

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

type memRepo struct {
	costs    map[id.ID]InventoryCost // keyed by stock record id
	prices   []StockItemPrice
	products map[id.ID]id.ID // stock record id -> product id
}

func newMemRepo() *memRepo {
	return &memRepo{
		costs:    make(map[id.ID]InventoryCost),
		products: make(map[id.ID]id.ID),
	}
}

func (r *memRepo) CreateCost(_ context.Context, cost InventoryCost) error {
	r.costs[cost.StockRecordID] = cost
	return nil
}

func (r *memRepo) GetCostByRecord(_ context.Context, recordID id.ID) (InventoryCost, error) {
	cost, ok := r.costs[recordID]
	if !ok {
		return InventoryCost{}, apperror.NewNotFound("inventory cost", recordID)
	}
	return cost, nil
}

func (r *memRepo) AmendCostAmount(_ context.Context, recordID id.ID, amount types.Money) error {
	cost, ok := r.costs[recordID]
	if !ok {
		return apperror.NewNotFound("inventory cost", recordID)
	}
	cost.Amount = amount
	r.costs[recordID] = cost
	return nil
}

func (r *memRepo) InsertPrice(_ context.Context, price StockItemPrice) error {
	r.prices = append(r.prices, price)
	return nil
}

func (r *memRepo) GetActivePriceAt(_ context.Context, recordID id.ID, at time.Time) (StockItemPrice, error) {
	var best *StockItemPrice
	for i := range r.prices {
		p := &r.prices[i]
		if p.StockRecordID != recordID || !p.ActiveAt(at) {
			continue
		}
		if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
		}
	}
	if best == nil {
		return StockItemPrice{}, apperror.NewNoActivePrice(recordID)
	}
	return *best, nil
}

func (r *memRepo) ClosePrice(_ context.Context, priceID id.ID, at time.Time) error {
	for i := range r.prices {
		if r.prices[i].ID == priceID {
			t := at
			r.prices[i].EffectiveTo = &t
			return nil
		}
	}
	return apperror.NewNotFound("price", priceID)
}

func (r *memRepo) GetNextPriceAfter(_ context.Context, recordID id.ID, after time.Time) (StockItemPrice, error) {
	var next *StockItemPrice
	for i := range r.prices {
		p := &r.prices[i]
		if p.StockRecordID != recordID || !p.EffectiveFrom.After(after) {
			continue
		}
		if next == nil || p.EffectiveFrom.Before(next.EffectiveFrom) {
			next = p
		}
	}
	if next == nil {
		return StockItemPrice{}, apperror.NewNotFound("price", recordID)
	}
	return *next, nil
}

func (r *memRepo) GetRecordProduct(_ context.Context, recordID id.ID) (id.ID, error) {
	productID, ok := r.products[recordID]
	if !ok {
		return id.Nil(), apperror.NewNotFound("stock record", recordID)
	}
	return productID, nil
}

func (r *memRepo) ListPricesByRecord(_ context.Context, recordID id.ID) ([]StockItemPrice, error) {
	var out []StockItemPrice
	for _, p := range r.prices {
		if p.StockRecordID == recordID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out, nil
}

func (r *memRepo) CheapestAvailableCost(_ context.Context, productID id.ID, _ *id.ID, _ *id.ID) (LotQuote, error) {
	return LotQuote{}, apperror.NewNoAvailableStock(productID)
}

func (r *memRepo) CheapestDisplayPrice(_ context.Context, productID id.ID, _ *id.ID, _ *id.ID, _ time.Time) (LotQuote, error) {
	return LotQuote{}, apperror.NewNoAvailableStock(productID)
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memQuoteCache records which products had their quotes dropped.
type memQuoteCache struct {
	invalidated []id.ID
}

func (c *memQuoteCache) Get(_ context.Context, _ string) (LotQuote, bool) { return LotQuote{}, false }

func (c *memQuoteCache) Set(_ context.Context, _ string, _ LotQuote) {}

func (c *memQuoteCache) InvalidateProduct(_ context.Context, productID id.ID) {
	c.invalidated = append(c.invalidated, productID)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, noopTxManager{}, nil)
}

func TestSetPrice_ClosesActiveInterval(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	first, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day1, nil)
	require.NoError(t, err)
	assert.Nil(t, first.EffectiveTo)

	second, err := svc.SetPrice(ctx, recordID, types.MustMoney("120"), "EUR", day10, nil)
	require.NoError(t, err)

	history, err := svc.PriceHistory(ctx, recordID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// the first interval must now end exactly where the second begins
	require.NotNil(t, history[0].EffectiveTo)
	assert.Equal(t, day10, *history[0].EffectiveTo)
	assert.Equal(t, day10, history[1].EffectiveFrom)
	assert.Equal(t, second.ID, history[1].ID)
}

func TestSetPrice_NoOverlapAtBoundary(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day1, nil)
	require.NoError(t, err)
	_, err = svc.SetPrice(ctx, recordID, types.MustMoney("120"), "EUR", day10, nil)
	require.NoError(t, err)

	// half-open intervals: the boundary instant belongs to the new price
	p, err := svc.EffectivePrice(ctx, recordID, day10)
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(types.MustMoney("120")))

	p, err = svc.EffectivePrice(ctx, recordID, day10.Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(types.MustMoney("100")))
}

func TestSetPrice_RejectsStartBeforeExisting(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day10, nil)
	require.NoError(t, err)

	// starting a new interval at the same instant as the active one would
	// zero-length the old interval; rejected
	_, err = svc.SetPrice(ctx, recordID, types.MustMoney("90"), "EUR", day10, nil)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSetPrice_BackdatedIntervalCappedAtNextStart(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day10, nil)
	require.NoError(t, err)

	// backdating before the existing interval must not leave two open rows
	backdated, err := svc.SetPrice(ctx, recordID, types.MustMoney("90"), "EUR", day1, nil)
	require.NoError(t, err)
	require.NotNil(t, backdated.EffectiveTo)
	assert.Equal(t, day10, *backdated.EffectiveTo)

	p, err := svc.EffectivePrice(ctx, recordID, day1.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(types.MustMoney("90")))

	p, err = svc.EffectivePrice(ctx, recordID, day10.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(types.MustMoney("100")))

	// at no instant may more than one interval be active
	for _, at := range []time.Time{day1, day10, day10.Add(time.Hour)} {
		active := 0
		for _, row := range repo.prices {
			if row.ActiveAt(at) {
				active++
			}
		}
		assert.LessOrEqual(t, active, 1, "overlapping intervals at %s", at)
	}
}

func TestSetPrice_BackdatedBoundedIntervalKeepsShorterEnd(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day5 := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day10, nil)
	require.NoError(t, err)

	// an explicit end before the next interval's start stays as given
	bounded, err := svc.SetPrice(ctx, recordID, types.MustMoney("90"), "EUR", day1, &day5)
	require.NoError(t, err)
	require.NotNil(t, bounded.EffectiveTo)
	assert.Equal(t, day5, *bounded.EffectiveTo)
}

func TestSetPrice_RejectsInvertedInterval(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo())

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.SetPrice(ctx, id.New(), types.MustMoney("100"), "EUR", from, &to)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestEffectivePrice_NoActivePrice(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day5 := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day1, &day5)
	require.NoError(t, err)

	_, err = svc.EffectivePrice(ctx, recordID, day5.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNoActivePrice))
}

func TestSetPrice_DropsCachedQuotes(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	cache := &memQuoteCache{}
	svc := NewService(repo, noopTxManager{}, cache)

	recordID, productID := id.New(), id.New()
	repo.products[recordID] = productID

	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.SetPrice(ctx, recordID, types.MustMoney("100"), "EUR", day1, nil)
	require.NoError(t, err)

	assert.Equal(t, []id.ID{productID}, cache.invalidated)
}

func TestCorrectCost_DropsCachedQuotes(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	cache := &memQuoteCache{}
	svc := NewService(repo, noopTxManager{}, cache)

	recordID, productID := id.New(), id.New()
	repo.products[recordID] = productID

	_, err := svc.RecordCost(ctx, recordID, types.MustMoney("10"), "EUR")
	require.NoError(t, err)
	require.NoError(t, svc.CorrectCost(ctx, recordID, types.MustMoney("12")))

	// once for the initial cost row, once for the correction
	assert.Equal(t, []id.ID{productID, productID}, cache.invalidated)
}

func TestCorrectCost_AmendsInPlace(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	recordID := id.New()

	_, err := svc.RecordCost(ctx, recordID, types.MustMoney("42.50"), "EUR")
	require.NoError(t, err)

	require.NoError(t, svc.CorrectCost(ctx, recordID, types.MustMoney("45.00")))

	cost, err := svc.CostOf(ctx, recordID)
	require.NoError(t, err)
	assert.True(t, cost.Amount.Equal(types.MustMoney("45.00")))
}

func TestCorrectCost_UnknownRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo())

	err := svc.CorrectCost(ctx, id.New(), types.MustMoney("10"))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCopyCostTo_FollowsLot(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)
	source, dest := id.New(), id.New()

	_, err := svc.RecordCost(ctx, source, types.MustMoney("7.77"), "USD")
	require.NoError(t, err)

	require.NoError(t, svc.CopyCostTo(ctx, source, dest))

	copied, err := svc.CostOf(ctx, dest)
	require.NoError(t, err)
	assert.True(t, copied.Amount.Equal(types.MustMoney("7.77")))
	assert.Equal(t, "USD", copied.Currency)
	assert.NotEqual(t, repo.costs[source].ID, copied.ID)
}

func TestCopyCostTo_SourceWithoutCost(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo())

	// legacy records may predate the cost registry
	assert.NoError(t, svc.CopyCostTo(ctx, id.New(), id.New()))
}
