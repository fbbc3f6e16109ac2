package allocation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/stock"
)

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func candidate(onHand float64, expiry *time.Time, costAt *time.Time) stock.AvailableRecord {
	rec := stock.NewRecord(stock.Key{
		ProductID:   id.New(),
		WarehouseID: id.New(),
		ShelfID:     id.New(),
		ExpiryDate:  expiry,
	})
	rec.OnHand = qty(onHand)
	return stock.AvailableRecord{Record: *rec, CostRecordedAt: costAt}
}

func date(day int) *time.Time {
	t := time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPlanFefo_EarliestExpiryFirst(t *testing.T) {
	candidates := []stock.AvailableRecord{
		candidate(50, date(20), nil),
		candidate(50, date(5), nil),
		candidate(50, date(12), nil),
	}

	plan, err := PlanFefo(candidates, qty(80))
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, date(5), plan[0].Record.ExpiryDate)
	assert.Equal(t, qty(50), plan[0].Quantity)
	assert.Equal(t, date(12), plan[1].Record.ExpiryDate)
	assert.Equal(t, qty(30), plan[1].Quantity)
}

func TestPlanFefo_NoExpiryGoesLast(t *testing.T) {
	candidates := []stock.AvailableRecord{
		candidate(50, nil, nil),
		candidate(50, date(28), nil),
	}

	plan, err := PlanFefo(candidates, qty(60))
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.NotNil(t, plan[0].Record.ExpiryDate)
	assert.Nil(t, plan[1].Record.ExpiryDate)
}

func TestPlanFefo_EqualExpiryUsesOldestCost(t *testing.T) {
	early := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	candidates := []stock.AvailableRecord{
		candidate(50, date(15), &late),
		candidate(50, date(15), &early),
	}

	plan, err := PlanFefo(candidates, qty(10))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, &early, plan[0].Record.CostRecordedAt)
}

func TestPlanFefo_DeterministicTieBreak(t *testing.T) {
	a := candidate(50, date(15), nil)
	b := candidate(50, date(15), nil)

	plan1, err := PlanFefo([]stock.AvailableRecord{a, b}, qty(10))
	require.NoError(t, err)
	plan2, err := PlanFefo([]stock.AvailableRecord{b, a}, qty(10))
	require.NoError(t, err)

	// same winner regardless of input order
	assert.Equal(t, plan1[0].Record.ID, plan2[0].Record.ID)
}

func TestPlanFefo_SkipsFullyReservedRecords(t *testing.T) {
	full := candidate(50, date(5), nil)
	require.NoError(t, full.Reserve(qty(50)))
	open := candidate(50, date(20), nil)

	plan, err := PlanFefo([]stock.AvailableRecord{full, open}, qty(10))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, open.ID, plan[0].Record.ID)
}

func TestPlanFefo_RespectsPartialAvailability(t *testing.T) {
	rec := candidate(50, date(5), nil)
	require.NoError(t, rec.Reserve(qty(30)))
	next := candidate(50, date(20), nil)

	plan, err := PlanFefo([]stock.AvailableRecord{rec, next}, qty(45))
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, qty(20), plan[0].Quantity)
	assert.Equal(t, qty(25), plan[1].Quantity)
}

func TestPlanFefo_InsufficientStock(t *testing.T) {
	candidates := []stock.AvailableRecord{
		candidate(10, date(5), nil),
		candidate(10, date(20), nil),
	}

	_, err := PlanFefo(candidates, qty(25))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
}

func TestPlanFefo_ZeroDemand(t *testing.T) {
	_, err := PlanFefo(nil, qty(0))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
