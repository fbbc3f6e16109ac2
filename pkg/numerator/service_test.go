package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: every call bumps the
// sequence by the increment argument (1 for strict, RangeSize for cached).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}
	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func fixedPeriod() time.Time {
	return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("RC")

	num, err := svc.GetNextNumber(ctx, cfg, nil, fixedPeriod())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RC-2026-00001" {
		t.Errorf("expected RC-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, fixedPeriod())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RC-2026-00002" {
		t.Errorf("expected RC-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("IS")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	// first call reserves 1..10 in one round trip
	num, err := svc.GetNextNumber(ctx, cfg, opts, fixedPeriod())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "IS-2026-00001" {
		t.Errorf("expected IS-2026-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value 10, got %d", q.currentValue)
	}

	// subsequent calls inside the range stay in memory
	num, err = svc.GetNextNumber(ctx, cfg, opts, fixedPeriod())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "IS-2026-00002" {
		t.Errorf("expected IS-2026-00002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to stay 10, got %d", q.currentValue)
	}

	// exhaust the range, the next call reserves 11..20
	for i := 0; i < 8; i++ {
		_, _ = svc.GetNextNumber(ctx, cfg, opts, fixedPeriod())
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, fixedPeriod())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "IS-2026-00011" {
		t.Errorf("expected IS-2026-00011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value 20, got %d", q.currentValue)
	}
}

func TestFormatNumber_Variants(t *testing.T) {
	period := fixedPeriod()

	got := formatNumber(Config{Prefix: "ADJ", IncludeYear: false, PadWidth: 3}, period, 7)
	if got != "ADJ-007" {
		t.Errorf("expected ADJ-007, got %s", got)
	}

	got = formatNumber(Config{Prefix: "TR", IncludeYear: true}, period, 42)
	if got != "TR-2026-00042" {
		t.Errorf("expected TR-2026-00042, got %s", got)
	}
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	period := fixedPeriod()

	if key := buildKey(Config{Prefix: "RC", ResetPeriod: "month"}, period); key != "RC_2026_04" {
		t.Errorf("expected RC_2026_04, got %s", key)
	}
	if key := buildKey(Config{Prefix: "RC", ResetPeriod: "year"}, period); key != "RC_2026" {
		t.Errorf("expected RC_2026, got %s", key)
	}
	if key := buildKey(Config{Prefix: "RC", ResetPeriod: "never"}, period); key != "RC" {
		t.Errorf("expected RC, got %s", key)
	}
}
