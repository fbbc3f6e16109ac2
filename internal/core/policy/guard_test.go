package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
)

func TestGuard_PassingRule(t *testing.T) {
	g, err := NewGuard([]Rule{
		{Name: "max-lines", Expr: `doc.line_count <= 100`, Message: "too many lines"},
	})
	require.NoError(t, err)

	err = g.Check(context.Background(), "Receipt", map[string]any{"line_count": 3})
	assert.NoError(t, err)
}

func TestGuard_FailingRule(t *testing.T) {
	g, err := NewGuard([]Rule{
		{Name: "max-delta", Expr: `type == "Adjustment" ? doc.max_abs_delta < 1000.0 : true`, Message: "delta too large"},
	})
	require.NoError(t, err)

	ctx := context.Background()

	err = g.Check(ctx, "Adjustment", map[string]any{"max_abs_delta": 5000.0})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Contains(t, err.Error(), "delta too large")

	// same rule does not apply to other document types
	assert.NoError(t, g.Check(ctx, "Receipt", map[string]any{"line_count": 1}))
}

func TestGuard_EvalErrorBlocks(t *testing.T) {
	g, err := NewGuard([]Rule{
		{Name: "needs-field", Expr: `doc.nonexistent > 0`, Message: "rule failed"},
	})
	require.NoError(t, err)

	err = g.Check(context.Background(), "Issue", map[string]any{"line_count": 1})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestGuard_CompileErrorFailsConstruction(t *testing.T) {
	_, err := NewGuard([]Rule{
		{Name: "broken", Expr: `doc.line_count >`, Message: "x"},
	})
	require.Error(t, err)
}

func TestGuard_NilPermitsEverything(t *testing.T) {
	var g *Guard
	assert.NoError(t, g.Check(context.Background(), "Receipt", nil))
}

func TestGuard_FirstFailureWins(t *testing.T) {
	g, err := NewGuard([]Rule{
		{Name: "first", Expr: `doc.line_count > 0`, Message: "empty document"},
		{Name: "second", Expr: `doc.line_count < 10`, Message: "too many lines"},
	})
	require.NoError(t, err)

	err = g.Check(context.Background(), "Receipt", map[string]any{"line_count": 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestStrictPolicy(t *testing.T) {
	ctx := context.Background()
	closed := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	p := NewStrictPolicy(closed)

	err := p.CanPost(ctx, closed.AddDate(0, 0, -1))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))

	assert.NoError(t, p.CanPost(ctx, closed))
	assert.NoError(t, p.CanPost(ctx, closed.AddDate(0, 1, 0)))

	require.Error(t, p.CanCancel(ctx, closed.AddDate(0, 0, -1)))
	assert.Equal(t, closed, p.ClosedUntil(ctx))
}
