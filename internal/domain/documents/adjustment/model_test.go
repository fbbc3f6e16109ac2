package adjustment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
)

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func TestMachine_Lifecycle(t *testing.T) {
	doc := New("count")
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusPosted))

	err := doc.Transition(DocumentType, Machine, entity.StatusPosted)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestAdjustment_Validate(t *testing.T) {
	ctx := context.Background()

	doc := New("")
	doc.AddLine(id.New(), qty(5), "")
	require.Error(t, doc.Validate(ctx)) // missing reason

	doc = New("damage")
	require.Error(t, doc.Validate(ctx)) // no lines

	doc.AddLine(id.New(), qty(-3), "broken in handling")
	require.NoError(t, doc.Validate(ctx))

	doc.AddLine(id.New(), qty(0), "")
	require.Error(t, doc.Validate(ctx)) // zero delta
}

func TestAdjustment_MaxAbsDelta(t *testing.T) {
	doc := New("count")
	doc.AddLine(id.New(), qty(5), "")
	doc.AddLine(id.New(), qty(-12), "")
	doc.AddLine(id.New(), qty(3), "")

	assert.Equal(t, qty(12), doc.MaxAbsDelta())
}

func TestAdjustment_ActivationContext(t *testing.T) {
	doc := New("count")
	doc.AddLine(id.New(), qty(-7.5), "")

	got := doc.ActivationContext()
	assert.Equal(t, "count", got["reason"])
	assert.Equal(t, 1, got["line_count"])
	assert.InDelta(t, 7.5, got["max_abs_delta"], 1e-9)
}
