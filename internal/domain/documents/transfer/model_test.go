package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/gateway"
)

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func TestMachine_Lifecycle(t *testing.T) {
	doc := New(id.New(), id.New())

	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusShipped))
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusPartiallyReceived))
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusCompleted))

	err := doc.Transition(DocumentType, Machine, entity.StatusShipped)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestMachine_ShippedCannotCancel(t *testing.T) {
	doc := New(id.New(), id.New())
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusShipped))
	require.Error(t, doc.Transition(DocumentType, Machine, entity.StatusCanceled))
}

func TestMachine_DraftCancel(t *testing.T) {
	doc := New(id.New(), id.New())
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusCanceled))
}

func TestTransfer_Validate(t *testing.T) {
	ctx := context.Background()

	same := id.New()
	doc := New(same, same)
	doc.AddLine(gateway.Item{SKU: "S"}, id.New(), nil, qty(5))
	require.Error(t, doc.Validate(ctx))

	doc = New(id.New(), id.New())
	require.Error(t, doc.Validate(ctx)) // no lines

	doc.AddLine(gateway.Item{SKU: "S"}, id.New(), nil, qty(5))
	require.NoError(t, doc.Validate(ctx))
}

func TestTransfer_AllSegmentsReceived(t *testing.T) {
	doc := New(id.New(), id.New())
	assert.False(t, doc.AllSegmentsReceived()) // no segments yet

	doc.Segments = []Segment{
		{SegmentID: id.New(), Status: SegmentInTransit},
		{SegmentID: id.New(), Status: SegmentReceived},
	}
	assert.False(t, doc.AllSegmentsReceived())

	doc.Segments[0].Status = SegmentReceived
	assert.True(t, doc.AllSegmentsReceived())
}
