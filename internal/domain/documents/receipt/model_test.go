package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/core/id"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/gateway"
)

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func draftReceipt() *Receipt {
	doc := New(id.New(), "EUR")
	doc.AddLine(gateway.Item{SKU: "SKU-1", Name: "Widget"}, id.New(), nil,
		qty(10), types.MustMoney("2.50"), "LOT-A", nil, id.New())
	return doc
}

func TestMachine_Lifecycle(t *testing.T) {
	doc := draftReceipt()

	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusReceived))
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusApproved))

	// terminal: nothing more is allowed
	err := doc.Transition(DocumentType, Machine, entity.StatusCanceled)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestMachine_CancelPaths(t *testing.T) {
	doc := draftReceipt()
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusCanceled))

	doc = draftReceipt()
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusReceived))
	require.NoError(t, doc.Transition(DocumentType, Machine, entity.StatusCanceled))
}

func TestMachine_NoShortcutToApproved(t *testing.T) {
	doc := draftReceipt()
	err := doc.Transition(DocumentType, Machine, entity.StatusApproved)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestReceipt_Totals(t *testing.T) {
	doc := New(id.New(), "EUR")
	doc.AddLine(gateway.Item{SKU: "A"}, id.New(), nil, qty(10), types.MustMoney("2.00"), "", nil, id.New())
	doc.AddLine(gateway.Item{SKU: "B"}, id.New(), nil, qty(5), types.MustMoney("3.00"), "", nil, id.New())

	assert.Equal(t, qty(15), doc.TotalQuantity())
	assert.True(t, doc.TotalCost().Equal(types.MustMoney("35")))
	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
}

func TestReceipt_Validate(t *testing.T) {
	ctx := context.Background()

	doc := New(id.New(), "EUR")
	err := doc.Validate(ctx)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	doc = draftReceipt()
	require.NoError(t, doc.Validate(ctx))

	doc.Lines[0].Quantity = qty(0)
	require.Error(t, doc.Validate(ctx))

	doc = draftReceipt()
	doc.Currency = "EURO"
	require.Error(t, doc.Validate(ctx))
}

func TestReceipt_ValidateExpiryLines(t *testing.T) {
	ctx := context.Background()
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := New(id.New(), "EUR")
	doc.AddLine(gateway.Item{SKU: "A"}, id.New(), nil, qty(10), types.MustMoney("1.00"), "LOT-1", &expiry, id.New())
	require.NoError(t, doc.Validate(ctx))
	assert.Equal(t, &expiry, doc.Lines[0].ExpiryDate)
}
