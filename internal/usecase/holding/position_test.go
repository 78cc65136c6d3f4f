package holding

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/easyasset/eam-backend/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInferTrade(t *testing.T) {
	tests := []struct {
		name       string
		oldQty     string
		oldAvg     string
		newQty     string
		newAvg     string
		wantAction domain.TradeAction
		wantQty    string
		wantPrice  string
		wantErr    bool
	}{
		{
			name:   "Add to position",
			oldQty: "100", oldAvg: "10", newQty: "150", newAvg: "12",
			// (150*12 - 100*10) / 50 = 16
			wantAction: domain.TradeActionBuy, wantQty: "50", wantPrice: "16",
		},
		{
			name:   "Trim position at a profit",
			oldQty: "100", oldAvg: "10", newQty: "60", newAvg: "8",
			// (480 - 1000) / -40 = 13
			wantAction: domain.TradeActionSell, wantQty: "40", wantPrice: "13",
		},
		{
			name:   "Price rounded to 4 places",
			oldQty: "3", oldAvg: "1", newQty: "6", newAvg: "1.5",
			// (9 - 3) / 3 = 2
			wantAction: domain.TradeActionBuy, wantQty: "3", wantPrice: "2",
		},
		{
			name:   "Repeating fraction",
			oldQty: "0", oldAvg: "1", newQty: "3", newAvg: "3.33333",
			wantAction: domain.TradeActionBuy, wantQty: "3", wantPrice: "3.3333",
		},
		{
			name:   "Unchanged quantity",
			oldQty: "100", oldAvg: "10", newQty: "100", newAvg: "11",
			wantErr: true,
		},
		{
			name:   "Negative new quantity",
			oldQty: "100", oldAvg: "10", newQty: "-10", newAvg: "5",
			// Would imply selling 110 at 9.5455
			wantErr: true,
		},
		{
			name:   "Negative implied price",
			oldQty: "100", oldAvg: "10", newQty: "110", newAvg: "5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, qty, price, err := InferTrade(d(tt.oldQty), d(tt.oldAvg), d(tt.newQty), d(tt.newAvg))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, action)
			assert.True(t, qty.Equal(d(tt.wantQty)), "qty %s", qty)
			assert.True(t, price.Equal(d(tt.wantPrice)), "price %s", price)
		})
	}
}

func TestSuggestDate(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2024, 5, n, 0, 0, 0, 0, time.UTC) }
	closeAt := func(s string) *decimal.Decimal { v := d(s); return &v }

	quotes := []*domain.Quote{
		{TradeDate: day(10), Close: closeAt("15.2")},
		{TradeDate: day(9), Close: closeAt("14.8")},
		{TradeDate: day(8), Close: closeAt("16")},
		{TradeDate: day(7)},
	}

	got := SuggestDate(quotes, d("15"))
	require.NotNil(t, got)
	assert.True(t, got.Equal(day(10)), "tie between 15.2 and 14.8 goes to the most recent")

	got = SuggestDate(quotes, d("15.9"))
	require.NotNil(t, got)
	assert.True(t, got.Equal(day(8)))

	assert.Nil(t, SuggestDate(nil, d("1")))
	assert.Nil(t, SuggestDate([]*domain.Quote{{TradeDate: day(1)}}, d("1")))
}

func TestPreviewPositionUpdate_SuggestsDateFromQuotes(t *testing.T) {
	ctx := context.Background()
	svc, holdingRepo, _, quoteRepo := newTestService()
	h := existingHolding("100", "10")
	closePx := d("16.1")

	holdingRepo.On("GetByID", ctx, "alice", h.ID).Return(h, nil)
	quoteRepo.On("ListRange", ctx, h.Symbol, h.Market, fixedNow.Add(-suggestWindow), fixedNow).
		Return([]*domain.Quote{{TradeDate: time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), Close: &closePx}}, nil)

	preview, err := svc.PreviewPositionUpdate(ctx, "alice", h.ID, PositionUpdate{NewQuantity: d("150"), NewAvgCost: d("12")})

	require.NoError(t, err)
	assert.Equal(t, domain.TradeActionBuy, preview.Action)
	assert.True(t, preview.InferredPrice.Equal(d("16")))
	require.NotNil(t, preview.SuggestedDate)
	assert.Equal(t, 30, preview.SuggestedDate.Day())
	assert.True(t, preview.OldQuantity.Equal(d("100")))
}

func TestPreviewAndUpdatePosition_RejectNegativeQuantity(t *testing.T) {
	ctx := context.Background()
	svc, holdingRepo, txRepo, _ := newTestService()
	h := existingHolding("100", "10")
	update := PositionUpdate{NewQuantity: d("-10"), NewAvgCost: d("5")}

	holdingRepo.On("GetByID", ctx, "alice", h.ID).Return(h, nil)

	_, err := svc.PreviewPositionUpdate(ctx, "alice", h.ID, update)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = svc.UpdatePosition(ctx, "alice", h.ID, update)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	txRepo.AssertNotCalled(t, "RecordTrade", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, h.Quantity.Equal(d("100")))
}

func TestPreviewPositionUpdate_ExplicitDateWins(t *testing.T) {
	ctx := context.Background()
	svc, holdingRepo, _, quoteRepo := newTestService()
	h := existingHolding("100", "10")
	date := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	holdingRepo.On("GetByID", ctx, "alice", h.ID).Return(h, nil)

	preview, err := svc.PreviewPositionUpdate(ctx, "alice", h.ID, PositionUpdate{NewQuantity: d("50"), NewAvgCost: d("10"), Date: &date})

	require.NoError(t, err)
	assert.Equal(t, domain.TradeActionSell, preview.Action)
	assert.True(t, preview.SuggestedDate.Equal(date))
	quoteRepo.AssertNotCalled(t, "ListRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePosition_ToZeroClosesHolding(t *testing.T) {
	ctx := context.Background()
	svc, holdingRepo, txRepo, _ := newTestService()
	h := existingHolding("100", "10")

	holdingRepo.On("GetByID", ctx, "alice", h.ID).Return(h, nil)
	txRepo.On("RecordTrade", ctx, h, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	updated, tx, err := svc.UpdatePosition(ctx, "alice", h.ID, PositionUpdate{NewQuantity: decimal.Zero, NewAvgCost: decimal.Zero})

	require.NoError(t, err)
	assert.Equal(t, domain.HoldingStatusClosed, updated.Status)
	assert.True(t, updated.AvgCost.Equal(d("10")), "average cost kept when closing")
	assert.Equal(t, domain.TradeActionSell, tx.Action)
	assert.True(t, tx.Price.Equal(d("10")))
	assert.Equal(t, "trim position", tx.Reason)
	txRepo.AssertExpectations(t)
}
