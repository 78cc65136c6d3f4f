package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Validate(t *testing.T) {
	holdingID := uuid.New()

	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
		errMsg  string
	}{
		{
			name: "Valid buy should pass",
			tx: Transaction{
				ID:          uuid.New(),
				HoldingID:   holdingID,
				Action:      TradeActionBuy,
				Quantity:    decimal.NewFromInt(100),
				Price:       decimal.NewFromFloat(12.5),
				TotalAmount: decimal.NewFromInt(1250),
				Date:        time.Now(),
			},
			wantErr: false,
		},
		{
			name: "Missing holding should fail",
			tx: Transaction{
				Action:      TradeActionSell,
				Quantity:    decimal.NewFromInt(1),
				Price:       decimal.NewFromInt(10),
				TotalAmount: decimal.NewFromInt(10),
			},
			wantErr: true,
			errMsg:  "transaction must reference a holding",
		},
		{
			name: "Unknown action should fail",
			tx: Transaction{
				HoldingID:   holdingID,
				Action:      TradeAction("short"),
				Quantity:    decimal.NewFromInt(1),
				Price:       decimal.NewFromInt(10),
				TotalAmount: decimal.NewFromInt(10),
			},
			wantErr: true,
			errMsg:  "invalid trade action: must be buy or sell",
		},
		{
			name: "Zero quantity should fail",
			tx: Transaction{
				HoldingID:   holdingID,
				Action:      TradeActionBuy,
				Quantity:    decimal.Zero,
				Price:       decimal.NewFromInt(10),
				TotalAmount: decimal.Zero,
			},
			wantErr: true,
			errMsg:  "transaction quantity must be positive",
		},
		{
			name: "Negative price should fail",
			tx: Transaction{
				HoldingID:   holdingID,
				Action:      TradeActionBuy,
				Quantity:    decimal.NewFromInt(1),
				Price:       decimal.NewFromInt(-10),
				TotalAmount: decimal.NewFromInt(-10),
			},
			wantErr: true,
			errMsg:  "transaction price must be positive",
		},
		{
			name: "Inconsistent total should fail",
			tx: Transaction{
				HoldingID:   holdingID,
				Action:      TradeActionBuy,
				Quantity:    decimal.NewFromInt(3),
				Price:       decimal.NewFromInt(10),
				TotalAmount: decimal.NewFromInt(31),
			},
			wantErr: true,
			errMsg:  "transaction total must equal quantity times price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newActiveHolding(qty, avg int64) *Holding {
	return &Holding{
		ID:       uuid.New(),
		Owner:    "alice",
		Symbol:   "600519",
		Market:   MarketCN,
		Tier:     TierStable,
		Quantity: decimal.NewFromInt(qty),
		AvgCost:  decimal.NewFromInt(avg),
		Status:   HoldingStatusActive,
	}
}

func TestTransaction_ApplyTo_BuyReweightsAverageCost(t *testing.T) {
	h := newActiveHolding(100, 10)
	tx := Transaction{
		HoldingID:   h.ID,
		Action:      TradeActionBuy,
		Quantity:    decimal.NewFromInt(100),
		Price:       decimal.NewFromInt(20),
		TotalAmount: decimal.NewFromInt(2000),
	}

	require.NoError(t, tx.ApplyTo(h))

	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(200)))
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(15)), "(100*10 + 100*20) / 200 = 15")
	assert.Equal(t, HoldingStatusActive, h.Status)
}

func TestTransaction_ApplyTo_BuyReopensClosedHolding(t *testing.T) {
	h := newActiveHolding(0, 10)
	h.Status = HoldingStatusClosed
	tx := Transaction{
		HoldingID:   h.ID,
		Action:      TradeActionBuy,
		Quantity:    decimal.NewFromInt(5),
		Price:       decimal.NewFromInt(8),
		TotalAmount: decimal.NewFromInt(40),
	}

	require.NoError(t, tx.ApplyTo(h))

	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, HoldingStatusActive, h.Status)
}

func TestTransaction_ApplyTo_PartialSellKeepsAverageCost(t *testing.T) {
	h := newActiveHolding(100, 10)
	tx := Transaction{
		HoldingID:   h.ID,
		Action:      TradeActionSell,
		Quantity:    decimal.NewFromInt(40),
		Price:       decimal.NewFromInt(12),
		TotalAmount: decimal.NewFromInt(480),
	}

	require.NoError(t, tx.ApplyTo(h))

	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(60)))
	assert.True(t, h.AvgCost.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, HoldingStatusActive, h.Status)
}

func TestTransaction_ApplyTo_FullSellClosesHolding(t *testing.T) {
	h := newActiveHolding(100, 10)
	tx := Transaction{
		HoldingID:   h.ID,
		Action:      TradeActionSell,
		Quantity:    decimal.NewFromInt(100),
		Price:       decimal.NewFromInt(12),
		TotalAmount: decimal.NewFromInt(1200),
	}

	require.NoError(t, tx.ApplyTo(h))

	assert.True(t, h.Quantity.IsZero())
	assert.Equal(t, HoldingStatusClosed, h.Status)
	assert.NoError(t, h.Validate())
}

func TestTransaction_ApplyTo_OversellIsRejected(t *testing.T) {
	h := newActiveHolding(10, 10)
	tx := Transaction{
		HoldingID:   h.ID,
		Action:      TradeActionSell,
		Quantity:    decimal.NewFromInt(11),
		Price:       decimal.NewFromInt(12),
		TotalAmount: decimal.NewFromInt(132),
	}

	err := tx.ApplyTo(h)

	assert.ErrorIs(t, err, ErrInsufficientQuantity)
	assert.True(t, h.Quantity.Equal(decimal.NewFromInt(10)), "holding must be left untouched")
}

func TestParseTradeAction(t *testing.T) {
	action, err := ParseTradeAction("sell")
	require.NoError(t, err)
	assert.Equal(t, TradeActionSell, action)

	_, err = ParseTradeAction("hold")
	assert.Error(t, err)
}
