package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHolding_Validate(t *testing.T) {
	valid := func() Holding {
		return Holding{
			ID:       uuid.New(),
			Owner:    "alice",
			Symbol:   "00700",
			Market:   MarketHK,
			Tier:     TierMedium,
			Quantity: decimal.NewFromInt(200),
			AvgCost:  decimal.NewFromFloat(310.4),
			Status:   HoldingStatusActive,
		}
	}

	tests := []struct {
		name    string
		mutate  func(h *Holding)
		wantErr bool
		errIs   error
	}{
		{
			name:    "Valid active holding should pass",
			mutate:  func(h *Holding) {},
			wantErr: false,
		},
		{
			name: "Valid closed holding should pass",
			mutate: func(h *Holding) {
				h.Quantity = decimal.Zero
				h.Status = HoldingStatusClosed
			},
			wantErr: false,
		},
		{
			name:    "Empty symbol should fail",
			mutate:  func(h *Holding) { h.Symbol = "" },
			wantErr: true,
		},
		{
			name:    "Empty owner should fail",
			mutate:  func(h *Holding) { h.Owner = "" },
			wantErr: true,
		},
		{
			name:    "Unknown market should fail",
			mutate:  func(h *Holding) { h.Market = Market("JP") },
			wantErr: true,
			errIs:   ErrInvalidMarket,
		},
		{
			name:    "Unknown tier should fail",
			mutate:  func(h *Holding) { h.Tier = Tier("crypto") },
			wantErr: true,
			errIs:   ErrInvalidTier,
		},
		{
			name:    "Zero average cost should fail",
			mutate:  func(h *Holding) { h.AvgCost = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "Negative quantity should fail",
			mutate:  func(h *Holding) { h.Quantity = decimal.NewFromInt(-1) },
			wantErr: true,
		},
		{
			name:    "Active holding with zero quantity should fail",
			mutate:  func(h *Holding) { h.Quantity = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "Closed holding with quantity should fail",
			mutate:  func(h *Holding) { h.Status = HoldingStatusClosed },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid()
			tt.mutate(&h)
			err := h.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHolding_CostBasis(t *testing.T) {
	h := Holding{Quantity: decimal.NewFromInt(30), AvgCost: decimal.NewFromFloat(2.5)}
	assert.True(t, h.CostBasis().Equal(decimal.NewFromInt(75)))
}
