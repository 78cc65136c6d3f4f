package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarket(t *testing.T) {
	tests := []struct {
		input   string
		want    Market
		wantErr bool
	}{
		{input: "US", want: MarketUS},
		{input: "hk", want: MarketHK},
		{input: " cn ", want: MarketCN},
		{input: "JP", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMarket(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMarket)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarket_Currency(t *testing.T) {
	assert.Equal(t, "USD", MarketUS.Currency())
	assert.Equal(t, "HKD", MarketHK.Currency())
	assert.Equal(t, "CNY", MarketCN.Currency())
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("Gamble")
	require.NoError(t, err)
	assert.Equal(t, TierGamble, tier)

	_, err = ParseTier("aggressive")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestTiers_CanonicalOrder(t *testing.T) {
	assert.Equal(t, []Tier{TierStable, TierMedium, TierGamble}, Tiers())
}

func TestTierTargets_Validate(t *testing.T) {
	tests := []struct {
		name    string
		targets TierTargets
		wantErr bool
	}{
		{
			name:    "Default targets should pass",
			targets: DefaultTierTargets(),
			wantErr: false,
		},
		{
			name: "Zero tier is allowed",
			targets: TierTargets{
				TierStable: decimal.NewFromInt(70),
				TierMedium: decimal.NewFromInt(30),
				TierGamble: decimal.Zero,
			},
			wantErr: false,
		},
		{
			name: "Missing tier should fail",
			targets: TierTargets{
				TierStable: decimal.NewFromInt(50),
				TierMedium: decimal.NewFromInt(50),
			},
			wantErr: true,
		},
		{
			name: "Sum other than 100 should fail",
			targets: TierTargets{
				TierStable: decimal.NewFromInt(40),
				TierMedium: decimal.NewFromInt(30),
				TierGamble: decimal.NewFromInt(20),
			},
			wantErr: true,
		},
		{
			name: "Negative target should fail",
			targets: TierTargets{
				TierStable: decimal.NewFromInt(110),
				TierMedium: decimal.NewFromInt(0),
				TierGamble: decimal.NewFromInt(-10),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.targets.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
