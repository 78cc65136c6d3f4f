package allocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyasset/eam-backend/internal/domain"
)

func holding(symbol string, market domain.Market, tier domain.Tier, qty, avg string) *domain.Holding {
	return &domain.Holding{
		ID:       uuid.New(),
		Owner:    "alice",
		Symbol:   symbol,
		Market:   market,
		Tier:     tier,
		Quantity: decimal.RequireFromString(qty),
		AvgCost:  decimal.RequireFromString(avg),
		Status:   domain.HoldingStatusActive,
	}
}

func quote(symbol string, market domain.Market, close string, day time.Time) *domain.Quote {
	c := decimal.RequireFromString(close)
	return &domain.Quote{ID: uuid.New(), Symbol: symbol, Market: market, TradeDate: day, Close: &c}
}

func findAllocation(t *testing.T, result AllocationResult, tier domain.Tier) domain.Allocation {
	t.Helper()
	for _, a := range result.Allocations {
		if a.Tier == tier {
			return a
		}
	}
	t.Fatalf("no allocation for tier %s", tier)
	return domain.Allocation{}
}

func TestResolvePrice_UsesLatestQuoteClose(t *testing.T) {
	h := holding("600519", domain.MarketCN, domain.TierStable, "10", "1500")
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	quotes := NewQuoteSnapshot(
		quote("600519", domain.MarketCN, "1650.5", day.AddDate(0, 0, -1)),
		quote("600519", domain.MarketCN, "1700.25", day),
	)

	price, fromQuote := ResolvePrice(h, quotes)

	assert.True(t, fromQuote)
	assert.True(t, price.Equal(decimal.RequireFromString("1700.25")))
}

func TestResolvePrice_FallsBackToAverageCost(t *testing.T) {
	h := holding("00700", domain.MarketHK, domain.TierMedium, "100", "320.5")
	day := time.Now()

	tests := []struct {
		name   string
		quotes QuoteSource
	}{
		{name: "No quote source", quotes: nil},
		{name: "No quote for symbol", quotes: NewQuoteSnapshot(quote("09988", domain.MarketHK, "80", day))},
		{name: "Same symbol on another market", quotes: NewQuoteSnapshot(quote("00700", domain.MarketCN, "80", day))},
		{name: "Zero close", quotes: NewQuoteSnapshot(quote("00700", domain.MarketHK, "0", day))},
		{name: "Missing close", quotes: QuoteSnapshot{
			{Symbol: "00700", Market: domain.MarketHK}: {Symbol: "00700", Market: domain.MarketHK, TradeDate: day},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, fromQuote := ResolvePrice(h, tt.quotes)
			assert.False(t, fromQuote)
			assert.True(t, price.Equal(h.AvgCost))
		})
	}
}

func TestComputeAllocation_ZeroHoldings(t *testing.T) {
	targets := domain.DefaultTierTargets()

	result := ComputeAllocation(nil, QuoteSnapshot{}, targets)

	assert.True(t, result.TotalValue.IsZero())
	assert.Equal(t, 0, result.HoldingsCount)
	require.Len(t, result.Allocations, 3)
	for i, tier := range domain.Tiers() {
		a := result.Allocations[i]
		assert.Equal(t, tier, a.Tier)
		assert.True(t, a.ActualPct.IsZero())
		assert.True(t, a.MarketValue.IsZero())
		assert.True(t, a.DriftPct.Equal(targets[tier].Neg()), "drift should be -target for %s", tier)
	}
}

func TestComputeAllocation_ScenarioA_MatchingTargets(t *testing.T) {
	holdings := []*domain.Holding{
		holding("510300", domain.MarketCN, domain.TierStable, "1000", "40"),
		holding("00700", domain.MarketHK, domain.TierMedium, "100", "300"),
		holding("300750", domain.MarketCN, domain.TierGamble, "150", "200"),
	}

	result := ComputeAllocation(holdings, QuoteSnapshot{}, domain.DefaultTierTargets())

	assert.True(t, result.TotalValue.Equal(decimal.NewFromInt(100000)))
	for _, a := range result.Allocations {
		assert.True(t, a.DriftPct.IsZero(), "tier %s drift %s", a.Tier, a.DriftPct)
	}

	rebalance := ComputeRebalance(result.Allocations, result.TotalValue, DefaultThreshold)
	assert.False(t, rebalance.NeedsRebalance)
	assert.Empty(t, rebalance.Suggestions)
}

func TestComputeAllocation_ScenarioB_SingleGambleHolding(t *testing.T) {
	holdings := []*domain.Holding{
		holding("TSLA", domain.MarketUS, domain.TierGamble, "500", "200"),
	}

	result := ComputeAllocation(holdings, QuoteSnapshot{}, domain.DefaultTierTargets())

	gamble := findAllocation(t, result, domain.TierGamble)
	assert.True(t, gamble.ActualPct.Equal(decimal.NewFromInt(100)))
	assert.True(t, gamble.DriftPct.Equal(decimal.NewFromInt(70)))
	assert.True(t, findAllocation(t, result, domain.TierStable).DriftPct.Equal(decimal.NewFromInt(-40)))
	assert.True(t, findAllocation(t, result, domain.TierMedium).DriftPct.Equal(decimal.NewFromInt(-30)))

	rebalance := ComputeRebalance(result.Allocations, result.TotalValue, DefaultThreshold)
	require.True(t, rebalance.NeedsRebalance)
	require.Len(t, rebalance.Suggestions, 3)

	assert.Equal(t, domain.TierStable, rebalance.Suggestions[0].Tier)
	assert.Equal(t, domain.RebalanceIncrease, rebalance.Suggestions[0].Action)
	assert.True(t, rebalance.Suggestions[0].Amount.Equal(decimal.NewFromInt(40000)))

	assert.Equal(t, domain.TierMedium, rebalance.Suggestions[1].Tier)
	assert.Equal(t, domain.RebalanceIncrease, rebalance.Suggestions[1].Action)
	assert.True(t, rebalance.Suggestions[1].Amount.Equal(decimal.NewFromInt(30000)))

	assert.Equal(t, domain.TierGamble, rebalance.Suggestions[2].Tier)
	assert.Equal(t, domain.RebalanceReduce, rebalance.Suggestions[2].Action)
	assert.True(t, rebalance.Suggestions[2].Amount.Equal(decimal.NewFromInt(70000)))
}

func TestComputeAllocation_ScenarioC_MissingQuoteUsesCostBasis(t *testing.T) {
	unquoted := holding("BABA", domain.MarketUS, domain.TierMedium, "37", "81.37")
	quoted := holding("600036", domain.MarketCN, domain.TierStable, "100", "30")
	quotes := NewQuoteSnapshot(quote("600036", domain.MarketCN, "35", time.Now()))

	v := Valuate([]*domain.Holding{quoted, unquoted}, quotes)

	require.Len(t, v.Holdings, 2)
	assert.True(t, v.Holdings[0].FromQuote)
	assert.True(t, v.Holdings[0].MarketValue.Equal(decimal.NewFromInt(3500)))
	assert.False(t, v.Holdings[1].FromQuote)
	assert.True(t, v.Holdings[1].Price.Equal(unquoted.AvgCost))
	assert.True(t, v.Holdings[1].MarketValue.Equal(unquoted.Quantity.Mul(unquoted.AvgCost)))
	assert.True(t, v.TierValues[domain.TierGamble].IsZero())
}

func TestComputeRebalance_ScenarioD_ThresholdIsStrict(t *testing.T) {
	allocations := []domain.Allocation{
		{Tier: domain.TierStable, TargetPct: decimal.NewFromInt(40), ActualPct: decimal.NewFromInt(45), DriftPct: decimal.NewFromInt(5)},
		{Tier: domain.TierMedium, TargetPct: decimal.NewFromInt(30), ActualPct: decimal.NewFromInt(25), DriftPct: decimal.NewFromInt(-5)},
		{Tier: domain.TierGamble, TargetPct: decimal.NewFromInt(30), ActualPct: decimal.NewFromInt(30), DriftPct: decimal.Zero},
	}

	result := ComputeRebalance(allocations, decimal.NewFromInt(100000), DefaultThreshold)

	assert.False(t, result.NeedsRebalance)
	assert.Empty(t, result.Suggestions)

	allocations[0].DriftPct = decimal.RequireFromString("5.01")
	result = ComputeRebalance(allocations, decimal.NewFromInt(100000), DefaultThreshold)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, domain.RebalanceReduce, result.Suggestions[0].Action)
	assert.True(t, result.Suggestions[0].Amount.Equal(decimal.NewFromInt(5010)))
}

func TestComputeRebalance_RoundsAmount(t *testing.T) {
	allocations := []domain.Allocation{
		{Tier: domain.TierGamble, DriftPct: decimal.RequireFromString("-12.34")},
	}

	result := ComputeRebalance(allocations, decimal.RequireFromString("12345.67"), DefaultThreshold)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, domain.RebalanceIncrease, result.Suggestions[0].Action)
	// 0.1234 * 12345.67 = 1523.455678
	assert.True(t, result.Suggestions[0].Amount.Equal(decimal.RequireFromString("1523.46")))
}

func TestComputeAllocation_SumsMatchTotal(t *testing.T) {
	holdings := []*domain.Holding{
		holding("A", domain.MarketCN, domain.TierStable, "3", "33.333"),
		holding("B", domain.MarketCN, domain.TierMedium, "7", "14.2857"),
		holding("C", domain.MarketHK, domain.TierGamble, "11", "9.0909"),
		holding("D", domain.MarketUS, domain.TierGamble, "0.5", "1234.5678"),
	}

	result := ComputeAllocation(holdings, QuoteSnapshot{}, domain.DefaultTierTargets())
	tolerance := decimal.RequireFromString("0.01")

	sumValue := decimal.Zero
	sumPct := decimal.Zero
	for _, a := range result.Allocations {
		sumValue = sumValue.Add(a.MarketValue)
		sumPct = sumPct.Add(a.ActualPct)
	}

	assert.True(t, sumValue.Sub(result.TotalValue).Abs().LessThanOrEqual(tolerance), "values %s vs total %s", sumValue, result.TotalValue)
	assert.True(t, sumPct.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(tolerance), "pct sum %s", sumPct)
	assert.Equal(t, 4, result.HoldingsCount)
}

func TestComputeAllocation_ThreeWayEvenSplit(t *testing.T) {
	holdings := []*domain.Holding{
		holding("A", domain.MarketCN, domain.TierStable, "1", "100"),
		holding("B", domain.MarketCN, domain.TierMedium, "1", "100"),
		holding("C", domain.MarketCN, domain.TierGamble, "1", "100"),
	}

	result := ComputeAllocation(holdings, QuoteSnapshot{}, domain.DefaultTierTargets())

	for _, a := range result.Allocations {
		assert.True(t, a.ActualPct.Equal(decimal.RequireFromString("33.33")), "tier %s actual %s", a.Tier, a.ActualPct)
	}
	assert.True(t, findAllocation(t, result, domain.TierStable).DriftPct.Equal(decimal.RequireFromString("-6.67")))
	assert.True(t, findAllocation(t, result, domain.TierMedium).DriftPct.Equal(decimal.RequireFromString("3.33")))
}

func TestComputeAllocation_Idempotent(t *testing.T) {
	holdings := []*domain.Holding{
		holding("600519", domain.MarketCN, domain.TierStable, "10", "1500"),
		holding("00700", domain.MarketHK, domain.TierGamble, "100", "300"),
	}
	quotes := NewQuoteSnapshot(quote("600519", domain.MarketCN, "1720", time.Now()))
	targets := domain.DefaultTierTargets()

	first := ComputeAllocation(holdings, quotes, targets)
	second := ComputeAllocation(holdings, quotes, targets)

	assert.Equal(t, first, second)
}

func TestComputeAllocation_CanonicalOrder(t *testing.T) {
	holdings := []*domain.Holding{
		holding("C", domain.MarketCN, domain.TierGamble, "1", "10"),
		holding("A", domain.MarketCN, domain.TierStable, "1", "10"),
	}

	result := ComputeAllocation(holdings, QuoteSnapshot{}, domain.DefaultTierTargets())

	require.Len(t, result.Allocations, 3)
	assert.Equal(t, domain.TierStable, result.Allocations[0].Tier)
	assert.Equal(t, domain.TierMedium, result.Allocations[1].Tier)
	assert.Equal(t, domain.TierGamble, result.Allocations[2].Tier)
}
