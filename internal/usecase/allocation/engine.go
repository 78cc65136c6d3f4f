package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

// DefaultThreshold is the drift, in percentage points, a tier must exceed before a rebalance is suggested
var DefaultThreshold = decimal.NewFromInt(5)

var hundred = decimal.NewFromInt(100)

// PricedHolding is a holding together with the price it was valued at
type PricedHolding struct {
	Holding     *domain.Holding
	Price       decimal.Decimal
	MarketValue decimal.Decimal
	FromQuote   bool // False when the price fell back to the average cost
}

// Valuation is the full precision valuation of a set of holdings
type Valuation struct {
	Holdings   []PricedHolding
	TierValues map[domain.Tier]decimal.Decimal // Always contains every tier
	Total      decimal.Decimal
}

// AllocationResult is the tier comparison of a portfolio against its targets
type AllocationResult struct {
	TotalValue    decimal.Decimal // Rounded to 2 decimal places
	Allocations   []domain.Allocation
	HoldingsCount int
}

// RebalanceResult lists the tiers whose drift exceeded the threshold
type RebalanceResult struct {
	NeedsRebalance bool
	Suggestions    []domain.RebalanceSuggestion
}

// ResolvePrice returns the close of the latest quote for the holding when it is usable,
// otherwise the holding's average cost. It never fails.
func ResolvePrice(h *domain.Holding, quotes QuoteSource) (decimal.Decimal, bool) {
	if quotes != nil {
		if q, ok := quotes.Latest(h.Symbol, h.Market); ok && q != nil && q.HasUsableClose() {
			return *q.Close, true
		}
	}
	return h.AvgCost, false
}

// Valuate prices every holding and aggregates market value per tier.
// No rounding is applied.
func Valuate(holdings []*domain.Holding, quotes QuoteSource) Valuation {
	v := Valuation{
		Holdings:   make([]PricedHolding, 0, len(holdings)),
		TierValues: make(map[domain.Tier]decimal.Decimal, len(domain.Tiers())),
		Total:      decimal.Zero,
	}
	for _, tier := range domain.Tiers() {
		v.TierValues[tier] = decimal.Zero
	}

	for _, h := range holdings {
		price, fromQuote := ResolvePrice(h, quotes)
		value := h.Quantity.Mul(price)

		v.Holdings = append(v.Holdings, PricedHolding{
			Holding:     h,
			Price:       price,
			MarketValue: value,
			FromQuote:   fromQuote,
		})
		v.TierValues[h.Tier] = v.TierValues[h.Tier].Add(value)
		v.Total = v.Total.Add(value)
	}

	return v
}

// ComputeAllocation compares each tier's share of the portfolio with its target.
// Allocations are returned in canonical tier order. A tier missing from targets has a target of zero.
func ComputeAllocation(holdings []*domain.Holding, quotes QuoteSource, targets domain.TierTargets) AllocationResult {
	return AllocationFromValuation(Valuate(holdings, quotes), targets)
}

// AllocationFromValuation derives the allocation of an existing valuation
func AllocationFromValuation(v Valuation, targets domain.TierTargets) AllocationResult {
	result := AllocationResult{
		TotalValue:    v.Total.Round(2),
		Allocations:   make([]domain.Allocation, 0, len(domain.Tiers())),
		HoldingsCount: len(v.Holdings),
	}

	for _, tier := range domain.Tiers() {
		target := targets[tier]
		value := v.TierValues[tier]

		actual := decimal.Zero
		if v.Total.IsPositive() {
			actual = value.Div(v.Total).Mul(hundred)
		}

		result.Allocations = append(result.Allocations, domain.Allocation{
			Tier:        tier,
			TargetPct:   target,
			ActualPct:   actual.Round(2),
			DriftPct:    actual.Sub(target).Round(2),
			MarketValue: value.Round(2),
		})
	}

	return result
}

// ComputeRebalance suggests moving money into or out of every tier whose absolute drift
// is strictly greater than threshold
func ComputeRebalance(allocations []domain.Allocation, totalValue, threshold decimal.Decimal) RebalanceResult {
	result := RebalanceResult{Suggestions: []domain.RebalanceSuggestion{}}

	for _, a := range allocations {
		if a.DriftPct.Abs().LessThanOrEqual(threshold) {
			continue
		}

		action := domain.RebalanceReduce
		if a.DriftPct.IsNegative() {
			action = domain.RebalanceIncrease
		}

		result.Suggestions = append(result.Suggestions, domain.RebalanceSuggestion{
			Tier:     a.Tier,
			Action:   action,
			Amount:   a.DriftPct.Abs().Div(hundred).Mul(totalValue).Round(2),
			DriftPct: a.DriftPct,
		})
	}

	result.NeedsRebalance = len(result.Suggestions) > 0
	return result
}
