package alerts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
)

// CashSymbol marks a holding that represents uninvested cash
const CashSymbol = "CASH"

// Health thresholds, in percent of the portfolio value
var (
	ConcentrationPct = decimal.NewFromInt(25)
	MinCashPct       = decimal.NewFromInt(5)
	MaxUSPct         = decimal.NewFromInt(40)
	TierDriftPct     = decimal.NewFromInt(5)
)

const (
	riskPenalty          = 15 // Per cash or FX warning
	concentrationPenalty = 10 // Per concentrated position
)

// AssessHealth scores a portfolio snapshot.
//
// Score starts at 100 and loses:
//   - 15 when cash is below 5% of the portfolio (no headroom to add)
//   - 15 when US assets exceed 40% (currency exposure)
//   - 10 per position weighing more than 25%
//   - the summed absolute tier drift, in whole percentage points
//
// Tier drift beyond 5 points is listed as a warning but only costs its points.
// Values are compared in native units, like the allocation itself.
func AssessHealth(snap *portfolio.Snapshot) domain.HealthReport {
	report := domain.HealthReport{
		CashPct:   decimal.Zero,
		MarketPct: make(map[domain.Market]decimal.Decimal),
		Warnings:  make([]domain.HealthWarning, 0),
	}

	total := snap.Allocation.TotalValue
	if len(snap.Positions) == 0 || !total.IsPositive() {
		report.Rating = domain.RatingNone
		return report
	}

	cash := decimal.Zero
	markets := make(map[domain.Market]decimal.Decimal)
	for _, p := range snap.Positions {
		if p.Holding.Symbol == CashSymbol {
			cash = cash.Add(p.MarketValue)
		}
		markets[p.Holding.Market] = markets[p.Holding.Market].Add(p.MarketValue)
	}
	for m, v := range markets {
		report.MarketPct[m] = share(v, total)
	}
	report.CashPct = share(cash, total)

	score := 100

	// Concentration
	for _, p := range snap.Positions {
		if p.Holding.Symbol == CashSymbol || !p.WeightPct.GreaterThan(ConcentrationPct) {
			continue
		}
		score -= concentrationPenalty
		report.Warnings = append(report.Warnings, domain.HealthWarning{
			Kind:    domain.WarningConcentration,
			Subject: p.Holding.Symbol,
			Pct:     p.WeightPct,
			Message: fmt.Sprintf("%s is %s%% of the portfolio, above the %s%% limit", p.Holding.Symbol, p.WeightPct.StringFixed(1), ConcentrationPct),
		})
	}

	// Headroom
	if report.CashPct.LessThan(MinCashPct) {
		score -= riskPenalty
		report.Warnings = append(report.Warnings, domain.HealthWarning{
			Kind:    domain.WarningCashHeadroom,
			Subject: CashSymbol,
			Pct:     report.CashPct,
			Message: fmt.Sprintf("Cash is only %s%%, keep at least %s%% to add on dips", report.CashPct.StringFixed(1), MinCashPct),
		})
	}

	// Currency
	if us := report.MarketPct[domain.MarketUS]; us.GreaterThan(MaxUSPct) {
		score -= riskPenalty
		report.Warnings = append(report.Warnings, domain.HealthWarning{
			Kind:    domain.WarningFXExposure,
			Subject: string(domain.MarketUS),
			Pct:     us,
			Message: fmt.Sprintf("US assets are %s%% of the portfolio, exposed to USD moves", us.StringFixed(1)),
		})
	}

	// Tier drift
	drift := decimal.Zero
	for _, a := range snap.Allocation.Allocations {
		drift = drift.Add(a.DriftPct.Abs())
		if !a.DriftPct.Abs().GreaterThan(TierDriftPct) {
			continue
		}
		direction := "overweight"
		if a.DriftPct.IsNegative() {
			direction = "underweight"
		}
		report.Warnings = append(report.Warnings, domain.HealthWarning{
			Kind:    domain.WarningTierDrift,
			Subject: string(a.Tier),
			Pct:     a.DriftPct,
			Message: fmt.Sprintf("%s tier is %s by %s points (%s%% vs target %s%%)", a.Tier, direction, a.DriftPct.Abs().StringFixed(1), a.ActualPct.StringFixed(1), a.TargetPct.StringFixed(0)),
		})
	}
	score -= int(drift.IntPart())

	report.Score = min(100, max(0, score))
	report.Rating = rate(report.Score)
	return report
}

func share(v, total decimal.Decimal) decimal.Decimal {
	return v.Div(total).Mul(hundred).Round(2)
}

func rate(score int) domain.HealthRating {
	switch {
	case score >= 80:
		return domain.RatingHealthy
	case score >= 60:
		return domain.RatingFair
	case score >= 40:
		return domain.RatingWatch
	default:
		return domain.RatingHighRisk
	}
}
