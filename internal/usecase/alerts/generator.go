package alerts

import (
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
)

// NearMarginPct is how close, in percent of the trigger, a price must come before an alert is raised
var NearMarginPct = decimal.NewFromInt(5)

var hundred = decimal.NewFromInt(100)

// GenerateAlerts checks every position against its stop loss and take profit levels.
//
// Logic:
//   - Only positions priced from a quote are checked; an average cost price says nothing about the market
//   - Stop loss: alert when price <= stop * (1 + margin), breached when price <= stop
//   - Take profit: alert when price >= target * (1 - margin), breached when price >= target
//
// Alerts keep the order of the positions, stop loss before take profit.
func GenerateAlerts(positions []portfolio.Position) []domain.PriceAlert {
	alerts := make([]domain.PriceAlert, 0)
	margin := NearMarginPct.Div(hundred)

	for _, p := range positions {
		if !p.FromQuote || !p.Price.IsPositive() {
			continue
		}
		h := p.Holding

		if stop := h.StopLossPrice; stop != nil && stop.IsPositive() {
			limit := stop.Mul(decimal.NewFromInt(1).Add(margin))
			if p.Price.LessThanOrEqual(limit) {
				alerts = append(alerts, newAlert(p, domain.AlertStopLoss, *stop, p.Price.LessThanOrEqual(*stop)))
			}
		}

		if target := h.TakeProfitPrice; target != nil && target.IsPositive() {
			limit := target.Mul(decimal.NewFromInt(1).Sub(margin))
			if p.Price.GreaterThanOrEqual(limit) {
				alerts = append(alerts, newAlert(p, domain.AlertTakeProfit, *target, p.Price.GreaterThanOrEqual(*target)))
			}
		}
	}

	return alerts
}

func newAlert(p portfolio.Position, kind domain.AlertKind, trigger decimal.Decimal, breached bool) domain.PriceAlert {
	return domain.PriceAlert{
		HoldingID:   p.Holding.ID,
		Symbol:      p.Holding.Symbol,
		Market:      p.Holding.Market,
		Kind:        kind,
		Price:       p.Price,
		Trigger:     trigger,
		DistancePct: p.Price.Sub(trigger).Div(trigger).Mul(hundred).Round(2),
		Breached:    breached,
	}
}
