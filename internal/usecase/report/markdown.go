package report

import (
	"fmt"
	"strings"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/advisor"
	"github.com/easyasset/eam-backend/internal/usecase/alerts"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
)

func renderDaily(title, summary string, snap *portfolio.Snapshot, results []advisor.HoldingResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "> %s\n\n", summary)

	// Allocation
	b.WriteString("## Allocation\n\n")
	fmt.Fprintf(&b, "Total value: %s across %d holdings\n\n", snap.Allocation.TotalValue.StringFixed(2), snap.Allocation.HoldingsCount)
	b.WriteString("| Tier | Target | Actual | Drift | Value |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, a := range snap.Allocation.Allocations {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			a.Tier, formatPct(a.TargetPct), formatPct(a.ActualPct), formatSignedPct(a.DriftPct), a.MarketValue.StringFixed(2))
	}
	b.WriteString("\n")

	// Rebalance
	b.WriteString("## Rebalance\n\n")
	if !snap.Rebalance.NeedsRebalance {
		b.WriteString("No rebalance needed.\n\n")
	} else {
		for _, s := range snap.Rebalance.Suggestions {
			fmt.Fprintf(&b, "- %s **%s** by %s (drift %s)\n", capitalize(string(s.Action)), s.Tier, s.Amount.StringFixed(2), formatSignedPct(s.DriftPct))
		}
		b.WriteString("\n")
	}

	// Positions
	if len(snap.Positions) > 0 {
		b.WriteString("## Positions\n\n")
		b.WriteString("| Symbol | Market | Tier | Quantity | Avg cost | Price | Value | P&L | P&L % | Weight |\n")
		b.WriteString("|---|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, p := range snap.Positions {
			h := p.Holding
			cur := h.Market.Currency()
			price := formatMoney(p.Price, cur)
			if !p.FromQuote {
				price += " *"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				h.Symbol, h.Market, h.Tier, h.Quantity.String(),
				formatMoney(h.AvgCost, cur), price, formatMoney(p.MarketValue, cur),
				formatSignedMoney(p.PnL, cur), formatSignedPct(p.PnLPct), formatPct(p.WeightPct))
		}
		b.WriteString("\n\\* priced at average cost, no quote available\n\n")
	}

	// Price alerts
	if found := alerts.GenerateAlerts(snap.Positions); len(found) > 0 {
		b.WriteString("## Price alerts\n\n")
		for _, a := range found {
			fmt.Fprintf(&b, "- %s\n", alertLine(a))
		}
		b.WriteString("\n")
	}

	// AI commentary
	if len(results) > 0 {
		b.WriteString("## AI commentary\n\n")
		var failed []string
		for _, r := range results {
			if r.Err != nil {
				failed = append(failed, fmt.Sprintf("- %s: %v", r.Position.Holding.Symbol, r.Err))
				continue
			}
			a := r.Analysis
			fmt.Fprintf(&b, "### %s: %s (confidence %s)\n\n", a.Symbol, strings.ToUpper(string(a.Action)), a.Confidence)
			if a.StatusAssessment != "" {
				fmt.Fprintf(&b, "%s\n\n", a.StatusAssessment)
			}
			for _, c := range a.KeyConcerns {
				fmt.Fprintf(&b, "- %s\n", c)
			}
			if len(a.KeyConcerns) > 0 {
				b.WriteString("\n")
			}
			if a.NextCatalyst != "" {
				fmt.Fprintf(&b, "Next catalyst: %s\n\n", a.NextCatalyst)
			}
		}
		if len(failed) > 0 {
			b.WriteString("### Analysis unavailable\n\n")
			b.WriteString(strings.Join(failed, "\n"))
			b.WriteString("\n\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func alertLine(a domain.PriceAlert) string {
	cur := a.Market.Currency()
	label := "stop loss"
	if a.Kind == domain.AlertTakeProfit {
		label = "take profit"
	}
	state := "near"
	if a.Breached {
		state = "hit"
	}
	return fmt.Sprintf("**%s** %s %s at %s, price %s (%s)",
		a.Symbol, label, state, formatMoney(a.Trigger, cur), formatMoney(a.Price, cur), formatSignedPct(a.DistancePct))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
