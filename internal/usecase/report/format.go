package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatMoney renders an amount in the currency's display format, e.g. $1,234.56.
// Unknown currencies fall back to two decimals.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

func formatPct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func formatSignedPct(d decimal.Decimal) string {
	if d.IsNegative() {
		return formatPct(d)
	}
	return "+" + formatPct(d)
}

func formatSignedMoney(amount decimal.Decimal, currency string) string {
	if amount.IsNegative() {
		return "-" + formatMoney(amount.Abs(), currency)
	}
	return "+" + formatMoney(amount, currency)
}
