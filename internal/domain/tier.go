package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Market is the trading venue of a holding
type Market string

const (
	MarketUS Market = "US"
	MarketHK Market = "HK"
	MarketCN Market = "CN"
)

// ParseMarket converts a user supplied string into a Market.
// Unknown venues are rejected instead of being mapped to a default.
func ParseMarket(s string) (Market, error) {
	switch Market(strings.ToUpper(strings.TrimSpace(s))) {
	case MarketUS:
		return MarketUS, nil
	case MarketHK:
		return MarketHK, nil
	case MarketCN:
		return MarketCN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMarket, s)
	}
}

// Currency returns the ISO 4217 code prices on this market are quoted in
func (m Market) Currency() string {
	switch m {
	case MarketUS:
		return "USD"
	case MarketHK:
		return "HKD"
	case MarketCN:
		return "CNY"
	default:
		return ""
	}
}

// Valid reports whether m is one of the supported venues
func (m Market) Valid() bool {
	_, err := ParseMarket(string(m))
	return err == nil
}

// Tier represents the risk bucket a holding belongs to
type Tier string

const (
	TierStable Tier = "stable"
	TierMedium Tier = "medium"
	TierGamble Tier = "gamble"
)

// Tiers returns every tier in canonical order (lowest risk first).
// Allocation output and rebalance suggestions are always listed in this order.
func Tiers() []Tier {
	return []Tier{TierStable, TierMedium, TierGamble}
}

// ParseTier converts a user supplied string into a Tier
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierStable:
		return TierStable, nil
	case TierMedium:
		return TierMedium, nil
	case TierGamble:
		return TierGamble, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
}

// Valid reports whether t is one of the three tiers
func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}

// TierTargets maps each tier to its target share of the portfolio, in percent
type TierTargets map[Tier]decimal.Decimal

// DefaultTierTargets returns the 40/30/30 split used when an owner has not configured targets
func DefaultTierTargets() TierTargets {
	return TierTargets{
		TierStable: decimal.NewFromInt(40),
		TierMedium: decimal.NewFromInt(30),
		TierGamble: decimal.NewFromInt(30),
	}
}

// Validate ensures every tier has a non-negative target and the targets sum to 100
func (tt TierTargets) Validate() error {
	if len(tt) != len(Tiers()) {
		return errors.New("tier targets must define exactly stable, medium and gamble")
	}

	sum := decimal.Zero
	for _, tier := range Tiers() {
		pct, ok := tt[tier]
		if !ok {
			return fmt.Errorf("missing target for tier %s", tier)
		}
		if pct.IsNegative() {
			return fmt.Errorf("target for tier %s must not be negative", tier)
		}
		sum = sum.Add(pct)
	}

	if !sum.Equal(decimal.NewFromInt(100)) {
		return fmt.Errorf("tier targets must sum to 100, got %s", sum.String())
	}

	return nil
}
