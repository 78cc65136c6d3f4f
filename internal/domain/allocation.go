package domain

import "github.com/shopspring/decimal"

// Allocation is the derived comparison of one tier against its target.
// It is recomputed on every request and never persisted.
type Allocation struct {
	Tier        Tier
	TargetPct   decimal.Decimal
	ActualPct   decimal.Decimal // Rounded to 2 decimal places
	DriftPct    decimal.Decimal // ActualPct - TargetPct, positive means overweight
	MarketValue decimal.Decimal // Rounded to 2 decimal places
}

// RebalanceAction tells the user which way to move a tier
type RebalanceAction string

const (
	RebalanceReduce   RebalanceAction = "reduce"
	RebalanceIncrease RebalanceAction = "increase"
)

// RebalanceSuggestion is emitted for a tier whose drift exceeds the threshold
type RebalanceSuggestion struct {
	Tier     Tier
	Action   RebalanceAction
	Amount   decimal.Decimal // Money to move, in portfolio value units
	DriftPct decimal.Decimal
}
