package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertKind names the price level a holding is approaching
type AlertKind string

const (
	AlertStopLoss   AlertKind = "stop_loss"
	AlertTakeProfit AlertKind = "take_profit"
)

// PriceAlert flags a holding whose price is within the alert margin of,
// or already past, its stop loss or take profit level.
// Alerts are derived on every request and never persisted.
type PriceAlert struct {
	HoldingID   uuid.UUID
	Symbol      string
	Market      Market
	Kind        AlertKind
	Price       decimal.Decimal
	Trigger     decimal.Decimal
	DistancePct decimal.Decimal // (Price - Trigger) / Trigger * 100, rounded to 2 decimal places
	Breached    bool            // Price is at or past the trigger
}

// HealthWarningKind names a portfolio level risk
type HealthWarningKind string

const (
	WarningConcentration HealthWarningKind = "concentration"
	WarningCashHeadroom  HealthWarningKind = "cash_headroom"
	WarningFXExposure    HealthWarningKind = "fx_exposure"
	WarningTierDrift     HealthWarningKind = "tier_drift"
)

// HealthWarning is one finding of a portfolio health assessment
type HealthWarning struct {
	Kind    HealthWarningKind
	Subject string          // Symbol, market or tier the warning is about
	Pct     decimal.Decimal // The measured share or drift, in percent
	Message string
}

// HealthRating buckets a health score
type HealthRating string

const (
	RatingHealthy  HealthRating = "healthy"
	RatingFair     HealthRating = "fair"
	RatingWatch    HealthRating = "watch"
	RatingHighRisk HealthRating = "high_risk"
	RatingNone     HealthRating = "n/a" // No active holdings
)

// HealthReport scores a portfolio from 0 to 100 and lists what cost it points
type HealthReport struct {
	Score     int
	Rating    HealthRating
	CashPct   decimal.Decimal
	MarketPct map[Market]decimal.Decimal
	Warnings  []HealthWarning
}
