package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingStatus represents the lifecycle state of a holding
type HoldingStatus string

const (
	HoldingStatusActive HoldingStatus = "active"
	HoldingStatusClosed HoldingStatus = "closed"
)

// ParseHoldingStatus converts a user supplied string into a HoldingStatus
func ParseHoldingStatus(s string) (HoldingStatus, error) {
	switch HoldingStatus(s) {
	case HoldingStatusActive, HoldingStatusClosed:
		return HoldingStatus(s), nil
	default:
		return "", errors.New("invalid holding status: must be active or closed")
	}
}

// Holding represents a position in one symbol on one market, owned by a single user
type Holding struct {
	ID              uuid.UUID
	Owner           string
	Symbol          string
	Market          Market
	Tier            Tier
	Quantity        decimal.Decimal // Zero once the holding is closed
	AvgCost         decimal.Decimal // Cost basis per unit, used as price fallback
	FirstBuyDate    time.Time
	BuyReason       string
	StopLossPrice   *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
	Keywords        []string
	Notes           string
	Status          HoldingStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate ensures the holding adheres to domain rules
func (h *Holding) Validate() error {
	if h.Owner == "" {
		return errors.New("holding owner cannot be empty")
	}
	if h.Symbol == "" {
		return errors.New("holding symbol cannot be empty")
	}
	if !h.Market.Valid() {
		return ErrInvalidMarket
	}
	if !h.Tier.Valid() {
		return ErrInvalidTier
	}
	if h.AvgCost.LessThanOrEqual(decimal.Zero) {
		return errors.New("average cost must be positive")
	}
	if h.Quantity.IsNegative() {
		return errors.New("quantity must not be negative")
	}

	switch h.Status {
	case HoldingStatusActive:
		if !h.Quantity.IsPositive() {
			return errors.New("active holding must have positive quantity")
		}
	case HoldingStatusClosed:
		if !h.Quantity.IsZero() {
			return errors.New("closed holding must have zero quantity")
		}
	default:
		return errors.New("invalid holding status: must be active or closed")
	}

	return nil
}

// IsActive reports whether the holding is still open
func (h *Holding) IsActive() bool {
	return h.Status == HoldingStatusActive
}

// CostBasis returns quantity times average cost
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgCost)
}

// HoldingFilter narrows a holdings listing. Nil fields are not applied.
type HoldingFilter struct {
	Tier   *Tier
	Status *HoldingStatus
}
