package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeAction represents the direction of a holding transaction
type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
)

// ParseTradeAction converts a user supplied string into a TradeAction
func ParseTradeAction(s string) (TradeAction, error) {
	switch TradeAction(s) {
	case TradeActionBuy, TradeActionSell:
		return TradeAction(s), nil
	default:
		return "", errors.New("invalid trade action: must be buy or sell")
	}
}

// Transaction represents a single buy or sell against a holding
type Transaction struct {
	ID          uuid.UUID
	HoldingID   uuid.UUID
	Action      TradeAction
	Quantity    decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Price       decimal.Decimal
	TotalAmount decimal.Decimal // Quantity * Price
	Reason      string
	Date        time.Time
	CreatedAt   time.Time
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.HoldingID == uuid.Nil {
		return errors.New("transaction must reference a holding")
	}

	if t.Action != TradeActionBuy && t.Action != TradeActionSell {
		return errors.New("invalid trade action: must be buy or sell")
	}

	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction quantity must be positive")
	}

	if t.Price.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction price must be positive")
	}

	// Total must be consistent with quantity and price
	if !t.TotalAmount.Equal(t.Quantity.Mul(t.Price)) {
		return errors.New("transaction total must equal quantity times price")
	}

	return nil
}

// ApplyTo mutates the holding as if the transaction was executed.
// Buys re-weight the average cost; sells reduce quantity and close the holding at zero.
func (t *Transaction) ApplyTo(h *Holding) error {
	switch t.Action {
	case TradeActionBuy:
		newQuantity := h.Quantity.Add(t.Quantity)
		newTotalCost := h.Quantity.Mul(h.AvgCost).Add(t.TotalAmount)
		h.AvgCost = newTotalCost.Div(newQuantity)
		h.Quantity = newQuantity
		h.Status = HoldingStatusActive
	case TradeActionSell:
		if t.Quantity.GreaterThan(h.Quantity) {
			return ErrInsufficientQuantity
		}
		h.Quantity = h.Quantity.Sub(t.Quantity)
		if h.Quantity.LessThanOrEqual(decimal.Zero) {
			h.Quantity = decimal.Zero
			h.Status = HoldingStatusClosed
		}
	default:
		return errors.New("invalid trade action: must be buy or sell")
	}
	return nil
}
