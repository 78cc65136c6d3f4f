package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote represents one daily price observation for a symbol on a market.
// Quotes are unique per (Symbol, Market, TradeDate) and never updated by the engine.
type Quote struct {
	ID        uuid.UUID
	Symbol    string
	Market    Market
	Name      string
	TradeDate time.Time
	Open      *decimal.Decimal
	High      *decimal.Decimal
	Low       *decimal.Decimal
	Close     *decimal.Decimal // The price used for valuation; nil when the source had none
	Volume    *int64
}

// HasUsableClose reports whether the quote carries a positive close price
func (q *Quote) HasUsableClose() bool {
	return q.Close != nil && q.Close.IsPositive()
}

// QuoteKey identifies the instrument a quote belongs to
type QuoteKey struct {
	Symbol string
	Market Market
}
