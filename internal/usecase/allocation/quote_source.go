package allocation

import (
	"strings"

	"github.com/easyasset/eam-backend/internal/domain"
)

// QuoteSource is a read-only view of the latest stored quote per instrument
type QuoteSource interface {
	Latest(symbol string, market domain.Market) (*domain.Quote, bool)
}

// QuoteSnapshot is a map backed QuoteSource captured before a computation starts
type QuoteSnapshot map[domain.QuoteKey]*domain.Quote

// NewQuoteSnapshot builds a snapshot from a list of quotes.
// When several quotes share a key, the one with the latest trade date wins.
func NewQuoteSnapshot(quotes ...*domain.Quote) QuoteSnapshot {
	snap := make(QuoteSnapshot, len(quotes))
	for _, q := range quotes {
		if q == nil {
			continue
		}
		key := domain.QuoteKey{Symbol: strings.ToUpper(q.Symbol), Market: q.Market}
		if existing, ok := snap[key]; ok && existing.TradeDate.After(q.TradeDate) {
			continue
		}
		snap[key] = q
	}
	return snap
}

// Latest implements QuoteSource
func (s QuoteSnapshot) Latest(symbol string, market domain.Market) (*domain.Quote, bool) {
	q, ok := s[domain.QuoteKey{Symbol: strings.ToUpper(symbol), Market: market}]
	return q, ok
}
