package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultWatchTheme groups watchlist items added without a theme
const DefaultWatchTheme = "default"

// WatchlistItem is an instrument the owner follows without holding it
type WatchlistItem struct {
	ID        uuid.UUID
	Owner     string
	Symbol    string
	Market    Market
	Theme     string
	Reason    string
	CreatedAt time.Time
}

// Validate ensures the item adheres to domain rules
func (w *WatchlistItem) Validate() error {
	if w.Owner == "" {
		return errors.New("watchlist owner cannot be empty")
	}
	if w.Symbol == "" {
		return errors.New("watchlist symbol cannot be empty")
	}
	if len(w.Symbol) > 20 {
		return errors.New("watchlist symbol is too long")
	}
	if !w.Market.Valid() {
		return ErrInvalidMarket
	}
	if len(w.Theme) > 100 {
		return errors.New("watchlist theme is too long")
	}
	return nil
}
