// Package marketdata fetches real-time quotes for CN and HK listings from
// public web endpoints.
package marketdata

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/domain"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNoData is returned when a source answered but had no usable price
var ErrNoData = errors.New("no quote data")

// Fetcher retrieves the current quote of one instrument
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error)
}

// isShanghai reports whether a CN code trades in Shanghai (funds 5xx, shares 6xx, B shares 9xx, convertibles 110/113)
func isShanghai(symbol string) bool {
	for _, prefix := range []string{"5", "6", "9", "110", "113"} {
		if strings.HasPrefix(symbol, prefix) {
			return true
		}
	}
	return false
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fallback tries each fetcher in order and returns the first quote found
type Fallback struct {
	fetchers []Fetcher
	log      zerolog.Logger
}

// NewFallback chains fetchers, primary first
func NewFallback(log zerolog.Logger, fetchers ...Fetcher) *Fallback {
	return &Fallback{
		fetchers: fetchers,
		log:      log.With().Str("component", "marketdata").Logger(),
	}
}

func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.fetchers))
	for _, fetcher := range f.fetchers {
		names = append(names, fetcher.Name())
	}
	return strings.Join(names, ">")
}

// Fetch returns the first successful quote. When every source fails the errors are joined.
// An unsupported market is reported as domain.ErrUnsupportedMarket without trying further sources.
func (f *Fallback) Fetch(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	var errs []error
	for _, fetcher := range f.fetchers {
		q, err := fetcher.Fetch(ctx, symbol, market)
		if err == nil {
			return q, nil
		}
		if errors.Is(err, domain.ErrUnsupportedMarket) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.Debug().Err(err).Str("source", fetcher.Name()).Str("symbol", symbol).Str("market", string(market)).Msg("Quote source failed")
		errs = append(errs, err)
	}

	f.log.Warn().Str("symbol", symbol).Str("market", string(market)).Msg("All quote sources failed")
	return nil, errors.Join(errs...)
}
