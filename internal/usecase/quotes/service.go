package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/adapter/marketdata"
	"github.com/easyasset/eam-backend/internal/domain"
)

// Service serves quotes from the cache, the live sources and the quote store
type Service struct {
	QuoteRepo   domain.QuoteRepository
	HoldingRepo domain.HoldingRepository
	Fetcher     marketdata.Fetcher
	Cache       *PriceCache
	log         zerolog.Logger
}

// NewService creates a new quote Service
func NewService(
	quoteRepo domain.QuoteRepository,
	holdingRepo domain.HoldingRepository,
	fetcher marketdata.Fetcher,
	cache *PriceCache,
	log zerolog.Logger,
) *Service {
	return &Service{
		QuoteRepo:   quoteRepo,
		HoldingRepo: holdingRepo,
		Fetcher:     fetcher,
		Cache:       cache,
		log:         log.With().Str("component", "quote_service").Logger(),
	}
}

// SyncSummary counts the outcome of a bulk sync
type SyncSummary struct {
	Synced  int
	Skipped int // Markets no live source serves
	Failed  int
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Latest returns the current quote for an instrument.
// Live quotes are cached; when every live source fails the latest stored quote is returned.
func (s *Service) Latest(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol cannot be empty", domain.ErrInvalidInput)
	}
	if !market.Valid() {
		return nil, domain.ErrInvalidMarket
	}

	if q, ok := s.Cache.Get(symbol, market); ok {
		return q, nil
	}

	q, fetchErr := s.Fetcher.Fetch(ctx, symbol, market)
	if fetchErr == nil {
		s.Cache.Put(q)
		return q, nil
	}

	stored, err := s.QuoteRepo.GetLatest(ctx, symbol, market)
	if err == nil {
		s.log.Debug().Err(fetchErr).Str("symbol", symbol).Msg("Live quote unavailable, using stored quote")
		return stored, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no quote for %s/%s: %w", symbol, market, domain.ErrNotFound)
	}
	return nil, err
}

// Sync fetches today's quote and stores it
func (s *Service) Sync(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if !market.Valid() {
		return nil, domain.ErrInvalidMarket
	}

	q, err := s.Fetcher.Fetch(ctx, symbol, market)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", symbol, market, err)
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if err := s.QuoteRepo.Upsert(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to store quote: %w", err)
	}
	s.Cache.Put(q)

	return q, nil
}

// SyncActiveHoldings syncs every distinct instrument held by the given owners.
// Individual failures are logged and counted; only a failure to list holdings is returned.
func (s *Service) SyncActiveHoldings(ctx context.Context, owners []string) (SyncSummary, error) {
	var summary SyncSummary

	seen := make(map[domain.QuoteKey]bool)
	var keys []domain.QuoteKey
	for _, owner := range owners {
		holdings, err := s.HoldingRepo.ListActive(ctx, owner)
		if err != nil {
			return summary, fmt.Errorf("failed to list holdings for %s: %w", owner, err)
		}
		for _, h := range holdings {
			key := cacheKey(h.Symbol, h.Market)
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Market != keys[j].Market {
			return keys[i].Market < keys[j].Market
		}
		return keys[i].Symbol < keys[j].Symbol
	})

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_, err := s.Sync(ctx, key.Symbol, key.Market)
		switch {
		case err == nil:
			summary.Synced++
		case errors.Is(err, domain.ErrUnsupportedMarket):
			summary.Skipped++
		default:
			summary.Failed++
			s.log.Warn().Err(err).Str("symbol", key.Symbol).Str("market", string(key.Market)).Msg("Quote sync failed")
		}
	}

	s.log.Info().
		Int("synced", summary.Synced).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Quote sync finished")

	return summary, nil
}

// History returns stored quotes between from and to, newest first
func (s *Service) History(ctx context.Context, symbol string, market domain.Market, from, to time.Time) ([]*domain.Quote, error) {
	if !market.Valid() {
		return nil, domain.ErrInvalidMarket
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: history range ends before it starts", domain.ErrInvalidInput)
	}
	return s.QuoteRepo.ListRange(ctx, normalizeSymbol(symbol), market, from, to)
}
