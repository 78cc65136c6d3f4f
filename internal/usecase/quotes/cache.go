package quotes

import (
	"sync"
	"time"

	"github.com/easyasset/eam-backend/internal/domain"
)

type cacheEntry struct {
	quote     *domain.Quote
	expiresAt time.Time
}

// PriceCache keeps recently fetched quotes for a fixed TTL.
// It is safe for concurrent use.
type PriceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[domain.QuoteKey]cacheEntry
}

// NewPriceCache creates a cache whose entries expire ttl after they are stored.
// A nil clock uses time.Now.
func NewPriceCache(ttl time.Duration, now func() time.Time) *PriceCache {
	if now == nil {
		now = time.Now
	}
	return &PriceCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[domain.QuoteKey]cacheEntry),
	}
}

func cacheKey(symbol string, market domain.Market) domain.QuoteKey {
	return domain.QuoteKey{Symbol: normalizeSymbol(symbol), Market: market}
}

// Get returns the cached quote if present and not expired.
// Expired entries are removed on access.
func (c *PriceCache) Get(symbol string, market domain.Market) (*domain.Quote, bool) {
	key := cacheKey(symbol, market)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.quote, true
}

// Put stores a quote, replacing any previous entry for the instrument
func (c *PriceCache) Put(q *domain.Quote) {
	if q == nil {
		return
	}
	key := cacheKey(q.Symbol, q.Market)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{quote: q, expiresAt: c.now().Add(c.ttl)}
}

// Evict drops the entry for one instrument
func (c *PriceCache) Evict(symbol string, market domain.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, cacheKey(symbol, market))
}

// Purge drops every expired entry and returns how many were removed
func (c *PriceCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not
func (c *PriceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
