package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easyasset/eam-backend/internal/domain"
)

const quoteColumns = `id, symbol, market, name, trade_date, open, high, low, close, volume`

// quoteRepository implements domain.QuoteRepository
type quoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new daily quote repository
func NewQuoteRepository(db *DB) domain.QuoteRepository {
	return &quoteRepository{db: db}
}

// Upsert inserts the quote or replaces the prices stored for the same symbol, market and day
func (r *quoteRepository) Upsert(ctx context.Context, q *domain.Quote) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	query := r.db.Rebind(`
		INSERT INTO daily_quotes (` + quoteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, market, trade_date) DO UPDATE SET
			name = excluded.name,
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)

	volume := sql.NullInt64{}
	if q.Volume != nil {
		volume = sql.NullInt64{Int64: *q.Volume, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		q.ID.String(),
		strings.ToUpper(q.Symbol),
		string(q.Market),
		q.Name,
		formatDate(q.TradeDate),
		nullableDecimal(q.Open),
		nullableDecimal(q.High),
		nullableDecimal(q.Low),
		nullableDecimal(q.Close),
		volume,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent quote for a symbol on a market
func (r *quoteRepository) GetLatest(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	query := r.db.Rebind(`
		SELECT ` + quoteColumns + `
		FROM daily_quotes
		WHERE symbol = ? AND market = ?
		ORDER BY trade_date DESC
		LIMIT 1
	`)

	q, err := scanQuote(r.db.QueryRowContext(ctx, query, strings.ToUpper(symbol), string(market)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no quote found for %s/%s: %w", market, symbol, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest quote: %w", err)
	}

	return q, nil
}

// ListRange retrieves quotes between from and to (inclusive), newest first
func (r *quoteRepository) ListRange(ctx context.Context, symbol string, market domain.Market, from, to time.Time) ([]*domain.Quote, error) {
	query := r.db.Rebind(`
		SELECT ` + quoteColumns + `
		FROM daily_quotes
		WHERE symbol = ? AND market = ? AND trade_date >= ? AND trade_date <= ?
		ORDER BY trade_date DESC
	`)

	rows, err := r.db.QueryContext(ctx, query, strings.ToUpper(symbol), string(market), formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := []*domain.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}

	return quotes, nil
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var (
		q                              domain.Quote
		idStr, market, dateStr         string
		openPx, highPx, lowPx, closePx sql.NullString
		volume                         sql.NullInt64
	)

	if err := row.Scan(&idStr, &q.Symbol, &market, &q.Name, &dateStr, &openPx, &highPx, &lowPx, &closePx, &volume); err != nil {
		return nil, err
	}

	var err error
	if q.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	if q.Market, err = domain.ParseMarket(market); err != nil {
		return nil, err
	}
	if q.TradeDate, err = parseDate(dateStr); err != nil {
		return nil, err
	}
	if q.Open, err = parseNullableDecimal(openPx); err != nil {
		return nil, fmt.Errorf("failed to parse open: %w", err)
	}
	if q.High, err = parseNullableDecimal(highPx); err != nil {
		return nil, fmt.Errorf("failed to parse high: %w", err)
	}
	if q.Low, err = parseNullableDecimal(lowPx); err != nil {
		return nil, fmt.Errorf("failed to parse low: %w", err)
	}
	if q.Close, err = parseNullableDecimal(closePx); err != nil {
		return nil, fmt.Errorf("failed to parse close: %w", err)
	}
	if volume.Valid {
		v := volume.Int64
		q.Volume = &v
	}

	return &q, nil
}
