package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/easyasset/eam-backend/internal/domain"
)

const watchlistColumns = `id, owner, symbol, market, theme, reason, created_at`

// watchlistRepository implements domain.WatchlistRepository
type watchlistRepository struct {
	db *DB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *DB) domain.WatchlistRepository {
	return &watchlistRepository{db: db}
}

// Create stores a new item. An instrument already on the owner's list yields domain.ErrConflict.
func (r *watchlistRepository) Create(ctx context.Context, item *domain.WatchlistItem) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(*) FROM watchlist WHERE owner = ? AND symbol = ? AND market = ?`),
		item.Owner, item.Symbol, string(item.Market),
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check watchlist: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%s/%s is already on the watchlist: %w", item.Symbol, item.Market, domain.ErrConflict)
	}

	query := r.db.Rebind(`INSERT INTO watchlist (` + watchlistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		item.ID.String(),
		item.Owner,
		item.Symbol,
		string(item.Market),
		item.Theme,
		item.Reason,
		formatTime(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert watchlist item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by its ID, scoped to the owner
func (r *watchlistRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.WatchlistItem, error) {
	query := r.db.Rebind(`SELECT ` + watchlistColumns + ` FROM watchlist WHERE id = ? AND owner = ?`)

	item, err := scanWatchlistItem(r.db.QueryRowContext(ctx, query, id.String(), owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("watchlist item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get watchlist item: %w", err)
	}

	return item, nil
}

// List retrieves the owner's items, newest first
func (r *watchlistRepository) List(ctx context.Context, owner string) ([]*domain.WatchlistItem, error) {
	query := r.db.Rebind(`SELECT ` + watchlistColumns + ` FROM watchlist WHERE owner = ? ORDER BY created_at DESC, symbol`)

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	items := []*domain.WatchlistItem{}
	for rows.Next() {
		item, err := scanWatchlistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return items, nil
}

// Update persists the theme and reason of the item
func (r *watchlistRepository) Update(ctx context.Context, item *domain.WatchlistItem) error {
	query := r.db.Rebind(`UPDATE watchlist SET theme = ?, reason = ? WHERE id = ? AND owner = ?`)

	res, err := r.db.ExecContext(ctx, query, item.Theme, item.Reason, item.ID.String(), item.Owner)
	if err != nil {
		return fmt.Errorf("failed to update watchlist item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("watchlist item %s: %w", item.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes an item
func (r *watchlistRepository) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM watchlist WHERE id = ? AND owner = ?`), id.String(), owner)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("watchlist item %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanWatchlistItem(row rowScanner) (*domain.WatchlistItem, error) {
	var (
		item                     domain.WatchlistItem
		idStr, market, createdAt string
	)

	if err := row.Scan(&idStr, &item.Owner, &item.Symbol, &market, &item.Theme, &item.Reason, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if item.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	item.Market = domain.Market(market)
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &item, nil
}
