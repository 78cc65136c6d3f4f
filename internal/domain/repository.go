package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HoldingRepository defines the interface for holding persistence operations
type HoldingRepository interface {
	// Create creates a new holding
	Create(ctx context.Context, holding *Holding) error

	// GetByID retrieves a holding by its ID, scoped to the owner
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*Holding, error)

	// List retrieves the owner's holdings ordered by tier then symbol
	List(ctx context.Context, owner string, filter HoldingFilter) ([]*Holding, error)

	// ListActive retrieves the owner's active holdings
	ListActive(ctx context.Context, owner string) ([]*Holding, error)

	// ListOwners returns every owner with at least one active holding
	ListOwners(ctx context.Context) ([]string, error)

	// Update persists every mutable field of the holding
	Update(ctx context.Context, holding *Holding) error

	// Delete removes a holding and its transactions
	Delete(ctx context.Context, owner string, id uuid.UUID) error
}

// TransactionRepository defines the interface for holding transaction persistence operations
type TransactionRepository interface {
	// RecordTrade stores the transaction and the updated holding atomically
	RecordTrade(ctx context.Context, holding *Holding, tx *Transaction) error

	// ListByHolding retrieves the transactions of a holding, newest first
	ListByHolding(ctx context.Context, holdingID uuid.UUID) ([]*Transaction, error)
}

// QuoteRepository defines the interface for daily quote persistence operations
type QuoteRepository interface {
	// Upsert inserts the quote or replaces the one stored for the same symbol, market and day
	Upsert(ctx context.Context, quote *Quote) error

	// GetLatest retrieves the most recent quote for a symbol on a market
	GetLatest(ctx context.Context, symbol string, market Market) (*Quote, error)

	// ListRange retrieves quotes between from and to (inclusive), newest first
	ListRange(ctx context.Context, symbol string, market Market, from, to time.Time) ([]*Quote, error)
}

// TargetRepository defines the interface for tier target persistence operations
type TargetRepository interface {
	// Get retrieves the owner's targets. An owner without targets yields an empty map.
	Get(ctx context.Context, owner string) (TierTargets, error)

	// Save replaces the owner's targets
	Save(ctx context.Context, owner string, targets TierTargets) error
}

// ReportRepository defines the interface for report persistence operations
type ReportRepository interface {
	// Create stores a new report
	Create(ctx context.Context, report *Report) error

	// GetByID retrieves a report by its ID, scoped to the owner
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*Report, error)

	// List retrieves the owner's most recent reports
	List(ctx context.Context, owner string, limit int) ([]*Report, error)

	// GetLatest retrieves the owner's most recent report of the given kind
	GetLatest(ctx context.Context, owner string, kind ReportKind) (*Report, error)
}

// WatchlistRepository defines the interface for watchlist persistence operations
type WatchlistRepository interface {
	// Create stores a new item. An instrument already on the owner's list yields ErrConflict.
	Create(ctx context.Context, item *WatchlistItem) error

	// GetByID retrieves an item by its ID, scoped to the owner
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*WatchlistItem, error)

	// List retrieves the owner's items, newest first
	List(ctx context.Context, owner string) ([]*WatchlistItem, error)

	// Update persists the theme and reason of the item
	Update(ctx context.Context, item *WatchlistItem) error

	// Delete removes an item
	Delete(ctx context.Context, owner string, id uuid.UUID) error
}

// SignalRepository defines the interface for signal persistence operations
type SignalRepository interface {
	// Create stores a new signal
	Create(ctx context.Context, signal *Signal) error

	// GetByID retrieves a signal by its ID, scoped to the owner
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*Signal, error)

	// List retrieves the owner's signals matching the filter, newest first
	List(ctx context.Context, owner string, filter SignalFilter) ([]*Signal, error)

	// UpdateStatus sets the status of a signal
	UpdateStatus(ctx context.Context, owner string, id uuid.UUID, status SignalStatus) error

	// Delete removes a signal
	Delete(ctx context.Context, owner string, id uuid.UUID) error
}
