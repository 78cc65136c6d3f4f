package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

const holdingColumns = `id, owner, symbol, market, tier, quantity, avg_cost, first_buy_date, buy_reason,
	stop_loss_price, take_profit_price, keywords, notes, status, created_at, updated_at`

// Lowest risk tier first
const tierOrder = `CASE tier WHEN 'stable' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END`

// holdingRepository implements domain.HoldingRepository
type holdingRepository struct {
	db *DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *DB) domain.HoldingRepository {
	return &holdingRepository{db: db}
}

// Create creates a new holding
func (r *holdingRepository) Create(ctx context.Context, h *domain.Holding) error {
	keywords, err := json.Marshal(nonNilStrings(h.Keywords))
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO holdings (` + holdingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = r.db.ExecContext(ctx, query,
		h.ID.String(),
		h.Owner,
		h.Symbol,
		string(h.Market),
		string(h.Tier),
		h.Quantity.String(),
		h.AvgCost.String(),
		formatDate(h.FirstBuyDate),
		h.BuyReason,
		nullableDecimal(h.StopLossPrice),
		nullableDecimal(h.TakeProfitPrice),
		string(keywords),
		h.Notes,
		string(h.Status),
		formatTime(h.CreatedAt),
		formatTime(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	return nil
}

// GetByID retrieves a holding by its ID, scoped to the owner
func (r *holdingRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.Holding, error) {
	query := r.db.Rebind(`SELECT ` + holdingColumns + ` FROM holdings WHERE id = ? AND owner = ?`)

	h, err := scanHolding(r.db.QueryRowContext(ctx, query, id.String(), owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("holding %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	return h, nil
}

// List retrieves the owner's holdings ordered by tier then symbol
func (r *holdingRepository) List(ctx context.Context, owner string, filter domain.HoldingFilter) ([]*domain.Holding, error) {
	var where strings.Builder
	args := []interface{}{owner}
	where.WriteString(`owner = ?`)

	if filter.Tier != nil {
		where.WriteString(` AND tier = ?`)
		args = append(args, string(*filter.Tier))
	}
	if filter.Status != nil {
		where.WriteString(` AND status = ?`)
		args = append(args, string(*filter.Status))
	}

	query := r.db.Rebind(`SELECT ` + holdingColumns + ` FROM holdings WHERE ` + where.String() +
		` ORDER BY ` + tierOrder + `, symbol`)

	return r.query(ctx, query, args...)
}

// ListActive retrieves the owner's active holdings
func (r *holdingRepository) ListActive(ctx context.Context, owner string) ([]*domain.Holding, error) {
	status := domain.HoldingStatusActive
	return r.List(ctx, owner, domain.HoldingFilter{Status: &status})
}

// ListOwners returns every owner with at least one active holding
func (r *holdingRepository) ListOwners(ctx context.Context) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT owner FROM holdings WHERE status = ? ORDER BY owner`)

	rows, err := r.db.QueryContext(ctx, query, string(domain.HoldingStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owners: %w", err)
	}

	return owners, nil
}

// Update persists every mutable field of the holding
func (r *holdingRepository) Update(ctx context.Context, h *domain.Holding) error {
	return updateHolding(ctx, r.db, r.db.DB, h)
}

// Delete removes a holding and its transactions
func (r *holdingRepository) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Children first, transactions reference the holding
	if _, err := dbTx.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM holding_transactions
		WHERE holding_id IN (SELECT id FROM holdings WHERE id = ? AND owner = ?)
	`), id.String(), owner); err != nil {
		return fmt.Errorf("failed to delete holding transactions: %w", err)
	}

	res, err := dbTx.ExecContext(ctx, r.db.Rebind(`DELETE FROM holdings WHERE id = ? AND owner = ?`), id.String(), owner)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("holding %s: %w", id, domain.ErrNotFound)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *holdingRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []*domain.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func updateHolding(ctx context.Context, db *DB, ex execer, h *domain.Holding) error {
	keywords, err := json.Marshal(nonNilStrings(h.Keywords))
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	query := db.Rebind(`
		UPDATE holdings
		SET tier = ?, quantity = ?, avg_cost = ?, buy_reason = ?, stop_loss_price = ?,
			take_profit_price = ?, keywords = ?, notes = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner = ?
	`)

	res, err := ex.ExecContext(ctx, query,
		string(h.Tier),
		h.Quantity.String(),
		h.AvgCost.String(),
		h.BuyReason,
		nullableDecimal(h.StopLossPrice),
		nullableDecimal(h.TakeProfitPrice),
		string(keywords),
		h.Notes,
		string(h.Status),
		formatTime(h.UpdatedAt),
		h.ID.String(),
		h.Owner,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("holding %s: %w", h.ID, domain.ErrNotFound)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row rowScanner) (*domain.Holding, error) {
	var (
		h                           domain.Holding
		idStr, market, tier, status string
		quantityStr, avgCostStr     string
		firstBuyStr, keywordsStr    string
		createdStr, updatedStr      string
		stopLoss, takeProfit        sql.NullString
	)

	err := row.Scan(
		&idStr,
		&h.Owner,
		&h.Symbol,
		&market,
		&tier,
		&quantityStr,
		&avgCostStr,
		&firstBuyStr,
		&h.BuyReason,
		&stopLoss,
		&takeProfit,
		&keywordsStr,
		&h.Notes,
		&status,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return nil, err
	}

	if h.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	if h.Market, err = domain.ParseMarket(market); err != nil {
		return nil, err
	}
	if h.Tier, err = domain.ParseTier(tier); err != nil {
		return nil, err
	}
	if h.Status, err = domain.ParseHoldingStatus(status); err != nil {
		return nil, err
	}
	if h.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if h.AvgCost, err = decimal.NewFromString(avgCostStr); err != nil {
		return nil, fmt.Errorf("failed to parse avg_cost: %w", err)
	}
	if h.StopLossPrice, err = parseNullableDecimal(stopLoss); err != nil {
		return nil, fmt.Errorf("failed to parse stop_loss_price: %w", err)
	}
	if h.TakeProfitPrice, err = parseNullableDecimal(takeProfit); err != nil {
		return nil, fmt.Errorf("failed to parse take_profit_price: %w", err)
	}
	if h.FirstBuyDate, err = parseDate(firstBuyStr); err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywordsStr), &h.Keywords); err != nil {
		return nil, fmt.Errorf("failed to parse keywords: %w", err)
	}

	return &h, nil
}

func nonNilStrings(k []string) []string {
	if k == nil {
		return []string{}
	}
	return k
}

func nullableDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullableDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
