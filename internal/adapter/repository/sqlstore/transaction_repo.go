package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

const transactionColumns = `id, holding_id, action, quantity, price, total_amount, reason, trade_date, created_at`

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new holding transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// RecordTrade updates the holding and inserts the transaction in a database transaction
func (r *transactionRepository) RecordTrade(ctx context.Context, holding *domain.Holding, tx *domain.Transaction) error {
	// Start a database transaction
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := updateHolding(ctx, r.db, dbTx, holding); err != nil {
		return err
	}

	if err := insertTransaction(ctx, r.db, dbTx, tx); err != nil {
		return err
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByHolding retrieves the transactions of a holding, newest first
func (r *transactionRepository) ListByHolding(ctx context.Context, holdingID uuid.UUID) ([]*domain.Transaction, error) {
	query := r.db.Rebind(`
		SELECT ` + transactionColumns + `
		FROM holding_transactions
		WHERE holding_id = ?
		ORDER BY trade_date DESC, created_at DESC
	`)

	rows, err := r.db.QueryContext(ctx, query, holdingID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		var (
			tx                              domain.Transaction
			idStr, holdingIDStr, action     string
			quantityStr, priceStr, totalStr string
			dateStr, createdStr             string
		)
		if err := rows.Scan(&idStr, &holdingIDStr, &action, &quantityStr, &priceStr, &totalStr, &tx.Reason, &dateStr, &createdStr); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if tx.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse id: %w", err)
		}
		if tx.HoldingID, err = uuid.Parse(holdingIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse holding_id: %w", err)
		}
		if tx.Action, err = domain.ParseTradeAction(action); err != nil {
			return nil, err
		}
		if tx.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		if tx.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		if tx.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("failed to parse total_amount: %w", err)
		}
		if tx.Date, err = parseDate(dateStr); err != nil {
			return nil, err
		}
		if tx.CreatedAt, err = parseTime(createdStr); err != nil {
			return nil, err
		}

		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func insertTransaction(ctx context.Context, db *DB, ex execer, tx *domain.Transaction) error {
	query := db.Rebind(`
		INSERT INTO holding_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := ex.ExecContext(ctx, query,
		tx.ID.String(),
		tx.HoldingID.String(),
		string(tx.Action),
		tx.Quantity.String(),
		tx.Price.String(),
		tx.TotalAmount.String(),
		tx.Reason,
		formatDate(tx.Date),
		formatTime(tx.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}
