package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

// targetRepository implements domain.TargetRepository
type targetRepository struct {
	db *DB
}

// NewTargetRepository creates a new tier target repository
func NewTargetRepository(db *DB) domain.TargetRepository {
	return &targetRepository{db: db}
}

// Get retrieves the owner's targets. An owner without targets yields an empty map.
func (r *targetRepository) Get(ctx context.Context, owner string) (domain.TierTargets, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`SELECT tier, target_pct FROM tier_targets WHERE owner = ?`), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query tier targets: %w", err)
	}
	defer rows.Close()

	targets := domain.TierTargets{}
	for rows.Next() {
		var tierStr, pctStr string
		if err := rows.Scan(&tierStr, &pctStr); err != nil {
			return nil, fmt.Errorf("failed to scan tier target: %w", err)
		}
		tier, err := domain.ParseTier(tierStr)
		if err != nil {
			return nil, err
		}
		pct, err := decimal.NewFromString(pctStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse target_pct: %w", err)
		}
		targets[tier] = pct
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tier targets: %w", err)
	}

	return targets, nil
}

// Save replaces the owner's targets
func (r *targetRepository) Save(ctx context.Context, owner string, targets domain.TierTargets) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, r.db.Rebind(`DELETE FROM tier_targets WHERE owner = ?`), owner); err != nil {
		return fmt.Errorf("failed to clear tier targets: %w", err)
	}

	insert := r.db.Rebind(`INSERT INTO tier_targets (owner, tier, target_pct) VALUES (?, ?, ?)`)
	for _, tier := range domain.Tiers() {
		pct, ok := targets[tier]
		if !ok {
			continue
		}
		if _, err := dbTx.ExecContext(ctx, insert, owner, string(tier), pct.String()); err != nil {
			return fmt.Errorf("failed to insert tier target: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
