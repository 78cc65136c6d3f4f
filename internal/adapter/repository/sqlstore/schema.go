package sqlstore

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS holdings (
		id                TEXT PRIMARY KEY,
		owner             TEXT NOT NULL,
		symbol            TEXT NOT NULL,
		market            TEXT NOT NULL,
		tier              TEXT NOT NULL,
		quantity          TEXT NOT NULL,
		avg_cost          TEXT NOT NULL,
		first_buy_date    TEXT NOT NULL,
		buy_reason        TEXT NOT NULL DEFAULT '',
		stop_loss_price   TEXT,
		take_profit_price TEXT,
		keywords          TEXT NOT NULL DEFAULT '[]',
		notes             TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_holdings_owner_status ON holdings (owner, status)`,
	`CREATE TABLE IF NOT EXISTS holding_transactions (
		id           TEXT PRIMARY KEY,
		holding_id   TEXT NOT NULL REFERENCES holdings (id) ON DELETE CASCADE,
		action       TEXT NOT NULL,
		quantity     TEXT NOT NULL,
		price        TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		trade_date   TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_holding_transactions_holding ON holding_transactions (holding_id)`,
	`CREATE TABLE IF NOT EXISTS daily_quotes (
		id         TEXT PRIMARY KEY,
		symbol     TEXT NOT NULL,
		market     TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		trade_date TEXT NOT NULL,
		open       TEXT,
		high       TEXT,
		low        TEXT,
		close      TEXT,
		volume     BIGINT,
		UNIQUE (symbol, market, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS tier_targets (
		owner      TEXT NOT NULL,
		tier       TEXT NOT NULL,
		target_pct TEXT NOT NULL,
		PRIMARY KEY (owner, tier)
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id         TEXT PRIMARY KEY,
		owner      TEXT NOT NULL,
		kind       TEXT NOT NULL,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_owner_created ON reports (owner, created_at)`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		id         TEXT PRIMARY KEY,
		owner      TEXT NOT NULL,
		symbol     TEXT NOT NULL,
		market     TEXT NOT NULL,
		theme      TEXT NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE (owner, symbol, market)
	)`,
	`CREATE TABLE IF NOT EXISTS signals (
		id              TEXT PRIMARY KEY,
		owner           TEXT NOT NULL,
		signal_type     TEXT NOT NULL,
		sector          TEXT NOT NULL DEFAULT '',
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		severity        TEXT NOT NULL,
		status          TEXT NOT NULL,
		source          TEXT NOT NULL,
		data            TEXT,
		related_symbols TEXT NOT NULL DEFAULT '[]',
		holding_id      TEXT,
		created_at      TEXT NOT NULL,
		expires_at      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_owner_created ON signals (owner, created_at)`,
}

// Migrate creates every table and index that does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
