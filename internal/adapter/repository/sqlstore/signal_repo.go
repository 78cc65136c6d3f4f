package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/easyasset/eam-backend/internal/domain"
)

const signalColumns = `id, owner, signal_type, sector, title, description, severity, status, source,
	data, related_symbols, holding_id, created_at, expires_at`

const defaultSignalLimit = 50

// signalRepository implements domain.SignalRepository
type signalRepository struct {
	db *DB
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *DB) domain.SignalRepository {
	return &signalRepository{db: db}
}

// Create stores a new signal
func (r *signalRepository) Create(ctx context.Context, s *domain.Signal) error {
	var data sql.NullString
	if s.Data != nil {
		raw, err := json.Marshal(s.Data)
		if err != nil {
			return fmt.Errorf("failed to encode signal data: %w", err)
		}
		data = sql.NullString{String: string(raw), Valid: true}
	}
	symbols, err := json.Marshal(nonNilStrings(s.RelatedSymbols))
	if err != nil {
		return fmt.Errorf("failed to encode related symbols: %w", err)
	}

	var holdingID, expiresAt sql.NullString
	if s.HoldingID != nil {
		holdingID = sql.NullString{String: s.HoldingID.String(), Valid: true}
	}
	if s.ExpiresAt != nil {
		expiresAt = sql.NullString{String: formatTime(*s.ExpiresAt), Valid: true}
	}

	query := r.db.Rebind(`
		INSERT INTO signals (` + signalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = r.db.ExecContext(ctx, query,
		s.ID.String(),
		s.Owner,
		string(s.Type),
		s.Sector,
		s.Title,
		s.Description,
		string(s.Severity),
		string(s.Status),
		s.Source,
		data,
		string(symbols),
		holdingID,
		formatTime(s.CreatedAt),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	return nil
}

// GetByID retrieves a signal by its ID, scoped to the owner
func (r *signalRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.Signal, error) {
	query := r.db.Rebind(`SELECT ` + signalColumns + ` FROM signals WHERE id = ? AND owner = ?`)

	s, err := scanSignal(r.db.QueryRowContext(ctx, query, id.String(), owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("signal %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}

	return s, nil
}

// List retrieves the owner's signals matching the filter, newest first
func (r *signalRepository) List(ctx context.Context, owner string, filter domain.SignalFilter) ([]*domain.Signal, error) {
	var where strings.Builder
	args := []interface{}{owner}
	where.WriteString(`owner = ?`)

	if filter.Type != nil {
		where.WriteString(` AND signal_type = ?`)
		args = append(args, string(*filter.Type))
	}
	if filter.Sector != nil {
		where.WriteString(` AND sector = ?`)
		args = append(args, *filter.Sector)
	}
	if filter.Status != nil {
		where.WriteString(` AND status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.MinSeverity != nil {
		levels := filter.MinSeverity.AtLeast()
		where.WriteString(` AND severity IN (?` + strings.Repeat(`, ?`, len(levels)-1) + `)`)
		for _, sev := range levels {
			args = append(args, string(sev))
		}
	}
	if filter.Since != nil {
		where.WriteString(` AND created_at >= ?`)
		args = append(args, formatTime(*filter.Since))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSignalLimit
	}
	args = append(args, limit)

	query := r.db.Rebind(`SELECT ` + signalColumns + ` FROM signals WHERE ` + where.String() +
		` ORDER BY created_at DESC LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []*domain.Signal{}
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return signals, nil
}

// UpdateStatus sets the status of a signal
func (r *signalRepository) UpdateStatus(ctx context.Context, owner string, id uuid.UUID, status domain.SignalStatus) error {
	query := r.db.Rebind(`UPDATE signals SET status = ? WHERE id = ? AND owner = ?`)

	res, err := r.db.ExecContext(ctx, query, string(status), id.String(), owner)
	if err != nil {
		return fmt.Errorf("failed to update signal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("signal %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a signal
func (r *signalRepository) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM signals WHERE id = ? AND owner = ?`), id.String(), owner)
	if err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("signal %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanSignal(row rowScanner) (*domain.Signal, error) {
	var (
		s                                domain.Signal
		idStr, kind, severity, status    string
		symbolsStr, createdStr           string
		data, holdingIDStr, expiresAtStr sql.NullString
	)

	if err := row.Scan(
		&idStr,
		&s.Owner,
		&kind,
		&s.Sector,
		&s.Title,
		&s.Description,
		&severity,
		&status,
		&s.Source,
		&data,
		&symbolsStr,
		&holdingIDStr,
		&createdStr,
		&expiresAtStr,
	); err != nil {
		return nil, err
	}

	var err error
	if s.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	s.Type = domain.SignalType(kind)
	s.Severity = domain.SignalSeverity(severity)
	s.Status = domain.SignalStatus(status)

	if data.Valid {
		if err := json.Unmarshal([]byte(data.String), &s.Data); err != nil {
			return nil, fmt.Errorf("failed to parse signal data: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(symbolsStr), &s.RelatedSymbols); err != nil {
		return nil, fmt.Errorf("failed to parse related symbols: %w", err)
	}
	if holdingIDStr.Valid {
		hid, err := uuid.Parse(holdingIDStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holding id: %w", err)
		}
		s.HoldingID = &hid
	}
	if s.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if expiresAtStr.Valid {
		t, err := parseTime(expiresAtStr.String)
		if err != nil {
			return nil, err
		}
		s.ExpiresAt = &t
	}

	return &s, nil
}
