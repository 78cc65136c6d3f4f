package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/easyasset/eam-backend/internal/domain"
)

const reportColumns = `id, owner, kind, title, content, created_at`

// reportRepository implements domain.ReportRepository
type reportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB) domain.ReportRepository {
	return &reportRepository{db: db}
}

// Create stores a new report
func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	query := r.db.Rebind(`INSERT INTO reports (` + reportColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		report.ID.String(),
		report.Owner,
		string(report.Kind),
		report.Title,
		report.Content,
		formatTime(report.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by its ID, scoped to the owner
func (r *reportRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.Report, error) {
	query := r.db.Rebind(`SELECT ` + reportColumns + ` FROM reports WHERE id = ? AND owner = ?`)

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id.String(), owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// GetLatest retrieves the owner's most recent report of the given kind
func (r *reportRepository) GetLatest(ctx context.Context, owner string, kind domain.ReportKind) (*domain.Report, error) {
	query := r.db.Rebind(`
		SELECT ` + reportColumns + `
		FROM reports
		WHERE owner = ? AND kind = ?
		ORDER BY created_at DESC
		LIMIT 1
	`)

	report, err := scanReport(r.db.QueryRowContext(ctx, query, owner, string(kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no %s report for %s: %w", kind, owner, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	return report, nil
}

// List retrieves the owner's most recent reports
func (r *reportRepository) List(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.Rebind(`
		SELECT ` + reportColumns + `
		FROM reports
		WHERE owner = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)

	rows, err := r.db.QueryContext(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []*domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		report            domain.Report
		idStr, kind, date string
	)

	if err := row.Scan(&idStr, &report.Owner, &kind, &report.Title, &report.Content, &date); err != nil {
		return nil, err
	}

	var err error
	if report.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	report.Kind = domain.ReportKind(kind)
	if report.CreatedAt, err = parseTime(date); err != nil {
		return nil, err
	}

	return &report, nil
}
