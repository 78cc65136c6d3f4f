package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportKind identifies the generator that produced a report
type ReportKind string

const (
	ReportKindDaily ReportKind = "daily"
)

// Report is a rendered, persisted portfolio report
type Report struct {
	ID        uuid.UUID
	Owner     string
	Kind      ReportKind
	Title     string
	Content   string // Markdown
	CreatedAt time.Time
}
