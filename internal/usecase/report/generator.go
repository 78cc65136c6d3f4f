// Package report renders and stores portfolio reports.
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/easyasset/eam-backend/internal/adapter/llm"
	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/trace"
	"github.com/easyasset/eam-backend/internal/usecase/advisor"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
)

const summaryPrompt = "You are a professional investment adviser. Summarise today's portfolio in one sentence of at most 30 words, naming what needs attention. Return only the sentence."

// SnapshotSource provides the valued positions of an owner
type SnapshotSource interface {
	Snapshot(ctx context.Context, owner string) (*portfolio.Snapshot, error)
}

// Analyzer comments on valued positions
type Analyzer interface {
	AnalyzePositions(ctx context.Context, positions []portfolio.Position) []advisor.HoldingResult
}

// Generator builds daily reports
type Generator struct {
	Portfolio  SnapshotSource
	Analyzer   Analyzer      // Optional; without it the report has no AI section
	Summarizer llm.ChatModel // Optional; without it a template summary is used
	Model      string
	ReportRepo domain.ReportRepository
	Now        func() time.Time
	log        zerolog.Logger
}

// NewGenerator creates a new Generator. analyzer and summarizer may be nil.
func NewGenerator(
	snapshots SnapshotSource,
	analyzer Analyzer,
	summarizer llm.ChatModel,
	model string,
	reportRepo domain.ReportRepository,
	log zerolog.Logger,
) *Generator {
	return &Generator{
		Portfolio:  snapshots,
		Analyzer:   analyzer,
		Summarizer: summarizer,
		Model:      model,
		ReportRepo: reportRepo,
		Now:        time.Now,
		log:        log.With().Str("component", "report_generator").Logger(),
	}
}

// Daily generates, stores and returns the owner's daily report.
// Failed AI analyses are listed in the report instead of failing it.
func (g *Generator) Daily(ctx context.Context, owner string) (*domain.Report, error) {
	ctx, span := trace.StartSpan(ctx, "report.daily")
	defer span.End()

	// 1. Portfolio state
	snap, err := g.Portfolio.Snapshot(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	// 2. AI commentary per holding
	var results []advisor.HoldingResult
	if g.Analyzer != nil && len(snap.Positions) > 0 {
		results = g.Analyzer.AnalyzePositions(ctx, snap.Positions)
	}

	// 3. One line summary
	summary := g.summary(ctx, snap)

	now := g.Now().UTC()
	report := &domain.Report{
		ID:        uuid.New(),
		Owner:     owner,
		Kind:      domain.ReportKindDaily,
		Title:     "Daily report " + now.Format("2006-01-02"),
		CreatedAt: now,
	}
	report.Content = renderDaily(report.Title, summary, snap, results)

	if err := g.ReportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	g.log.Info().Str("owner", owner).Str("report_id", report.ID.String()).Msg("Daily report generated")
	return report, nil
}

// Get retrieves one of the owner's reports
func (g *Generator) Get(ctx context.Context, owner string, id uuid.UUID) (*domain.Report, error) {
	return g.ReportRepo.GetByID(ctx, owner, id)
}

// List retrieves the owner's most recent reports
func (g *Generator) List(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	return g.ReportRepo.List(ctx, owner, limit)
}

// Latest retrieves the owner's most recent report of a kind
func (g *Generator) Latest(ctx context.Context, owner string, kind domain.ReportKind) (*domain.Report, error) {
	return g.ReportRepo.GetLatest(ctx, owner, kind)
}

// RenderHTML converts the report's Markdown to HTML
func RenderHTML(r *domain.Report) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Content), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) summary(ctx context.Context, snap *portfolio.Snapshot) string {
	fallback := templateSummary(snap)
	if g.Summarizer == nil || len(snap.Positions) == 0 {
		return fallback
	}

	var lines []string
	for _, p := range snap.Positions {
		lines = append(lines, fmt.Sprintf("%s (%s, %s): weight %s, P&L %s",
			p.Holding.Symbol, p.Holding.Market, p.Holding.Tier, formatPct(p.WeightPct), formatSignedPct(p.PnLPct)))
	}
	for _, a := range snap.Allocation.Allocations {
		lines = append(lines, fmt.Sprintf("Tier %s: actual %s vs target %s", a.Tier, formatPct(a.ActualPct), formatPct(a.TargetPct)))
	}

	raw, err := g.Summarizer.Chat(ctx, llm.Request{
		Model:       g.Model,
		Messages:    llm.WithSystem(summaryPrompt, strings.Join(lines, "\n")),
		Temperature: 0.3,
	})
	if err != nil {
		g.log.Warn().Err(err).Msg("Failed to generate AI summary")
		return fallback
	}
	if s := strings.Trim(strings.TrimSpace(raw), `"'`); s != "" {
		return s
	}
	return fallback
}

func templateSummary(snap *portfolio.Snapshot) string {
	if len(snap.Positions) == 0 {
		return "No active holdings."
	}
	off := len(snap.Rebalance.Suggestions)
	if off == 0 {
		return fmt.Sprintf("%d holdings, every tier within its target band.", len(snap.Positions))
	}
	return fmt.Sprintf("%d holdings, %d tiers outside their target band.", len(snap.Positions), off)
}
