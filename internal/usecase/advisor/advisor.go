// Package advisor asks a language model for an opinion on each holding.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/easyasset/eam-backend/internal/adapter/llm"
	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/trace"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
)

// historyWindow is how far back quotes are read for technicals
const historyWindow = 90 * 24 * time.Hour

// SnapshotSource provides the valued positions of an owner
type SnapshotSource interface {
	Snapshot(ctx context.Context, owner string) (*portfolio.Snapshot, error)
}

// Models names the model used for cheap bulk calls and for careful single calls
type Models struct {
	Fast    string
	Quality string
}

// PromptSettings tunes every request
type PromptSettings struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// HoldingResult is the outcome of analysing one holding: exactly one of Analysis and Err is set
type HoldingResult struct {
	Position portfolio.Position
	Analysis *Analysis
	Err      error
}

// Advisor runs model analyses over an owner's holdings
type Advisor struct {
	Model       llm.ChatModel
	Portfolio   SnapshotSource
	QuoteRepo   domain.QuoteRepository
	Models      Models
	Prompt      PromptSettings
	Concurrency int
	Now         func() time.Time
	log         zerolog.Logger
}

// NewAdvisor creates a new Advisor. Concurrency below 1 is treated as 1.
func NewAdvisor(
	model llm.ChatModel,
	snapshots SnapshotSource,
	quoteRepo domain.QuoteRepository,
	models Models,
	prompt PromptSettings,
	concurrency int,
	log zerolog.Logger,
) *Advisor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Advisor{
		Model:       model,
		Portfolio:   snapshots,
		QuoteRepo:   quoteRepo,
		Models:      models,
		Prompt:      prompt,
		Concurrency: concurrency,
		Now:         time.Now,
		log:         log.With().Str("component", "advisor").Logger(),
	}
}

// Technicals loads recent quotes of a holding and computes its indicators
func (a *Advisor) Technicals(ctx context.Context, h *domain.Holding) (Technicals, error) {
	to := a.Now()
	quotes, err := a.QuoteRepo.ListRange(ctx, h.Symbol, h.Market, to.Add(-historyWindow), to)
	if err != nil {
		return Technicals{}, fmt.Errorf("failed to load quote history: %w", err)
	}
	// ListRange is newest first
	ascending := make([]*domain.Quote, len(quotes))
	for i, q := range quotes {
		ascending[len(quotes)-1-i] = q
	}
	return ComputeTechnicals(ascending), nil
}

// AnalyzeHolding asks the model about one position.
// quality selects the quality model instead of the fast one.
func (a *Advisor) AnalyzeHolding(ctx context.Context, pos portfolio.Position, tech Technicals, quality bool) (*Analysis, error) {
	model := a.Models.Fast
	if quality {
		model = a.Models.Quality
	}

	ctx, span := trace.StartSpan(ctx, "advisor.analyze_holding")
	defer span.End()
	span.SetAttributes(
		attribute.String("holding.symbol", pos.Holding.Symbol),
		attribute.String("llm.model", model),
	)

	raw, err := a.Model.Chat(ctx, llm.Request{
		Model:       model,
		Messages:    llm.WithSystem(a.systemPrompt(), buildHoldingPrompt(pos, tech)),
		Temperature: a.Prompt.Temperature,
		MaxTokens:   a.Prompt.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	analysis, err := parseAnalysis(raw, pos.Holding.Symbol, model, a.Now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return analysis, nil
}

// AnalyzeHoldingByID analyses one active holding of the owner, with its technicals.
// A holding the owner does not hold yields domain.ErrNotFound. A model failure is
// reported in the result, like in AnalyzeAll.
func (a *Advisor) AnalyzeHoldingByID(ctx context.Context, owner string, id uuid.UUID, quality bool) (*HoldingResult, error) {
	snap, err := a.Portfolio.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}

	for _, pos := range snap.Positions {
		if pos.Holding.ID != id {
			continue
		}
		result := &HoldingResult{Position: pos}
		tech, err := a.Technicals(ctx, pos.Holding)
		if err != nil {
			a.log.Debug().Err(err).Str("symbol", pos.Holding.Symbol).Msg("Analysing without technicals")
		}
		result.Analysis, result.Err = a.AnalyzeHolding(ctx, pos, tech, quality)
		if result.Err != nil {
			a.log.Warn().Err(result.Err).Str("symbol", pos.Holding.Symbol).Bool("quality", quality).Msg("Failed to analyze holding")
		}
		return result, nil
	}

	return nil, fmt.Errorf("active holding %s: %w", id, domain.ErrNotFound)
}

// AnalyzeAll analyses every active holding of the owner with the fast model.
// At most Concurrency analyses run at once. Results keep the order of the positions
// and a failed analysis is reported in its result without affecting the others.
// Only a failure to load the portfolio is returned as an error.
func (a *Advisor) AnalyzeAll(ctx context.Context, owner string) ([]HoldingResult, error) {
	snap, err := a.Portfolio.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return a.AnalyzePositions(ctx, snap.Positions), nil
}

// AnalyzePositions fans out over already valued positions
func (a *Advisor) AnalyzePositions(ctx context.Context, positions []portfolio.Position) []HoldingResult {
	ctx, span := trace.StartSpan(ctx, "advisor.analyze_all")
	defer span.End()
	span.SetAttributes(attribute.Int("holdings.count", len(positions)))

	results := make([]HoldingResult, len(positions))

	var g errgroup.Group
	g.SetLimit(a.Concurrency)

	for i, pos := range positions {
		g.Go(func() error {
			results[i] = a.analyzePosition(ctx, pos)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	a.log.Info().Int("holdings", len(results)).Int("failed", failed).Msg("Holding analysis finished")

	return results
}

func (a *Advisor) analyzePosition(ctx context.Context, pos portfolio.Position) HoldingResult {
	result := HoldingResult{Position: pos}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	tech, err := a.Technicals(ctx, pos.Holding)
	if err != nil {
		// Technicals are optional context for the prompt
		a.log.Debug().Err(err).Str("symbol", pos.Holding.Symbol).Msg("Analysing without technicals")
	}

	result.Analysis, result.Err = a.AnalyzeHolding(ctx, pos, tech, false)
	if result.Err != nil {
		a.log.Warn().Err(result.Err).Str("symbol", pos.Holding.Symbol).Msg("Failed to analyze holding")
	}
	return result
}

// PortfolioAdvice renders the analyses of the owner's holdings as plain text
func (a *Advisor) PortfolioAdvice(ctx context.Context, owner string) (string, error) {
	results, err := a.AnalyzeAll(ctx, owner)
	if err != nil {
		return "", err
	}
	return FormatAdvice(results), nil
}

// FormatAdvice renders analysis results as plain text, failed analyses are counted at the end
func FormatAdvice(results []HoldingResult) string {
	if len(results) == 0 {
		return "No active holdings to analyze."
	}

	var b strings.Builder
	b.WriteString("Portfolio AI advice\n\n")

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		an := r.Analysis
		fmt.Fprintf(&b, "[%s] %s (confidence: %s)\n", an.Symbol, strings.ToUpper(string(an.Action)), an.Confidence)
		fmt.Fprintf(&b, "  Assessment: %s\n", an.StatusAssessment)
		if len(an.KeyConcerns) > 0 {
			fmt.Fprintf(&b, "  Concerns: %s\n", strings.Join(an.KeyConcerns, ", "))
		}
		if an.NextCatalyst != "" {
			fmt.Fprintf(&b, "  Next catalyst: %s\n", an.NextCatalyst)
		}
		b.WriteString("\n")
	}

	if failed > 0 {
		fmt.Fprintf(&b, "%d of %d holdings could not be analyzed.\n", failed, len(results))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (a *Advisor) systemPrompt() string {
	if a.Prompt.System == "" {
		return analysisFormat
	}
	return a.Prompt.System + "\n\n" + analysisFormat
}

func buildHoldingPrompt(pos portfolio.Position, tech Technicals) string {
	h := pos.Holding
	lines := []string{
		"Analyze the following holding:",
		fmt.Sprintf("Symbol: %s (%s)", h.Symbol, h.Market),
		fmt.Sprintf("Tier: %s | Weight: %s%%", h.Tier, pos.WeightPct.StringFixed(2)),
		fmt.Sprintf("Quantity: %s | Avg cost: %s | Price: %s", h.Quantity.String(), h.AvgCost.StringFixed(2), pos.Price.StringFixed(2)),
		fmt.Sprintf("Total P&L: %s (%s%%)", signed(pos.PnL), signed(pos.PnLPct)),
	}
	if !h.FirstBuyDate.IsZero() {
		lines = append(lines, "First buy date: "+h.FirstBuyDate.Format("2006-01-02"))
	}
	if h.BuyReason != "" {
		lines = append(lines, "Buy reason: "+h.BuyReason)
	}
	if h.StopLossPrice != nil {
		lines = append(lines, "Stop loss: "+h.StopLossPrice.StringFixed(2))
	}
	if h.TakeProfitPrice != nil {
		lines = append(lines, "Take profit: "+h.TakeProfitPrice.StringFixed(2))
	}
	if len(h.Keywords) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(h.Keywords, ", "))
	}

	var trend []string
	if tech.Change5d != nil {
		trend = append(trend, fmt.Sprintf("5d %+.1f%%", *tech.Change5d))
	}
	if tech.Change20d != nil {
		trend = append(trend, fmt.Sprintf("20d %+.1f%%", *tech.Change20d))
	}
	if len(trend) > 0 {
		lines = append(lines, "Short term: "+strings.Join(trend, ", "))
	}
	if tech.SMA20 != nil && *tech.SMA20 > 0 {
		price := pos.Price.InexactFloat64()
		diff := (price - *tech.SMA20) / *tech.SMA20 * 100
		lines = append(lines, fmt.Sprintf("SMA20: %.2f (price %+.1f%% from average)", *tech.SMA20, diff))
	}
	if tech.RSI14 != nil {
		lines = append(lines, fmt.Sprintf("RSI14: %.1f", *tech.RSI14))
	}
	if tech.Volatility != nil {
		lines = append(lines, fmt.Sprintf("Annualised volatility: %.1f%%", *tech.Volatility))
	}
	if tech.High != nil && tech.Low != nil {
		lines = append(lines, fmt.Sprintf("Recent range: %.2f-%.2f", *tech.Low, *tech.High))
	}

	return strings.Join(lines, "\n")
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}
