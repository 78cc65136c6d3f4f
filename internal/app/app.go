// Package app wires repositories, adapters and usecases from configuration.
// Both the server and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/adapter/llm"
	"github.com/easyasset/eam-backend/internal/adapter/marketdata"
	"github.com/easyasset/eam-backend/internal/adapter/repository/sqlstore"
	"github.com/easyasset/eam-backend/internal/config"
	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/advisor"
	"github.com/easyasset/eam-backend/internal/usecase/holding"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
	"github.com/easyasset/eam-backend/internal/usecase/quotes"
	"github.com/easyasset/eam-backend/internal/usecase/report"
	"github.com/easyasset/eam-backend/internal/usecase/seeder"
	"github.com/easyasset/eam-backend/internal/usecase/signals"
	"github.com/easyasset/eam-backend/internal/usecase/watchlist"
)

// App holds every wired component
type App struct {
	DB *sqlstore.DB

	HoldingRepo domain.HoldingRepository
	QuoteRepo   domain.QuoteRepository
	TargetRepo  domain.TargetRepository
	ReportRepo  domain.ReportRepository

	Holdings   *holding.HoldingService
	Portfolio  *portfolio.PortfolioService
	PriceCache *quotes.PriceCache
	Quotes     *quotes.Service
	Advisor    *advisor.Advisor // Nil when LLM_PROVIDER is none
	Reports    *report.Generator
	Seeder     *seeder.TargetSeeder
	Watchlist  *watchlist.Service
	Signals    *signals.Service
}

// New opens the database, applies migrations and builds the usecases
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	// 1. Setup Database
	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 2. Initialize Repositories
	a := &App{
		DB:          db,
		HoldingRepo: sqlstore.NewHoldingRepository(db),
		QuoteRepo:   sqlstore.NewQuoteRepository(db),
		TargetRepo:  sqlstore.NewTargetRepository(db),
		ReportRepo:  sqlstore.NewReportRepository(db),
	}
	txRepo := sqlstore.NewTransactionRepository(db)

	// 3. Initialize Services (Use Cases)
	a.Holdings = holding.NewHoldingService(a.HoldingRepo, txRepo, a.QuoteRepo, log)

	a.Portfolio = portfolio.NewPortfolioService(a.HoldingRepo, a.QuoteRepo, a.TargetRepo, log)
	a.Portfolio.DefaultTargets = cfg.TargetsFor

	a.Watchlist = watchlist.NewService(sqlstore.NewWatchlistRepository(db), log)
	a.Signals = signals.NewService(sqlstore.NewSignalRepository(db), a.HoldingRepo, log)

	fetcher := marketdata.NewFallback(log, marketdata.NewEastMoney(nil), marketdata.NewSina(nil))
	a.PriceCache = quotes.NewPriceCache(cfg.PriceCacheTTL, nil)
	a.Quotes = quotes.NewService(a.QuoteRepo, a.HoldingRepo, fetcher, a.PriceCache, log)

	model, err := NewChatModel(ctx, cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	var analyzer report.Analyzer
	if model != nil {
		a.Advisor = advisor.NewAdvisor(model, a.Portfolio, a.QuoteRepo,
			advisor.Models{Fast: cfg.LLMFastModel, Quality: cfg.LLMQualityModel},
			advisor.PromptSettings{
				System:      cfg.Prompt.SystemPrompt,
				Temperature: cfg.Prompt.Temperature,
				MaxTokens:   cfg.Prompt.MaxTokens,
			},
			cfg.AIConcurrency, log)
		analyzer = a.Advisor
	}
	a.Reports = report.NewGenerator(a.Portfolio, analyzer, model, cfg.LLMFastModel, a.ReportRepo, log)

	a.Seeder = seeder.NewTargetSeeder(a.TargetRepo, cfg.Owners(), cfg.TargetsFor, log)

	return a, nil
}

// NewChatModel builds the configured model client. It returns nil, nil when the provider is none.
func NewChatModel(ctx context.Context, cfg *config.Config, log zerolog.Logger) (llm.ChatModel, error) {
	switch cfg.LLMProvider {
	case "none":
		return nil, nil
	case "gemini":
		g, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		return g, nil
	case "gateway":
		return llm.NewGateway(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMContentPath, cfg.LLMTimeout, log), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// Close releases the database connection
func (a *App) Close() error {
	return a.DB.Close()
}
