package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/usecase/advisor"
	"github.com/easyasset/eam-backend/internal/usecase/holding"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
	"github.com/easyasset/eam-backend/internal/usecase/quotes"
	"github.com/easyasset/eam-backend/internal/usecase/report"
	"github.com/easyasset/eam-backend/internal/usecase/signals"
	"github.com/easyasset/eam-backend/internal/usecase/watchlist"
)

const (
	// requestTimeout bounds ordinary API requests
	requestTimeout = 60 * time.Second

	// modelMargin is added to the model timeout for routes that wait on the language model
	modelMargin = 30 * time.Second
)

// modelRouteTimeout is how long AI and report generation routes may run
func modelRouteTimeout(llmTimeout time.Duration) time.Duration {
	if t := llmTimeout + modelMargin; t > requestTimeout {
		return t
	}
	return requestTimeout
}

// Config holds server configuration
type Config struct {
	Port       int
	Log        zerolog.Logger
	Version    string
	Tokens     map[string]string // API token -> owner
	LLMTimeout time.Duration     // Timeout of a single model call

	Holdings  *holding.HoldingService
	Portfolio *portfolio.PortfolioService
	Quotes    *quotes.Service
	Advisor   *advisor.Advisor // Nil disables the /api/ai routes
	Reports   *report.Generator
	Watchlist *watchlist.Service
	Signals   *signals.Service
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	port   int

	modelTimeout time.Duration

	version   string
	tokens    map[string]string
	holdings  *holding.HoldingService
	portfolio *portfolio.PortfolioService
	quotes    *quotes.Service
	advisor   *advisor.Advisor
	reports   *report.Generator
	watchlist *watchlist.Service
	signals   *signals.Service
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "http_server").Logger(),
		port:      cfg.Port,
		version:   cfg.Version,
		tokens:    cfg.Tokens,
		holdings:  cfg.Holdings,
		portfolio: cfg.Portfolio,
		quotes:    cfg.Quotes,
		advisor:   cfg.Advisor,
		reports:   cfg.Reports,
		watchlist: cfg.Watchlist,
		signals:   cfg.Signals,

		modelTimeout: modelRouteTimeout(cfg.LLMTimeout),
	}
	if s.version == "" {
		s.version = "dev"
	}

	s.setupMiddleware()
	s.setupRoutes()

	// The write deadline must outlast the slowest route, or the client sees a dropped connection
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.modelTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes.
// Routes waiting on the language model get a longer timeout than the rest.
func (s *Server) setupRoutes() {
	standard := middleware.Timeout(requestTimeout)
	model := middleware.Timeout(s.modelTimeout)

	// Health check
	s.router.With(standard).Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(standard)

			r.Route("/holdings", func(r chi.Router) {
				r.Post("/", s.handleCreateHolding)
				r.Get("/", s.handleListHoldings)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetHolding)
					r.Patch("/", s.handleUpdateHolding)
					r.Delete("/", s.handleDeleteHolding)
					r.Post("/transactions", s.handleRecordTransaction)
					r.Get("/transactions", s.handleListTransactions)
					r.Post("/preview-transaction", s.handlePreviewPosition)
					r.Post("/update-position", s.handleUpdatePosition)
				})
			})

			r.Route("/portfolio", func(r chi.Router) {
				r.Get("/overview", s.handleOverview)
				r.Get("/rebalance-suggestions", s.handleRebalance)
				r.Get("/positions", s.handlePositions)
				r.Get("/alerts", s.handleAlerts)
				r.Get("/health", s.handleHealthCheck)
				r.Get("/targets", s.handleGetTargets)
				r.Put("/targets", s.handleSetTargets)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/latest/{symbol}", s.handleLatestQuote)
				r.Get("/history/{symbol}", s.handleQuoteHistory)
				r.Post("/sync/{symbol}", s.handleSyncQuote)
			})

			r.Route("/watchlist", func(r chi.Router) {
				r.Get("/", s.handleListWatchlist)
				r.Post("/", s.handleAddWatchlist)
				r.Patch("/{id}", s.handleUpdateWatchlist)
				r.Delete("/{id}", s.handleRemoveWatchlist)
			})

			r.Route("/signals", func(r chi.Router) {
				r.Post("/", s.handleCreateSignal)
				r.Get("/", s.handleListSignals)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSignal)
					r.Patch("/", s.handleUpdateSignal)
					r.Delete("/", s.handleDeleteSignal)
					r.Post("/mark-read", s.handleMarkSignalRead)
				})
			})
		})

		if s.advisor != nil {
			r.With(model).Route("/ai", func(r chi.Router) {
				r.Get("/holdings", s.handleAnalyzeHoldings)
				r.Post("/holdings/{id}", s.handleAnalyzeHolding)
				r.Get("/advice", s.handleAdvice)
				r.Post("/summarize", s.handleSummarize)
			})
		}

		r.Route("/reports", func(r chi.Router) {
			r.With(model).Post("/daily", s.handleGenerateDaily)
			r.With(standard).Get("/", s.handleListReports)
			r.With(standard).Get("/{id}", s.handleGetReport)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
