package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/easyasset/eam-backend/internal/adapter/grpc"
	"github.com/easyasset/eam-backend/internal/adapter/rest"
	"github.com/easyasset/eam-backend/internal/app"
	"github.com/easyasset/eam-backend/internal/config"
	"github.com/easyasset/eam-backend/internal/trace"
	"github.com/easyasset/eam-backend/internal/usecase/scheduler"
	"github.com/easyasset/eam-backend/pkg/logger"
)

var version = "dev"

const jobTimeout = 10 * time.Minute

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Str("version", version).Str("db_driver", cfg.DBDriver).Msg("Starting eam-backend")

	if err := trace.Init(cfg.TracingEnabled, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise tracing")
	}

	// 2. Database, repositories and services
	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer a.Close()

	if a.Advisor == nil {
		log.Warn().Msg("LLM provider disabled, AI analysis and report commentary are off")
	}

	// 3. Seed default tier targets for configured owners
	if err := a.Seeder.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed tier targets")
	}

	// 4. Scheduled jobs
	sched := scheduler.New(log)
	quoteSync := scheduler.NewQuoteSyncJob(a.Quotes, a.HoldingRepo.ListOwners, jobTimeout, log)
	if err := sched.AddJob(cfg.QuoteSyncSchedule, quoteSync); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule quote sync")
	}
	dailyReport := scheduler.NewDailyReportJob(a.Reports, cfg.Owners(), jobTimeout, log)
	if err := sched.AddJob(cfg.ReportSchedule, dailyReport); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule daily report")
	}
	if err := sched.AddJob("0 */15 * * * *", scheduler.NewCachePurgeJob(a.PriceCache, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache purge")
	}
	sched.Start()

	// 5. HTTP server
	httpServer := rest.New(rest.Config{
		Port:       cfg.HTTPPort,
		Log:        log,
		Version:    version,
		Tokens:     cfg.APITokens,
		LLMTimeout: cfg.LLMTimeout,
		Holdings:   a.Holdings,
		Portfolio:  a.Portfolio,
		Quotes:     a.Quotes,
		Advisor:    a.Advisor,
		Reports:    a.Reports,
		Watchlist:  a.Watchlist,
		Signals:    a.Signals,
	})
	go func() {
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 6. gRPC server with AuthInterceptor
	grpcServer := grpclib.NewServer(
		grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.APITokens)),
	)
	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcadapter.NewServer(a.Holdings, a.Portfolio))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.GRPCPort).Msg("Failed to listen")
	}
	go func() {
		log.Info().Int("port", cfg.GRPCPort).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, httpServer, grpcServer, sched)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(log zerolog.Logger, httpServer *rest.Server, grpcServer *grpclib.Server, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()

	if err := trace.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}
	log.Info().Msg("Servers stopped")
}
