package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/quotes"
)

// QuoteSyncer stores today's quote of every held instrument
type QuoteSyncer interface {
	SyncActiveHoldings(ctx context.Context, owners []string) (quotes.SyncSummary, error)
}

// OwnerLister returns the owners whose holdings should be synced
type OwnerLister func(ctx context.Context) ([]string, error)

// QuoteSyncJob refreshes stored quotes for all active holdings
type QuoteSyncJob struct {
	syncer  QuoteSyncer
	owners  OwnerLister
	timeout time.Duration
	log     zerolog.Logger
}

// NewQuoteSyncJob creates a new quote sync job
func NewQuoteSyncJob(syncer QuoteSyncer, owners OwnerLister, timeout time.Duration, log zerolog.Logger) *QuoteSyncJob {
	return &QuoteSyncJob{
		syncer:  syncer,
		owners:  owners,
		timeout: timeout,
		log:     log.With().Str("job", "quote_sync").Logger(),
	}
}

func (j *QuoteSyncJob) Name() string { return "quote_sync" }

// Run syncs quotes; individual instrument failures do not fail the job
func (j *QuoteSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	owners, err := j.owners(ctx)
	if err != nil {
		return fmt.Errorf("failed to list owners: %w", err)
	}

	summary, err := j.syncer.SyncActiveHoldings(ctx, owners)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		j.log.Warn().Int("failed", summary.Failed).Msg("Some quotes could not be synced")
	}
	return nil
}

// ReportGenerator produces an owner's daily report
type ReportGenerator interface {
	Daily(ctx context.Context, owner string) (*domain.Report, error)
}

// DailyReportJob generates the daily report of every owner
type DailyReportJob struct {
	generator ReportGenerator
	owners    []string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewDailyReportJob creates a new daily report job
func NewDailyReportJob(generator ReportGenerator, owners []string, timeout time.Duration, log zerolog.Logger) *DailyReportJob {
	return &DailyReportJob{
		generator: generator,
		owners:    owners,
		timeout:   timeout,
		log:       log.With().Str("job", "daily_report").Logger(),
	}
}

func (j *DailyReportJob) Name() string { return "daily_report" }

// Run generates every owner's report; one owner failing does not stop the others
func (j *DailyReportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	var errs []error
	for _, owner := range j.owners {
		report, err := j.generator.Daily(ctx, owner)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", owner, err))
			continue
		}
		j.log.Info().Str("owner", owner).Str("report_id", report.ID.String()).Msg("Report ready")
	}
	return errors.Join(errs...)
}

// CachePurger drops expired cache entries
type CachePurger interface {
	Purge() int
}

// CachePurgeJob keeps the price cache from holding expired quotes
type CachePurgeJob struct {
	cache CachePurger
	log   zerolog.Logger
}

// NewCachePurgeJob creates a new cache purge job
func NewCachePurgeJob(cache CachePurger, log zerolog.Logger) *CachePurgeJob {
	return &CachePurgeJob{cache: cache, log: log.With().Str("job", "cache_purge").Logger()}
}

func (j *CachePurgeJob) Name() string { return "cache_purge" }

func (j *CachePurgeJob) Run() error {
	if n := j.cache.Purge(); n > 0 {
		j.log.Debug().Int("removed", n).Msg("Purged expired quotes")
	}
	return nil
}
