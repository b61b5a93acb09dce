package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/regionsvc/pkg/logger"
	"github.com/charlesng35/regionsvc/pkg/metrics"
)

const (
	defaultPurgeSpec  = "@hourly"
	defaultWarmSpec   = "@every 10m"
	defaultJobTimeout = time.Minute

	jobCachePurge = "cache_purge"
	jobRegionWarm = "region_warm"
)

// CachePurger removes expired cache entries from a backend that does not expire
// them on its own.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Warmer preloads cached data.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Scheduler runs periodic maintenance for the region cache: purging expired
// rows from the database cache and keeping the active-region list warm.
type Scheduler struct {
	purger  CachePurger
	warmer  Warmer
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration

	purgeSchedule string
	warmSchedule  string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithPurgeSchedule overrides the cron specification for cache purging. The
// string "off" disables the job.
func WithPurgeSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.purgeSchedule = spec
		}
	}
}

// WithWarmSchedule overrides the cron specification for cache warm-up. The
// string "off" disables the job.
func WithWarmSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.warmSchedule = spec
		}
	}
}

// WithJobTimeout bounds each job run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewScheduler constructs a Scheduler. A nil dependency skips its job.
func NewScheduler(purger CachePurger, warmer Warmer, opts ...Option) *Scheduler {
	s := &Scheduler{
		purger:        purger,
		warmer:        warmer,
		timeout:       defaultJobTimeout,
		purgeSchedule: defaultPurgeSpec,
		warmSchedule:  defaultWarmSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s
}

// Start registers the enabled jobs and launches the scheduler.
func (s *Scheduler) Start() error {
	registered := 0

	if s.purger != nil && s.purgeSchedule != "off" {
		if _, err := s.cron.AddFunc(s.purgeSchedule, func() { _ = s.purge(context.Background()) }); err != nil {
			return err
		}
		registered++
	}

	if s.warmer != nil && s.warmSchedule != "off" {
		if _, err := s.cron.AddFunc(s.warmSchedule, func() { _ = s.warm(context.Background()) }); err != nil {
			return err
		}
		registered++
	}

	if registered > 0 {
		s.cron.Start()
	}
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every configured job sequentially.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.purger != nil {
		errs = multierr.Append(errs, s.purge(ctx))
	}
	if s.warmer != nil {
		errs = multierr.Append(errs, s.warm(ctx))
	}
	return errs
}

func (s *Scheduler) purge(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		metrics.MaintenanceRuns.WithLabelValues(jobCachePurge, "failure").Inc()
		s.log.Warn("cache purge failed", zap.Error(err))
		return err
	}
	metrics.MaintenanceRuns.WithLabelValues(jobCachePurge, "success").Inc()
	if removed > 0 {
		s.log.Debug("purged expired cache entries", zap.Int64("removed", removed))
	}
	return nil
}

func (s *Scheduler) warm(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.warmer.Warm(ctx); err != nil {
		metrics.MaintenanceRuns.WithLabelValues(jobRegionWarm, "failure").Inc()
		s.log.Warn("region cache warm-up failed", zap.Error(err))
		return err
	}
	metrics.MaintenanceRuns.WithLabelValues(jobRegionWarm, "success").Inc()
	return nil
}
