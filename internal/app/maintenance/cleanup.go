package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/logger"
)

const (
	defaultAuditRetentionDays = 365
	defaultPurgeAfter         = 30 * 24 * time.Hour
	defaultPurgeSpec          = "@daily"
	defaultAuditSpec          = "@daily"
	defaultCacheSpec          = "@hourly"
)

// ExpiringCache is implemented by cache stores that need explicit expiry sweeps.
type ExpiringCache interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance tasks: hard deleting resources that
// were soft deleted long enough ago, pruning stale audit logs and sweeping expired
// cache entries.
type Cleaner struct {
	resources  *services.ResourceService
	audit      *services.AuditService
	cache      ExpiringCache
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger
	enabled    bool
	retention  int
	purgeAfter time.Duration

	purgeSchedule string
	auditSchedule string
	cacheSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used to compute the purge cutoff.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithPurgeAfter sets how long a soft deleted resource is kept before it is purged.
func WithPurgeAfter(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.purgeAfter = d
		}
	}
}

// WithCache enables the expired cache entry sweep.
func WithCache(store ExpiringCache) Option {
	return func(cleaner *Cleaner) {
		cleaner.cache = store
	}
}

// WithPurgeSchedule overrides the cron expression for resource purges.
func WithPurgeSchedule(expr string) Option {
	return func(cleaner *Cleaner) {
		if expr != "" {
			cleaner.purgeSchedule = expr
		}
	}
}

// WithAuditSchedule overrides the cron expression for audit retention enforcement.
func WithAuditSchedule(expr string) Option {
	return func(cleaner *Cleaner) {
		if expr != "" {
			cleaner.auditSchedule = expr
		}
	}
}

// WithCacheSchedule overrides the cron expression for cache sweeps.
func WithCacheSchedule(expr string) Option {
	return func(cleaner *Cleaner) {
		if expr != "" {
			cleaner.cacheSchedule = expr
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding job being skipped.
func NewCleaner(resources *services.ResourceService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		resources:     resources,
		audit:         audit,
		now:           time.Now,
		retention:     defaultAuditRetentionDays,
		purgeAfter:    defaultPurgeAfter,
		purgeSchedule: defaultPurgeSpec,
		auditSchedule: defaultAuditSpec,
		cacheSchedule: defaultCacheSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.resources != nil || cleaner.audit != nil || cleaner.cache != nil

	return cleaner
}

// Start registers jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.resources != nil {
		if _, err := c.cron.AddFunc(c.purgeSchedule, func() {
			if err := c.purgeDeleted(context.Background()); err != nil {
				c.log.Warn("resource purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.cache != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := c.cache.PurgeExpired(context.Background()); err != nil {
				c.log.Warn("cache sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured jobs sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.resources != nil {
		errs = multierr.Append(errs, c.purgeDeleted(ctx))
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.cache != nil {
		if _, err := c.cache.PurgeExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) purgeDeleted(ctx context.Context) error {
	cutoff := c.now().Add(-c.purgeAfter)
	report, err := c.resources.PurgeDeletedBefore(ctx, cutoff)

	fields := []zap.Field{zap.Time("cutoff", cutoff), zap.Int64("skipped", report.Skipped)}
	for kind, n := range report.Purged {
		fields = append(fields, zap.Int64("purged_"+kind, n))
	}
	c.log.Info("purged deleted resources", fields...)

	return err
}
