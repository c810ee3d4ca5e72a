package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/api"
	"github.com/charlesng35/mediaplatform/internal/app"
	"github.com/charlesng35/mediaplatform/internal/app/maintenance"
	iauth "github.com/charlesng35/mediaplatform/internal/auth"
	"github.com/charlesng35/mediaplatform/internal/cache"
	"github.com/charlesng35/mediaplatform/internal/database"
	"github.com/charlesng35/mediaplatform/internal/directory"
	"github.com/charlesng35/mediaplatform/internal/legacysms"
	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Redis    *cache.RedisStore
	Cache    cache.Store
	LegacyDB *sql.DB
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime initialises databases, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	stack.Cache = dbStore
	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
		} else {
			stack.Cache = stack.Redis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	dir, err := buildDirectory(cfg.Directory, stack.Cache)
	if err != nil {
		return nil, err
	}
	resolver := directory.NewResolver(dir)

	var stats services.StatsSource
	if dsn := strings.TrimSpace(cfg.Legacy.StatsDSN); dsn != "" {
		stack.LegacyDB, err = legacysms.Open(ctx, legacysms.Config{DSN: dsn, MaxOpenConns: cfg.Legacy.MaxOpenConns})
		if err != nil {
			// Analytics degrade to empty results rather than blocking start-up.
			log.Warn("legacy statistics database unavailable", zap.Error(err))
		} else {
			stats = legacysms.NewStatsReader(stack.LegacyDB)
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner, err = buildCleaner(stack.DB, cfg.Maintenance, dbStore)
		if err != nil {
			return nil, err
		}
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, resolver, cfg, stats)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// buildDirectory selects the principal directory backend. Lookups through LDAP and
// the REST API are cached in store when a cache TTL is configured.
func buildDirectory(cfg app.DirectoryConfig, store cache.Store) (directory.Directory, error) {
	var (
		dir directory.Directory
		err error
	)

	switch backend := cfg.BackendName(); backend {
	case app.DirectoryBackendNone:
		return nil, nil
	case app.DirectoryBackendLDAP:
		dir, err = directory.NewLDAP(cfg.LDAPConfig())
	case app.DirectoryBackendHTTP:
		dir, err = directory.NewHTTP(cfg.HTTPConfig())
	default:
		return nil, fmt.Errorf("unsupported directory backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("initialise directory: %w", err)
	}

	if store != nil && cfg.CacheTTL > 0 {
		dir = directory.NewCached(dir, store, cfg.CacheTTL)
	}
	return dir, nil
}

func buildCleaner(db *gorm.DB, cfg app.MaintenanceConfig, store *cache.DatabaseStore) (*maintenance.Cleaner, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}
	resources, err := services.NewResourceService(db, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise resource service: %w", err)
	}

	return maintenance.NewCleaner(resources, audit,
		maintenance.WithCache(store),
		maintenance.WithPurgeAfter(cfg.PurgeAfter),
		maintenance.WithAuditRetentionDays(cfg.AuditRetentionDays),
		maintenance.WithPurgeSchedule(cfg.PurgeSchedule),
		maintenance.WithAuditSchedule(cfg.AuditSchedule),
		maintenance.WithCacheSchedule(cfg.CacheSchedule),
	), nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.LegacyDB != nil {
		if err := s.LegacyDB.Close(); err != nil {
			log.Warn("legacy statistics database shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}
