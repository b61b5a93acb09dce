package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/regionsvc/internal/api"
	"github.com/charlesng35/regionsvc/internal/app"
	"github.com/charlesng35/regionsvc/internal/app/maintenance"
	"github.com/charlesng35/regionsvc/internal/cache"
	"github.com/charlesng35/regionsvc/internal/database"
	"github.com/charlesng35/regionsvc/internal/monitoring"
	"github.com/charlesng35/regionsvc/internal/monitoring/checks"
	"github.com/charlesng35/regionsvc/internal/region"
	"github.com/charlesng35/regionsvc/pkg/logger"
)

const warmOnStartTimeout = 30 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Redis      *cache.RedisStore
	Backend    cache.Store
	Cache      *region.Cache
	Resolver   *region.Resolver
	Scheduler  *maintenance.Scheduler
	Monitoring *monitoring.Module
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, cache backend, region resolver,
// maintenance jobs and the HTTP router.
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

	var purger maintenance.CachePurger
	stack.Backend, stack.Redis, purger = selectCacheBackend(ctx, cfg, stack.DB, log)

	store, err := region.NewGormStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise region store: %w", err)
	}

	stack.Cache, err = region.NewCache(store, stack.Backend,
		region.WithKeyPolicy(cfg.Region.KeyPolicy()),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise region cache: %w", err)
	}

	stack.Resolver, err = region.NewResolver(stack.Cache)
	if err != nil {
		return nil, fmt.Errorf("initialise region resolver: %w", err)
	}

	if cfg.Region.WarmOnStart {
		warmCtx, cancel := context.WithTimeout(ctx, warmOnStartTimeout)
		if err := stack.Cache.Warm(warmCtx); err != nil {
			log.Warn("region cache warm-up failed; continuing cold", zap.Error(err))
		}
		cancel()
	}

	stack.Scheduler = maintenance.NewScheduler(purger, stack.Cache,
		maintenance.WithPurgeSchedule(cfg.Maintenance.CachePurgeSchedule),
		maintenance.WithWarmSchedule(cfg.Region.WarmSchedule),
	)
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Monitoring = newMonitoring(cfg, stack)

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:     cfg,
		Resolver:   stack.Resolver,
		Monitoring: stack.Monitoring,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// selectCacheBackend builds the configured cache backend. An unreachable Redis
// falls back to the database so the service still starts. Only the database
// backend needs scheduled purging; Redis and memory expire entries themselves.
func selectCacheBackend(ctx context.Context, cfg *app.Config, db *gorm.DB, log *zap.Logger) (cache.Store, *cache.RedisStore, maintenance.CachePurger) {
	switch strings.ToLower(cfg.Cache.Backend) {
	case app.CacheBackendMemory:
		log.Info("region cache backend selected", zap.String("backend", app.CacheBackendMemory))
		return cache.NewMemoryStore(), nil, nil
	case app.CacheBackendRedis:
		redisStore, err := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
		if err == nil {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			return redisStore, redisStore, nil
		}
		log.Warn("redis unavailable; falling back to database cache", zap.Error(err))
	}

	dbStore := cache.NewDatabaseStore(db)
	log.Info("region cache backend selected", zap.String("backend", app.CacheBackendDatabase))
	return dbStore, nil, dbStore
}

func newMonitoring(cfg *app.Config, stack *runtimeStack) *monitoring.Module {
	timeout := cfg.Monitoring.Health.Timeout
	module := monitoring.NewModule(monitoring.Options{ProbeTimeout: timeout})

	health := module.Health()
	health.RegisterReadiness(checks.Database(stack.DB, timeout))
	if stack.Redis != nil {
		health.RegisterReadiness(checks.Redis(stack.Redis, timeout))
	}
	health.RegisterReadiness(checks.Regions(stack.Resolver, timeout))

	return module
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		select {
		case <-s.Scheduler.Stop().Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql":
		auth = cfg.Database.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	dbCfg.Options = auth.Options
	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
