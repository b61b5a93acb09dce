package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/regionsvc/internal/app"
	"github.com/charlesng35/regionsvc/internal/cache"
	"github.com/charlesng35/regionsvc/internal/database/testutil"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg := &app.Config{
		Server:   app.ServerConfig{Port: 8000, LogLevel: "info"},
		Database: app.DatabaseConfig{Driver: "sqlite", DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"},
		Cache:    app.CacheConfig{Backend: app.CacheBackendMemory},
		Region: app.RegionConfig{
			Namespace:    "regions",
			GeometryTTL:  time.Hour,
			ServiceTTL:   time.Minute,
			WarmOnStart:  true,
			WarmSchedule: "off",
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, Timeout: time.Second},
		},
		Maintenance: app.MaintenanceConfig{CachePurgeSchedule: "off"},
	}
	_, err := app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBootstrapRuntimeServesRegionRoutes(t *testing.T) {
	cfg := testConfig(t)

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.IsType(t, &cache.MemoryStore{}, stack.Backend)
	require.Nil(t, stack.Redis)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/regions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	// No regions yet: degraded but still serving.
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"degraded"`)

	w = httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "regionsvc_cache_lookups_total")
}

func TestSelectCacheBackend(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	log := zap.NewNop()

	t.Run("database", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Cache.Backend = app.CacheBackendDatabase

		backend, redisStore, purger := selectCacheBackend(ctx, cfg, db, log)
		require.IsType(t, &cache.DatabaseStore{}, backend)
		require.Nil(t, redisStore)
		require.NotNil(t, purger)
	})

	t.Run("redis", func(t *testing.T) {
		server := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Cache.Backend = app.CacheBackendRedis
		cfg.Cache.Redis.Address = server.Addr()

		backend, redisStore, purger := selectCacheBackend(ctx, cfg, db, log)
		require.NotNil(t, redisStore)
		require.Same(t, redisStore, backend)
		require.Nil(t, purger)
		require.NoError(t, redisStore.Close())
	})

	t.Run("unreachable redis falls back to database", func(t *testing.T) {
		server := miniredis.RunT(t)
		addr := server.Addr()
		server.Close()

		cfg := testConfig(t)
		cfg.Cache.Backend = app.CacheBackendRedis
		cfg.Cache.Redis.Address = addr
		cfg.Cache.Redis.Timeout = 200 * time.Millisecond

		backend, redisStore, purger := selectCacheBackend(ctx, cfg, db, log)
		require.IsType(t, &cache.DatabaseStore{}, backend)
		require.Nil(t, redisStore)
		require.NotNil(t, purger)
	})
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{Database: app.DatabaseConfig{
		Driver: " PostgreSQL ",
		Postgres: app.DBAuthConfig{
			Host:     "db.internal",
			Port:     5432,
			Database: "regions",
			Username: "svc",
			Password: " secret ",
			Options:  map[string]string{"sslmode": "require"},
		},
	}}

	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "regions", dbCfg.Name)
	require.Equal(t, "svc", dbCfg.User)
	require.Equal(t, " secret ", dbCfg.Password)
	require.Equal(t, "require", dbCfg.Options["sslmode"])

	require.Equal(t, "sqlite", convertDatabaseConfig(&app.Config{}).Driver)
	require.Equal(t, "oracle", convertDatabaseConfig(&app.Config{Database: app.DatabaseConfig{Driver: "oracle"}}).Driver)
}

func TestLoadApplicationConfigRejectsMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/definitely/not/here")
	require.Error(t, err)
}
