package app

import (
	"fmt"
	"strings"
)

// ApplyRuntimeDefaults resolves settings that depend on other settings, such as
// the "auto" cache backend. It returns a map of the keys it derived so callers
// can log them.
func ApplyRuntimeDefaults(cfg *Config) (map[string]string, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	derived := make(map[string]string)

	backend := strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if backend == "" || backend == CacheBackendAuto {
		if cfg.Cache.Redis.Enabled && strings.TrimSpace(cfg.Cache.Redis.Address) != "" {
			backend = CacheBackendRedis
		} else {
			backend = CacheBackendDatabase
		}
		derived["cache.backend"] = backend
	}
	cfg.Cache.Backend = backend

	if strings.TrimSpace(cfg.Database.Driver) == "" {
		cfg.Database.Driver = "sqlite"
		derived["database.driver"] = cfg.Database.Driver
	}

	if strings.TrimSpace(cfg.Region.Namespace) == "" {
		cfg.Region.Namespace = "regions"
		derived["region.namespace"] = cfg.Region.Namespace
	}

	return derived, nil
}
