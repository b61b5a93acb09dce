package app

import (
	"strings"

	"github.com/charlesng35/regionsvc/internal/cache"
	"github.com/charlesng35/regionsvc/internal/region"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:   strings.TrimSpace(c.Redis.Address),
		Username:  strings.TrimSpace(c.Redis.Username),
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		TLS:       c.Redis.TLS,
		Timeout:   c.Redis.Timeout,
		KeyPrefix: strings.TrimSpace(c.Redis.KeyPrefix),
	}
}

// KeyPolicy converts the region settings into the cache key policy. Zero
// values fall back to the region package defaults.
func (c RegionConfig) KeyPolicy() region.KeyPolicy {
	return region.KeyPolicy{
		Namespace:   strings.TrimSpace(c.Namespace),
		GeometryTTL: c.GeometryTTL,
		ServiceTTL:  c.ServiceTTL,
	}
}
