package region

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/charlesng35/regionsvc/internal/cache"
	"github.com/charlesng35/regionsvc/pkg/logger"
	"github.com/charlesng35/regionsvc/pkg/metrics"
)

const (
	entryActive  = "active"
	entryRegion  = "region"
	entryService = "service"
)

// Cache is a read-through cache over a region Store.
//
// Concurrent misses for the same key share one store query. Every invalidation
// bumps a generation counter before deleting keys; a load only writes its
// result when the generation it started under is still current, and removes
// the write again if an invalidation slipped in between. A load that began
// before a sweep therefore never leaves its stale value behind in this process.
// Other replicas are bounded by the entry TTL.
type Cache struct {
	store   Store
	backend cache.Sweepable
	keys    KeyPolicy
	log     *zap.Logger

	flights    singleflight.Group
	generation atomic.Uint64
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithKeyPolicy overrides the namespace and TTLs.
func WithKeyPolicy(policy KeyPolicy) CacheOption {
	return func(c *Cache) {
		c.keys = policy.withDefaults()
	}
}

// WithLogger overrides the logger.
func WithLogger(log *zap.Logger) CacheOption {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCache builds a Cache. Backends without native prefix deletion are wrapped
// in a key index.
func NewCache(store Store, backend cache.Store, opts ...CacheOption) (*Cache, error) {
	if store == nil {
		return nil, errors.New("region cache: store is required")
	}
	if backend == nil {
		return nil, errors.New("region cache: cache backend is required")
	}

	c := &Cache{
		store:   store,
		backend: cache.WithPrefixDelete(backend),
		keys:    DefaultKeyPolicy(),
		log:     logger.WithModule("region"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Keys exposes the key policy in use.
func (c *Cache) Keys() KeyPolicy {
	return c.keys
}

// GetActiveRegions returns the active regions in stored order.
func (c *Cache) GetActiveRegions(ctx context.Context) ([]Region, error) {
	key := c.keys.ActiveRegionsKey()

	var regions []Region
	hit, err := c.read(ctx, key, &regions)
	if err != nil {
		return nil, err
	}
	if hit {
		metrics.RegionCacheLookups.WithLabelValues(entryActive, "hit").Inc()
		return slices.Clone(regions), nil
	}
	metrics.RegionCacheLookups.WithLabelValues(entryActive, "miss").Inc()

	v, err := c.load(ctx, key, func(ctx context.Context, gen uint64) (any, error) {
		var cached []Region
		if hit, err := c.read(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}

		start := time.Now()
		loaded, err := c.store.ListActiveRegions(ctx)
		metrics.RegionStoreLoadDuration.WithLabelValues(entryActive).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("list active regions: %w: %w", ErrStoreUnavailable, err)
		}
		if loaded == nil {
			loaded = []Region{}
		}
		c.write(ctx, key, loaded, c.keys.GeometryTTL, gen)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Region)), nil
}

// GetRegion returns a single region by id. Unknown ids are not cached.
func (c *Cache) GetRegion(ctx context.Context, id string) (Region, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Region{}, false, nil
	}
	key := c.keys.RegionKey(id)

	var region Region
	hit, err := c.read(ctx, key, &region)
	if err != nil {
		return Region{}, false, err
	}
	if hit {
		metrics.RegionCacheLookups.WithLabelValues(entryRegion, "hit").Inc()
		return region, true, nil
	}
	metrics.RegionCacheLookups.WithLabelValues(entryRegion, "miss").Inc()

	v, err := c.load(ctx, key, func(ctx context.Context, gen uint64) (any, error) {
		start := time.Now()
		found, ok, err := c.store.FindRegion(ctx, id)
		metrics.RegionStoreLoadDuration.WithLabelValues(entryRegion).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("find region %s: %w: %w", id, ErrStoreUnavailable, err)
		}
		if !ok {
			return (*Region)(nil), nil
		}
		c.write(ctx, key, found, c.keys.GeometryTTL, gen)
		return &found, nil
	})
	if err != nil {
		return Region{}, false, err
	}
	if r := v.(*Region); r != nil {
		return *r, true, nil
	}
	return Region{}, false, nil
}

// IsServiceAvailable reports whether service is enabled in regionID. Unknown
// regions and services yield false; both outcomes are cached for ServiceTTL.
func (c *Cache) IsServiceAvailable(ctx context.Context, regionID, service string) (bool, error) {
	regionID = strings.TrimSpace(regionID)
	service = NormalizeService(service)
	if regionID == "" || service == "" {
		return false, nil
	}
	key := c.keys.ServiceKey(regionID, service)

	var available bool
	hit, err := c.read(ctx, key, &available)
	if err != nil {
		return false, err
	}
	if hit {
		metrics.RegionCacheLookups.WithLabelValues(entryService, "hit").Inc()
		return available, nil
	}
	metrics.RegionCacheLookups.WithLabelValues(entryService, "miss").Inc()

	v, err := c.load(ctx, key, func(ctx context.Context, gen uint64) (any, error) {
		start := time.Now()
		active, found, err := c.store.FindServiceFlag(ctx, regionID, service)
		metrics.RegionStoreLoadDuration.WithLabelValues(entryService).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("find service %s in region %s: %w: %w", service, regionID, ErrStoreUnavailable, err)
		}
		result := found && active
		c.write(ctx, key, result, c.keys.ServiceTTL, gen)
		return result, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// InvalidateRegion drops the cached snapshot of one region and the aggregate
// active list, which embeds it.
func (c *Cache) InvalidateRegion(ctx context.Context, id string) error {
	c.generation.Add(1)
	keys := []string{c.keys.ActiveRegionsKey()}
	if id = strings.TrimSpace(id); id != "" {
		keys = append(keys, c.keys.RegionKey(id))
	}
	if err := c.backend.Delete(ctx, keys...); err != nil {
		c.log.Warn("region invalidation failed", zap.String("region_id", id), zap.Error(err))
		return fmt.Errorf("region cache: invalidate region %s: %w", id, err)
	}
	return nil
}

// InvalidateService drops the cached flag of one service in one region.
func (c *Cache) InvalidateService(ctx context.Context, regionID, service string) error {
	c.generation.Add(1)
	if err := c.backend.Delete(ctx, c.keys.ServiceKey(regionID, service)); err != nil {
		c.log.Warn("service invalidation failed",
			zap.String("region_id", regionID),
			zap.String("service", service),
			zap.Error(err),
		)
		return fmt.Errorf("region cache: invalidate service %s in region %s: %w", service, regionID, err)
	}
	return nil
}

// InvalidateAllRegions sweeps every key in the region namespace. Partial
// failures are returned; surviving entries expire through their TTL.
func (c *Cache) InvalidateAllRegions(ctx context.Context) (int64, error) {
	c.generation.Add(1)
	removed, err := c.backend.DeletePrefix(ctx, c.keys.Prefix())
	metrics.RegionCacheSweptKeys.Add(float64(removed))
	if err != nil {
		c.log.Warn("region namespace sweep incomplete",
			zap.String("prefix", c.keys.Prefix()),
			zap.Int64("removed", removed),
			zap.Error(err),
		)
		return removed, fmt.Errorf("region cache: sweep %q: %w", c.keys.Prefix(), err)
	}
	return removed, nil
}

// Warm loads the active-region list into the cache if it is missing.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.GetActiveRegions(ctx)
	return err
}

// read decodes the cached value under key into dst. Backend failures surface as
// ErrStoreUnavailable; undecodable entries are dropped and treated as misses.
func (c *Cache) read(ctx context.Context, key string, dst any) (bool, error) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("read cache %s: %w: %w", key, ErrStoreUnavailable, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.backend.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// write stores value under key unless an invalidation happened after the load
// started. Write failures are logged only; the caller already has fresh data.
func (c *Cache) write(ctx context.Context, key string, value any, ttl time.Duration, gen uint64) {
	if c.generation.Load() != gen {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.backend.Set(ctx, key, payload, ttl); err != nil {
		c.log.Warn("write cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if c.generation.Load() != gen {
		_ = c.backend.Delete(ctx, key)
	}
}

// load runs fn once per (key, generation) no matter how many callers miss at
// the same time. The shared load is detached from any single caller's
// cancellation; each caller still returns as soon as its own context ends.
func (c *Cache) load(ctx context.Context, key string, fn func(ctx context.Context, gen uint64) (any, error)) (any, error) {
	gen := c.generation.Load()
	flightKey := key + "@" + strconv.FormatUint(gen, 10)
	loadCtx := context.WithoutCancel(ctx)

	ch := c.flights.DoChan(flightKey, func() (any, error) {
		return fn(loadCtx, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, ErrStoreUnavailable) {
				c.log.Warn("region store load failed", zap.String("key", key), zap.Error(res.Err))
			}
			return nil, fmt.Errorf("region cache: %w", res.Err)
		}
		return res.Val, nil
	}
}
