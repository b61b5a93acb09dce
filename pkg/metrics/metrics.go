package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegionCacheLookups counts cache lookups by entry kind (active|region|service) and result (hit|miss).
	RegionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regionsvc_cache_lookups_total",
			Help: "Total number of region cache lookups",
		},
		[]string{"entry", "result"},
	)

	// RegionStoreLoadDuration measures backing store queries issued on cache misses.
	RegionStoreLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "regionsvc_store_load_seconds",
			Help:    "Region store query latency on cache miss",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entry"},
	)

	// RegionCacheSweptKeys counts keys removed by namespace sweeps.
	RegionCacheSweptKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "regionsvc_cache_swept_keys_total",
			Help: "Total number of cache keys removed by region namespace sweeps",
		},
	)

	// InvalidPolygons counts regions skipped during resolution because their ring is unusable.
	InvalidPolygons = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "regionsvc_invalid_polygons_total",
			Help: "Total number of regions skipped during resolution due to an invalid polygon",
		},
	)

	// Resolutions counts coordinate resolutions by result (found|not_found|error).
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regionsvc_resolutions_total",
			Help: "Total number of coordinate resolutions",
		},
		[]string{"result"},
	)

	// MaintenanceRuns counts scheduled maintenance jobs by job and result (success|failure).
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regionsvc_maintenance_runs_total",
			Help: "Total number of scheduled maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "regionsvc_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
