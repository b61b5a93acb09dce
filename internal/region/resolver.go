package region

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/charlesng35/regionsvc/pkg/metrics"
)

const tracerName = "github.com/charlesng35/regionsvc/internal/region"

// Resolver answers which region contains a coordinate and which services are
// enabled there. It performs no retries; store failures reach the caller.
type Resolver struct {
	cache  *Cache
	tracer trace.Tracer
}

// NewResolver wraps a Cache.
func NewResolver(cache *Cache) (*Resolver, error) {
	if cache == nil {
		return nil, errors.New("region resolver: cache is required")
	}
	return &Resolver{
		cache:  cache,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// ResolveByCoordinates returns the first active region, in stored order, whose
// polygon contains (lat, lng). found is false when no region matches.
// Overlapping regions are not detected; the earlier one wins.
func (r *Resolver) ResolveByCoordinates(ctx context.Context, lat, lng float64) (RegionView, bool, error) {
	ctx, span := r.tracer.Start(ctx, "region.ResolveByCoordinates",
		trace.WithAttributes(attribute.Float64("geo.lat", lat), attribute.Float64("geo.lng", lng)))
	defer span.End()

	pt := Point{Lat: lat, Lng: lng}
	if !finite(lat) || !finite(lng) {
		metrics.Resolutions.WithLabelValues("error").Inc()
		err := fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lat, lng)
		span.SetStatus(codes.Error, err.Error())
		return RegionView{}, false, err
	}

	regions, err := r.cache.GetActiveRegions(ctx)
	if err != nil {
		metrics.Resolutions.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "load active regions")
		return RegionView{}, false, err
	}
	span.SetAttributes(attribute.Int("region.candidates", len(regions)))

	for _, candidate := range regions {
		if err := candidate.Polygon.Validate(); err != nil {
			metrics.InvalidPolygons.Inc()
			span.AddEvent("skipped invalid polygon", trace.WithAttributes(
				attribute.String("region.id", candidate.ID),
				attribute.String("error", err.Error()),
			))
			continue
		}
		if contains(pt, candidate.Polygon) {
			metrics.Resolutions.WithLabelValues("found").Inc()
			span.SetAttributes(attribute.String("region.id", candidate.ID))
			return candidate.View(), true, nil
		}
	}

	metrics.Resolutions.WithLabelValues("not_found").Inc()
	return RegionView{}, false, nil
}

// IsServiceAvailable reports whether service is enabled in regionID. Unknown
// regions and services are simply unavailable.
func (r *Resolver) IsServiceAvailable(ctx context.Context, regionID, service string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "region.IsServiceAvailable",
		trace.WithAttributes(attribute.String("region.id", regionID), attribute.String("region.service", service)))
	defer span.End()

	available, err := r.cache.IsServiceAvailable(ctx, regionID, service)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "service lookup")
		return false, err
	}
	return available, nil
}

// GetActiveRegions returns every active region in stored order.
func (r *Resolver) GetActiveRegions(ctx context.Context) ([]RegionView, error) {
	regions, err := r.cache.GetActiveRegions(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RegionView, 0, len(regions))
	for _, region := range regions {
		views = append(views, region.View())
	}
	return views, nil
}

// GetRegion returns an active region by id. Inactive regions are reported as
// not found.
func (r *Resolver) GetRegion(ctx context.Context, id string) (RegionView, bool, error) {
	region, ok, err := r.cache.GetRegion(ctx, id)
	if err != nil || !ok || !region.Active {
		return RegionView{}, false, err
	}
	return region.View(), true, nil
}

// InvalidateRegion forwards to the cache.
func (r *Resolver) InvalidateRegion(ctx context.Context, id string) error {
	return r.cache.InvalidateRegion(ctx, id)
}

// InvalidateService forwards to the cache.
func (r *Resolver) InvalidateService(ctx context.Context, regionID, service string) error {
	return r.cache.InvalidateService(ctx, regionID, service)
}

// InvalidateAllRegions forwards to the cache and returns the number of keys
// removed.
func (r *Resolver) InvalidateAllRegions(ctx context.Context) (int64, error) {
	return r.cache.InvalidateAllRegions(ctx)
}
