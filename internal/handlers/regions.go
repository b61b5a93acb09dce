package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/regionsvc/internal/region"
	appErrors "github.com/charlesng35/regionsvc/pkg/errors"
	"github.com/charlesng35/regionsvc/pkg/response"
)

// RegionResolver is the slice of region.Resolver the HTTP layer needs.
type RegionResolver interface {
	ResolveByCoordinates(ctx context.Context, lat, lng float64) (region.RegionView, bool, error)
	GetActiveRegions(ctx context.Context) ([]region.RegionView, error)
	GetRegion(ctx context.Context, id string) (region.RegionView, bool, error)
	IsServiceAvailable(ctx context.Context, regionID, service string) (bool, error)
	InvalidateRegion(ctx context.Context, id string) error
	InvalidateService(ctx context.Context, regionID, service string) error
	InvalidateAllRegions(ctx context.Context) (int64, error)
}

// RegionHandler serves region resolution, listing, service availability and
// cache invalidation.
type RegionHandler struct {
	resolver RegionResolver
}

// NewRegionHandler constructs a RegionHandler.
func NewRegionHandler(resolver RegionResolver) (*RegionHandler, error) {
	if resolver == nil {
		return nil, errors.New("region handler: resolver is required")
	}
	return &RegionHandler{resolver: resolver}, nil
}

type resolveQuery struct {
	Lat *float64 `form:"lat" validate:"required,finite,min=-90,max=90"`
	Lng *float64 `form:"lng" validate:"required,finite,min=-180,max=180"`
}

type regionURI struct {
	ID string `uri:"id" json:"id" validate:"required,max=64"`
}

type serviceURI struct {
	ID      string `uri:"id" json:"id" validate:"required,max=64"`
	Service string `uri:"service" json:"service" validate:"required,service_name"`
}

type serviceAvailability struct {
	RegionID  string `json:"region_id"`
	Service   string `json:"service"`
	Available bool   `json:"available"`
}

// GET /api/regions/resolve?lat=&lng=
func (h *RegionHandler) Resolve(c *gin.Context) {
	var query resolveQuery
	if !bindQuery(c, &query) {
		return
	}

	view, ok, err := h.resolver.ResolveByCoordinates(requestContext(c), *query.Lat, *query.Lng)
	if err != nil {
		writeRegionError(c, err)
		return
	}
	if !ok {
		response.Error(c, appErrors.ErrRegionNotFound)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// GET /api/regions
func (h *RegionHandler) List(c *gin.Context) {
	views, err := h.resolver.GetActiveRegions(requestContext(c))
	if err != nil {
		writeRegionError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, views, &response.Meta{Count: len(views)})
}

// GET /api/regions/:id
func (h *RegionHandler) Get(c *gin.Context) {
	var uri regionURI
	if !bindURI(c, &uri) {
		return
	}

	view, ok, err := h.resolver.GetRegion(requestContext(c), uri.ID)
	if err != nil {
		writeRegionError(c, err)
		return
	}
	if !ok {
		response.Error(c, appErrors.ErrRegionNotFound)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// GET /api/regions/:id/services/:service
func (h *RegionHandler) ServiceAvailability(c *gin.Context) {
	var uri serviceURI
	if !bindURI(c, &uri) {
		return
	}

	available, err := h.resolver.IsServiceAvailable(requestContext(c), uri.ID, uri.Service)
	if err != nil {
		writeRegionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, serviceAvailability{
		RegionID:  uri.ID,
		Service:   region.NormalizeService(uri.Service),
		Available: available,
	})
}

// POST /api/regions/:id/invalidate
func (h *RegionHandler) InvalidateRegion(c *gin.Context) {
	var uri regionURI
	if !bindURI(c, &uri) {
		return
	}

	if err := h.resolver.InvalidateRegion(requestContext(c), uri.ID); err != nil {
		_ = c.Error(err)
		response.Error(c, appErrors.ErrRegionStoreUnavailable.WithInternal(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/regions/:id/services/:service/invalidate
func (h *RegionHandler) InvalidateService(c *gin.Context) {
	var uri serviceURI
	if !bindURI(c, &uri) {
		return
	}

	if err := h.resolver.InvalidateService(requestContext(c), uri.ID, uri.Service); err != nil {
		_ = c.Error(err)
		response.Error(c, appErrors.ErrRegionStoreUnavailable.WithInternal(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/regions/invalidate sweeps the whole region namespace. A partial
// sweep reports how many keys were removed and every failure.
func (h *RegionHandler) InvalidateAll(c *gin.Context) {
	removed, err := h.resolver.InvalidateAllRegions(requestContext(c))
	if err != nil {
		_ = c.Error(err)
		failures := sweepFailures(err)
		details := make([]string, 0, len(failures)+1)
		details = append(details, "removed "+strconv.FormatInt(removed, 10)+" keys")
		for _, failure := range failures {
			details = append(details, failure.Error())
		}
		response.ErrorWithDetails(c, appErrors.ErrCacheSweepIncomplete.WithInternal(err), details...)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

func writeRegionError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, region.ErrInvalidCoordinate):
		response.Error(c, appErrors.ErrInvalidCoordinate)
	case errors.Is(err, region.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		response.Error(c, appErrors.ErrRegionStoreUnavailable.WithInternal(err))
	default:
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
	}
}

// sweepFailures unpacks an aggregated sweep error into its individual failures.
func sweepFailures(err error) []error {
	var group interface{ Errors() []error }
	if errors.As(err, &group) {
		return group.Errors()
	}
	return []error{err}
}
