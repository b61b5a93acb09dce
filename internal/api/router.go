package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/regionsvc/internal/app"
	"github.com/charlesng35/regionsvc/internal/handlers"
	"github.com/charlesng35/regionsvc/internal/middleware"
	"github.com/charlesng35/regionsvc/internal/monitoring"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Config     *app.Config
	Resolver   handlers.RegionResolver
	Monitoring *monitoring.Module
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("region resolver must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	registerHealthRoutes(r, deps.Config, deps.Monitoring)

	regionHandler, err := handlers.NewRegionHandler(deps.Resolver)
	if err != nil {
		return nil, err
	}
	registerRegionRoutes(r.Group("/api"), regionHandler)

	if deps.Config.Monitoring.Prometheus.Enabled && deps.Monitoring != nil {
		endpoint := strings.TrimSpace(deps.Config.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(deps.Monitoring.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
