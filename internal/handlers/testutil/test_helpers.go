package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/regionsvc/internal/api"
	"github.com/charlesng35/regionsvc/internal/app"
	"github.com/charlesng35/regionsvc/internal/cache"
	sharedtestutil "github.com/charlesng35/regionsvc/internal/database/testutil"
	"github.com/charlesng35/regionsvc/internal/models"
	"github.com/charlesng35/regionsvc/internal/monitoring"
	"github.com/charlesng35/regionsvc/internal/monitoring/checks"
	"github.com/charlesng35/regionsvc/internal/region"
	"github.com/charlesng35/regionsvc/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database
// and an in-memory cache for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Cache    *cache.MemoryStore
	Resolver *region.Resolver
	Router   *gin.Engine
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	store, err := region.NewGormStore(db)
	require.NoError(t, err)

	backend := cache.NewMemoryStore()
	regionCache, err := region.NewCache(store, backend)
	require.NoError(t, err)

	resolver, err := region.NewResolver(regionCache)
	require.NoError(t, err)

	cfg := &app.Config{
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	mon := monitoring.NewModule(monitoring.Options{})
	mon.Health().RegisterReadiness(checks.Database(db, 0))
	mon.Health().RegisterReadiness(checks.Regions(resolver, 0))

	router, err := api.NewRouter(api.Dependencies{
		Config:     cfg,
		Resolver:   resolver,
		Monitoring: mon,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Cache:    backend,
		Resolver: resolver,
		Router:   router,
	}
}

// CreateRegion inserts a region directly through gorm, bypassing the cache.
func (e *Env) CreateRegion(name string, active bool, sortOrder int, ring ...models.LatLng) *models.Region {
	e.T.Helper()

	row := &models.Region{
		Name:         name,
		Polygon:      datatypes.NewJSONType(ring),
		Timezone:     "Asia/Jakarta",
		CurrencyCode: "IDR",
		IsActive:     active,
		SortOrder:    sortOrder,
	}
	require.NoError(e.T, e.DB.Create(row).Error)
	return row
}

// SetService upserts a service flag for a region directly through gorm.
func (e *Env) SetService(regionID, service string, active bool) {
	e.T.Helper()

	var row models.RegionService
	service = models.NormalizeServiceName(service)
	err := e.DB.Where("region_id = ? AND service_name = ?", regionID, service).
		Attrs(models.RegionService{RegionID: regionID, ServiceName: service}).
		FirstOrCreate(&row).Error
	require.NoError(e.T, err)
	require.NoError(e.T, e.DB.Model(&row).Update("is_active", active).Error)
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON-encoding body when present.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
