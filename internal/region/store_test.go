package region

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/regionsvc/internal/database/testutil"
	"github.com/charlesng35/regionsvc/internal/models"
)

func seedRegion(t *testing.T, db *gorm.DB, name string, active bool, sortOrder int, ring ...models.LatLng) models.Region {
	t.Helper()
	row := models.Region{
		Name:         name,
		Polygon:      datatypes.NewJSONType(ring),
		Timezone:     "Asia/Jakarta",
		CurrencyCode: "IDR",
		IsActive:     active,
		SortOrder:    sortOrder,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

var lampungRing = []models.LatLng{{-6.1, 106.7}, {-6.1, 106.9}, {-6.3, 106.9}, {-6.3, 106.7}, {-6.1, 106.7}}

func TestNewGormStoreRequiresDB(t *testing.T) {
	_, err := NewGormStore(nil)
	require.Error(t, err)
}

func TestGormStoreListActiveRegions(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	later := seedRegion(t, db, "Later", true, 2, lampungRing...)
	first := seedRegion(t, db, "Lampung", true, 1, lampungRing...)
	seedRegion(t, db, "Disabled", false, 0, lampungRing...)
	deleted := seedRegion(t, db, "Deleted", true, 0, lampungRing...)
	require.NoError(t, db.Delete(&deleted).Error)

	regions, err := store.ListActiveRegions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, first.ID, regions[0].ID)
	require.Equal(t, later.ID, regions[1].ID)

	require.Equal(t, "Lampung", regions[0].Name)
	require.Equal(t, "IDR", regions[0].CurrencyCode)
	require.True(t, regions[0].Active)
	require.Equal(t, Polygon{
		{Lat: -6.1, Lng: 106.7},
		{Lat: -6.1, Lng: 106.9},
		{Lat: -6.3, Lng: 106.9},
		{Lat: -6.3, Lng: 106.7},
		{Lat: -6.1, Lng: 106.7},
	}, regions[0].Polygon)
}

func TestGormStoreListOrdersTiesByCreation(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	older := seedRegion(t, db, "Older", true, 0, lampungRing...)
	newer := seedRegion(t, db, "Newer", true, 0, lampungRing...)
	require.NoError(t, db.Model(&older).Update("created_at", time.Now().Add(-time.Hour)).Error)

	regions, err := store.ListActiveRegions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, older.ID, regions[0].ID)
	require.Equal(t, newer.ID, regions[1].ID)
}

func TestGormStoreFindRegion(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	inactive := seedRegion(t, db, "Inactive", false, 0, lampungRing...)

	region, ok, err := store.FindRegion(ctx, inactive.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, region.Active)

	_, ok, err = store.FindRegion(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.FindRegion(ctx, " ")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Delete(&inactive).Error)
	_, ok, err = store.FindRegion(ctx, inactive.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGormStoreFindServiceFlag(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	lampungRow := seedRegion(t, db, "Lampung", true, 0, lampungRing...)
	require.NoError(t, db.Create(&models.RegionService{RegionID: lampungRow.ID, ServiceName: "food", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.RegionService{RegionID: lampungRow.ID, ServiceName: "mart", IsActive: false}).Error)

	active, found, err := store.FindServiceFlag(ctx, lampungRow.ID, "Food")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, active)

	active, found, err = store.FindServiceFlag(ctx, lampungRow.ID, "mart")
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, active)

	_, found, err = store.FindServiceFlag(ctx, lampungRow.ID, "car")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Delete(&lampungRow).Error)
	_, found, err = store.FindServiceFlag(ctx, lampungRow.ID, "food")
	require.NoError(t, err)
	require.False(t, found)
}

func TestGormStoreFindServiceFlagMixedCaseRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	lampungRow := seedRegion(t, db, "Lampung", true, 0, lampungRing...)

	food := models.RegionService{RegionID: lampungRow.ID, ServiceName: " Food ", IsActive: true}
	require.NoError(t, db.Create(&food).Error)
	require.Equal(t, "food", food.ServiceName)

	active, found, err := store.FindServiceFlag(ctx, lampungRow.ID, "Food")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, active)

	ride := models.RegionService{RegionID: lampungRow.ID, ServiceName: "ride", IsActive: true}
	require.NoError(t, db.Create(&ride).Error)
	// UpdateColumn skips hooks, like rows written by other tools.
	require.NoError(t, db.Model(&ride).UpdateColumn("service_name", "RIDE").Error)

	active, found, err = store.FindServiceFlag(ctx, lampungRow.ID, "Ride")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, active)
}

func TestResolverOverGormStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewGormStore(db)
	require.NoError(t, err)

	lampungRow := seedRegion(t, db, "Lampung", true, 0, lampungRing...)
	require.NoError(t, db.Create(&models.RegionService{RegionID: lampungRow.ID, ServiceName: "food", IsActive: true}).Error)

	r := newTestResolver(t, store)

	view, found, err := r.ResolveByCoordinates(ctx, -6.2, 106.8)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, lampungRow.ID, view.ID)

	available, err := r.IsServiceAvailable(ctx, lampungRow.ID, "food")
	require.NoError(t, err)
	require.True(t, available)

	available, err = r.IsServiceAvailable(ctx, lampungRow.ID, "car")
	require.NoError(t, err)
	require.False(t, available)
}
