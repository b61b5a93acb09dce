package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/charlesng35/regionsvc/internal/models"
)

func TestAutoMigrateCreatesRegionTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []any{
		&models.Region{},
		&models.RegionService{},
		&models.CacheEntry{},
	}
	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
	require.True(t, migrator.HasIndex(&models.RegionService{}, "idx_region_service"))
}

func TestRegionServiceUniquePerRegion(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	region := models.Region{
		Name:     "Lampung",
		Polygon:  datatypes.NewJSONType([]models.LatLng{{-6.1, 106.7}, {-6.1, 106.9}, {-6.3, 106.9}}),
		IsActive: true,
	}
	require.NoError(t, db.Create(&region).Error)

	require.NoError(t, db.Create(&models.RegionService{RegionID: region.ID, ServiceName: "food", IsActive: true}).Error)
	require.Error(t, db.Create(&models.RegionService{RegionID: region.ID, ServiceName: "food"}).Error)
}

func TestRegionPolygonRoundTrip(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	ring := []models.LatLng{{-6.1, 106.7}, {-6.1, 106.9}, {-6.3, 106.9}, {-6.3, 106.7}, {-6.1, 106.7}}
	region := models.Region{Name: "Lampung", Polygon: datatypes.NewJSONType(ring), IsActive: true}
	require.NoError(t, db.Create(&region).Error)

	var loaded models.Region
	require.NoError(t, db.Take(&loaded, "id = ?", region.ID).Error)
	require.Equal(t, ring, loaded.Vertices())
}
