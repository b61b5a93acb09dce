package region

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/regionsvc/internal/models"
)

// Store is the read side of the region catalog. Implementations return plain
// values and never touch the cache.
type Store interface {
	// ListActiveRegions returns active regions in resolution order.
	ListActiveRegions(ctx context.Context) ([]Region, error)
	// FindRegion returns the region with id, active or not. ok is false when
	// no such region exists.
	FindRegion(ctx context.Context, id string) (Region, bool, error)
	// FindServiceFlag returns the stored flag for (regionID, service). found is
	// false when there is no record.
	FindServiceFlag(ctx context.Context, regionID, service string) (active bool, found bool, err error)
}

// GormStore reads regions from the relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("region store: db is required")
	}
	return &GormStore{db: db}, nil
}

// ListActiveRegions orders by sort_order, then creation time, then id, so the
// first-match rule is deterministic for overlapping polygons.
func (s *GormStore) ListActiveRegions(ctx context.Context) ([]Region, error) {
	var rows []models.Region
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	regions := make([]Region, 0, len(rows))
	for i := range rows {
		regions = append(regions, fromModel(&rows[i]))
	}
	return regions, nil
}

// FindRegion looks a region up by id. Soft-deleted regions are not found.
func (s *GormStore) FindRegion(ctx context.Context, id string) (Region, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Region{}, false, nil
	}

	var row models.Region
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Region{}, false, nil
	}
	if err != nil {
		return Region{}, false, err
	}
	return fromModel(&row), true, nil
}

// FindServiceFlag ignores flags whose region has been soft deleted. Names are
// compared case-insensitively so rows written outside gorm still match.
func (s *GormStore) FindServiceFlag(ctx context.Context, regionID, service string) (bool, bool, error) {
	regionID = strings.TrimSpace(regionID)
	service = NormalizeService(service)
	if regionID == "" || service == "" {
		return false, false, nil
	}

	db := s.db.WithContext(ctx)
	var row models.RegionService
	err := db.
		Where("region_id = ? AND LOWER(service_name) = ?", regionID, service).
		Where("region_id IN (?)", db.Model(&models.Region{}).Select("id")).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return row.IsActive, true, nil
}

func fromModel(m *models.Region) Region {
	vertices := m.Vertices()
	polygon := make(Polygon, 0, len(vertices))
	for _, v := range vertices {
		polygon = append(polygon, Point{Lat: v[0], Lng: v[1]})
	}
	return Region{
		ID:           m.ID,
		Name:         m.Name,
		Polygon:      polygon,
		Timezone:     m.Timezone,
		CurrencyCode: m.CurrencyCode,
		Active:       m.IsActive,
	}
}
