package models

import (
	"strings"

	"gorm.io/gorm"
)

// RegionService toggles a named service (food, ride, mart, ...) inside a region.
// A missing row means the service is not offered there.
type RegionService struct {
	BaseModel
	RegionID    string `gorm:"type:uuid;not null;uniqueIndex:idx_region_service" json:"region_id"`
	ServiceName string `gorm:"size:64;not null;uniqueIndex:idx_region_service" json:"service_name"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

// BeforeSave stores service names in canonical form.
func (s *RegionService) BeforeSave(tx *gorm.DB) error {
	s.ServiceName = NormalizeServiceName(s.ServiceName)
	return nil
}

// NormalizeServiceName trims and lowercases a service name.
func NormalizeServiceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
