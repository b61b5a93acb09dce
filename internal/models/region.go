package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LatLng is a single polygon vertex stored as [lat, lng].
type LatLng [2]float64

// Region is a named service area bounded by a closed polygon. Regions are soft
// deleted so references from other modules stay valid.
type Region struct {
	BaseModel
	Name         string                       `gorm:"size:255;not null" json:"name"`
	Polygon      datatypes.JSONType[[]LatLng] `json:"polygon"`
	Timezone     string                       `gorm:"size:64" json:"timezone"`
	CurrencyCode string                       `gorm:"size:8" json:"currency_code"`
	IsActive     bool                         `gorm:"index;not null" json:"is_active"`
	// SortOrder pins resolution order when polygons overlap.
	SortOrder int            `gorm:"index;not null" json:"sort_order"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Services []RegionService `gorm:"foreignKey:RegionID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
}

// Vertices returns the stored polygon.
func (r Region) Vertices() []LatLng {
	return r.Polygon.Data()
}
