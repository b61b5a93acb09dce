package region

// Region is the cached snapshot of a stored region.
type Region struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Polygon      Polygon `json:"polygon"`
	Timezone     string  `json:"timezone"`
	CurrencyCode string  `json:"currency_code"`
	Active       bool    `json:"is_active"`
}

// RegionView is the immutable value handed to callers of the resolver.
type RegionView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Timezone     string  `json:"timezone"`
	CurrencyCode string  `json:"currency_code"`
	Polygon      Polygon `json:"polygon"`
}

// View copies the region into a RegionView. The polygon is cloned so callers
// cannot mutate cached geometry.
func (r Region) View() RegionView {
	return RegionView{
		ID:           r.ID,
		Name:         r.Name,
		Timezone:     r.Timezone,
		CurrencyCode: r.CurrencyCode,
		Polygon:      append(Polygon(nil), r.Polygon...),
	}
}
