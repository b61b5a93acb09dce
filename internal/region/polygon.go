package region

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a WGS84 coordinate. It encodes to JSON as a [lat, lng] pair.
type Point struct {
	Lat float64
	Lng float64
}

// MarshalJSON encodes the point as [lat, lng].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lng})
}

// UnmarshalJSON decodes a [lat, lng] pair.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("region: decode point: %w", err)
	}
	p.Lat, p.Lng = pair[0], pair[1]
	return nil
}

// Polygon is a closed ring of points. The last point connects back to the first,
// so a trailing duplicate of the first point is allowed but not required.
type Polygon []Point

// Validate reports ErrInvalidPolygon when the ring has fewer than three distinct
// vertices or carries a non-finite coordinate.
func (p Polygon) Validate() error {
	for i, pt := range p {
		if !finite(pt.Lat) || !finite(pt.Lng) {
			return fmt.Errorf("%w: vertex %d is not finite", ErrInvalidPolygon, i)
		}
	}
	if p.vertexCount() < 3 {
		return fmt.Errorf("%w: %d usable vertices, need at least 3", ErrInvalidPolygon, p.vertexCount())
	}
	return nil
}

// vertexCount ignores a closing vertex that repeats the first one.
func (p Polygon) vertexCount() int {
	n := len(p)
	if n > 1 && p[0] == p[n-1] {
		n--
	}
	return n
}

// Contains reports whether pt lies inside the polygon using the even-odd rule.
//
// Every edge is visited. An edge takes part only when pt.Lng falls in the
// half-open span (min lng, max lng], pt.Lat does not exceed the edge's larger
// latitude and the edge's longitudes differ. Such an edge flips the parity when
// its latitudes are equal or when pt.Lat is at or below the latitude obtained by
// interpolating the edge at pt.Lng. Points on a boundary therefore get a fixed
// answer that depends on which edge they sit on.
//
// Invalid polygons never contain anything.
func Contains(pt Point, poly Polygon) bool {
	if !finite(pt.Lat) || !finite(pt.Lng) {
		return false
	}
	if poly.Validate() != nil {
		return false
	}
	return contains(pt, poly)
}

// contains runs the parity walk on a polygon the caller already validated.
func contains(pt Point, poly Polygon) bool {
	inside := false
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]

		if a.Lng == b.Lng {
			continue
		}
		if pt.Lng <= math.Min(a.Lng, b.Lng) || pt.Lng > math.Max(a.Lng, b.Lng) {
			continue
		}
		if pt.Lat > math.Max(a.Lat, b.Lat) {
			continue
		}

		if a.Lat == b.Lat {
			inside = !inside
			continue
		}
		crossLat := (pt.Lng-a.Lng)*(b.Lat-a.Lat)/(b.Lng-a.Lng) + a.Lat
		if pt.Lat <= crossLat {
			inside = !inside
		}
	}
	return inside
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
