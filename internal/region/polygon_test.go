package region

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var lampung = Polygon{
	{Lat: -6.1, Lng: 106.7},
	{Lat: -6.1, Lng: 106.9},
	{Lat: -6.3, Lng: 106.9},
	{Lat: -6.3, Lng: 106.7},
	{Lat: -6.1, Lng: 106.7},
}

func TestContainsLampung(t *testing.T) {
	require.True(t, Contains(Point{Lat: -6.2, Lng: 106.8}, lampung))
	require.False(t, Contains(Point{Lat: 0, Lng: 0}, lampung))
}

func TestContainsBoundaryIsPinned(t *testing.T) {
	cases := []struct {
		name string
		pt   Point
		want bool
	}{
		{"north edge", Point{Lat: -6.1, Lng: 106.8}, true},
		{"south edge", Point{Lat: -6.3, Lng: 106.8}, false},
		{"west edge", Point{Lat: -6.2, Lng: 106.7}, false},
		{"east edge", Point{Lat: -6.2, Lng: 106.9}, true},
		{"north west corner", Point{Lat: -6.1, Lng: 106.7}, false},
		{"north east corner", Point{Lat: -6.1, Lng: 106.9}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				require.Equal(t, tc.want, Contains(tc.pt, lampung))
			}
		})
	}
}

func TestContainsTriangle(t *testing.T) {
	triangle := Polygon{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 0}, {Lat: 0, Lng: 10}}

	require.True(t, Contains(Point{Lat: 2, Lng: 2}, triangle))
	require.False(t, Contains(Point{Lat: 9, Lng: 9}, triangle))
	require.False(t, Contains(Point{Lat: -1, Lng: 5}, triangle))
	require.False(t, Contains(Point{Lat: 2, Lng: 11}, triangle))
}

func TestContainsConcave(t *testing.T) {
	// U shape opening to the north.
	u := Polygon{
		{Lat: 0, Lng: 0}, {Lat: 10, Lng: 0}, {Lat: 10, Lng: 3}, {Lat: 3, Lng: 3},
		{Lat: 3, Lng: 7}, {Lat: 10, Lng: 7}, {Lat: 10, Lng: 10}, {Lat: 0, Lng: 10},
	}

	require.True(t, Contains(Point{Lat: 5, Lng: 1.5}, u))
	require.True(t, Contains(Point{Lat: 5, Lng: 8.5}, u))
	require.True(t, Contains(Point{Lat: 1.5, Lng: 5}, u))
	require.False(t, Contains(Point{Lat: 5, Lng: 5}, u))
}

func TestContainsClosingVertexIsOptional(t *testing.T) {
	open := lampung[:4]
	for _, pt := range []Point{{Lat: -6.2, Lng: 106.8}, {Lat: -6.15, Lng: 106.75}, {Lat: 0, Lng: 0}, {Lat: -6.3, Lng: 106.8}} {
		require.Equal(t, Contains(pt, lampung), Contains(pt, open), "point %+v", pt)
	}
}

func TestContainsDegenerateInputs(t *testing.T) {
	pt := Point{Lat: 1, Lng: 1}

	require.False(t, Contains(pt, nil))
	require.False(t, Contains(pt, Polygon{}))
	require.False(t, Contains(pt, Polygon{{Lat: 0, Lng: 0}}))
	require.False(t, Contains(pt, Polygon{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 2}}))
	require.False(t, Contains(pt, Polygon{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 2}, {Lat: 0, Lng: 0}}))
	require.False(t, Contains(pt, Polygon{{Lat: 0, Lng: 0}, {Lat: math.NaN(), Lng: 2}, {Lat: 2, Lng: 0}}))

	square := Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0}}
	require.False(t, Contains(Point{Lat: math.NaN(), Lng: 1}, square))
	require.False(t, Contains(Point{Lat: 1, Lng: math.Inf(1)}, square))
}

// Points well inside a convex polygon are contained; points beyond its bounding
// box never are.
func TestContainsRandomConvexPolygons(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		centerLat := rng.Float64()*160 - 80
		centerLng := rng.Float64()*340 - 170
		radius := 0.01 + rng.Float64()*5
		sides := 3 + rng.Intn(12)

		poly := make(Polygon, 0, sides)
		for i := 0; i < sides; i++ {
			angle := 2 * math.Pi * float64(i) / float64(sides)
			poly = append(poly, Point{
				Lat: centerLat + radius*math.Sin(angle),
				Lng: centerLng + radius*math.Cos(angle),
			})
		}

		// The inscribed circle of a regular polygon has radius r*cos(pi/n).
		inner := radius * math.Cos(math.Pi/float64(sides)) * 0.9
		for sample := 0; sample < 10; sample++ {
			angle := rng.Float64() * 2 * math.Pi
			dist := rng.Float64() * inner
			pt := Point{Lat: centerLat + dist*math.Sin(angle), Lng: centerLng + dist*math.Cos(angle)}
			require.True(t, Contains(pt, poly), "round %d: %+v should be inside", round, pt)
		}

		outside := Point{Lat: centerLat + radius*1.5, Lng: centerLng}
		require.False(t, Contains(outside, poly), "round %d", round)
		outside = Point{Lat: centerLat, Lng: centerLng - radius*1.5}
		require.False(t, Contains(outside, poly), "round %d", round)
	}
}

// The resolver validates once and then calls contains directly.
func TestContainsMatchesUncheckedWalk(t *testing.T) {
	for lat := -6.35; lat <= -6.05; lat += 0.05 {
		for lng := 106.65; lng <= 106.95; lng += 0.05 {
			pt := Point{Lat: lat, Lng: lng}
			require.Equal(t, Contains(pt, lampung), contains(pt, lampung), "%+v", pt)
		}
	}
	require.NoError(t, lampung.Validate())
}

func TestPolygonValidate(t *testing.T) {
	require.NoError(t, lampung.Validate())
	require.NoError(t, lampung[:3].Validate())
	require.ErrorIs(t, Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}}.Validate(), ErrInvalidPolygon)
	require.ErrorIs(t, Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: math.Inf(-1)}, {Lat: 2, Lng: 0}}.Validate(), ErrInvalidPolygon)
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Polygon{{Lat: -6.1, Lng: 106.7}})
	require.NoError(t, err)
	require.JSONEq(t, `[[-6.1,106.7]]`, string(data))

	var poly Polygon
	require.NoError(t, json.Unmarshal([]byte(`[[1.5,2.5],[3,4]]`), &poly))
	require.Equal(t, Polygon{{Lat: 1.5, Lng: 2.5}, {Lat: 3, Lng: 4}}, poly)

	require.Error(t, json.Unmarshal([]byte(`[["a","b"]]`), &poly))
}
