package route

import (
	"encoding/json"
	"fmt"
	"math"
)

// Bounds is an axis-aligned lat/lng rectangle. On the wire it uses the
// GeoJSON-style corner form [[minLng,minLat],[maxLng,maxLat]].
type Bounds struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
}

// BoundsOf returns the rectangle covering every point. The zero Bounds is
// returned for an empty slice.
func BoundsOf(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinLng: math.Inf(1), MinLat: math.Inf(1),
		MaxLng: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, p := range points {
		b.MinLng = math.Min(b.MinLng, p.Longitude)
		b.MinLat = math.Min(b.MinLat, p.Latitude)
		b.MaxLng = math.Max(b.MaxLng, p.Longitude)
		b.MaxLat = math.Max(b.MaxLat, p.Latitude)
	}
	return b
}

// IsZero reports whether b is the zero value.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Valid reports whether the corners are ordered and finite.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.MinLng, b.MinLat, b.MaxLng, b.MaxLat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.MinLng <= b.MaxLng && b.MinLat <= b.MaxLat
}

// LngSpan is the east-west extent in degrees.
func (b Bounds) LngSpan() float64 { return b.MaxLng - b.MinLng }

// LatSpan is the north-south extent in degrees.
func (b Bounds) LatSpan() float64 { return b.MaxLat - b.MinLat }

// MaxSpan is the larger of the two extents.
func (b Bounds) MaxSpan() float64 { return math.Max(b.LngSpan(), b.LatSpan()) }

// Contains reports whether (lng, lat) lies inside b, edges included.
func (b Bounds) Contains(lng, lat float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng && lat >= b.MinLat && lat <= b.MaxLat
}

// Lerp maps normalised coordinates (u along longitude, v along latitude,
// both in [0,1]) to a geographic position inside b.
func (b Bounds) Lerp(u, v float64) (lng, lat float64) {
	return b.MinLng + u*b.LngSpan(), b.MinLat + v*b.LatSpan()
}

func (b Bounds) String() string {
	return fmt.Sprintf("[[%g,%g],[%g,%g]]", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

// MarshalJSON writes the corner form.
func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{{b.MinLng, b.MinLat}, {b.MaxLng, b.MaxLat}})
}

// UnmarshalJSON accepts the corner form or null.
func (b *Bounds) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = Bounds{}
		return nil
	}
	var corners [2][2]float64
	if err := json.Unmarshal(data, &corners); err != nil {
		return fmt.Errorf("bounds must be [[minLng,minLat],[maxLng,maxLat]]: %w", err)
	}
	*b = Bounds{
		MinLng: corners[0][0], MinLat: corners[0][1],
		MaxLng: corners[1][0], MaxLat: corners[1][1],
	}
	return nil
}
