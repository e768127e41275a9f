// Package route holds the GPS route model handed to the sculpture pipeline.
//
// Route data is produced upstream (GPX import, drawing tools, Strava) and is
// read-only here: nothing in this module mutates a Data after decoding.
package route

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Point is one sample along a route. Slice order is path order.
type Point struct {
	Latitude  float64    `json:"lat"`
	Longitude float64    `json:"lng"`
	Elevation *float64   `json:"elevation,omitempty"` // meters, nil when the source had none
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// HasElevation reports whether the point carries a usable elevation.
func (p Point) HasElevation() bool {
	return p.Elevation != nil && !math.IsNaN(*p.Elevation)
}

// Stats are the upstream summary figures for a route.
type Stats struct {
	Distance      float64  `json:"distance"`
	ElevationGain float64  `json:"elevationGain"`
	ElevationLoss float64  `json:"elevationLoss"`
	MinElevation  float64  `json:"minElevation"`
	MaxElevation  float64  `json:"maxElevation"`
	Duration      *float64 `json:"duration,omitempty"` // seconds
}

// Data is a complete route as supplied by the import layer.
type Data struct {
	Points []Point `json:"points"`
	Stats  Stats   `json:"stats"`
	Bounds Bounds  `json:"bounds"`
	Source string  `json:"source"`
}

// ElevationPoints returns the subset of points that carry elevation, in path order.
func (d *Data) ElevationPoints() []Point {
	if d == nil {
		return nil
	}
	out := make([]Point, 0, len(d.Points))
	for _, p := range d.Points {
		if p.HasElevation() {
			out = append(out, p)
		}
	}
	return out
}

// HasElevation reports whether at least one point carries elevation.
func (d *Data) HasElevation() bool {
	if d == nil {
		return false
	}
	for _, p := range d.Points {
		if p.HasElevation() {
			return true
		}
	}
	return false
}

// FloorElevation is the route's overall minimum elevation. Stats win when
// they describe a real range; otherwise the value is taken from the points.
// Returns 0 when neither is available.
func (d *Data) FloorElevation() float64 {
	if d == nil {
		return 0
	}
	if d.Stats.MinElevation != 0 || d.Stats.MaxElevation != 0 {
		return d.Stats.MinElevation
	}
	lo, _, ok := d.ElevationRange()
	if !ok {
		return 0
	}
	return lo
}

// ElevationRange returns the min and max elevation across points.
// ok is false when no point carries elevation.
func (d *Data) ElevationRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range d.ElevationPoints() {
		lo = math.Min(lo, *p.Elevation)
		hi = math.Max(hi, *p.Elevation)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// EffectiveBounds returns Bounds when set, otherwise the rectangle covering
// every point. The zero Bounds is returned for an empty route.
func (d *Data) EffectiveBounds() Bounds {
	if d == nil {
		return Bounds{}
	}
	if !d.Bounds.IsZero() {
		return d.Bounds
	}
	return BoundsOf(d.Points)
}

// Decode reads a route from JSON. Missing bounds are derived from the points.
func Decode(r io.Reader) (*Data, error) {
	var d Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode route JSON: %w", err)
	}
	if d.Bounds.IsZero() {
		d.Bounds = BoundsOf(d.Points)
	}
	if !d.Bounds.Valid() {
		return nil, fmt.Errorf("invalid route bounds %v", d.Bounds)
	}
	return &d, nil
}

// Load reads a route JSON file.
func Load(path string) (*Data, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open route file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
