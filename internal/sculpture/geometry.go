package sculpture

import "math"

// TerrainHeightMM is the tallest the terrain surface may rise above the
// base, in mm. Print statistics and the exporter's dimension estimate both
// use this one formula.
func TerrainHeightMM(elevationScale float64) float64 {
	return elevationScale * 10
}

// TerrainHeightMM is the terrain height for this config.
func (c Config) TerrainHeightMM() float64 {
	return TerrainHeightMM(c.ElevationScale)
}

// TotalHeightMM is base + rim + terrain.
func (c Config) TotalHeightMM() float64 {
	return c.BaseHeight + c.RimHeight + c.TerrainHeightMM()
}

// FootprintAreaMM2 is the area of the outline shrunk by inset mm on every
// side. A disc for circular shapes, a square otherwise.
func (c Config) FootprintAreaMM2(inset float64) float64 {
	side := math.Max(0, c.SizeMM()-2*inset)
	if c.Shape == ShapeCircular {
		r := side / 2
		return math.Pi * r * r
	}
	return side * side
}

// PerimeterMM is the outline length shrunk by inset mm.
func (c Config) PerimeterMM(inset float64) float64 {
	side := math.Max(0, c.SizeMM()-2*inset)
	if c.Shape == ShapeCircular {
		return math.Pi * side
	}
	return 4 * side
}
