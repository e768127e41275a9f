package elevation

import (
	"gonum.org/v1/gonum/floats"
)

// Grid is a square raster of elevations in meters, indexed [row][col].
// Row grows with normalised latitude, col with normalised longitude.
type Grid [][]float64

// NewGrid allocates a size×size grid backed by one contiguous slice.
func NewGrid(size int) Grid {
	if size < 1 {
		return nil
	}
	backing := make([]float64, size*size)
	g := make(Grid, size)
	for r := range g {
		g[r] = backing[r*size : (r+1)*size : (r+1)*size]
	}
	return g
}

// Size is the grid dimension (rows == cols).
func (g Grid) Size() int { return len(g) }

// Flatten returns the cells in row-major order as a new slice.
func (g Grid) Flatten() []float64 {
	out := make([]float64, 0, len(g)*len(g))
	for _, row := range g {
		out = append(out, row...)
	}
	return out
}

// Stats summarises a grid.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Stats returns min, max, and mean elevation. The zero Stats is returned
// for an empty grid.
func (g Grid) Stats() Stats {
	vals := g.Flatten()
	if len(vals) == 0 {
		return Stats{}
	}
	return Stats{
		Min:  floats.Min(vals),
		Max:  floats.Max(vals),
		Mean: floats.Sum(vals) / float64(len(vals)),
	}
}

// normalised maps index i of n evenly spaced samples onto [0,1].
// A single sample sits in the middle.
func normalised(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}
