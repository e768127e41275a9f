package elevation

import (
	"math"

	"github.com/banshee-data/route-sculpture/internal/route"
)

// minBuckets is the floor on spatial hash buckets per axis.
const minBuckets = 8

// BuildFromRoute fills a gridSize×gridSize grid by nearest-neighbour lookup
// over the route's elevation-bearing points. Distance is Euclidean in
// (lng, lat) degrees, not geodesic. Returns nil when gridSize < 1 or no
// point carries elevation.
func BuildFromRoute(r *route.Data, gridSize int) Grid {
	if gridSize < 1 {
		return nil
	}
	points := r.ElevationPoints()
	if len(points) == 0 {
		return nil
	}

	bounds := r.EffectiveBounds()
	hash := newSpatialHash(points, bounds, max(minBuckets, gridSize/4))

	grid := NewGrid(gridSize)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			lng, lat := bounds.Lerp(normalised(col, gridSize), normalised(row, gridSize))
			idx, ok := hash.nearest(lng, lat)
			if !ok {
				idx = nearestLinear(points, lng, lat)
			}
			grid[row][col] = *points[idx].Elevation
		}
	}
	return grid
}

// spatialHash buckets points on a uniform n×n lattice over bounds.
type spatialHash struct {
	bounds  route.Bounds
	n       int
	buckets [][]int // bucket index row*n+col -> indices into points
	points  []route.Point
}

func newSpatialHash(points []route.Point, bounds route.Bounds, n int) *spatialHash {
	h := &spatialHash{
		bounds:  bounds,
		n:       n,
		buckets: make([][]int, n*n),
		points:  points,
	}
	for i, p := range points {
		br, bc := h.bucketOf(p.Longitude, p.Latitude)
		h.buckets[br*n+bc] = append(h.buckets[br*n+bc], i)
	}
	return h
}

// bucketOf returns the (row, col) bucket containing (lng, lat), clamped to
// the lattice so points outside bounds land on the edge.
func (h *spatialHash) bucketOf(lng, lat float64) (int, int) {
	return axisBucket(lat, h.bounds.MinLat, h.bounds.LatSpan(), h.n),
		axisBucket(lng, h.bounds.MinLng, h.bounds.LngSpan(), h.n)
}

func axisBucket(v, lo, span float64, n int) int {
	if span <= 0 {
		return 0
	}
	b := int(math.Floor((v - lo) / span * float64(n)))
	return min(max(b, 0), n-1)
}

// nearest searches the 3×3 bucket neighbourhood around (lng, lat). The first
// point found at the minimum distance wins. ok is false when every bucket in
// the neighbourhood is empty.
func (h *spatialHash) nearest(lng, lat float64) (idx int, ok bool) {
	br, bc := h.bucketOf(lng, lat)
	best := math.Inf(1)
	for dr := -1; dr <= 1; dr++ {
		r := br + dr
		if r < 0 || r >= h.n {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			c := bc + dc
			if c < 0 || c >= h.n {
				continue
			}
			for _, i := range h.buckets[r*h.n+c] {
				if d := sqDist(h.points[i], lng, lat); d < best {
					best, idx, ok = d, i, true
				}
			}
		}
	}
	return idx, ok
}

func nearestLinear(points []route.Point, lng, lat float64) int {
	best, idx := math.Inf(1), 0
	for i, p := range points {
		if d := sqDist(p, lng, lat); d < best {
			best, idx = d, i
		}
	}
	return idx
}

func sqDist(p route.Point, lng, lat float64) float64 {
	dx, dy := p.Longitude-lng, p.Latitude-lat
	return dx*dx + dy*dy
}
