package elevation

import (
	"fmt"
	"math"

	"github.com/banshee-data/route-sculpture/internal/route"
)

// TileCoord addresses a slippy-map tile.
type TileCoord struct {
	Z, X, Y int
}

func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// zoomSteps maps a bounding-box span (degrees, exclusive lower edge) to a
// tile zoom. Larger areas use coarser tiles so the tile count stays small.
var zoomSteps = []struct {
	span float64
	zoom int
}{
	{1, 9},
	{0.5, 10},
	{0.25, 11},
	{0.1, 12},
	{0.05, 13},
}

// MaxZoom is used for spans of 0.05° or less.
const MaxZoom = 14

// ZoomForSpan picks the tile zoom for a bounding box whose larger side is
// span degrees. Monotonic: a larger span never yields a higher zoom.
func ZoomForSpan(span float64) int {
	for _, s := range zoomSteps {
		if span > s.span {
			return s.zoom
		}
	}
	return MaxZoom
}

// LngToTileX is the tile column containing lng at zoom.
func LngToTileX(lng float64, zoom int) int {
	n := math.Exp2(float64(zoom))
	return int(math.Floor((lng + 180) / 360 * n))
}

// LatToTileY is the tile row containing lat at zoom (Web Mercator, north at row 0).
func LatToTileY(lat float64, zoom int) int {
	n := math.Exp2(float64(zoom))
	rad := lat * math.Pi / 180
	return int(math.Floor((1 - math.Asinh(math.Tan(rad))/math.Pi) / 2 * n))
}

func tileLng(x, zoom int) float64 {
	return float64(x)/math.Exp2(float64(zoom))*360 - 180
}

func tileLat(y, zoom int) float64 {
	n := math.Pi - 2*math.Pi*float64(y)/math.Exp2(float64(zoom))
	return math.Atan(math.Sinh(n)) * 180 / math.Pi
}

// TileBounds is the geographic rectangle covered by c.
func TileBounds(c TileCoord) route.Bounds {
	return route.Bounds{
		MinLng: tileLng(c.X, c.Z),
		MaxLng: tileLng(c.X+1, c.Z),
		MinLat: tileLat(c.Y+1, c.Z),
		MaxLat: tileLat(c.Y, c.Z),
	}
}

// tileRange is the inclusive rectangle of tiles covering a bounding box.
type tileRange struct {
	zoom       int
	minX, maxX int
	minY, maxY int
}

func coveringRange(b route.Bounds, zoom int) tileRange {
	last := int(math.Exp2(float64(zoom))) - 1
	clamp := func(v int) int { return min(max(v, 0), last) }
	return tileRange{
		zoom: zoom,
		minX: clamp(LngToTileX(b.MinLng, zoom)),
		maxX: clamp(LngToTileX(b.MaxLng, zoom)),
		minY: clamp(LatToTileY(b.MaxLat, zoom)),
		maxY: clamp(LatToTileY(b.MinLat, zoom)),
	}
}

func (tr tileRange) coords() []TileCoord {
	out := make([]TileCoord, 0, (tr.maxX-tr.minX+1)*(tr.maxY-tr.minY+1))
	for y := tr.minY; y <= tr.maxY; y++ {
		for x := tr.minX; x <= tr.maxX; x++ {
			out = append(out, TileCoord{Z: tr.zoom, X: x, Y: y})
		}
	}
	return out
}

// owner returns the tile in the range that contains (lng, lat).
func (tr tileRange) owner(lng, lat float64) TileCoord {
	x := min(max(LngToTileX(lng, tr.zoom), tr.minX), tr.maxX)
	y := min(max(LatToTileY(lat, tr.zoom), tr.minY), tr.maxY)
	return TileCoord{Z: tr.zoom, X: x, Y: y}
}

// CoveringTiles lists every tile at zoom that intersects b, row by row from
// the north-west corner.
func CoveringTiles(b route.Bounds, zoom int) []TileCoord {
	return coveringRange(b, zoom).coords()
}
