package elevation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/route-sculpture/internal/route"
)

func TestZoomForSpan(t *testing.T) {
	tests := []struct {
		span float64
		want int
	}{
		{5, 9},
		{1.01, 9},
		{1, 10},
		{0.6, 10},
		{0.3, 11},
		{0.25, 12},
		{0.2, 12},
		{0.1, 13},
		{0.07, 13},
		{0.05, 14},
		{0.001, 14},
		{0, 14},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoomForSpan(tt.span), "span %g", tt.span)
	}
}

func TestZoomForSpan_Monotonic(t *testing.T) {
	prev := ZoomForSpan(0)
	for span := 0.0; span < 3; span += 0.001 {
		z := ZoomForSpan(span)
		if z > prev {
			t.Fatalf("zoom increased from %d to %d at span %g", prev, z, span)
		}
		prev = z
	}
}

func TestTileXY(t *testing.T) {
	assert.Equal(t, 270, LngToTileX(10, 9))
	assert.Equal(t, 173, LatToTileY(50, 9))
	assert.Equal(t, 0, LngToTileX(-180, 3))
	assert.Equal(t, 1, LngToTileX(0, 1))
	assert.Equal(t, 1, LatToTileY(-1, 1))
	assert.Equal(t, 0, LatToTileY(1, 1))
}

func TestTileBounds_ContainsPoint(t *testing.T) {
	for _, z := range []int{9, 12, 14} {
		c := TileCoord{Z: z, X: LngToTileX(10.05, z), Y: LatToTileY(50.05, z)}
		b := TileBounds(c)
		assert.True(t, b.Contains(10.05, 50.05), "zoom %d bounds %v", z, b)
		assert.Less(t, b.MinLat, b.MaxLat)
	}
}

func TestCoveringTiles(t *testing.T) {
	b := route.Bounds{MinLng: 10, MinLat: 50, MaxLng: 10.1, MaxLat: 50.1}
	tiles := CoveringTiles(b, ZoomForSpan(b.MaxSpan()))
	assert.Len(t, tiles, 15) // x 4323..4325, y 2774..2778 at zoom 13
	assert.Equal(t, TileCoord{Z: 13, X: 4323, Y: 2774}, tiles[0])
	assert.Equal(t, TileCoord{Z: 13, X: 4325, Y: 2778}, tiles[len(tiles)-1])
	assert.Equal(t, "13/4323/2774", tiles[0].String())
}

func TestCoveringTiles_ClampsAtPoles(t *testing.T) {
	b := route.Bounds{MinLng: -180, MinLat: -89.9, MaxLng: 180, MaxLat: 89.9}
	tiles := CoveringTiles(b, 1)
	assert.Len(t, tiles, 4)
}
