package elevation

import (
	"context"
	"errors"

	"github.com/banshee-data/route-sculpture/internal/route"
)

// ErrNoTerrainData is returned when not a single covering tile could be fetched.
var ErrNoTerrainData = errors.New("could not fetch terrain data")

// BuildFromTiles samples Terrain-RGB tiles covering the route's bounding box
// into a gridSize×gridSize grid. Cells whose tile failed to download take
// the route's floor elevation. coverage is the fraction of covering tiles
// that were fetched.
//
// A route with no points and no bounds yields a nil grid and no error.
func BuildFromTiles(ctx context.Context, r *route.Data, gridSize int, src *TileSource) (grid Grid, coverage float64, err error) {
	if gridSize < 1 || r == nil {
		return nil, 0, nil
	}
	bounds := r.EffectiveBounds()
	if bounds.IsZero() && len(r.Points) == 0 {
		return nil, 0, nil
	}

	tr := coveringRange(bounds, ZoomForSpan(bounds.MaxSpan()))
	coords := tr.coords()
	tiles, err := src.FetchAll(ctx, coords)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, 0, err
	}
	if len(tiles) == 0 {
		return nil, 0, ErrNoTerrainData
	}

	fallback := r.FloorElevation()
	grid = NewGrid(gridSize)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			lng, lat := bounds.Lerp(normalised(col, gridSize), normalised(row, gridSize))
			if tile, ok := tiles[tr.owner(lng, lat)]; ok {
				grid[row][col] = tile.ElevationAt(lng, lat)
			} else {
				grid[row][col] = fallback
			}
		}
	}
	return grid, float64(len(tiles)) / float64(len(coords)), nil
}
