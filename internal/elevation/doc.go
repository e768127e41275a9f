// Package elevation turns a route into a square grid of elevation values.
//
// Two sources are supported. Route mode interpolates the route's own
// elevation samples with a nearest-neighbour lookup over a spatial hash.
// Terrain mode fetches Terrain-RGB raster tiles covering the route's
// bounding box and samples them per cell.
//
// Key types: Grid, Builder, TileSource, TileCoord.
//
// Grids are created fresh per request and are never mutated after they are
// returned. Builder discards results whose request has been superseded.
package elevation
