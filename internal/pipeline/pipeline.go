// Package pipeline chains the sculpture stages: route to elevation grid,
// grid to scene, scene to print report and STL file.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/printcheck"
	"github.com/banshee-data/route-sculpture/internal/route"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
	"github.com/banshee-data/route-sculpture/internal/stl"
)

// ErrNoElevation means the grid came back empty, so there is no surface to build.
var ErrNoElevation = errors.New("route has no elevation data")

// Sculpture is a configured scene, optionally with the grid it was built from.
type Sculpture struct {
	Config sculpture.Config
	Grid   *elevation.Result // nil when the scene was supplied directly
	Scene  *mesh.Scene
}

// FromRoute builds the grid with b and turns it into a heightfield scene.
func FromRoute(ctx context.Context, b *elevation.Builder, r *route.Data, cfg sculpture.Config) (*Sculpture, error) {
	if r == nil {
		return nil, fmt.Errorf("no route supplied")
	}
	res, err := b.Build(ctx, r, cfg.TerrainResolution, cfg.TerrainMode)
	if err != nil {
		return nil, err
	}
	if res.Grid == nil {
		return nil, ErrNoElevation
	}
	scene, err := mesh.FromGrid(res.Grid, cfg)
	if err != nil {
		return nil, err
	}
	return &Sculpture{Config: cfg, Grid: res, Scene: scene}, nil
}

// FromScene wraps an externally built scene.
func FromScene(scene *mesh.Scene, cfg sculpture.Config) *Sculpture {
	return &Sculpture{Config: cfg, Scene: scene}
}

// TileCoverage is the grid's tile coverage, or nil without a grid.
func (s *Sculpture) TileCoverage() *float64 {
	if s.Grid == nil {
		return nil
	}
	c := s.Grid.TileCoverage
	return &c
}

// Validate runs every print check.
func (s *Sculpture) Validate() printcheck.Result {
	return printcheck.Validate(s.Scene, s.Config)
}

// Export encodes the scene. An empty filename is generated from the
// config and routeName.
func (s *Sculpture) Export(routeName string, opts stl.Options) stl.Result {
	if opts.Filename == "" {
		opts.Filename = stl.GenerateFilename(s.Config, routeName)
	}
	return stl.Export(s.Scene, opts)
}
