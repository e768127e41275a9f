package printcheck

import (
	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

const (
	// RimInsetMM is the wall width of the rim shell.
	RimInsetMM = 3.0
	// TerrainFill is the share of the footprint the terrain volume fills.
	TerrainFill = 0.30
	// ShellFraction approximates perimeters and skins on top of infill.
	ShellFraction = 0.15
	// LineWidthMM is the extrusion width used for the infill time term.
	LineWidthMM = 0.4
)

// Dimensions are the overall print extents in mm.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Stats estimate the cost of printing a sculpture.
type Stats struct {
	EstimatedPrintTimeMinutes float64    `json:"estimatedPrintTime"`
	MaterialUsageGrams        float64    `json:"materialUsage"`
	VolumeMM3                 float64    `json:"volume"`
	Dimensions                Dimensions `json:"dimensions"`
	TriangleCount             int        `json:"triangleCount"`
	VertexCount               int        `json:"vertexCount"`
}

// EstimateStats derives print statistics from cfg. Volume is a coarse
// estimate from the outline (base slab, rim shell, and a terrain term of
// TerrainFill of the footprint at full terrain height), not integrated from
// the mesh. Only the triangle and vertex counts read the scene.
func EstimateStats(scene *mesh.Scene, cfg sculpture.Config) Stats {
	p := cfg.Params()
	footprint := cfg.FootprintAreaMM2(0)

	var volume float64
	if cfg.ShowBase {
		volume += footprint * cfg.BaseHeight
	}
	if cfg.RimHeight > 0 {
		volume += (footprint - cfg.FootprintAreaMM2(RimInsetMM)) * cfg.RimHeight
	}
	volume += TerrainFill * footprint * cfg.TerrainHeightMM()

	infill := p.InfillPercent / 100
	grams := (volume*infill + volume*ShellFraction) / 1000 * p.Density

	height := cfg.TotalHeightMM()
	var minutes float64
	if p.LayerHeight > 0 && p.PrintSpeed > 0 {
		layers := height / p.LayerHeight
		perLayer := cfg.PerimeterMM(0)/p.PrintSpeed + footprint*infill/(p.PrintSpeed*LineWidthMM)
		minutes = layers * perLayer / 60
	}

	vertices, triangles := scene.Counts()
	return Stats{
		EstimatedPrintTimeMinutes: minutes,
		MaterialUsageGrams:        grams,
		VolumeMM3:                 volume,
		Dimensions: Dimensions{
			Width:  cfg.SizeMM(),
			Height: height,
			Depth:  cfg.SizeMM(),
		},
		TriangleCount: triangles,
		VertexCount:   vertices,
	}
}
