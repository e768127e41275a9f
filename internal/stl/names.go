package stl

import (
	"strconv"
	"strings"

	"github.com/banshee-data/route-sculpture/internal/sculpture"
	"github.com/banshee-data/route-sculpture/internal/security"
)

// GenerateFilename builds "{slug}-{shape}-{size}cm.stl". The slug comes
// from routeName, or "route-sculpture" when that is empty.
func GenerateFilename(cfg sculpture.Config, routeName string) string {
	slug := security.Slugify(routeName)
	if slug == "" {
		slug = "route-sculpture"
	}
	size := strconv.FormatFloat(cfg.Size, 'f', -1, 64)
	return strings.Join([]string{slug, string(cfg.Shape), size + "cm.stl"}, "-")
}

// Dimensions are print extents in mm.
type Dimensions struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

// CalculatePrintDimensions estimates the printed size from cfg alone. Height
// uses the same terrain heuristic as print statistics.
func CalculatePrintDimensions(cfg sculpture.Config) Dimensions {
	return Dimensions{
		Width:  cfg.SizeMM(),
		Depth:  cfg.SizeMM(),
		Height: cfg.TotalHeightMM(),
	}
}
