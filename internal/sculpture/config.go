// Package sculpture describes how a route is turned into a printable object:
// the user-facing SculptureConfig, the per-material physical constants, and
// the size heuristics shared by print validation and STL export.
package sculpture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid sculpture config")

// Material is the print material.
type Material string

const (
	MaterialPLA   Material = "pla"
	MaterialWood  Material = "wood"
	MaterialResin Material = "resin"
)

// Shape is the outline of the base slab.
type Shape string

const (
	ShapeCircular    Shape = "circular"
	ShapeRectangular Shape = "rectangular"
)

// RouteStyle controls whether the route line stands proud of or is cut into the terrain.
type RouteStyle string

const (
	RouteRaised   RouteStyle = "raised"
	RouteEngraved RouteStyle = "engraved"
)

// TerrainMode selects where elevation data comes from.
type TerrainMode string

const (
	// TerrainRoute interpolates the route's own elevation samples.
	TerrainRoute TerrainMode = "route"
	// TerrainTiles fetches Terrain-RGB raster tiles covering the route.
	TerrainTiles TerrainMode = "terrain"
)

// Config is a sculpture configuration. It is a value object: pass it by
// value and never mutate a Config received from a caller.
type Config struct {
	Material           Material    `json:"material" yaml:"material"`
	Shape              Shape       `json:"shape" yaml:"shape"`
	Size               float64     `json:"size" yaml:"size"`                     // cm, diameter or edge length
	BaseHeight         float64     `json:"baseHeight" yaml:"baseHeight"`         // mm
	RimHeight          float64     `json:"rimHeight" yaml:"rimHeight"`           // mm
	RouteThickness     float64     `json:"routeThickness" yaml:"routeThickness"` // mm
	ElevationScale     float64     `json:"elevationScale" yaml:"elevationScale"`
	TerrainHeightLimit float64     `json:"terrainHeightLimit" yaml:"terrainHeightLimit"`
	RouteClearance     float64     `json:"routeClearance" yaml:"routeClearance"`
	TerrainSmoothing   float64     `json:"terrainSmoothing" yaml:"terrainSmoothing"`
	TerrainMode        TerrainMode `json:"terrainMode" yaml:"terrainMode"`
	TerrainResolution  int         `json:"terrainResolution" yaml:"terrainResolution"` // grid size
	RouteColor         string      `json:"routeColor" yaml:"routeColor"`
	RouteStyle         RouteStyle  `json:"routeStyle" yaml:"routeStyle"`
	ShowBase           bool        `json:"showBase" yaml:"showBase"`
}

// MaxTerrainResolution bounds the grid size a config may request.
const MaxTerrainResolution = 512

// DefaultConfig returns the configuration the editor starts from.
// config/sculpture.defaults.json mirrors these values.
func DefaultConfig() Config {
	return Config{
		Material:           MaterialPLA,
		Shape:              ShapeCircular,
		Size:               15,
		BaseHeight:         5,
		RimHeight:          3,
		RouteThickness:     2,
		ElevationScale:     1.5,
		TerrainHeightLimit: 0.8,
		RouteClearance:     0.5,
		TerrainSmoothing:   1,
		TerrainMode:        TerrainRoute,
		TerrainResolution:  128,
		RouteColor:         "#ff4444",
		RouteStyle:         RouteRaised,
		ShowBase:           true,
	}
}

// SizeMM is the footprint size converted from centimeters.
func (c Config) SizeMM() float64 { return c.Size * 10 }

// Validate checks enum membership and numeric ranges.
func (c Config) Validate() error {
	switch c.Material {
	case MaterialPLA, MaterialWood, MaterialResin:
	default:
		return fmt.Errorf("%w: unknown material %q", ErrInvalidConfig, c.Material)
	}
	switch c.Shape {
	case ShapeCircular, ShapeRectangular:
	default:
		return fmt.Errorf("%w: unknown shape %q", ErrInvalidConfig, c.Shape)
	}
	switch c.RouteStyle {
	case RouteRaised, RouteEngraved:
	default:
		return fmt.Errorf("%w: unknown route style %q", ErrInvalidConfig, c.RouteStyle)
	}
	switch c.TerrainMode {
	case TerrainRoute, TerrainTiles:
	default:
		return fmt.Errorf("%w: unknown terrain mode %q", ErrInvalidConfig, c.TerrainMode)
	}
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %g", ErrInvalidConfig, c.Size)
	}
	for name, v := range map[string]float64{
		"baseHeight":         c.BaseHeight,
		"rimHeight":          c.RimHeight,
		"routeThickness":     c.RouteThickness,
		"elevationScale":     c.ElevationScale,
		"terrainHeightLimit": c.TerrainHeightLimit,
		"routeClearance":     c.RouteClearance,
		"terrainSmoothing":   c.TerrainSmoothing,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidConfig, name, v)
		}
	}
	if c.TerrainResolution < 1 || c.TerrainResolution > MaxTerrainResolution {
		return fmt.Errorf("%w: terrainResolution must be between 1 and %d, got %d", ErrInvalidConfig, MaxTerrainResolution, c.TerrainResolution)
	}
	return nil
}

// LoadConfig loads a Config from a JSON or YAML file. Fields omitted from
// the file keep their DefaultConfig values, so partial configs are safe.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return Config{}, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeJSON decodes a JSON document on top of DefaultConfig and validates it.
func DecodeJSON(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
