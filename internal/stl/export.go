// Package stl serialises sculpture scenes to STL for printing and hands the
// bytes to a download sink.
package stl

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
)

// DefaultScale converts scene centimeters to STL millimeters.
const DefaultScale = 10.0

// Format selects the STL encoding.
type Format string

const (
	FormatBinary Format = "binary"
	FormatASCII  Format = "ascii"
)

// ErrNoGeometry is reported when there is nothing to write.
var ErrNoGeometry = errors.New("no geometry to export")

// Options control Export. The zero value writes binary STL at DefaultScale.
type Options struct {
	Filename string  `json:"filename,omitempty"`
	Format   Format  `json:"format,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatBinary
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Filename == "" {
		o.Filename = "route-sculpture.stl"
	}
	return o
}

// Stats are the post-scale geometry counts of an export.
type Stats struct {
	Vertices  int `json:"vertices"`
	Triangles int `json:"triangles"`
}

// Result reports an export. Callers check Success; Export never panics.
type Result struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Filename string `json:"filename,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	Stats    *Stats `json:"stats,omitempty"`
	// Data is the encoded file.
	Data []byte `json:"-"`
}

func failure(err error) Result {
	return Result{Error: err.Error()}
}

// Export clones scene, scales the clone uniformly and encodes it. The
// caller's scene is never modified.
func Export(scene *mesh.Scene, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Errorf("export failed: %v", r))
		}
	}()

	opts = opts.withDefaults()
	if !(opts.Scale > 0) || math.IsInf(opts.Scale, 0) {
		return failure(fmt.Errorf("scale must be a positive finite number, got %v", opts.Scale))
	}
	if _, triangles := scene.Counts(); triangles == 0 {
		return failure(ErrNoGeometry)
	}
	if err := scene.Validate(); err != nil {
		return failure(fmt.Errorf("invalid geometry: %w", err))
	}

	scaled := scene.Clone()
	scaled.Scale(opts.Scale)

	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case FormatBinary:
		_, err = WriteBinary(&buf, scaled)
	case FormatASCII:
		_, err = WriteASCII(&buf, scaled, solidName(opts.Filename))
	default:
		err = fmt.Errorf("unknown STL format %q", opts.Format)
	}
	if err != nil {
		return failure(err)
	}

	vertices, triangles := scaled.Counts()
	monitoring.Logf("stl: encoded %s (%s, %d triangles, %d bytes)", opts.Filename, opts.Format, triangles, buf.Len())
	return Result{
		Success:  true,
		Filename: opts.Filename,
		FileSize: int64(buf.Len()),
		Stats:    &Stats{Vertices: vertices, Triangles: triangles},
		Data:     buf.Bytes(),
	}
}

// ExportCombined merges disjoint geometries into one mesh and exports it.
// An empty list or a failed merge is reported in the Result.
func ExportCombined(geometries []*mesh.Mesh, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Errorf("merge failed: %v", r))
		}
	}()
	if len(geometries) == 0 {
		return failure(ErrNoGeometry)
	}
	merged, err := mesh.Merge("combined", geometries...)
	if err != nil {
		return failure(fmt.Errorf("merge failed: %w", err))
	}
	return Export(mesh.NewScene(merged), opts)
}

func solidName(filename string) string {
	name := strings.TrimSuffix(filename, ".stl")
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "sculpture"
	}
	return name
}
