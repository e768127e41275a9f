package stl

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

func unitBox() *mesh.Mesh {
	return mesh.NewBox(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
}

func TestExport_Binary(t *testing.T) {
	s := mesh.NewScene(unitBox())
	res := Export(s, Options{Filename: "box.stl"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "box.stl", res.Filename)
	assert.Equal(t, BinarySize(12), res.FileSize)
	assert.Equal(t, int64(684), res.FileSize)
	assert.Equal(t, &Stats{Vertices: 8, Triangles: 12}, res.Stats)
	assert.False(t, bytes.HasPrefix(res.Data, []byte("solid")), "binary header must not look like ASCII")

	m, err := Read(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 12, m.TriangleCount())
	box, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 10, Y: 10, Z: 10}, box.Max, "default scale is 10")
}

func TestExport_ASCII(t *testing.T) {
	res := Export(mesh.NewScene(unitBox()), Options{Filename: "my box.stl", Format: FormatASCII, Scale: 2})
	require.True(t, res.Success, res.Error)

	text := string(res.Data)
	assert.True(t, strings.HasPrefix(text, "solid my_box\n"))
	assert.True(t, strings.HasSuffix(text, "endsolid my_box\n"))
	assert.Equal(t, 12, strings.Count(text, "facet normal"))

	m, err := Read(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "my_box", m.Name)
	assert.Equal(t, 12, m.TriangleCount())
	box, _ := m.Bounds()
	assert.InDelta(t, 2.0, box.Max.Z, 1e-9)

	// facet normals survive the round trip
	n, ok := m.Normal(0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r3.Norm(n), 1e-6)
}

func TestExport_DoesNotMutateScene(t *testing.T) {
	s := mesh.NewScene(unitBox(), mesh.NewBox(r3.Vec{X: 3}, r3.Vec{X: 4, Y: 2, Z: 1}))
	before := s.Clone()
	res := Export(s, Options{Scale: 25})
	require.True(t, res.Success)
	if diff := cmp.Diff(before, s); diff != "" {
		t.Fatalf("scene mutated (-before +after):\n%s", diff)
	}
}

func TestExport_CountsInvariantUnderScale(t *testing.T) {
	s := mesh.NewScene(unitBox(), unitBox())
	var want *Stats
	for _, scale := range []float64{0.1, 1, 10, 1000} {
		res := Export(s, Options{Scale: scale})
		require.True(t, res.Success)
		if want == nil {
			want = res.Stats
			continue
		}
		assert.Equal(t, want, res.Stats, "scale %v", scale)
	}
}

func TestExport_Failures(t *testing.T) {
	tests := []struct {
		name  string
		scene *mesh.Scene
		opts  Options
	}{
		{"nil scene", nil, Options{}},
		{"no meshes", mesh.NewScene(), Options{}},
		{"no triangles", mesh.NewScene(&mesh.Mesh{}), Options{}},
		{"bad indices", mesh.NewScene(&mesh.Mesh{Positions: make([]float64, 9), Indices: []uint32{0, 1, 4}}), Options{}},
		{"negative scale", mesh.NewScene(unitBox()), Options{Scale: -1}},
		{"NaN scale", mesh.NewScene(unitBox()), Options{Scale: math.NaN()}},
		{"infinite scale", mesh.NewScene(unitBox()), Options{Scale: math.Inf(1)}},
		{"negative infinite scale", mesh.NewScene(unitBox()), Options{Scale: math.Inf(-1)}},
		{"unknown format", mesh.NewScene(unitBox()), Options{Format: "obj"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res Result
			require.NotPanics(t, func() { res = Export(tt.scene, tt.opts) })
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
			assert.Nil(t, res.Data)
		})
	}
}

func TestExportCombined(t *testing.T) {
	res := ExportCombined([]*mesh.Mesh{unitBox(), mesh.NewBox(r3.Vec{X: 2}, r3.Vec{X: 3, Y: 1, Z: 1})}, Options{})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, &Stats{Vertices: 16, Triangles: 24}, res.Stats)
	assert.Equal(t, BinarySize(24), res.FileSize)
}

func TestExportCombined_Empty(t *testing.T) {
	for _, in := range [][]*mesh.Mesh{nil, {}} {
		var res Result
		require.NotPanics(t, func() { res = ExportCombined(in, Options{}) })
		assert.False(t, res.Success)
		assert.Equal(t, ErrNoGeometry.Error(), res.Error)
	}
}

func TestExportCombined_MergeFailure(t *testing.T) {
	res := ExportCombined([]*mesh.Mesh{unitBox(), nil}, Options{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "merge failed")

	res = ExportCombined([]*mesh.Mesh{{Positions: []float64{1, 2}}}, Options{})
	assert.False(t, res.Success)
}

func TestRead_Malformed(t *testing.T) {
	tests := map[string]string{
		"garbage":       "not an stl",
		"short binary":  strings.Repeat("x", 90),
		"bad facet":     "solid x\nfacet normal 0 0\nendsolid x\n",
		"bad vertex":    "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 zz\n",
		"two vertices":  "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid x\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			assert.True(t, errors.Is(err, ErrMalformed), "err = %v", err)
		})
	}
}

func TestRead_BinaryHeaderStartingWithSolid(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteBinary(&buf, mesh.NewScene(unitBox()))
	require.NoError(t, err)
	data := buf.Bytes()
	copy(data, "solid lookalike")

	m, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 12, m.TriangleCount())
}

func TestWriteBinary_Counts(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteBinary(&buf, mesh.NewScene(unitBox()))
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, BinarySize(12), n)
}

func TestValidateMeshForPrinting(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		c := ValidateMeshForPrinting(mesh.NewScene())
		assert.False(t, c.Valid)
		assert.Len(t, c.Warnings, 1)
	})

	t.Run("small box warns", func(t *testing.T) {
		c := ValidateMeshForPrinting(mesh.NewScene(unitBox()))
		assert.True(t, c.Valid)
		require.Len(t, c.Warnings, 1)
		assert.Contains(t, c.Warnings[0], "fewer than 12 vertices")
	})

	t.Run("non-indexed with nan", func(t *testing.T) {
		soup := &mesh.Mesh{Name: "soup", Positions: make([]float64, 36)}
		soup.Positions[0] = math.NaN()
		c := ValidateMeshForPrinting(mesh.NewScene(soup))
		assert.False(t, c.Valid)
		assert.Len(t, c.Warnings, 2)
		assert.Contains(t, c.Warnings[0], "not indexed")
		assert.Contains(t, c.Warnings[1], "NaN")
	})

	t.Run("heightfield is clean", func(t *testing.T) {
		g := make([][]float64, 4)
		for i := range g {
			g[i] = []float64{1, 2, 3, 4}
		}
		s, err := mesh.FromGrid(g, sculpture.DefaultConfig())
		require.NoError(t, err)
		c := ValidateMeshForPrinting(s)
		assert.True(t, c.Valid)
		assert.Empty(t, c.Warnings)
	})
}

func TestGenerateFilename(t *testing.T) {
	cfg := sculpture.DefaultConfig()
	assert.Equal(t, "morning-ride-circular-15cm.stl", GenerateFilename(cfg, "Morning Ride"))
	assert.Equal(t, "route-sculpture-circular-15cm.stl", GenerateFilename(cfg, ""))
	assert.Equal(t, "route-sculpture-circular-15cm.stl", GenerateFilename(cfg, "!!!"))

	cfg.Shape = sculpture.ShapeRectangular
	cfg.Size = 12.5
	assert.Equal(t, "alpe-d-huez-rectangular-12.5cm.stl", GenerateFilename(cfg, "Alpe d'Huez"))
}

func TestCalculatePrintDimensions(t *testing.T) {
	cfg := sculpture.DefaultConfig()
	assert.Equal(t, Dimensions{Width: 150, Depth: 150, Height: 23}, CalculatePrintDimensions(cfg))

	cfg.ElevationScale = 3
	cfg.RimHeight = 0
	assert.Equal(t, 35.0, CalculatePrintDimensions(cfg).Height)
}
