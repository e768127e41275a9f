package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

// FromGrid builds a closed heightfield solid from an elevation grid. The
// footprint is a square of cfg.Size cm centred on the origin; the bottom
// sits on z=0, the lowest grid cell at the base height and the highest at
// base + terrain height. The outline is square for every Shape.
//
// The bottom is a fan over the outline vertices. Outline vertices carry
// horizontal outward normals and the fan centre points straight down, so
// the bed face contributes a single downward vertex.
func FromGrid(g elevation.Grid, cfg sculpture.Config) (*Scene, error) {
	n := g.Size()
	if n < 2 {
		return nil, fmt.Errorf("grid size %d too small for a surface", n)
	}
	st := g.Stats()
	span := st.Max - st.Min

	size := cfg.Size
	base := cfg.BaseHeight / 10
	relief := cfg.TerrainHeightMM() / 10
	coord := func(i int) float64 { return -size/2 + size*float64(i)/float64(n-1) }

	// outline counter-clockwise seen from above
	type rc struct{ row, col int }
	loop := make([]rc, 0, 4*(n-1))
	for col := 0; col < n-1; col++ {
		loop = append(loop, rc{0, col})
	}
	for row := 0; row < n-1; row++ {
		loop = append(loop, rc{row, n - 1})
	}
	for col := n - 1; col > 0; col-- {
		loop = append(loop, rc{n - 1, col})
	}
	for row := n - 1; row > 0; row-- {
		loop = append(loop, rc{row, 0})
	}

	m := &Mesh{Name: "terrain"}
	m.Positions = make([]float64, 0, 3*(n*n+len(loop)+1))
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			z := base
			if span > 0 {
				z += relief * (g[row][col] - st.Min) / span
			}
			m.Positions = append(m.Positions, coord(col), coord(row), z)
		}
	}
	for _, p := range loop {
		m.Positions = append(m.Positions, coord(p.col), coord(p.row), 0)
	}
	m.Positions = append(m.Positions, 0, 0, 0)

	top := func(row, col int) uint32 { return uint32(row*n + col) }
	ring := func(k int) uint32 { return uint32(n*n + k%len(loop)) }
	centre := uint32(n*n + len(loop))

	m.Indices = make([]uint32, 0, 3*(2*(n-1)*(n-1)+3*len(loop)))
	for row := 0; row < n-1; row++ {
		for col := 0; col < n-1; col++ {
			a, b, c, d := top(row, col), top(row, col+1), top(row+1, col+1), top(row+1, col)
			m.Indices = append(m.Indices, a, b, c, a, c, d)
		}
	}
	for k, p := range loop {
		q := loop[(k+1)%len(loop)]
		a, b := top(p.row, p.col), top(q.row, q.col)
		a2, b2 := ring(k), ring(k+1)
		m.Indices = append(m.Indices, a2, b2, b, a2, b, a)
		m.Indices = append(m.Indices, centre, b2, a2)
	}

	m.ComputeVertexNormals()
	for k, p := range loop {
		var out r3.Vec
		switch p.col {
		case 0:
			out.X = -1
		case n - 1:
			out.X = 1
		}
		switch p.row {
		case 0:
			out.Y = -1
		case n - 1:
			out.Y = 1
		}
		out = r3.Unit(out)
		i := 3 * int(ring(k))
		m.Normals[i], m.Normals[i+1], m.Normals[i+2] = out.X, out.Y, out.Z
	}
	i := 3 * int(centre)
	m.Normals[i], m.Normals[i+1], m.Normals[i+2] = 0, 0, -1
	return NewScene(m), nil
}

// NewBox returns an indexed axis-aligned box with outward winding. Each
// corner's normal points away from the box centre.
func NewBox(lo, hi r3.Vec) *Mesh {
	m := &Mesh{Name: "box"}
	for i := 0; i < 8; i++ {
		v := lo
		if i&1 != 0 {
			v.X = hi.X
		}
		if i&2 != 0 {
			v.Y = hi.Y
		}
		if i&4 != 0 {
			v.Z = hi.Z
		}
		m.Positions = append(m.Positions, v.X, v.Y, v.Z)
	}
	m.Indices = []uint32{
		0, 2, 3, 0, 3, 1, // bottom (-Z)
		4, 5, 7, 4, 7, 6, // top (+Z)
		0, 1, 5, 0, 5, 4, // -Y
		2, 6, 7, 2, 7, 3, // +Y
		0, 4, 6, 0, 6, 2, // -X
		1, 3, 7, 1, 7, 5, // +X
	}
	centre := r3.Scale(0.5, r3.Add(lo, hi))
	for i := 0; i < 8; i++ {
		n := r3.Unit(r3.Sub(m.Vertex(i), centre))
		m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	}
	return m
}
