package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Up is the print-bed normal.
var Up = r3.Vec{Z: 1}

// Mesh is a triangle mesh with flat attribute arrays: Positions and Normals
// hold 3 floats per vertex, Indices 3 entries per triangle. A nil Indices
// means every 3 consecutive vertices form a triangle.
type Mesh struct {
	Name      string    `json:"name,omitempty"`
	Positions []float64 `json:"positions"`
	Normals   []float64 `json:"normals,omitempty"`
	Indices   []uint32  `json:"indices,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) / 3 }

// Indexed reports whether the mesh uses an index buffer.
func (m *Mesh) Indexed() bool { return m.Indices != nil }

// HasNormals reports whether there is one normal per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m.Indexed() {
		return len(m.Indices) / 3
	}
	return m.VertexCount() / 3
}

// Vertex returns position i.
func (m *Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{X: m.Positions[3*i], Y: m.Positions[3*i+1], Z: m.Positions[3*i+2]}
}

// Normal returns the normal of vertex i; ok is false without normals.
func (m *Mesh) Normal(i int) (n r3.Vec, ok bool) {
	if !m.HasNormals() {
		return r3.Vec{}, false
	}
	return r3.Vec{X: m.Normals[3*i], Y: m.Normals[3*i+1], Z: m.Normals[3*i+2]}, true
}

// TriangleIndices returns the vertex indices of triangle t.
func (m *Mesh) TriangleIndices(t int) (a, b, c int) {
	if m.Indexed() {
		return int(m.Indices[3*t]), int(m.Indices[3*t+1]), int(m.Indices[3*t+2])
	}
	return 3 * t, 3*t + 1, 3*t + 2
}

// Triangle returns the corner positions of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c r3.Vec) {
	ia, ib, ic := m.TriangleIndices(t)
	return m.Vertex(ia), m.Vertex(ib), m.Vertex(ic)
}

// FaceNormal is the unit normal of triangle (a, b, c) by the right-hand
// rule. Degenerate triangles give the zero vector.
func FaceNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if l := r3.Norm(n); l > 0 {
		return r3.Scale(1/l, n)
	}
	return r3.Vec{}
}

// Validate checks buffer shapes and index ranges.
func (m *Mesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("mesh %q: positions length %d is not a multiple of 3", m.Name, len(m.Positions))
	}
	if len(m.Normals) > 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("mesh %q: %d normals for %d positions", m.Name, len(m.Normals), len(m.Positions))
	}
	if m.Indexed() {
		if len(m.Indices)%3 != 0 {
			return fmt.Errorf("mesh %q: index count %d is not a multiple of 3", m.Name, len(m.Indices))
		}
		n := uint32(m.VertexCount())
		for i, idx := range m.Indices {
			if idx >= n {
				return fmt.Errorf("mesh %q: index %d at %d out of range (%d vertices)", m.Name, idx, i, n)
			}
		}
	} else if m.VertexCount()%3 != 0 {
		return fmt.Errorf("mesh %q: non-indexed vertex count %d is not a multiple of 3", m.Name, m.VertexCount())
	}
	return nil
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{Name: m.Name}
	out.Positions = append([]float64(nil), m.Positions...)
	if m.Normals != nil {
		out.Normals = append([]float64(nil), m.Normals...)
	}
	if m.Indices != nil {
		out.Indices = append([]uint32{}, m.Indices...)
	}
	return out
}

// Scale multiplies every position by f, which must be positive. Normals are
// direction-only and stay unchanged.
func (m *Mesh) Scale(f float64) {
	for i := range m.Positions {
		m.Positions[i] *= f
	}
}

// Bounds is the axis-aligned box around every vertex. ok is false for an
// empty mesh. NaN coordinates are skipped.
func (m *Mesh) Bounds() (box r3.Box, ok bool) {
	box = r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		if isNaNVec(v) {
			continue
		}
		box.Min = r3.Vec{X: math.Min(box.Min.X, v.X), Y: math.Min(box.Min.Y, v.Y), Z: math.Min(box.Min.Z, v.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, v.X), Y: math.Max(box.Max.Y, v.Y), Z: math.Max(box.Max.Z, v.Z)}
		ok = true
	}
	return box, ok
}

// ComputeVertexNormals replaces Normals with area-weighted averages of the
// adjacent face normals.
func (m *Mesh) ComputeVertexNormals() {
	acc := make([]r3.Vec, m.VertexCount())
	for t := 0; t < m.TriangleCount(); t++ {
		ia, ib, ic := m.TriangleIndices(t)
		a, b, c := m.Vertex(ia), m.Vertex(ib), m.Vertex(ic)
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a)) // length is twice the area
		acc[ia] = r3.Add(acc[ia], n)
		acc[ib] = r3.Add(acc[ib], n)
		acc[ic] = r3.Add(acc[ic], n)
	}
	m.Normals = make([]float64, len(m.Positions))
	for i, n := range acc {
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2] = n.X, n.Y, n.Z
	}
}

func isNaNVec(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}
