package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Scene is a flat graph of meshes as produced by the sculpture builder.
type Scene struct {
	Meshes []*Mesh `json:"meshes"`
}

// NewScene groups meshes into a scene. Nil meshes are dropped.
func NewScene(meshes ...*Mesh) *Scene {
	s := &Scene{}
	for _, m := range meshes {
		if m != nil {
			s.Meshes = append(s.Meshes, m)
		}
	}
	return s
}

// Walk calls fn for every mesh in order.
func (s *Scene) Walk(fn func(*Mesh)) {
	if s == nil {
		return
	}
	for _, m := range s.Meshes {
		if m != nil {
			fn(m)
		}
	}
}

// Clone deep-copies the scene so the copy can be transformed freely.
func (s *Scene) Clone() *Scene {
	out := &Scene{}
	s.Walk(func(m *Mesh) { out.Meshes = append(out.Meshes, m.Clone()) })
	return out
}

// Scale scales every mesh uniformly in place.
func (s *Scene) Scale(f float64) {
	s.Walk(func(m *Mesh) { m.Scale(f) })
}

// Counts returns the total vertices and triangles across meshes.
func (s *Scene) Counts() (vertices, triangles int) {
	s.Walk(func(m *Mesh) {
		vertices += m.VertexCount()
		triangles += m.TriangleCount()
	})
	return vertices, triangles
}

// Bounds is the box around every mesh. ok is false when the scene has no vertices.
func (s *Scene) Bounds() (box r3.Box, ok bool) {
	box = r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	s.Walk(func(m *Mesh) {
		b, has := m.Bounds()
		if !has {
			return
		}
		box.Min = r3.Vec{X: math.Min(box.Min.X, b.Min.X), Y: math.Min(box.Min.Y, b.Min.Y), Z: math.Min(box.Min.Z, b.Min.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, b.Max.X), Y: math.Max(box.Max.Y, b.Max.Y), Z: math.Max(box.Max.Z, b.Max.Z)}
		ok = true
	})
	return box, ok
}

// Validate checks every mesh's buffers.
func (s *Scene) Validate() error {
	var errs []error
	s.Walk(func(m *Mesh) {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// ErrNothingToMerge is returned by Merge for an empty input.
var ErrNothingToMerge = errors.New("no geometries to merge")

// Merge concatenates disjoint geometries into one indexed mesh. Non-indexed
// inputs get identity indices. Normals survive only if every input has them.
func Merge(name string, meshes ...*Mesh) (*Mesh, error) {
	if len(meshes) == 0 {
		return nil, ErrNothingToMerge
	}
	keepNormals := true
	for i, m := range meshes {
		if m == nil {
			return nil, fmt.Errorf("geometry %d is nil", i)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		keepNormals = keepNormals && m.HasNormals()
	}

	out := &Mesh{Name: name, Indices: []uint32{}}
	for _, m := range meshes {
		offset := uint32(out.VertexCount())
		if uint64(offset)+uint64(m.VertexCount()) > math.MaxUint32 {
			return nil, fmt.Errorf("merged geometry exceeds %d vertices", uint64(math.MaxUint32))
		}
		out.Positions = append(out.Positions, m.Positions...)
		if keepNormals {
			out.Normals = append(out.Normals, m.Normals...)
		}
		for t := 0; t < m.TriangleCount(); t++ {
			a, b, c := m.TriangleIndices(t)
			out.Indices = append(out.Indices, offset+uint32(a), offset+uint32(b), offset+uint32(c))
		}
	}
	return out, nil
}
