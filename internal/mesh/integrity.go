package mesh

import (
	"fmt"
	"math"
)

// MinVertexCount is the smallest vertex count a printable mesh plausibly has.
const MinVertexCount = 12

// IntegrityReport is the result of one pass over a scene's geometry.
// It does not inspect topology: shared-edge counts and watertightness are
// not checked.
type IntegrityReport struct {
	Meshes    int `json:"meshes"`
	Vertices  int `json:"vertices"`
	Triangles int `json:"triangles"`

	// NaNVertices counts vertices with at least one NaN coordinate.
	NaNVertices int `json:"nanVertices"`
	// NonIndexed, LowVertex and Malformed name the offending meshes.
	NonIndexed []string `json:"nonIndexed,omitempty"`
	LowVertex  []string `json:"lowVertex,omitempty"`
	Malformed  []string `json:"malformed,omitempty"`
}

// Empty reports whether the scene has no meshes at all.
func (r IntegrityReport) Empty() bool { return r.Meshes == 0 }

// HasNaN reports whether any vertex coordinate is NaN.
func (r IntegrityReport) HasNaN() bool { return r.NaNVertices > 0 }

// Inspect walks every mesh once and records integrity findings.
func Inspect(s *Scene) IntegrityReport {
	var r IntegrityReport
	i := 0
	s.Walk(func(m *Mesh) {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh[%d]", i)
		}
		i++

		r.Meshes++
		r.Vertices += m.VertexCount()
		r.Triangles += m.TriangleCount()
		if !m.Indexed() {
			r.NonIndexed = append(r.NonIndexed, name)
		}
		if m.VertexCount() < MinVertexCount {
			r.LowVertex = append(r.LowVertex, name)
		}
		if err := m.Validate(); err != nil {
			r.Malformed = append(r.Malformed, name)
		}
		for v := 0; v < m.VertexCount(); v++ {
			p := m.Positions[3*v : 3*v+3]
			if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsNaN(p[2]) {
				r.NaNVertices++
			}
		}
	})
	return r
}
