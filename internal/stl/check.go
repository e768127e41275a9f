package stl

import (
	"fmt"
	"strings"

	"github.com/banshee-data/route-sculpture/internal/mesh"
)

// MeshCheck is the exporter's own sanity verdict.
type MeshCheck struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
}

// ValidateMeshForPrinting is a light pre-export pass over mesh.Inspect.
// It runs separately from print validation so that export can refuse
// corrupt geometry without a config. NaN coordinates, malformed buffers and
// an empty scene make the scene invalid; the rest are warnings.
func ValidateMeshForPrinting(scene *mesh.Scene) MeshCheck {
	r := mesh.Inspect(scene)
	out := MeshCheck{Valid: true, Warnings: []string{}}
	if r.Empty() {
		out.Valid = false
		out.Warnings = append(out.Warnings, "Scene contains no meshes")
		return out
	}
	for _, name := range r.NonIndexed {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Mesh %s is not indexed and may contain duplicate vertices", name))
	}
	for _, name := range r.LowVertex {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Mesh %s has fewer than %d vertices", name, mesh.MinVertexCount))
	}
	if len(r.Malformed) > 0 {
		out.Valid = false
		out.Warnings = append(out.Warnings, "Malformed geometry: "+strings.Join(r.Malformed, ", "))
	}
	if r.HasNaN() {
		out.Valid = false
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d vertices have NaN coordinates", r.NaNVertices))
	}
	return out
}
