package printcheck

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

const (
	// BedSizeMM is a common printer bed edge used as the size reference.
	BedSizeMM = 220.0
	// MinBaseHeightMM is the thinnest base considered stable.
	MinBaseHeightMM = 3.0
	// MinRimHeightMM is the thinnest rim that prints cleanly.
	MinRimHeightMM = 1.0
	// MinEngravedRouteMM is the narrowest engraved route line that resolves.
	MinEngravedRouteMM = 1.5
	// OverhangWarnFraction is the share of steep downward normals that
	// triggers an overhang warning.
	OverhangWarnFraction = 0.10
)

// checkWallThickness is informational. The sculpture's thinnest wall is
// the base slab, so baseHeight stands in for a ray-cast measurement.
func checkWallThickness(cfg sculpture.Config, p sculpture.MaterialParams) Check {
	c := Check{
		ID:        CheckWallThickness,
		Name:      "Wall Thickness",
		Passed:    cfg.BaseHeight >= p.MinWallThickness,
		Severity:  SeverityInfo,
		Value:     ptr(cfg.BaseHeight),
		Threshold: ptr(p.MinWallThickness),
	}
	if c.Passed {
		c.Message = fmt.Sprintf("Base thickness %.1fmm meets the %.1fmm minimum for %s", cfg.BaseHeight, p.MinWallThickness, cfg.Material)
	} else {
		c.Message = fmt.Sprintf("Base thickness %.1fmm is below the %.1fmm minimum for %s", cfg.BaseHeight, p.MinWallThickness, cfg.Material)
		c.Suggestion = fmt.Sprintf("Increase base height to at least %.1fmm", p.MinWallThickness)
	}
	return c
}

// checkOverhangs walks per-vertex normals. A vertex shared by several faces
// contributes one averaged normal, so the same surface can count differently
// depending on how the mesh is indexed. Meshes without normals are measured
// on a copy with computed normals.
func checkOverhangs(scene *mesh.Scene, p sculpture.MaterialParams) Check {
	var total, steep int
	maxAngle := 0.0
	scene.Walk(func(m *mesh.Mesh) {
		if m.Validate() != nil {
			return
		}
		if !m.HasNormals() {
			m = m.Clone()
			m.ComputeVertexNormals()
		}
		for i := 0; i < m.VertexCount(); i++ {
			n, _ := m.Normal(i)
			total++
			angle, down := overhangAngle(n)
			if !down {
				continue
			}
			maxAngle = math.Max(maxAngle, angle)
			if angle > p.SupportAngle {
				steep++
			}
		}
	})

	fraction := 0.0
	if total > 0 {
		fraction = float64(steep) / float64(total)
	}
	c := Check{
		ID:        CheckOverhangs,
		Name:      "Overhangs",
		Value:     ptr(maxAngle),
		Threshold: ptr(p.SupportAngle),
	}
	if fraction > OverhangWarnFraction {
		c.Severity = SeverityWarning
		c.Message = fmt.Sprintf("%.0f%% of the surface overhangs more than %.0f° (max %.0f°)", fraction*100, p.SupportAngle, maxAngle)
		c.Suggestion = "Reduce elevation scale or enable supports in your slicer"
		return c
	}
	c.Passed = true
	c.Severity = SeverityInfo
	c.Message = "No significant overhangs detected"
	return c
}

// overhangAngle is 90° less the angle between n and straight down, in
// degrees. down is false for normals without a downward component.
func overhangAngle(n r3.Vec) (angle float64, down bool) {
	l := r3.Norm(n)
	up := r3.Dot(n, mesh.Up)
	if l == 0 || math.IsNaN(l) || up >= 0 {
		return 0, false
	}
	fromVertical := math.Acos(math.Min(1, -up/l)) * 180 / math.Pi
	return 90 - fromVertical, true
}

// checkManifold reports geometry integrity from mesh.Inspect. It does not
// walk edges, so an open but otherwise clean mesh passes.
func checkManifold(scene *mesh.Scene) Check {
	r := mesh.Inspect(scene)
	c := Check{ID: CheckManifold, Name: "Mesh Integrity", Severity: SeverityError}
	switch {
	case r.Empty():
		c.Message = "No mesh geometry found"
		c.Suggestion = "Generate the sculpture before validating"
	case r.HasNaN():
		c.Message = fmt.Sprintf("%d %s invalid (NaN) coordinates", r.NaNVertices, plural(r.NaNVertices, "vertex has", "vertices have"))
		c.Suggestion = "Regenerate the model; check elevation data for gaps"
		c.Value = ptr(float64(r.NaNVertices))
	case len(r.Malformed) > 0:
		c.Message = "Malformed geometry buffers: " + strings.Join(r.Malformed, ", ")
		c.Suggestion = "Regenerate the model"
	default:
		c.Passed = true
		c.Severity = SeverityInfo
		c.Message = fmt.Sprintf("%d %s with %d triangles", r.Meshes, plural(r.Meshes, "mesh", "meshes"), r.Triangles)
	}
	return c
}

func checkPrintSize(cfg sculpture.Config) Check {
	size := cfg.SizeMM()
	c := Check{
		ID:        CheckPrintSize,
		Name:      "Print Size",
		Value:     ptr(size),
		Threshold: ptr(BedSizeMM),
	}
	if size > BedSizeMM {
		c.Severity = SeverityWarning
		c.Message = fmt.Sprintf("%.0fmm exceeds the common %.0fmm printer bed", size, BedSizeMM)
		c.Suggestion = "Reduce the size or check your printer's build volume"
		return c
	}
	c.Passed = true
	c.Severity = SeverityInfo
	c.Message = fmt.Sprintf("%.0fmm fits a standard %.0fmm printer bed", size, BedSizeMM)
	return c
}

func checkBaseStability(cfg sculpture.Config) Check {
	c := Check{
		ID:        CheckBaseStability,
		Name:      "Base Stability",
		Value:     ptr(cfg.BaseHeight),
		Threshold: ptr(MinBaseHeightMM),
	}
	switch {
	case !cfg.ShowBase:
		c.Severity = SeverityError
		c.Message = "No base: the terrain surface has nothing to stand on"
		c.Suggestion = "Enable the base"
	case cfg.BaseHeight < MinBaseHeightMM:
		c.Severity = SeverityWarning
		c.Message = fmt.Sprintf("Base height %.1fmm is below the recommended %.0fmm", cfg.BaseHeight, MinBaseHeightMM)
		c.Suggestion = fmt.Sprintf("Increase base height to %.0fmm or more", MinBaseHeightMM)
	default:
		c.Passed = true
		c.Severity = SeverityInfo
		c.Message = fmt.Sprintf("Base height %.1fmm provides a stable footprint", cfg.BaseHeight)
	}
	return c
}

func checkFineDetails(cfg sculpture.Config) Check {
	var problems, fixes []string
	if cfg.RimHeight > 0 && cfg.RimHeight < MinRimHeightMM {
		problems = append(problems, fmt.Sprintf("rim height %.1fmm is under %.0fmm", cfg.RimHeight, MinRimHeightMM))
		fixes = append(fixes, "raise the rim or remove it")
	}
	if cfg.RouteStyle == sculpture.RouteEngraved && cfg.RouteThickness < MinEngravedRouteMM {
		problems = append(problems, fmt.Sprintf("engraved route %.1fmm is under %.1fmm", cfg.RouteThickness, MinEngravedRouteMM))
		fixes = append(fixes, "widen the route or use the raised style")
	}

	c := Check{ID: CheckFineDetails, Name: "Fine Details"}
	if len(problems) > 0 {
		c.Severity = SeverityWarning
		c.Message = "Fine details may not print: " + strings.Join(problems, "; ")
		c.Suggestion = strings.Join(fixes, "; ")
		return c
	}
	c.Passed = true
	c.Severity = SeverityInfo
	c.Message = "Details are within printable limits"
	return c
}
