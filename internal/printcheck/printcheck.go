// Package printcheck judges whether a sculpture scene can be 3D printed.
//
// Validate runs six independent checks against the per-material constants,
// aggregates them into a score, and estimates print time and material use.
// Failing checks are data: nothing here returns an error for a bad model.
package printcheck

import (
	"fmt"

	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

// Severity grades a check outcome.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Check IDs, in the order Validate reports them.
const (
	CheckWallThickness = "wall-thickness"
	CheckOverhangs     = "overhangs"
	CheckManifold      = "manifold"
	CheckPrintSize     = "print-size"
	CheckBaseStability = "base-stability"
	CheckFineDetails   = "fine-details"
)

// Check is the record produced by one check function.
type Check struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
}

// blocking reports whether the check failed at severity s.
func (c Check) blocking(s Severity) bool {
	return !c.Passed && c.Severity == s
}

// Result is the outcome of Validate for one (scene, config) pair.
type Result struct {
	IsPrintReady bool    `json:"isPrintReady"`
	IsOptimal    bool    `json:"isOptimal"`
	Checks       []Check `json:"checks"`
	Stats        Stats   `json:"stats"`
	Score        int     `json:"score"`
	Summary      string  `json:"summary"`
}

// Errors counts failed error-severity checks.
func (r Result) Errors() int { return count(r.Checks, SeverityError) }

// Warnings counts failed warning-severity checks.
func (r Result) Warnings() int { return count(r.Checks, SeverityWarning) }

func count(checks []Check, s Severity) int {
	n := 0
	for _, c := range checks {
		if c.blocking(s) {
			n++
		}
	}
	return n
}

// Validate runs every check over scene with cfg's material constants. The
// scene is only read. The result depends on nothing but its inputs.
func Validate(scene *mesh.Scene, cfg sculpture.Config) Result {
	params := cfg.Params()
	checks := []Check{
		checkWallThickness(cfg, params),
		checkOverhangs(scene, params),
		checkManifold(scene),
		checkPrintSize(cfg),
		checkBaseStability(cfg),
		checkFineDetails(cfg),
	}
	return aggregate(checks, EstimateStats(scene, cfg))
}

func aggregate(checks []Check, stats Stats) Result {
	errs, warns := count(checks, SeverityError), count(checks, SeverityWarning)
	r := Result{
		IsPrintReady: errs == 0,
		Checks:       checks,
		Stats:        stats,
		Score:        Score(errs, warns),
	}
	r.IsOptimal = r.IsPrintReady && warns == 0
	r.Summary = summary(r.IsOptimal, r.IsPrintReady, errs, warns)
	return r
}

// Score is 100 less 20 per error and 5 per warning, clamped to [0, 100].
func Score(errors, warnings int) int {
	return min(max(100-20*errors-5*warnings, 0), 100)
}

func summary(optimal, ready bool, errs, warns int) string {
	switch {
	case optimal:
		return "Your sculpture is optimized for 3D printing"
	case ready:
		return fmt.Sprintf("Ready to print with %d %s for improvement", warns, plural(warns, "suggestion", "suggestions"))
	default:
		return fmt.Sprintf("%d %s must be fixed before printing", errs, plural(errs, "issue", "issues"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func ptr(v float64) *float64 { return &v }
