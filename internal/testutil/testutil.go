// Package testutil provides shared test fixtures for packages above the
// geometry layer: route documents, a reference scene and log muting.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
)

// CornerRouteJSON has elevations 100, 150 and 200 m at three corners of a
// 0.1 degree box.
const CornerRouteJSON = `{"source": "corners", "points": [
	{"lng": 10, "lat": 50, "elevation": 100},
	{"lng": 10.1, "lat": 50, "elevation": 150},
	{"lng": 10.1, "lat": 50.1, "elevation": 200}
]}`

// FlatRouteJSON has points but no elevation.
const FlatRouteJSON = `{"points": [{"lng": 1, "lat": 2}, {"lng": 2, "lat": 3}]}`

// BoxScene is a 15x15x2 cm slab, print ready with the default config.
func BoxScene() *mesh.Scene {
	return mesh.NewScene(mesh.NewBox(r3.Vec{}, r3.Vec{X: 15, Y: 15, Z: 2}))
}

// BoxSceneJSON is BoxScene encoded as a request or file body.
func BoxSceneJSON(t testing.TB) string {
	t.Helper()
	data, err := json.Marshal(BoxScene())
	if err != nil {
		t.Fatalf("marshal box scene: %v", err)
	}
	return string(data)
}

// WriteFile writes body to name in a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// MuteLogs silences monitoring.Logf for the rest of the test.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
