package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/route-sculpture/internal/db"
	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/fsutil"
	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/stl"
	"github.com/banshee-data/route-sculpture/internal/testutil"
)

var (
	cornerRoute = testutil.CornerRouteJSON
	flatRoute   = testutil.FlatRouteJSON
)

type testEnv struct {
	server *Server
	mux    *http.ServeMux
	store  *db.DB
	files  *fsutil.MemoryFileSystem
}

func setupTestServer(t *testing.T, tiles *elevation.TileSource) *testEnv {
	t.Helper()
	testutil.MuteLogs(t)

	store, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	files := fsutil.NewMemoryFileSystem()
	downloads := stl.NewDownloads(files, "/exports", DownloadsPrefix)
	t.Cleanup(func() { downloads.Close() })

	s := NewServer(tiles, downloads, store, 0)
	return &testEnv{server: s, mux: s.ServeMux(), store: store, files: files}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func solidTile(t *testing.T, meters float64) []byte {
	t.Helper()
	v := int((meters + 10000) * 10)
	c := color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGrid_RouteMode(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/grid",
		`{"route": `+cornerRoute+`, "config": {"terrainResolution": 32}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp gridResponse
	decode(t, w, &resp)
	assert.Equal(t, 32, resp.GridSize)
	assert.Len(t, resp.Grid, 32)
	assert.Equal(t, 1.0, resp.TileCoverage)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 100.0, resp.Stats.Min)
	assert.Equal(t, 200.0, resp.Stats.Max)
}

func TestGrid_NoElevationIsNotAnError(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/grid", `{"route": `+flatRoute+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"grid":null`)
	assert.NotContains(t, w.Body.String(), `"stats"`)
}

func TestGrid_TerrainMode(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	tile := solidTile(t, 500)
	client.DoFunc = func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(tile)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	env := setupTestServer(t, elevation.NewTileSource("https://tiles.test/{z}/{x}/{y}.png", client, 0))

	w := env.do(t, http.MethodPost, "/api/grid",
		`{"route": `+cornerRoute+`, "config": {"terrainMode": "terrain", "terrainResolution": 8}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp gridResponse
	decode(t, w, &resp)
	assert.Equal(t, 1.0, resp.TileCoverage)
	require.NotNil(t, resp.Stats)
	assert.InDelta(t, 500, resp.Stats.Min, 1e-6)
	assert.InDelta(t, 500, resp.Stats.Max, 1e-6)
	assert.Positive(t, client.RequestCount())
}

func TestGrid_TerrainAllTilesFail(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	env := setupTestServer(t, elevation.NewTileSource("https://tiles.test/{z}/{x}/{y}.png", client, 0))

	w := env.do(t, http.MethodPost, "/api/grid",
		`{"route": `+cornerRoute+`, "config": {"terrainMode": "terrain", "terrainResolution": 8}}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "could not fetch terrain data")
}

func TestGrid_RequestErrors(t *testing.T) {
	env := setupTestServer(t, nil)
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, `{"route":`, http.StatusBadRequest},
		{"invalid config", http.MethodPost, `{"route": ` + cornerRoute + `, "config": {"material": "gold"}}`, http.StatusBadRequest},
		{"missing route", http.MethodPost, `{}`, http.StatusBadRequest},
		{"terrain without tile source", http.MethodPost, `{"route": ` + cornerRoute + `, "config": {"terrainMode": "terrain"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, "/api/grid", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestRequestBodyLimit(t *testing.T) {
	s := NewServer(nil, nil, nil, 16)
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/grid", strings.NewReader(`{"route": `+cornerRoute+`}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestValidate_Scene(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/validate",
		`{"routeName": "Box", "scene": `+testutil.BoxSceneJSON(t)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp validateResponse
	decode(t, w, &resp)
	assert.True(t, resp.IsPrintReady)
	assert.True(t, resp.IsOptimal)
	assert.Equal(t, 100, resp.Score)
	assert.Len(t, resp.Checks, 6)
	assert.Nil(t, resp.TileCoverage)
	require.NotEmpty(t, resp.RunID)

	run, err := env.store.GetRun(t.Context(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, db.RunValidate, run.Kind)
	assert.Equal(t, "Box", run.RouteName)
	require.NotNil(t, run.Score)
	assert.Equal(t, 100, *run.Score)
}

func TestValidate_Route(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/validate",
		`{"route": `+cornerRoute+`, "config": {"terrainResolution": 16}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp validateResponse
	decode(t, w, &resp)
	assert.True(t, resp.IsPrintReady)
	require.NotNil(t, resp.TileCoverage)
	assert.Equal(t, 1.0, *resp.TileCoverage)
	assert.Equal(t, 16*16+4*15+1, resp.Stats.VertexCount)
	assert.True(t, resp.IsOptimal, "a flat-bottomed solid has no overhang warning")
}

func TestValidate_RouteWithoutElevation(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/validate", `{"route": `+flatRoute+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestValidate_NoBaseIsNotReady(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/validate",
		`{"scene": `+testutil.BoxSceneJSON(t)+`, "config": {"showBase": false}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp validateResponse
	decode(t, w, &resp)
	assert.False(t, resp.IsPrintReady)
	assert.Equal(t, 80, resp.Score)
}

func TestQuickStatus(t *testing.T) {
	env := setupTestServer(t, nil)
	tests := []struct {
		body string
		want string
	}{
		{`{}`, "ready"},
		{`{"config": {"showBase": false}}`, "error"},
		{`{"config": {"size": 25}}`, "warning"},
	}
	for _, tt := range tests {
		w := env.do(t, http.MethodPost, "/api/quick-status", tt.body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Status string `json:"status"`
		}
		decode(t, w, &resp)
		assert.Equal(t, tt.want, resp.Status, tt.body)
	}
}

func TestExport_PublishesOneShotDownload(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/export",
		`{"routeName": "Alpe d'Huez", "scene": `+testutil.BoxSceneJSON(t)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp exportResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "alpe-d-huez-circular-15cm.stl", resp.Filename)
	assert.Equal(t, stl.BinarySize(12), resp.FileSize)
	assert.True(t, resp.Check.Valid)
	assert.Equal(t, 150.0, resp.Dimensions.Width)
	require.NotNil(t, resp.Download)
	assert.True(t, strings.HasPrefix(resp.Download.URL, DownloadsPrefix))
	require.NotEmpty(t, resp.RunID)
	assert.Len(t, env.files.Files(), 1)

	dl := env.do(t, http.MethodGet, resp.Download.URL, "")
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, stl.ContentType, dl.Header().Get("Content-Type"))
	assert.Equal(t, int(stl.BinarySize(12)), dl.Body.Len())

	again := env.do(t, http.MethodGet, resp.Download.URL, "")
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Empty(t, env.files.Files())

	run, err := env.store.GetRun(t.Context(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, db.RunExport, run.Kind)
	assert.Equal(t, resp.Filename, run.Filename)
}

func TestExport_ASCIIWithFilename(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/export",
		`{"scene": `+testutil.BoxSceneJSON(t)+`, "export": {"filename": "mine.stl", "format": "ascii"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp exportResponse
	decode(t, w, &resp)
	assert.Equal(t, "mine.stl", resp.Filename)

	dl := env.do(t, http.MethodGet, resp.Download.URL, "")
	require.Equal(t, http.StatusOK, dl.Code)
	assert.True(t, strings.HasPrefix(dl.Body.String(), "solid mine"))
}

func TestExport_EmptySceneFails(t *testing.T) {
	env := setupTestServer(t, nil)
	w := env.do(t, http.MethodPost, "/api/export", `{"scene": {"meshes": []}}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp exportResponse
	decode(t, w, &resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.False(t, resp.Check.Valid)
	assert.Nil(t, resp.Download)
	assert.Empty(t, env.files.Files())
}

func TestHistory(t *testing.T) {
	env := setupTestServer(t, nil)
	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/validate",
			fmt.Sprintf(`{"routeName": "run %d", "scene": %s}`, i, testutil.BoxSceneJSON(t)))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/history?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var runs []db.Run
	decode(t, w, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, "run 2", runs[0].RouteName)

	item := env.do(t, http.MethodGet, "/api/history/"+runs[1].ID, "")
	require.Equal(t, http.StatusOK, item.Code)
	var run db.Run
	decode(t, item, &run)
	assert.Equal(t, "run 1", run.RouteName)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/history/nope", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/history?limit=x", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodPost, "/api/history", "{}").Code)
}

func TestHistory_Disabled(t *testing.T) {
	s := NewServer(nil, nil, nil, 0)
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// validation still works without a store
	w = httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/validate",
		strings.NewReader(`{"scene": `+testutil.BoxSceneJSON(t)+`}`)))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.NotContains(t, w.Body.String(), "runId")
}

func TestGridPreviews(t *testing.T) {
	env := setupTestServer(t, nil)
	body := `{"routeName": "Corners", "route": ` + cornerRoute + `, "config": {"terrainResolution": 24}}`

	w := env.do(t, http.MethodPost, "/api/grid/preview.png?size=200", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = env.do(t, http.MethodPost, "/api/grid/heatmap", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/grid/preview.png?size=1", body).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/grid/heatmap", `{"route": `+flatRoute+`}`).Code)
}

func TestLoggingMiddleware(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history?limit=1", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "418")
	assert.Contains(t, lines[0], "/api/history?limit=1")
}

func TestStatusCodeColor(t *testing.T) {
	assert.Contains(t, statusCodeColor(200), colorBoldGreen)
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(404), colorBoldRed)
	assert.Contains(t, statusCodeColor(503), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}
