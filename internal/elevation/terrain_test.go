package elevation

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/route"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

const testTileURL = "http://tiles.test/{z}/{x}/{y}.png"

func muteLogs(t *testing.T) {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = orig })
}

// singleTileRoute fits inside tile 14/8649/5553.
func singleTileRoute() *route.Data {
	return &route.Data{
		Points: []route.Point{
			{Longitude: 10.045, Latitude: 50.04, Elevation: elev(300)},
			{Longitude: 10.055, Latitude: 50.045, Elevation: elev(320)},
		},
		Stats:  route.Stats{MinElevation: 300, MaxElevation: 320},
		Bounds: route.Bounds{MinLng: 10.045, MinLat: 50.04, MaxLng: 10.055, MaxLat: 50.045},
	}
}

// twoTileRoute straddles tiles 14/8649/5553 and 14/8650/5553.
func twoTileRoute() *route.Data {
	return &route.Data{
		Points: []route.Point{
			{Longitude: 10.055, Latitude: 50.04, Elevation: elev(410)},
			{Longitude: 10.07, Latitude: 50.045, Elevation: elev(450)},
		},
		Stats:  route.Stats{MinElevation: 410, MaxElevation: 450},
		Bounds: route.Bounds{MinLng: 10.055, MinLat: 50.04, MaxLng: 10.07, MaxLat: 50.045},
	}
}

func TestTileSource_TileURL(t *testing.T) {
	src := NewTileSource("https://example.test/{z}/{x}/{y}.webp?key=abc", nil, 0)
	assert.Equal(t, "https://example.test/14/8649/5553.webp?key=abc", src.TileURL(TileCoord{Z: 14, X: 8649, Y: 5553}))
	assert.Equal(t, DefaultTileURL, NewTileSource("", nil, 0).URLTemplate)
}

func TestDecodeTile(t *testing.T) {
	c := TileCoord{Z: 14, X: 8649, Y: 5553}
	tile, err := DecodeTile(c, solidTilePNG(t, 812.4))
	require.NoError(t, err)
	assert.Equal(t, 256, tile.Width())
	assert.Equal(t, 256, tile.Height())
	assert.InDelta(t, 812.4, tile.ElevationAtPixel(0, 0), 1e-6)
	assert.InDelta(t, 812.4, tile.ElevationAt(10.05, 50.04), 1e-6)

	// Positions outside the tile clamp to the edge instead of panicking.
	assert.InDelta(t, 812.4, tile.ElevationAt(-170, 89), 1e-6)

	_, err = DecodeTile(c, []byte("not an image"))
	assert.Error(t, err)
}

func TestBuildFromTiles_SingleTile(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.Route("http://tiles.test/14/8649/5553.png", http.StatusOK, solidTilePNG(t, 1234.5))
	src := NewTileSource(testTileURL, mock, 0)

	g, coverage, err := BuildFromTiles(context.Background(), singleTileRoute(), 16, src)
	require.NoError(t, err)
	require.Equal(t, 16, g.Size())
	assert.Equal(t, 1.0, coverage)
	for _, v := range g.Flatten() {
		assert.InDelta(t, 1234.5, v, 1e-6)
	}
	assert.Equal(t, 1, mock.RequestCount())
}

func TestBuildFromTiles_AllTilesFail(t *testing.T) {
	muteLogs(t)
	mock := httputil.NewMockHTTPClient()
	mock.DefaultError = errors.New("network unreachable")
	src := NewTileSource(testTileURL, mock, 0)

	g, coverage, err := BuildFromTiles(context.Background(), twoTileRoute(), 16, src)
	assert.Nil(t, g)
	assert.Zero(t, coverage)
	require.ErrorIs(t, err, ErrNoTerrainData)
	assert.Equal(t, "could not fetch terrain data", err.Error())
	assert.Equal(t, 2, mock.RequestCount(), "each tile is requested exactly once")
}

func TestBuildFromTiles_PartialFailureUsesFloorElevation(t *testing.T) {
	muteLogs(t)
	mock := httputil.NewMockHTTPClient()
	mock.Route("http://tiles.test/14/8649/5553.png", http.StatusOK, solidTilePNG(t, 999))
	// 14/8650/5553 is unrouted and answers 404.
	src := NewTileSource(testTileURL, mock, 0)

	r := twoTileRoute()
	g, coverage, err := BuildFromTiles(context.Background(), r, 32, src)
	require.NoError(t, err)
	assert.Equal(t, 0.5, coverage)

	// West edge lies in the fetched tile, east edge in the missing one.
	assert.InDelta(t, 999, g[0][0], 1e-6)
	assert.Equal(t, 410.0, g[0][31])
	assert.Equal(t, 410.0, g[31][31])
}

func TestBuildFromTiles_EmptyRoute(t *testing.T) {
	src := NewTileSource(testTileURL, httputil.NewMockHTTPClient(), 0)
	g, _, err := BuildFromTiles(context.Background(), &route.Data{}, 16, src)
	assert.NoError(t, err)
	assert.Nil(t, g)
}

func TestBuilder_RouteMode(t *testing.T) {
	b := NewBuilder(nil)
	res, err := b.Build(context.Background(), singleTileRoute(), 8, sculpture.TerrainRoute)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Grid.Size())
	assert.Equal(t, 1.0, res.TileCoverage)
	assert.Equal(t, uint64(1), res.Generation)
	assert.False(t, b.Loading())
}

func TestBuilder_RouteModeWithoutElevation(t *testing.T) {
	b := NewBuilder(nil)
	r := &route.Data{Points: []route.Point{{Longitude: 1, Latitude: 1}}}
	res, err := b.Build(context.Background(), r, 8, sculpture.TerrainRoute)
	require.NoError(t, err)
	assert.Nil(t, res.Grid)
}

func TestBuilder_TerrainWithoutSource(t *testing.T) {
	_, err := NewBuilder(nil).Build(context.Background(), singleTileRoute(), 8, sculpture.TerrainTiles)
	assert.Error(t, err)

	_, err = NewBuilder(nil).Build(context.Background(), singleTileRoute(), 8, "lidar")
	assert.Error(t, err)
}

func TestBuilder_TerrainAllFail(t *testing.T) {
	muteLogs(t)
	mock := httputil.NewMockHTTPClient()
	mock.DefaultError = errors.New("dns failure")
	b := NewBuilder(NewTileSource(testTileURL, mock, 0))

	res, err := b.Build(context.Background(), singleTileRoute(), 8, sculpture.TerrainTiles)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoTerrainData)
}

func TestBuilder_NewRequestSupersedesInFlight(t *testing.T) {
	muteLogs(t)
	started := make(chan struct{}, 1)
	mock := httputil.NewMockHTTPClient()
	mock.DoFunc = func(req *http.Request) (*http.Response, error) {
		started <- struct{}{}
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	b := NewBuilder(NewTileSource(testTileURL, mock, 0))

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := b.Build(context.Background(), singleTileRoute(), 16, sculpture.TerrainTiles)
		first <- outcome{res, err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("terrain fetch never started")
	}
	assert.True(t, b.Loading())

	second, err := b.Build(context.Background(), singleTileRoute(), 8, sculpture.TerrainRoute)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation)

	select {
	case got := <-first:
		assert.Nil(t, got.res)
		assert.ErrorIs(t, got.err, ErrStaleRequest)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded request did not return")
	}
	assert.False(t, b.Loading())
}

func TestBuilder_Cancel(t *testing.T) {
	muteLogs(t)
	started := make(chan struct{}, 1)
	mock := httputil.NewMockHTTPClient()
	mock.DoFunc = func(req *http.Request) (*http.Response, error) {
		started <- struct{}{}
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	b := NewBuilder(NewTileSource(testTileURL, mock, 0))

	done := make(chan error, 1)
	go func() {
		_, err := b.Build(context.Background(), singleTileRoute(), 16, sculpture.TerrainTiles)
		done <- err
	}()
	<-started
	b.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStaleRequest)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled request did not return")
	}
}

func TestTileSource_RateLimitRespectsContext(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	src := NewTileSource(testTileURL, mock, 0.001)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx, TileCoord{Z: 1})
	assert.Error(t, err)
	assert.Zero(t, mock.RequestCount())
}

func TestTileSource_FetchAll(t *testing.T) {
	muteLogs(t)
	mock := httputil.NewMockHTTPClient()
	mock.Route("http://tiles.test/14/8649/5553.png", http.StatusOK, solidTilePNG(t, 120))
	src := NewTileSource(testTileURL, mock, 0)
	coords := []TileCoord{{Z: 14, X: 8649, Y: 5553}, {Z: 14, X: 8650, Y: 5553}}

	tiles, err := src.FetchAll(context.Background(), coords)
	require.NoError(t, err)
	assert.Len(t, tiles, 1)
	assert.Contains(t, tiles, coords[0])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tiles, err = src.FetchAll(ctx, coords)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, tiles)
}

func TestRenderPreviews(t *testing.T) {
	r := &route.Data{
		Points: []route.Point{
			{Longitude: 0, Latitude: 0, Elevation: elev(10)},
			{Longitude: 1, Latitude: 1, Elevation: elev(90)},
		},
	}
	g := BuildFromRoute(r, 24)

	var png bytes.Buffer
	require.NoError(t, RenderPNG(&png, g, "test grid", 200))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))

	var html bytes.Buffer
	require.NoError(t, RenderHeatmapHTML(&html, g, "test grid"))
	assert.Contains(t, html.String(), "echarts")

	assert.Error(t, RenderPNG(&png, NewGrid(1), "tiny", 100))
	assert.Error(t, RenderHeatmapHTML(&html, nil, "empty"))
}

func TestRenderPNG_FlatGrid(t *testing.T) {
	g := NewGrid(4)
	var buf bytes.Buffer
	assert.NoError(t, RenderPNG(&buf, g, "flat", 100))
}
