package elevation

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
)

// DefaultTileURL is a Terrain-RGB endpoint. Append the provider's key
// query parameter before use.
const DefaultTileURL = "https://api.maptiler.com/tiles/terrain-rgb-v2/{z}/{x}/{y}.webp"

// TileSource downloads Terrain-RGB tiles from a {z}/{x}/{y} URL template.
type TileSource struct {
	URLTemplate string
	Client      httputil.HTTPClient
	limiter     *rate.Limiter
}

// NewTileSource builds a source. A nil client gets httputil's standard
// client; requestsPerSecond <= 0 means unlimited.
func NewTileSource(urlTemplate string, client httputil.HTTPClient, requestsPerSecond float64) *TileSource {
	if urlTemplate == "" {
		urlTemplate = DefaultTileURL
	}
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(1, int(requestsPerSecond)))
	}
	return &TileSource{URLTemplate: urlTemplate, Client: client, limiter: limiter}
}

// TileURL expands the template for c.
func (s *TileSource) TileURL(c TileCoord) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(c.Z),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
	).Replace(s.URLTemplate)
}

// Fetch downloads and decodes one tile. There is no retry.
func (s *TileSource) Fetch(ctx context.Context, c TileCoord) (*Tile, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := httputil.GetBytes(ctx, s.Client, s.TileURL(c))
	if err != nil {
		return nil, err
	}
	return DecodeTile(c, body)
}

// FetchAll requests every tile concurrently with no cap. Tiles that fail
// are logged and left out of the result; the caller sees them as absent.
// Cancelling ctx aborts the remaining requests and returns ctx's error.
func (s *TileSource) FetchAll(ctx context.Context, coords []TileCoord) (map[TileCoord]*Tile, error) {
	var (
		mu    sync.Mutex
		tiles = make(map[TileCoord]*Tile, len(coords))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range coords {
		g.Go(func() error {
			tile, err := s.Fetch(gctx, c)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				monitoring.Logf("elevation: tile %s unavailable: %v", c, err)
				return nil
			}
			mu.Lock()
			tiles[c] = tile
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}
