package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/route"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
	"github.com/banshee-data/route-sculpture/internal/stl"
)

// ErrMissingRoute is returned when a request carries neither a route nor a scene.
var ErrMissingRoute = errors.New("request needs a route or a scene")

// Request is the document accepted by the HTTP and gRPC surfaces. Config is
// decoded over the default config, so clients send only what they change.
type Request struct {
	RouteName string          `json:"routeName,omitempty"`
	Route     *route.Data     `json:"route,omitempty"`
	Scene     *mesh.Scene     `json:"scene,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Export    stl.Options     `json:"export,omitempty"`

	// Cfg is Config decoded and validated.
	Cfg sculpture.Config `json:"-"`
}

// DecodeRequest reads one JSON request and resolves its config. Read errors
// are wrapped, so callers can still match *http.MaxBytesError.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	cfg, err := sculpture.DecodeJSON(req.Config)
	if err != nil {
		return nil, err
	}
	req.Cfg = cfg
	return &req, nil
}

// Grid runs the request's grid on a fresh Builder. Each request is its own
// session, so requests never supersede each other.
func (r *Request) Grid(ctx context.Context, tiles *elevation.TileSource) (*elevation.Result, error) {
	if r.Route == nil {
		return nil, ErrMissingRoute
	}
	return elevation.NewBuilder(tiles).Build(ctx, r.Route, r.Cfg.TerrainResolution, r.Cfg.TerrainMode)
}

// Sculpture resolves the request's geometry: the supplied scene when
// present, otherwise a heightfield built from the route.
func (r *Request) Sculpture(ctx context.Context, tiles *elevation.TileSource) (*Sculpture, error) {
	if r.Scene != nil {
		return FromScene(r.Scene, r.Cfg), nil
	}
	if r.Route == nil {
		return nil, ErrMissingRoute
	}
	return FromRoute(ctx, elevation.NewBuilder(tiles), r.Route, r.Cfg)
}
