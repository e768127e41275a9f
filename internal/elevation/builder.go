package elevation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/route-sculpture/internal/route"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
)

// ErrStaleRequest is returned when a newer Build call superseded this one
// before it finished. The partial result is discarded.
var ErrStaleRequest = errors.New("elevation request superseded")

// Result is the outcome of one Build call. Grid is nil when the route has
// no usable elevation data.
type Result struct {
	Grid         Grid                  `json:"grid"`
	Mode         sculpture.TerrainMode `json:"mode"`
	GridSize     int                   `json:"gridSize"`
	TileCoverage float64               `json:"tileCoverage"` // 1 in route mode
	Generation   uint64                `json:"generation"`
}

// Builder serialises grid requests from one caller (an editor session).
// Every Build call starts a new generation and cancels the one in flight,
// so a slow terrain fetch can never overwrite a newer grid.
type Builder struct {
	Tiles *TileSource

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	inFlight   int
}

// NewBuilder returns a Builder using tiles for terrain mode. tiles may be
// nil when only route mode is needed.
func NewBuilder(tiles *TileSource) *Builder {
	return &Builder{Tiles: tiles}
}

// Build produces a grid for route. In terrain mode the only error besides
// cancellation is ErrNoTerrainData; individual tile failures are absorbed.
func (b *Builder) Build(ctx context.Context, r *route.Data, gridSize int, mode sculpture.TerrainMode) (*Result, error) {
	ctx, gen := b.begin(ctx)
	defer b.end(gen)

	res := &Result{Mode: mode, GridSize: gridSize, Generation: gen}
	var err error
	switch mode {
	case sculpture.TerrainRoute:
		res.Grid = BuildFromRoute(r, gridSize)
		res.TileCoverage = 1
	case sculpture.TerrainTiles:
		if b.Tiles == nil {
			return nil, fmt.Errorf("terrain mode requested without a tile source")
		}
		res.Grid, res.TileCoverage, err = BuildFromTiles(ctx, r, gridSize, b.Tiles)
	default:
		return nil, fmt.Errorf("unknown terrain mode %q", mode)
	}

	if !b.isCurrent(gen) {
		return nil, ErrStaleRequest
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Loading reports whether any Build call is in flight.
func (b *Builder) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight > 0
}

// Generation is the number of Build calls started so far.
func (b *Builder) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Cancel aborts the in-flight request, if any, and invalidates its result.
func (b *Builder) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Builder) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.generation++
	b.cancel = cancel
	b.inFlight++
	return ctx, b.generation
}

func (b *Builder) end(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight--
	if gen == b.generation && b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Builder) isCurrent(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen == b.generation
}
