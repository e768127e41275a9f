package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/route-sculpture/internal/sculpture"
	"github.com/banshee-data/route-sculpture/internal/testutil"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"routeName": "Loop", "route": ` + testutil.CornerRouteJSON +
		`, "config": {"terrainResolution": 8, "material": "wood"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Loop", req.RouteName)
	assert.Equal(t, 8, req.Cfg.TerrainResolution)
	assert.Equal(t, sculpture.MaterialWood, req.Cfg.Material)
	assert.Equal(t, sculpture.DefaultConfig().Size, req.Cfg.Size)

	res, err := req.Grid(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Grid.Size())

	sc, err := req.Sculpture(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, sc.Grid)
}

func TestDecodeRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"bad config", `{"config": {"material": "gold"}}`},
		{"wrong type", `{"routeName": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestRequest_SceneWinsAndMissingRoute(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"scene": ` + testutil.BoxSceneJSON(t) + `}`))
	require.NoError(t, err)
	sc, err := req.Sculpture(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, sc.Grid)
	assert.True(t, sc.Validate().IsOptimal)

	_, err = req.Grid(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrMissingRoute))

	empty, err := DecodeRequest(strings.NewReader(`{}`))
	require.NoError(t, err)
	_, err = empty.Sculpture(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrMissingRoute))
}
