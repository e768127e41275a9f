package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/fsutil"
	"github.com/banshee-data/route-sculpture/internal/mesh"
	"github.com/banshee-data/route-sculpture/internal/pipeline"
	"github.com/banshee-data/route-sculpture/internal/route"
	"github.com/banshee-data/route-sculpture/internal/security"
	"github.com/banshee-data/route-sculpture/internal/stl"
)

// inputOptions select the geometry a command works on.
type inputOptions struct {
	routePath string
	scenePath string
	name      string
}

func (in *inputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.routePath, "route", "r", "", "route JSON file")
	cmd.Flags().StringVarP(&in.scenePath, "scene", "s", "", "scene file (.json scene or .stl)")
	cmd.Flags().StringVarP(&in.name, "name", "n", "", "route name used in filenames and history")
	cmd.MarkFlagsMutuallyExclusive("route", "scene")
	cmd.MarkFlagsOneRequired("route", "scene")
}

// load resolves the sculpture: a heightfield built from the route, or the
// scene file as given.
func (in *inputOptions) load(ctx context.Context, g *globalOptions) (*pipeline.Sculpture, error) {
	cfg, err := g.sculptureConfig()
	if err != nil {
		return nil, err
	}
	if in.scenePath != "" {
		scene, err := loadScene(in.scenePath)
		if err != nil {
			return nil, err
		}
		return pipeline.FromScene(scene, cfg), nil
	}

	r, err := route.Load(in.routePath)
	if err != nil {
		return nil, err
	}
	svc, err := g.serviceConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.FromRoute(ctx, elevation.NewBuilder(tileSource(svc)), r, cfg)
}

// loadScene reads a JSON scene or a single-mesh STL file.
func loadScene(path string) (*mesh.Scene, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		m, err := stl.Read(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return mesh.NewScene(m), nil
	case ".json":
		var s mesh.Scene
		if err := json.NewDecoder(f).Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode scene JSON: %w", err)
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("scene file must be .json or .stl, got %q", filepath.Ext(path))
	}
}

// writeOutput renders into memory and writes path atomically once the
// path is known to be under the working or temp directory.
func writeOutput(path string, render func(io.Writer) error) (int, error) {
	if err := security.ValidateExportPath(path); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return 0, err
	}
	if err := fsutil.WriteFileAtomic(fsutil.OSFileSystem{}, path, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
