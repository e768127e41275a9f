package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/route-sculpture/internal/printcheck"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
	"github.com/banshee-data/route-sculpture/internal/stl"
)

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// RunKind says which operation produced a run.
type RunKind string

const (
	RunValidate RunKind = "validate"
	RunExport   RunKind = "export"
)

// Run is one recorded validation or export.
type Run struct {
	ID           string          `json:"id"`
	Kind         RunKind         `json:"kind"`
	RouteName    string          `json:"routeName,omitempty"`
	Material     string          `json:"material"`
	Shape        string          `json:"shape"`
	SizeCM       float64         `json:"sizeCm"`
	TerrainMode  string          `json:"terrainMode"`
	Config       json.RawMessage `json:"config"`
	Score        *int            `json:"score,omitempty"`
	PrintReady   *bool           `json:"printReady,omitempty"`
	Filename     string          `json:"filename,omitempty"`
	FileSize     int64           `json:"fileSize,omitempty"`
	Vertices     int             `json:"vertices"`
	Triangles    int             `json:"triangles"`
	TileCoverage *float64        `json:"tileCoverage,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (db *DB) newRun(kind RunKind, routeName string, cfg sculpture.Config) (Run, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Run{}, fmt.Errorf("encode config: %w", err)
	}
	return Run{
		ID:          uuid.NewString(),
		Kind:        kind,
		RouteName:   routeName,
		Material:    string(cfg.Material),
		Shape:       string(cfg.Shape),
		SizeCM:      cfg.Size,
		TerrainMode: string(cfg.TerrainMode),
		Config:      raw,
		CreatedAt:   db.clock.Now().UTC(),
	}, nil
}

// RecordValidation stores a validation result. coverage may be nil.
func (db *DB) RecordValidation(ctx context.Context, routeName string, cfg sculpture.Config, res printcheck.Result, coverage *float64) (Run, error) {
	run, err := db.newRun(RunValidate, routeName, cfg)
	if err != nil {
		return Run{}, err
	}
	score, ready := res.Score, res.IsPrintReady
	run.Score, run.PrintReady = &score, &ready
	run.Vertices, run.Triangles = res.Stats.VertexCount, res.Stats.TriangleCount
	run.TileCoverage = coverage
	return run, db.insertRun(ctx, run)
}

// RecordExport stores a successful export.
func (db *DB) RecordExport(ctx context.Context, routeName string, cfg sculpture.Config, res stl.Result) (Run, error) {
	if !res.Success {
		return Run{}, fmt.Errorf("not recording failed export: %s", res.Error)
	}
	run, err := db.newRun(RunExport, routeName, cfg)
	if err != nil {
		return Run{}, err
	}
	run.Filename, run.FileSize = res.Filename, res.FileSize
	if res.Stats != nil {
		run.Vertices, run.Triangles = res.Stats.Vertices, res.Stats.Triangles
	}
	return run, db.insertRun(ctx, run)
}

func (db *DB) insertRun(ctx context.Context, r Run) error {
	var score sql.NullInt64
	if r.Score != nil {
		score = sql.NullInt64{Int64: int64(*r.Score), Valid: true}
	}
	var ready sql.NullBool
	if r.PrintReady != nil {
		ready = sql.NullBool{Bool: *r.PrintReady, Valid: true}
	}
	var coverage sql.NullFloat64
	if r.TileCoverage != nil {
		coverage = sql.NullFloat64{Float64: *r.TileCoverage, Valid: true}
	}
	filename := sql.NullString{String: r.Filename, Valid: r.Kind == RunExport}
	fileSize := sql.NullInt64{Int64: r.FileSize, Valid: r.Kind == RunExport}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, kind, route_name, material, shape, size_cm, config_json,
			score, print_ready, filename, file_size, vertices, triangles,
			terrain_mode, tile_coverage, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.RouteName, r.Material, r.Shape, r.SizeCM, string(r.Config),
		score, ready, filename, fileSize, r.Vertices, r.Triangles,
		r.TerrainMode, coverage, r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const runColumns = `run_id, kind, route_name, material, shape, size_cm, config_json,
	score, print_ready, filename, file_size, vertices, triangles,
	terrain_mode, tile_coverage, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r        Run
		kind     string
		config   string
		score    sql.NullInt64
		ready    sql.NullBool
		filename sql.NullString
		fileSize sql.NullInt64
		coverage sql.NullFloat64
		created  int64
	)
	err := s.Scan(&r.ID, &kind, &r.RouteName, &r.Material, &r.Shape, &r.SizeCM, &config,
		&score, &ready, &filename, &fileSize, &r.Vertices, &r.Triangles,
		&r.TerrainMode, &coverage, &created)
	if err != nil {
		return Run{}, err
	}
	r.Kind = RunKind(kind)
	r.Config = json.RawMessage(config)
	if score.Valid {
		v := int(score.Int64)
		r.Score = &v
	}
	if ready.Valid {
		v := ready.Bool
		r.PrintReady = &v
	}
	if coverage.Valid {
		v := coverage.Float64
		r.TileCoverage = &v
	}
	r.Filename = filename.String
	r.FileSize = fileSize.Int64
	r.CreatedAt = time.UnixMilli(created).UTC()
	return r, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means 100.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given ID.
func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return r, err
}
