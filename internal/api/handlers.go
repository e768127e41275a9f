package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/route-sculpture/internal/db"
	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/printcheck"
	"github.com/banshee-data/route-sculpture/internal/sculpture"
	"github.com/banshee-data/route-sculpture/internal/stl"
)

type gridResponse struct {
	Grid         elevation.Grid        `json:"grid"` // null when the route has no elevation
	GridSize     int                   `json:"gridSize"`
	Mode         sculpture.TerrainMode `json:"mode"`
	TileCoverage float64               `json:"tileCoverage"`
	Stats        *elevation.Stats      `json:"stats,omitempty"`
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := req.Grid(r.Context(), s.tiles)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	resp := gridResponse{
		Grid:         res.Grid,
		GridSize:     res.GridSize,
		Mode:         res.Mode,
		TileCoverage: res.TileCoverage,
	}
	if res.Grid != nil {
		st := res.Grid.Stats()
		resp.Stats = &st
	}
	httputil.WriteJSONOK(w, resp)
}

// gridForPreview builds a grid and insists it is non-empty.
func (s *Server) gridForPreview(w http.ResponseWriter, r *http.Request) (elevation.Grid, string, bool) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return nil, "", false
	}
	res, err := req.Grid(r.Context(), s.tiles)
	if err != nil {
		writeBuildError(w, err)
		return nil, "", false
	}
	if res.Grid == nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, "route has no elevation data")
		return nil, "", false
	}
	title := req.RouteName
	if title == "" {
		title = "Elevation grid"
	}
	return res.Grid, title, true
}

func (s *Server) handleGridPreview(w http.ResponseWriter, r *http.Request) {
	g, title, ok := s.gridForPreview(w, r)
	if !ok {
		return
	}
	size := 512
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 4096 {
			httputil.BadRequest(w, "size must be an integer between 64 and 4096")
			return
		}
		size = n
	}
	var buf bytes.Buffer
	if err := elevation.RenderPNG(&buf, g, title, size); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleGridHeatmap(w http.ResponseWriter, r *http.Request) {
	g, title, ok := s.gridForPreview(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := elevation.RenderHeatmapHTML(&buf, g, title); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

type validateResponse struct {
	printcheck.Result
	TileCoverage *float64 `json:"tileCoverage,omitempty"`
	RunID        string   `json:"runId,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	sc, err := req.Sculpture(r.Context(), s.tiles)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	resp := validateResponse{Result: sc.Validate(), TileCoverage: sc.TileCoverage()}
	if s.db != nil {
		run, err := s.db.RecordValidation(r.Context(), req.RouteName, req.Cfg, resp.Result, resp.TileCoverage)
		if err != nil {
			monitoring.Logf("api: failed to record validation: %v", err)
		} else {
			resp.RunID = run.ID
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleQuickStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, printcheck.QuickStatus(req.Cfg))
}

type exportResponse struct {
	stl.Result
	Check      stl.MeshCheck  `json:"meshCheck"`
	Dimensions stl.Dimensions `json:"dimensions"`
	Download   *stl.Download  `json:"download,omitempty"`
	RunID      string         `json:"runId,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	sc, err := req.Sculpture(r.Context(), s.tiles)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	resp := exportResponse{
		Result:     sc.Export(req.RouteName, req.Export),
		Check:      stl.ValidateMeshForPrinting(sc.Scene),
		Dimensions: stl.CalculatePrintDimensions(req.Cfg),
	}
	if !resp.Success {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if s.downloads != nil {
		dl, err := s.downloads.Publish(resp.Result)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		resp.Download = dl
	}
	if s.db != nil {
		run, err := s.db.RecordExport(r.Context(), req.RouteName, req.Cfg, resp.Result)
		if err != nil {
			monitoring.Logf("api: failed to record export: %v", err)
		} else {
			resp.RunID = run.ID
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "history is not enabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "history is not enabled")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if id == "" {
		httputil.BadRequest(w, "missing run id")
		return
	}
	run, err := s.db.GetRun(r.Context(), id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, run)
}
