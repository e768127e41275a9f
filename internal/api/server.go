// Package api is the HTTP surface over grid building, print validation and
// STL export.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/route-sculpture/internal/config"
	"github.com/banshee-data/route-sculpture/internal/db"
	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/stl"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DownloadsPrefix is where published STL files are served.
const DownloadsPrefix = "/downloads/"

type Server struct {
	tiles     *elevation.TileSource
	downloads *stl.Downloads
	db        *db.DB
	maxBody   int64
}

// NewServer wires the handlers. tiles may be nil (terrain mode is then
// rejected) and store may be nil (history is then disabled).
func NewServer(tiles *elevation.TileSource, downloads *stl.Downloads, store *db.DB, maxBody int64) *Server {
	if maxBody <= 0 {
		maxBody = config.DefaultMaxRequestBytes
	}
	return &Server{
		tiles:     tiles,
		downloads: downloads,
		db:        store,
		maxBody:   maxBody,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux routes the API and the download endpoint. Admin routes are
// attached separately through db.AttachAdminRoutes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/grid", s.handleGrid)
	mux.HandleFunc("/api/grid/preview.png", s.handleGridPreview)
	mux.HandleFunc("/api/grid/heatmap", s.handleGridHeatmap)
	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/api/quick-status", s.handleQuickStatus)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistoryItem)
	if s.downloads != nil {
		mux.Handle(DownloadsPrefix, s.downloads)
	}
	return mux
}
