package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/route-sculpture/internal/elevation"
	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/pipeline"
)

// decodeRequest reads the POST body. On failure the response has already
// been written.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*pipeline.Request, bool) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return nil, false
	}
	req, err := pipeline.DecodeRequest(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
			return nil, false
		}
		httputil.BadRequest(w, err.Error())
		return nil, false
	}
	return req, true
}

// writeBuildError maps grid and scene construction failures to statuses.
func writeBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, elevation.ErrNoTerrainData):
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, pipeline.ErrNoElevation):
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httputil.BadRequest(w, err.Error())
	}
}
