package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
)

const internalErrorMessage = "internal server error"

// classify maps a pipeline error to a status code and a client-safe message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, aggregate.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream service timed out"
	case errors.Is(err, aggregate.ErrUpstreamUnavailable):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	if werr := writeJSON(w, status, ErrorResponse{Success: false, Message: msg}); werr != nil {
		s.log.Warn("failed to write error response", "error", werr)
	}
}
