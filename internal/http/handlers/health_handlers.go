package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "UP"}
	status := http.StatusOK

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx); err != nil {
			s.log.Warn("redis health check failed", "error", err)
			resp = HealthResponse{Status: "DOWN", Redis: "unreachable"}
			status = http.StatusServiceUnavailable
		} else {
			resp.Redis = "ok"
		}
	}

	_ = writeJSON(w, status, resp)
}
