package web

import (
	"context"
	"net/http"
	"time"

	"github.com/sakisthb/ads-pro-win-sub002/lib/dbpool"
)

// HealthResponse is the JSON body for /api/health.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Stats     dbpool.Metrics `json:"stats"`
	Issues    []string       `json:"issues,omitempty"`
}

// StatsResponse is the JSON body for /api/stats.
type StatsResponse struct {
	Timestamp string         `json:"timestamp"`
	Stats     dbpool.Metrics `json:"stats"`
}

// handleAPIHealth returns the health status of the pool. A degraded pool
// answers 503 but still carries the full diagnostic body.
func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := s.pool.HealthCheck(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !health.Healthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	s.writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stats:     health.Metrics,
		Issues:    health.Issues,
	})
}

// handleAPIStats returns a snapshot of the pool statistics.
func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stats:     s.pool.GetMetrics(),
	})
}

// handleAPILiveness returns a simple liveness probe response.
// This is a lightweight check that the server is responding.
func (s *Server) handleAPILiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

// handleAPIReadiness returns a readiness probe response.
// This checks if the pool is ready to hand out connections.
func (s *Server) handleAPIReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := s.pool.HealthCheck(ctx)
	if !health.Healthy {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "pool_unhealthy",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
