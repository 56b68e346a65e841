// Package web provides the status HTTP server for the connection pool
// daemon. It serves JSON endpoints for pool health and statistics,
// Kubernetes-style probes, and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sakisthb/ads-pro-win-sub002/lib/metrics"
)

// Server is the status HTTP server.
type Server struct {
	httpServer  *http.Server
	pool        StatusPool
	logger      *slog.Logger
	rateLimiter *RateLimiter
	mu          sync.RWMutex
	running     bool
}

// Config holds web server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8080")
	ListenAddr string
	// Pool is the connection pool being reported on
	Pool StatusPool
	// Logger is the structured logger
	Logger *slog.Logger
	// RateLimit configures per-IP rate limiting for the API endpoints
	RateLimit RateLimitConfig
}

// New creates a new status server. Call Start() to begin serving and
// Stop() to release resources.
func New(cfg Config) (*Server, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("web: pool is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rl := NewRateLimiter(cfg.RateLimit)
	rl.SetOnReject(func(ip, path string) {
		metrics.RateLimitRejections.Inc()
		cfg.Logger.Warn("rate limited", "ip", ip, "path", path)
	})

	s := &Server{
		pool:        cfg.Pool,
		logger:      cfg.Logger,
		rateLimiter: rl,
	}

	mux := http.NewServeMux()

	// API endpoints (rate limited)
	api := http.NewServeMux()
	api.HandleFunc("GET /api/health", s.handleAPIHealth)
	api.HandleFunc("GET /api/stats", s.handleAPIStats)
	mux.Handle("/api/", rl.Middleware(api))

	// Health check endpoints
	mux.HandleFunc("GET /health", s.handleAPIHealth)
	mux.HandleFunc("GET /healthz", s.handleAPILiveness)
	mux.HandleFunc("GET /readyz", s.handleAPIReadiness)

	// Metrics endpoint (Prometheus format)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.withMiddleware(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Start starts the status server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.rateLimiter.Close()
		return fmt.Errorf("listen: %w", err)
	}

	s.logger.Info("status server started", "addr", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()

	return nil
}

// Stop stops the status server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.rateLimiter.Close()

	s.logger.Info("status server stopped")
	return nil
}

// withMiddleware wraps the handler with common middleware.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(w, r)

		s.logger.Debug("response",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("json encode error", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
