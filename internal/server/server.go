// Package server implements the HTTP dashboard server: the browser uploads
// the three spreadsheets, the server runs the pipeline, holds the latest
// result in memory, and serves JSON views over it. The held result is
// replaced wholesale by each successful upload and treated as immutable in
// between; nothing is persisted across restarts.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursedash/coursedash/internal/pipeline"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{Host: "localhost", Port: 7480}
}

// Server serves the dashboard API and static shell.
type Server struct {
	config Config
	opts   pipeline.Options
	router chi.Router

	mu     sync.RWMutex
	result *pipeline.Result
}

// New creates a dashboard server. opts configures every pipeline run the
// server performs.
func New(config Config, opts pipeline.Options) *Server {
	s := &Server{config: config, opts: opts}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/unified", s.handleGetUnified)
		r.Get("/analytics", s.handleGetAnalytics)
		r.Get("/errors", s.handleGetErrors)
		r.Get("/summary", s.handleGetSummary)
		r.Get("/version", s.handleGetVersion)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", staticHandler())

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Result returns the currently held pipeline result, or nil before the
// first successful upload.
func (s *Server) Result() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// SetResult atomically replaces the held result. Watch mode uses this to
// install the output of an automatic rerun.
func (s *Server) SetResult(res *pipeline.Result) {
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Dashboard running at http://%s\n", s.Addr())
	return srv.Serve(ln)
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
