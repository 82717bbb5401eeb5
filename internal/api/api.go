// Package api implements the HTTP render service.
//
// The service exposes the generation pipeline over HTTP so scribbles can
// be produced without a local install. POST /render accepts a multipart
// image upload plus drawing parameters and responds with the rendered
// artifact bytes; GET /healthz reports liveness and the running version.
//
// The service shares the pipeline (and its cache) with the CLI. Cache
// entries are scoped with an "api:" key prefix so one cache directory can
// serve both entry points without collisions.
//
// Start it with the serve subcommand:
//
//	scribble serve --addr :8080
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/scribbleink/scribble/pkg/buildinfo"
	"github.com/scribbleink/scribble/pkg/cache"
	"github.com/scribbleink/scribble/pkg/pipeline"
)

// DefaultAddr is the default listen address for the render service.
const DefaultAddr = ":8080"

// DefaultMaxUpload is the largest accepted request body in bytes.
const DefaultMaxUpload = 32 << 20 // 32 MiB

// shutdownTimeout bounds how long a graceful shutdown may take once the
// serve context is cancelled.
const shutdownTimeout = 5 * time.Second

// Config holds server construction options.
type Config struct {
	// Cache stores generated paths and rendered artifacts.
	// Nil disables caching.
	Cache cache.Cache

	// Logger receives request logs. Nil falls back to log.Default().
	Logger *log.Logger

	// MaxUpload caps the request body size in bytes.
	// Zero means DefaultMaxUpload.
	MaxUpload int64
}

// Server handles render requests over HTTP.
type Server struct {
	runner    *pipeline.Runner
	logger    *log.Logger
	maxUpload int64
}

// NewServer creates a render server backed by the given cache.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxUpload := cfg.MaxUpload
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	keyer := cache.NewScopedKeyer(nil, "api:")
	return &Server{
		runner:    pipeline.NewRunner(cfg.Cache, keyer, logger),
		logger:    logger,
		maxUpload: maxUpload,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Get("/healthz", s.handleHealthz)
	r.Post("/render", s.handleRender)
	return r
}

// ListenAndServe runs the service on addr until ctx is cancelled, then
// shuts down gracefully. In-flight renders get shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("render service listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("render service stopped")
	return ctx.Err()
}

// Close releases the server's cache resources.
func (s *Server) Close() error {
	return s.runner.Close()
}

// handleHealthz reports liveness and the running version.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

// requestIDKey is the context key for the request identifier.
const requestIDKey ctxKey = 0

// requestID assigns each request an identifier, honoring one supplied by
// the client, and echoes it in the X-Request-ID response header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFrom extracts the request identifier from ctx.
// Returns empty string outside of a request handled by requestID.
func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
