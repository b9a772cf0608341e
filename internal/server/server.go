// Package server exposes analysis and confirmation over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hejijunhao/triage/internal/engine"
	"github.com/hejijunhao/triage/internal/metrics"
	"github.com/hejijunhao/triage/internal/output"
	"github.com/hejijunhao/triage/internal/store"
)

const defaultMaxUpload = 32 << 20

// Option configures a Server.
type Option func(*Server)

// WithOutput forwards every analysis report to out, e.g. a webhook.
func WithOutput(out output.Output) Option {
	return func(s *Server) { s.output = out }
}

// WithMetrics serves m at /metrics and counts confirmations on it.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMaxUploadBytes caps the size of an uploaded log file.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// Server routes API requests to the engine and the confirmation store.
type Server struct {
	engine    *engine.Engine
	store     *store.Store
	output    output.Output
	metrics   *metrics.Metrics
	maxUpload int64
	origins   []string
}

// New creates a Server. The engine and store are shared by all requests.
func New(eng *engine.Engine, st *store.Store, opts ...Option) *Server {
	s := &Server{engine: eng, store: st, maxUpload: defaultMaxUpload}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	if len(s.origins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Source-File"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", s.wrap(s.handleAnalyze))
		rt.Get("/catalog", s.wrap(s.handleCatalog))
		rt.Post("/confirmations", s.wrap(s.handleConfirm))
		rt.Get("/confirmations", s.wrap(s.handleListConfirmations))
	})
	return mux
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
