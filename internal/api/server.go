// Package api exposes the read-only HTTP surface: ranked token listings,
// per-token summaries, the latest published report, health and metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"cardano-token-metrics/internal/cache"
	"cardano-token-metrics/internal/config"
	"cardano-token-metrics/internal/storage"
)

// Server is the read-only HTTP server. Writes happen only through the
// enrichment pass; the API never mutates state beyond cache fills.
type Server struct {
	router *mux.Router
	server *http.Server
	store  storage.TokenStore
	cache  cache.ReportCache
	logger zerolog.Logger
}

// Options carries the server's dependencies.
type Options struct {
	Store storage.TokenStore
	Cache cache.ReportCache

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler

	Logger zerolog.Logger
}

// NewServer wires routes and middleware. Call Start to begin serving.
func NewServer(cfg config.ServerConfig, opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: Options.Store is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("api: Options.Cache is required")
	}

	s := &Server{
		router: mux.NewRouter(),
		store:  opts.Store,
		cache:  opts.Cache,
		logger: opts.Logger,
	}
	s.setupRoutes(opts.MetricsHandler)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}

	return s, nil
}

func (s *Server) setupRoutes(metricsHandler http.Handler) {
	s.router.Use(s.requestLoggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/tokens", s.handleListTokens).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{id}", s.handleGetToken).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleGetReport).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if metricsHandler != nil {
		s.router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code for request logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
