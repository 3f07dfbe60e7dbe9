// Package api serves the netgraph pipeline over HTTP.
//
// Routes:
//
//	POST /v1/graphs   build a graph from the netlist in the request body
//	POST /v1/check    report the violations of a netlist as JSON
//	GET  /healthz     liveness probe
//	GET  /metrics     Prometheus metrics (when a gatherer is configured)
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds the size of uploaded netlists.
const DefaultMaxBodyBytes = 32 << 20

// Config configures a [Server].
type Config struct {
	Runner       *pipeline.Runner
	Logger       *log.Logger
	Gatherer     prometheus.Gatherer // nil disables /metrics
	MaxBodyBytes int64
	Workers      int // Net pass parallelism for every build
}

// Server is the HTTP front end of a pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	workers int
	router  chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		workers: cfg.Workers,
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/graphs", s.handleBuild)
		r.Post("/check", s.handleCheck)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}
