// Package server exposes the mosaic pipeline and plan store over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /api/v1/plans                 solve and store a plan
//	GET    /api/v1/plans                 list stored plans (?limit=)
//	GET    /api/v1/plans/{id}            fetch one plan
//	DELETE /api/v1/plans/{id}            delete a plan
//	GET    /api/v1/plans/{id}/image      render a plan (?format=png|jpeg|...)
//	GET    /api/v1/plans/{id}/usage.svg  tile usage diagram
//
// Image paths in requests are resolved relative to Config.Root and may not
// escape it. Errors are JSON objects {"code": ..., "message": ...}.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tessellate/pkg/pipeline"
	"github.com/matzehuels/tessellate/pkg/store"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// Config configures a Server.
type Config struct {
	Addr string
	// Root is the directory request paths are resolved against.
	Root string
	// RequestTimeout bounds each request, including solving. Zero means no limit.
	RequestTimeout time.Duration

	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// Server serves the planning API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds a server. Runner and Store default to a cache-less runner and
// an in-memory store.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.cfg.Logger))
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1/plans", func(r chi.Router) {
		r.Post("/", s.handleCreatePlan)
		r.Get("/", s.handleListPlans)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Delete("/", s.handleDeletePlan)
			r.Get("/image", s.handlePlanImage)
			r.Get("/usage.svg", s.handlePlanUsage)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr, "root", s.cfg.Root)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.cfg.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
