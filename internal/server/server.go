// Package server exposes the grading pipeline over HTTP: upload a table,
// get the graded table back or a JSON preview of the run.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gradeflow/internal/config"
	"gradeflow/internal/logger"
	"gradeflow/internal/normalizer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
)

// Server holds the router and its collaborators.
type Server struct {
	cfg       *config.Config
	log       *logger.Logger
	processor *normalizer.Processor
	metrics   *Metrics
	router    chi.Router
}

// New builds a server with a private metrics registry.
func New(cfg *config.Config, log *logger.Logger) *Server {
	return NewWithRegistry(cfg, log, prometheus.NewRegistry())
}

// NewWithRegistry builds a server registering its metrics on reg.
func NewWithRegistry(cfg *config.Config, log *logger.Logger, reg *prometheus.Registry) *Server {
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		cfg:       cfg,
		log:       log,
		processor: normalizer.NewProcessor(cfg, log),
		metrics:   NewMetrics(reg),
	}
	s.router = s.routes(reg)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(reg *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	// RequestID → RealIP → Logger → Recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(Recoverer(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", MetricsHandler(reg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Run-ID", "X-Content-SHA256"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		if s.cfg.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		}

		if rl := s.cfg.Server.RateLimit; rl.Enabled {
			r.Use(NewRateLimiter(rl.RequestsPerSecond, rl.Burst, s.log).Handler)
		}

		r.Use(MaxBytes(s.cfg.Server.MaxUploadBytes()))

		r.Post("/grade", s.handleGrade)
		r.Post("/preview", s.handlePreview)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server", "timeout", s.cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
