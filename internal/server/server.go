package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitdash/internal/metrics"
	"fitdash/internal/service"
	"fitdash/internal/store"
)

// Server exposes the athlete insights as a JSON API.
type Server struct {
	db       *store.DB
	insights *service.InsightsService
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *store.DB, insights *service.InsightsService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		db:       db,
		insights: insights,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))

	s.router.With(Metrics(metrics.EndpointHealth)).Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.With(Metrics(metrics.EndpointStreaks)).Get("/streaks", s.handleStreaks)
		r.With(Metrics(metrics.EndpointAchievements)).Get("/achievements", s.handleAchievements)
		r.With(Metrics(metrics.EndpointRecords)).Get("/records", s.handleRecords)
		r.With(Metrics(metrics.EndpointPredictions)).Get("/predictions", s.handlePredictions)
		r.With(Metrics(metrics.EndpointAlerts)).Get("/alerts", s.handleAlerts)
		r.With(Metrics(metrics.EndpointAlerts)).Post("/alerts/{alertID}/read", s.handleMarkAlertRead)
		r.With(Metrics(metrics.EndpointRefresh)).Post("/refresh", s.handleRefresh)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
