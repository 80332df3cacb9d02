// Package server exposes the run history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/history"
	"github.com/fjglira/bugzero/internal/metrics"
	"github.com/fjglira/bugzero/internal/render"
)

const defaultListLimit = 50

var contentTypes = map[string]string{
	"html":     "text/html; charset=utf-8",
	"markdown": "text/markdown; charset=utf-8",
	"json":     "application/json",
	"junit":    "application/xml",
}

// Store is the part of the history store the server reads from.
type Store interface {
	List(ctx context.Context, limit int) ([]history.RunSummary, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
}

// Server serves stored runs and the process metrics.
type Server struct {
	store   Store
	writer  *render.Writer
	metrics *metrics.Recorder
	log     *logrus.Logger
}

// New creates a Server. rec may be nil, in which case /metrics is not mounted.
func New(store Store, writer *render.Writer, rec *metrics.Recorder, log *logrus.Logger) *Server {
	return &Server{store: store, writer: writer, metrics: rec, log: log}
}

// SeedMetrics loads every stored run into the recorder so /metrics
// reports the history totals.
func (s *Server) SeedMetrics(ctx context.Context) error {
	if s.metrics == nil {
		return nil
	}
	runs, err := s.store.List(ctx, 0)
	if err != nil {
		return err
	}
	summaries := make([]domain.Summary, len(runs))
	for i, run := range runs {
		summaries[i] = run.Summary
	}
	s.metrics.Seed(summaries)
	s.log.Debugf("Seeded metrics from %d stored run(s)", len(runs))
	return nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/runs", http.StatusFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{runID}", s.handleRun)
		r.Get("/{runID}/{format}", s.handleRun)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Serving run history on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	if runs == nil {
		runs = []history.RunSummary{}
	}
	w.Header().Set("Content-Type", contentTypes["json"])
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.log.WithError(err).Warn("Failed to encode run list")
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == "" {
		format = "html"
	}
	ct, ok := contentTypes[format]
	if !ok {
		http.Error(w, "unknown format "+strconv.Quote(format), http.StatusNotFound)
		return
	}

	rep, err := s.store.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	if err := s.writer.Render(w, format, rep); err != nil {
		s.log.WithError(err).Warn("Failed to render run")
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.WithError(err).Error("History lookup failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
