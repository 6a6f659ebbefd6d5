// Package http exposes the admin surface: health and readiness probes,
// Prometheus metrics, an on-demand ingestion trigger, and a thin prediction
// endpoint. The full client-facing API lives elsewhere.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
	"github.com/monsoonlabs/hazardwatch/internal/ingest"
	"github.com/monsoonlabs/hazardwatch/internal/predict"
)

// predictionHistoryDays is how far back stored events feed a prediction.
const predictionHistoryDays = 90

// CycleRunner triggers ingestion cycles and reports readiness.
type CycleRunner interface {
	CheckReadiness(ctx context.Context) error
	RunCycle(ctx context.Context) (ingest.CycleReport, error)
}

// HistoryReader supplies stored events to the prediction endpoint.
type HistoryReader interface {
	History(ctx context.Context, hazard domain.Hazard, since time.Time) ([]domain.Event, error)
}

// Server exposes the admin HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runner     CycleRunner
	history    HistoryReader
	estimators *predict.Set
	logger     *slog.Logger
}

// NewServer creates the admin server with health, metrics, ingestion, and
// prediction routes.
func NewServer(addr string, runner CycleRunner, history HistoryReader, estimators *predict.Set, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner:     runner,
		history:    history,
		estimators: estimators,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /ingest/run", s.handleIngestRun)
	mux.HandleFunc("GET /predictions/{hazard}", s.handlePrediction)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.runner.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleIngestRun triggers one ingestion cycle. An overlapping trigger gets
// 409; a store outage gets 503.
func (s *Server) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.RunCycle(r.Context())
	switch {
	case errors.Is(err, ingest.ErrCycleInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("ingestion cycle failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ingestion cycle failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	hazard := domain.Hazard(r.PathValue("hazard"))
	if !hazard.Valid() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown hazard type"})
		return
	}
	region := r.URL.Query().Get("region")
	if region == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "region query parameter is required"})
		return
	}

	var hint *predict.Hint
	if v := r.URL.Query().Get("rainfall_forecast_mm"); v != "" {
		mm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rainfall_forecast_mm"})
			return
		}
		hint = &predict.Hint{RainfallForecastMM: &mm}
	}

	since := domain.Clock().Now().UTC().AddDate(0, 0, -predictionHistoryDays)
	history, err := s.history.History(r.Context(), hazard, since)
	if err != nil {
		// Degrade rather than fail: predict from the fallback rules alone.
		s.logger.Warn("history read failed, predicting without it", "hazard", hazard, "error", err)
		history = nil
	}

	estimate, err := s.estimators.Predict(r.Context(), hazard, region, history, hint)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort admin response
}
