// Package server exposes an Inspector over HTTP.
//
//	POST /api/analyze     analyze one prompt
//	GET  /api/dimensions  list the scoring dimensions
//	GET  /health          liveness
//	GET  /metrics         Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/dimension"
	"github.com/guiperry/promptinspector/llm"
	"github.com/guiperry/promptinspector/utils"
)

const (
	maxBodyBytes = 1 << 20

	// StatusClientClosedRequest is returned when the caller went away before
	// the analysis finished.
	StatusClientClosedRequest = 499

	RequestIDHeader = "X-Request-ID"
)

type Server struct {
	inspector *promptinspector.Inspector
	logger    utils.Logger
	metrics   *Metrics
	gatherer  prometheus.Gatherer
}

type Option func(*Server)

func WithLogger(logger utils.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records HTTP metrics into m and serves everything reg gathers
// on /metrics.
func WithMetrics(m *Metrics, reg prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = reg
	}
}

func New(in *promptinspector.Inspector, opts ...Option) *Server {
	s := &Server{
		inspector: in,
		logger:    utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.NewRegistry()
	}
	return s
}

// Handler returns the routes wrapped in request-id and compression
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/analyze", s.instrument("/api/analyze", http.HandlerFunc(s.handleAnalyze)))
	mux.Handle("GET /api/dimensions", s.instrument("/api/dimensions", http.HandlerFunc(s.handleDimensions)))
	mux.Handle("GET /health", s.instrument("/health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return requestID(gzhttp.GzipHandler(mux))
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests for up to drain.
func (s *Server) ListenAndServe(ctx context.Context, addr string, drain time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req promptinspector.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	resp, err := s.inspector.Analyze(r.Context(), req)
	if err != nil {
		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Analysis failed", "request_id", w.Header().Get(RequestIDHeader), "error", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type dimensionView struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

func (s *Server) handleDimensions(w http.ResponseWriter, _ *http.Request) {
	defs := dimension.List()
	views := make([]dimensionView, 0, len(defs))
	for _, d := range defs {
		views = append(views, dimensionView{ID: d.ID, Label: d.Label, Description: d.Description, Weight: d.Weight})
	}
	writeJSON(w, http.StatusOK, map[string]any{"dimensions": views})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"queues": s.inspector.QueueStats(),
	})
}

// classify maps an Analyze error to a status and a message safe to show.
func classify(err error) (int, string) {
	var le *llm.LLMError
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case !errors.As(err, &le):
		return http.StatusInternalServerError, "internal error"
	}
	switch llm.TypeOf(err) {
	case llm.ErrorTypeInvalidInput:
		return http.StatusBadRequest, le.Message
	case llm.ErrorTypeRateLimit:
		return http.StatusTooManyRequests, "too many detailed analyses in progress, try again later"
	}
	return http.StatusInternalServerError, "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.InFlight.Inc()
		defer s.metrics.InFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s.metrics.RecordRequest(route, rec.status, duration)
		s.logger.Debug("HTTP request",
			"method", r.Method, "route", route, "status", rec.status,
			"duration", duration, "request_id", w.Header().Get(RequestIDHeader))
	})
}

// requestID echoes the caller's X-Request-ID, or a new one, on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
