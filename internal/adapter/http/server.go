package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/radar-rain-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const contentTypeCSV = "text/csv; charset=utf-8"

// HistorySource exposes the current history table.
type HistorySource interface {
	History() *domain.HistoryTable
}

// Server exposes health, readiness, metrics, and history HTTP endpoints.
type Server struct {
	httpServer *http.Server
	history    HistorySource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /history routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, history HistorySource, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		history: history,
		logger:  logger,
	}

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/history/{site}", s.handleSiteHistory).Methods(http.MethodGet)

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

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	t := s.history.History()
	s.writeCSV(w, t, t.Keys())
}

func (s *Server) handleSiteHistory(w http.ResponseWriter, r *http.Request) {
	site := mux.Vars(r)["site"]
	t := s.history.History()

	var keys []domain.SampleKey
	for _, k := range t.Keys() {
		if k.Site == site {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		http.Error(w, "unknown site", http.StatusNotFound)
		return
	}
	s.writeCSV(w, t, keys)
}

// writeCSV buffers the body so an encoding failure can still produce a 500.
func (s *Server) writeCSV(w http.ResponseWriter, t *domain.HistoryTable, keys []domain.SampleKey) {
	var buf bytes.Buffer
	if err := csvstore.WriteHistoryRows(&buf, t, keys); err != nil {
		s.logger.Error("encode history failed", "error", err)
		http.Error(w, "encode history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeCSV)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
