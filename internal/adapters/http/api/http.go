// Package api declares the read-only admin HTTP surface: health and
// metrics, service statistics, and per-member progress.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/internal/domain/progression"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service.
type Dependencies interface {
	// GetStats exposes service statistics for monitoring.
	GetStats() map[string]interface{}

	// Evaluate resolves the member's rank and promotion readiness.
	Evaluate(ctx context.Context, member model.MemberID) (progression.Decision, error)
}

// Server wires HTTP routes for the admin API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	progressHandler *ProgressHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		progressHandler: NewProgressHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/progress/", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
