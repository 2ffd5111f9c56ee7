// Package api provides HTTP handlers for the scamtrap API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmehra/scamtrap/internal/agent"
	"github.com/nmehra/scamtrap/internal/finalize"
	"github.com/nmehra/scamtrap/internal/metrics"
	"github.com/nmehra/scamtrap/internal/report"
	"github.com/nmehra/scamtrap/internal/store"
)

const serviceVersion = "1.0.0"

// Handler serves the chat and administrative endpoints.
type Handler struct {
	repo     store.Repository
	engine   *finalize.Engine
	analyzer *agent.Analyzer
	gen      agent.Generator // nil when the LLM is not configured
	reporter *report.Client
	metrics  *metrics.Metrics
}

// NewHandler creates a Handler. gen may be nil; replies then come
// from the canned pool.
func NewHandler(repo store.Repository, engine *finalize.Engine, analyzer *agent.Analyzer,
	gen agent.Generator, reporter *report.Client, m *metrics.Metrics) *Handler {
	return &Handler{
		repo:     repo,
		engine:   engine,
		analyzer: analyzer,
		gen:      gen,
		reporter: reporter,
		metrics:  m,
	}
}

// RegisterRoutes mounts the authenticated API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
	r.Post("/api/end-session", h.handleEndSession)
	r.Post("/api/finalize-timeout", h.handleFinalizeTimeout)
	r.Post("/api/push-reports", h.handlePushReports)
	r.Get("/api/session-status/{sessionID}", h.handleSessionStatus)
	r.Post("/api/clear-all-data", h.handleClearAll)
	r.Get("/api/view-db/{kind}", h.handleViewDB)
}

// RegisterPublic mounts the unauthenticated liveness routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/ping", h.handlePing)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "scamtrap",
		"version": serviceVersion,
	})
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status":    "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"status": "error", "message": message})
}

// refreshActiveGauge updates the active-sessions gauge, best-effort.
func (h *Handler) refreshActiveGauge(r *http.Request) {
	count, err := h.repo.ActiveCount(r.Context())
	if err != nil {
		return
	}
	h.metrics.ActiveSessions.Set(float64(count))
}
