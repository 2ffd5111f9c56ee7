package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmehra/scamtrap/internal/store"
)

// handleEndSession finalizes one session on request: archive it,
// snapshot its evidence if confirmed, and push the report externally.
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID    string `json:"sessionId"`
		SessionIDAlt string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = body.SessionIDAlt
	}
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	ctx := r.Context()
	status, err := h.repo.ScamStatus(ctx, sessionID)
	if err != nil {
		slog.Error("failed to read scam status", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read session")
		return
	}

	if err := h.engine.Finalize(ctx, sessionID, true); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("failed to finalize session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to finalize session")
		return
	}

	h.metrics.SessionsFinalized.Inc()
	h.refreshActiveGauge(r)

	JSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"sessionId":  sessionID,
		"was_scam":   status.Confirmed,
		"scam_flags": status.ScamFlags,
	})
}

// handleFinalizeTimeout sweeps idle sessions on demand, same as the
// background sweeper but caller-triggered.
func (h *Handler) handleFinalizeTimeout(w http.ResponseWriter, r *http.Request) {
	count, err := h.engine.FinalizeTimedOut(r.Context())
	if err != nil {
		slog.Error("timeout sweep failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to finalize timed-out sessions")
		return
	}

	h.metrics.SessionsFinalized.Add(float64(count))
	h.refreshActiveGauge(r)

	JSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"finalized_count": count,
	})
}

// handlePushReports retries delivery of every pending scam report.
func (h *Handler) handlePushReports(w http.ResponseWriter, r *http.Request) {
	stats := h.reporter.PushAllPending(r.Context(), h.repo)
	h.metrics.ReportsPushed.Add(float64(stats.Success))

	JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"report": stats,
	})
}

// handleSessionStatus reports the live state of one active session.
func (h *Handler) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	data, err := h.repo.FullSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("failed to load session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"sessionId":         sessionID,
		"scam_flags":        data.Info.ScamFlags,
		"is_confirmed_scam": data.Info.Confirmed,
		"message_count":     len(data.Messages),
		"extracted_intel":   data.Intel,
	})
}

// handleClearAll wipes all three stores. Destructive, test rigs only.
func (h *Handler) handleClearAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.repo.ClearAll(ctx); err != nil {
		slog.Error("failed to clear active store", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear active sessions")
		return
	}
	if err := h.repo.ClearArchive(ctx); err != nil {
		slog.Error("failed to clear archive", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear archive")
		return
	}
	if err := h.repo.ClearScamIntel(ctx); err != nil {
		slog.Error("failed to clear scam intelligence", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear scam intelligence")
		return
	}

	slog.Warn("all session data cleared")
	h.metrics.ActiveSessions.Set(0)

	JSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "All session data cleared",
	})
}

// handleViewDB gives a debugging view into one store, or all three.
func (h *Handler) handleViewDB(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	ctx := r.Context()

	out := map[string]any{"status": "success"}

	if kind == "current" || kind == "all" {
		count, err := h.repo.ActiveCount(ctx)
		if err != nil {
			Error(w, http.StatusInternalServerError, "failed to read active store")
			return
		}
		out["active_sessions"] = count
	}

	if kind == "archive" || kind == "all" {
		archived, err := h.repo.ListArchived(ctx, 50, 0)
		if err != nil {
			Error(w, http.StatusInternalServerError, "failed to read archive")
			return
		}
		out["archived_sessions"] = archived
	}

	if kind == "scams" || kind == "all" {
		pending, err := h.repo.ListPendingReports(ctx)
		if err != nil {
			Error(w, http.StatusInternalServerError, "failed to read scam store")
			return
		}
		out["pending_reports"] = pending
	}

	if len(out) == 1 {
		Error(w, http.StatusBadRequest, "unknown database: "+kind)
		return
	}

	JSON(w, http.StatusOK, out)
}
