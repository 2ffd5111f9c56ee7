package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nmehra/scamtrap/internal/agent"
	"github.com/nmehra/scamtrap/internal/domain"
	"github.com/nmehra/scamtrap/internal/store"
)

// handleChat processes one inbound turn: score it, record it, generate
// a bait reply, record the reply and merge any extracted evidence.
// The body format is deliberately flexible; the calling platform is
// not consistent about field names.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	h.metrics.RequestsReceived.Inc()
	start := time.Now()

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		body = map[string]any{}
		// Some callers send fields as query parameters instead.
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
	}

	sessionID := stringField(body, "sessionId")
	if sessionID == "" {
		sessionID = stringField(body, "session_id")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	messageText, sender := extractMessage(body)
	if messageText == "" {
		slog.Warn("chat request with empty message text", "session_id", sessionID)
		messageText = "Hello"
	}

	metadata := extractMetadata(body)
	history := extractHistory(body, sessionID)

	analysis, flagged := h.analyzer.IsFlagged(messageText)
	if flagged {
		h.metrics.ScamsDetected.Inc()
	}

	ctx := r.Context()
	err := h.repo.AppendMessage(ctx, store.AppendMessage{
		SessionID:  sessionID,
		Sender:     sender,
		Text:       messageText,
		IsScamFlag: flagged,
		Metadata:   metadata,
	})
	if err != nil {
		slog.Error("failed to save inbound message", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	reply, intel := h.generate(r, sessionID, messageText, history)

	err = h.repo.AppendMessage(ctx, store.AppendMessage{
		SessionID:  sessionID,
		Sender:     domain.SenderUser,
		Text:       reply,
		IsResponse: true,
		Metadata:   metadata,
	})
	if err != nil {
		slog.Error("failed to save reply", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save reply")
		return
	}

	if !intel.IsEmpty() {
		if err := h.repo.MergeIntelligence(ctx, sessionID, intel); err != nil {
			slog.Error("failed to merge intelligence", "session_id", sessionID, "error", err)
		}
	}

	status, err := h.repo.ScamStatus(ctx, sessionID)
	if err != nil {
		slog.Error("failed to read scam status", "session_id", sessionID, "error", err)
	} else if status.Confirmed {
		slog.Info("session confirmed as scam", "session_id", sessionID, "scam_flags", status.ScamFlags)
	}

	h.refreshActiveGauge(r)

	slog.Info("chat turn processed", "session_id", sessionID,
		"risk_level", analysis.RiskLevel, "flagged", flagged,
		"latency_ms", time.Since(start).Milliseconds())

	JSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"reply":  reply,
	})
}

// generate produces the bait reply and extracted evidence. A disabled
// or failing generator degrades to a canned reply with no evidence.
func (h *Handler) generate(r *http.Request, sessionID, messageText string, history []domain.Message) (string, domain.Intelligence) {
	if h.gen == nil {
		return agent.CannedReply(), domain.Intelligence{}
	}

	result, err := h.gen.Generate(r.Context(), messageText, history, sessionID)
	if err != nil {
		slog.Warn("generation failed, using canned reply", "session_id", sessionID, "error", err)
		return agent.CannedReply(), domain.Intelligence{}
	}

	reply := result.Reply
	if reply == "" {
		reply = agent.FallbackReply
	}
	return reply, result.Intel
}

func stringField(body map[string]any, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

// extractMessage pulls the message text and sender from the various
// shapes callers use: a message object, a bare message string, or
// top-level text/content fields.
func extractMessage(body map[string]any) (text, sender string) {
	sender = domain.SenderScammer

	switch msg := body["message"].(type) {
	case map[string]any:
		text = stringField(msg, "text")
		if s := stringField(msg, "sender"); s != "" {
			sender = s
		}
		return text, sender
	case string:
		return msg, sender
	}

	if t := stringField(body, "text"); t != "" {
		return t, sender
	}
	return stringField(body, "content"), sender
}

func extractMetadata(body map[string]any) *domain.Metadata {
	raw, ok := body["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	return &domain.Metadata{
		Channel:  stringField(raw, "channel"),
		Language: stringField(raw, "language"),
		Locale:   stringField(raw, "locale"),
	}
}

// extractHistory converts the caller-supplied conversation history
// into domain messages for the generator. Malformed entries are
// skipped.
func extractHistory(body map[string]any, sessionID string) []domain.Message {
	raw, ok := body["conversationHistory"].([]any)
	if !ok {
		return nil
	}

	var history []domain.Message
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := stringField(entry, "text")
		if text == "" {
			continue
		}
		sender := stringField(entry, "sender")
		if sender == "" {
			sender = domain.SenderScammer
		}
		history = append(history, domain.Message{
			SessionID:  sessionID,
			Sender:     sender,
			Text:       text,
			IsResponse: sender == domain.SenderUser,
		})
	}
	return history
}
