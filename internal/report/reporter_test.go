package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
	"github.com/nmehra/scamtrap/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLite(t.TempDir(), store.Options{})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func seedScamRecord(t *testing.T, s *store.SQLiteStore, sessionID string) {
	t.Helper()

	err := s.UpsertScamIntel(context.Background(), &domain.ScamIntelRecord{
		SessionID:     sessionID,
		TotalMessages: 3,
		Intel: domain.Intelligence{
			UPIIDs:     []string{"fraud@upi"},
			AgentNotes: "asked for OTP",
		},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to seed scam record: %v", err)
	}
}

func TestDisabledClientSkipsPush(t *testing.T) {
	c := NewClient("http://example.invalid", false, 0)

	if c.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := c.Push(context.Background(), &domain.ReportPayload{}); err == nil {
		t.Error("Expected an error pushing through a disabled client")
	}
}

func TestEmptyEndpointDisablesClient(t *testing.T) {
	c := NewClient("", true, 0)
	if c.Enabled() {
		t.Error("Expected client without endpoint to be disabled")
	}
}

func TestPushSessionMarksPushed(t *testing.T) {
	var payload domain.ReportPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode pushed payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestStore(t)
	seedScamRecord(t, s, "s-1")
	c := NewClient(srv.URL, true, 0)

	if err := c.PushSession(context.Background(), s, "s-1"); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if payload.SessionID != "s-1" || !payload.ScamDetected {
		t.Errorf("Unexpected payload: %+v", payload)
	}
	if len(payload.ExtractedIntelligence.UPIIDs) != 1 {
		t.Errorf("Expected UPI evidence in payload, got %+v", payload.ExtractedIntelligence)
	}

	rec, err := s.ScamIntel(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if !rec.Pushed {
		t.Error("Expected record to be marked pushed")
	}
}

func TestPushFailureKeepsRecordPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestStore(t)
	seedScamRecord(t, s, "s-1")
	c := NewClient(srv.URL, true, 0)

	if err := c.PushSession(context.Background(), s, "s-1"); err == nil {
		t.Fatal("Expected push to fail")
	}

	pending, err := s.ListPendingReports(context.Background())
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 || pending[0] != "s-1" {
		t.Errorf("Expected [s-1] still pending, got %v", pending)
	}
}

func TestPushSessionMissingRecord(t *testing.T) {
	s := newTestStore(t)
	c := NewClient("http://example.invalid", true, 0)

	if err := c.PushSession(context.Background(), s, "missing"); err == nil {
		t.Error("Expected an error for a session without scam intelligence")
	}
}

func TestPushAllPending(t *testing.T) {
	// Fail s-2 only, by session id.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload domain.ReportPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		if payload.SessionID == "s-2" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestStore(t)
	seedScamRecord(t, s, "s-1")
	seedScamRecord(t, s, "s-2")
	seedScamRecord(t, s, "s-3")
	c := NewClient(srv.URL, true, 0)

	stats := c.PushAllPending(context.Background(), s)

	if !stats.Enabled || stats.TotalPending != 3 || stats.Success != 2 || stats.Failed != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	pending, err := s.ListPendingReports(context.Background())
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 || pending[0] != "s-2" {
		t.Errorf("Expected only s-2 pending, got %v", pending)
	}
}

func TestPushAllPendingDisabled(t *testing.T) {
	s := newTestStore(t)
	seedScamRecord(t, s, "s-1")
	c := NewClient("", false, 0)

	stats := c.PushAllPending(context.Background(), s)

	if stats.Enabled || stats.Success != 0 {
		t.Errorf("Expected disabled stats, got %+v", stats)
	}
}
