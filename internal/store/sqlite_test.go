package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
)

func newTestStore(t *testing.T, threshold int) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(t.TempDir(), Options{ScamFlagThreshold: threshold})
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

func appendTurn(t *testing.T, s *SQLiteStore, sessionID, text string, flagged bool) {
	t.Helper()

	err := s.AppendMessage(context.Background(), AppendMessage{
		SessionID:  sessionID,
		Sender:     domain.SenderScammer,
		Text:       text,
		IsScamFlag: flagged,
	})
	if err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}
}

func TestScamStatusUnknownSession(t *testing.T) {
	s := newTestStore(t, 0)

	status, err := s.ScamStatus(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Expected no error for unknown session, got %v", err)
	}
	if status.ScamFlags != 0 || status.Confirmed {
		t.Errorf("Expected zero status for unknown session, got %+v", status)
	}
}

func TestConfirmationAtThreshold(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	appendTurn(t, s, "s-1", "your account is blocked", true)

	status, err := s.ScamStatus(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to read status: %v", err)
	}
	if status.ScamFlags != 1 || status.Confirmed {
		t.Errorf("Expected 1 flag and unconfirmed, got %+v", status)
	}

	appendTurn(t, s, "s-1", "share your OTP now", true)

	status, err = s.ScamStatus(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to read status: %v", err)
	}
	if status.ScamFlags != 2 || !status.Confirmed {
		t.Errorf("Expected 2 flags and confirmed, got %+v", status)
	}
}

func TestConfirmationNeverReverts(t *testing.T) {
	s := newTestStore(t, 1)
	ctx := context.Background()

	appendTurn(t, s, "s-1", "urgent, verify your UPI pin", true)
	appendTurn(t, s, "s-1", "ok thanks", false)

	status, err := s.ScamStatus(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to read status: %v", err)
	}
	if status.ScamFlags != 1 || !status.Confirmed {
		t.Errorf("Expected confirmation to survive unflagged turns, got %+v", status)
	}
}

func TestFullSessionNotFound(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.FullSession(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestFullSessionOrdering(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		appendTurn(t, s, "s-1", text, false)
	}

	data, err := s.FullSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if len(data.Messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(data.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if data.Messages[i].Text != want {
			t.Errorf("Message %d: expected %q, got %q", i, want, data.Messages[i].Text)
		}
	}
	if data.Info.Channel != domain.DefaultChannel {
		t.Errorf("Expected default channel %q, got %q", domain.DefaultChannel, data.Info.Channel)
	}
}

func TestMetadataAppliedOnCreate(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	err := s.AppendMessage(ctx, AppendMessage{
		SessionID: "s-1",
		Sender:    domain.SenderScammer,
		Text:      "hello",
		Metadata:  &domain.Metadata{Channel: "WhatsApp", Language: "Hindi"},
	})
	if err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	data, err := s.FullSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if data.Info.Channel != "WhatsApp" || data.Info.Language != "Hindi" {
		t.Errorf("Expected caller metadata, got channel=%q language=%q",
			data.Info.Channel, data.Info.Language)
	}
	if data.Info.Locale != domain.DefaultLocale {
		t.Errorf("Expected default locale %q, got %q", domain.DefaultLocale, data.Info.Locale)
	}
}

func TestMergeIntelligenceUnions(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	appendTurn(t, s, "s-1", "hello", false)

	err := s.MergeIntelligence(ctx, "s-1", domain.Intelligence{
		UPIIDs:     []string{"a@upi"},
		AgentNotes: "asked for UPI",
	})
	if err != nil {
		t.Fatalf("First merge failed: %v", err)
	}
	err = s.MergeIntelligence(ctx, "s-1", domain.Intelligence{
		UPIIDs:       []string{"a@upi", "b@upi"},
		PhoneNumbers: []string{"+919876543210"},
	})
	if err != nil {
		t.Fatalf("Second merge failed: %v", err)
	}

	data, err := s.FullSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if want := []string{"a@upi", "b@upi"}; !reflect.DeepEqual(data.Intel.UPIIDs, want) {
		t.Errorf("Expected UPI ids %v, got %v", want, data.Intel.UPIIDs)
	}
	if data.Intel.AgentNotes != "asked for UPI" {
		t.Errorf("Expected notes to survive empty delta, got %q", data.Intel.AgentNotes)
	}
}

func TestClearRemovesOneSession(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	appendTurn(t, s, "s-1", "hello", false)
	appendTurn(t, s, "s-2", "hi", false)

	if err := s.Clear(ctx, "s-1"); err != nil {
		t.Fatalf("Failed to clear session: %v", err)
	}

	if _, err := s.FullSession(ctx, "s-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected cleared session to be gone, got %v", err)
	}
	if _, err := s.FullSession(ctx, "s-2"); err != nil {
		t.Errorf("Expected other session to survive, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	appendTurn(t, s, "s-1", "hello", false)
	appendTurn(t, s, "s-2", "hi", false)

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("Failed to clear all: %v", err)
	}

	count, err := s.ActiveCount(ctx)
	if err != nil {
		t.Fatalf("Failed to count sessions: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 active sessions, got %d", count)
	}
}

func TestTimedOutSessions(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	appendTurn(t, s, "s-1", "hello", false)

	ids, err := s.TimedOutSessions(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Failed to list timed-out sessions: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no timed-out sessions with past cutoff, got %v", ids)
	}

	ids, err = s.TimedOutSessions(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to list timed-out sessions: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s-1" {
		t.Errorf("Expected [s-1] with future cutoff, got %v", ids)
	}
}

func TestArchiveUpsertReplacesPriorEntry(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	snap := &domain.ArchivedSession{
		SessionID:     "s-1",
		Channel:       "SMS",
		TotalMessages: 2,
		CreatedAt:     time.Now().Add(-time.Hour),
		CompletedAt:   time.Now(),
		Messages: []domain.Message{
			{SessionID: "s-1", Sender: domain.SenderScammer, Text: "hello", Timestamp: time.Now()},
			{SessionID: "s-1", Sender: domain.SenderUser, Text: "hi", Timestamp: time.Now(), IsResponse: true},
		},
	}
	if err := s.UpsertArchive(ctx, snap); err != nil {
		t.Fatalf("First archive failed: %v", err)
	}

	snap.TotalMessages = 3
	snap.IsScam = true
	snap.Messages = append(snap.Messages, domain.Message{
		SessionID: "s-1", Sender: domain.SenderScammer, Text: "send OTP", Timestamp: time.Now(),
	})
	if err := s.UpsertArchive(ctx, snap); err != nil {
		t.Fatalf("Second archive failed: %v", err)
	}

	archived, err := s.ListArchived(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list archive: %v", err)
	}
	if len(archived) != 1 {
		t.Fatalf("Expected 1 archived session, got %d", len(archived))
	}
	if archived[0].TotalMessages != 3 || !archived[0].IsScam {
		t.Errorf("Expected replaced entry with 3 messages and is_scam, got %+v", archived[0])
	}
}

func TestListArchivedNewestFirst(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		snap := &domain.ArchivedSession{
			SessionID:   id,
			CreatedAt:   base,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.UpsertArchive(ctx, snap); err != nil {
			t.Fatalf("Failed to archive %s: %v", id, err)
		}
	}

	archived, err := s.ListArchived(ctx, 2, 0)
	if err != nil {
		t.Fatalf("Failed to list archive: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(archived))
	}
	if archived[0].SessionID != "new" || archived[1].SessionID != "mid" {
		t.Errorf("Expected newest first, got %s then %s", archived[0].SessionID, archived[1].SessionID)
	}
}

func TestScamIntelLifecycle(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	rec := &domain.ScamIntelRecord{
		SessionID:     "s-1",
		TotalMessages: 5,
		Intel: domain.Intelligence{
			UPIIDs:     []string{"fraud@upi"},
			AgentNotes: "asked for OTP twice",
		},
		CreatedAt: time.Now(),
	}
	if err := s.UpsertScamIntel(ctx, rec); err != nil {
		t.Fatalf("Failed to upsert scam intel: %v", err)
	}

	got, err := s.ScamIntel(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to read scam intel: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a record, got nil")
	}
	if got.Pushed {
		t.Error("Expected new record to be unpushed")
	}
	if !reflect.DeepEqual(got.Intel.UPIIDs, []string{"fraud@upi"}) {
		t.Errorf("Expected UPI evidence to round-trip, got %v", got.Intel.UPIIDs)
	}

	pending, err := s.ListPendingReports(ctx)
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 || pending[0] != "s-1" {
		t.Errorf("Expected [s-1] pending, got %v", pending)
	}

	if err := s.MarkPushed(ctx, "s-1"); err != nil {
		t.Fatalf("Failed to mark pushed: %v", err)
	}
	got, err = s.ScamIntel(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to re-read scam intel: %v", err)
	}
	if !got.Pushed || got.PushedAt == nil {
		t.Errorf("Expected pushed record with timestamp, got %+v", got)
	}
	firstPushedAt := *got.PushedAt

	// Marking again must not move the timestamp.
	if err := s.MarkPushed(ctx, "s-1"); err != nil {
		t.Fatalf("Second mark failed: %v", err)
	}
	got, err = s.ScamIntel(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to re-read scam intel: %v", err)
	}
	if !got.PushedAt.Equal(firstPushedAt) {
		t.Errorf("Expected pushed_at to stay %v, got %v", firstPushedAt, *got.PushedAt)
	}

	pending, err = s.ListPendingReports(ctx)
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending reports, got %v", pending)
	}
}

func TestUpsertScamIntelPreservesPushedFlag(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	rec := &domain.ScamIntelRecord{SessionID: "s-1", TotalMessages: 2, CreatedAt: time.Now()}
	if err := s.UpsertScamIntel(ctx, rec); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := s.MarkPushed(ctx, "s-1"); err != nil {
		t.Fatalf("Failed to mark pushed: %v", err)
	}

	rec.TotalMessages = 4
	if err := s.UpsertScamIntel(ctx, rec); err != nil {
		t.Fatalf("Failed to re-upsert: %v", err)
	}

	got, err := s.ScamIntel(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if got.TotalMessages != 4 {
		t.Errorf("Expected updated message count 4, got %d", got.TotalMessages)
	}
	if !got.Pushed {
		t.Error("Expected pushed flag to survive re-upsert")
	}
}

func TestScamIntelMissing(t *testing.T) {
	s := newTestStore(t, 0)

	got, err := s.ScamIntel(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Expected no error for missing record, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing record, got %+v", got)
	}
}
