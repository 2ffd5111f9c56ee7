// Package finalize moves sessions out of the active working set into
// the archive ledger and, for confirmed scams, the scam intelligence
// store.
package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
	"github.com/nmehra/scamtrap/internal/shared"
	"github.com/nmehra/scamtrap/internal/store"
)

// DefaultSessionTimeout is the inactivity threshold after which a
// session is finalized by the sweeper.
const DefaultSessionTimeout = 300 * time.Second

// Reporter pushes a scam intelligence payload to the external
// evaluation endpoint. Best-effort: a failed push never blocks
// finalization.
type Reporter interface {
	Enabled() bool
	Push(ctx context.Context, payload *domain.ReportPayload) error
}

// Engine orchestrates session finalization. Per session the state
// machine is ACTIVE -> (CONFIRMED_SCAM | BENIGN) -> FINALIZED.
type Engine struct {
	repo     store.Repository
	reporter Reporter
	timeout  time.Duration
}

// NewEngine creates a finalization engine. reporter may be nil when
// external reporting is disabled; timeout <= 0 selects
// DefaultSessionTimeout.
func NewEngine(repo store.Repository, reporter Reporter, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Engine{repo: repo, reporter: reporter, timeout: timeout}
}

// Finalize moves one session out of the active store:
//
//  1. Read the full session; store.ErrSessionNotFound if absent, with
//     no side effects.
//  2. If confirmed scam, write the evidence snapshot to the scam
//     store and optionally push it externally (best-effort, outside
//     the store lock).
//  3. Write the full session to the archive ledger.
//  4. Delete the session from the active store.
//
// The ordering guarantees a crash never loses archive data relative
// to scam data, and the session leaves the active store only after
// both downstream writes succeeded.
func (e *Engine) Finalize(ctx context.Context, sessionID string, pushExternal bool) error {
	data, err := e.repo.FullSession(ctx, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()

	if data.Info.Confirmed {
		rec := &domain.ScamIntelRecord{
			SessionID:     sessionID,
			TotalMessages: len(data.Messages),
			Intel:         data.Intel,
			CreatedAt:     now,
		}
		if err := e.repo.UpsertScamIntel(ctx, rec); err != nil {
			return fmt.Errorf("save scam intelligence: %w", err)
		}

		if pushExternal && e.reporter != nil && e.reporter.Enabled() {
			// The push happens between store operations, never under
			// the store lock, so a slow endpoint cannot stall session
			// mutation.
			if err := e.reporter.Push(ctx, domain.NewReportPayload(rec)); err != nil {
				slog.Warn("external report push failed, will retry via pending queue",
					"session_id", sessionID, "error", err)
			} else if err := e.repo.MarkPushed(ctx, sessionID); err != nil {
				slog.Warn("failed to mark report pushed", "session_id", sessionID, "error", err)
			}
		}
	}

	snap := &domain.ArchivedSession{
		SessionID:     sessionID,
		Channel:       data.Info.Channel,
		Language:      data.Info.Language,
		Locale:        data.Info.Locale,
		TotalMessages: len(data.Messages),
		IsScam:        data.Info.Confirmed,
		ScamFlags:     data.Info.ScamFlags,
		CreatedAt:     data.Info.CreatedAt,
		CompletedAt:   now,
		Messages:      data.Messages,
	}
	if err := e.repo.UpsertArchive(ctx, snap); err != nil {
		return fmt.Errorf("archive session: %w", err)
	}

	// The delete can race a request handler still appending to the
	// same session; retry transient SQLite conflicts.
	err = shared.RetrySQLite(ctx, 3, 100*time.Millisecond, func() error {
		return e.repo.Clear(ctx, sessionID)
	})
	if err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}

	slog.Info("session finalized", "session_id", sessionID, "is_scam", data.Info.Confirmed,
		"total_messages", len(data.Messages))
	return nil
}

// FinalizeTimedOut finalizes every active session idle longer than
// the inactivity threshold and returns the number finalized. A
// failure on one session is logged and does not stop the rest.
func (e *Engine) FinalizeTimedOut(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-e.timeout)
	ids, err := e.repo.TimedOutSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list timed-out sessions: %w", err)
	}

	count := 0
	for _, id := range ids {
		slog.Info("session timed out, finalizing", "session_id", id)
		if err := e.Finalize(ctx, id, false); err != nil {
			slog.Error("failed to finalize timed-out session", "session_id", id, "error", err)
			continue
		}
		count++
	}
	return count, nil
}
