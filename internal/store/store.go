// Package store provides data persistence for active, archived and
// confirmed-scam sessions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
)

// ErrSessionNotFound is returned when a session doesn't exist in the
// active store.
var ErrSessionNotFound = errors.New("session not found")

// AppendMessage carries one conversation turn into the active store.
type AppendMessage struct {
	SessionID  string
	Sender     string
	Text       string
	Timestamp  time.Time
	IsResponse bool
	IsScamFlag bool
	Metadata   *domain.Metadata
}

// Repository defines persistence for all three session stores. Every
// operation is atomic with respect to all others: implementations
// serialize public calls behind a single exclusive lock.
type Repository interface {
	// AppendMessage creates the session row if absent, inserts the
	// message, bumps updated_at and — for flagged turns — increments
	// the scam-flag counter and recomputes confirmation.
	AppendMessage(ctx context.Context, msg AppendMessage) error

	// MergeIntelligence unions newly extracted evidence into the
	// session's accumulated intelligence. Idempotent.
	MergeIntelligence(ctx context.Context, sessionID string, delta domain.Intelligence) error

	// ScamStatus returns the flag summary for a session. Unknown
	// sessions yield the zero value, never an error.
	ScamStatus(ctx context.Context, sessionID string) (domain.ScamStatus, error)

	// FullSession returns the header, ordered messages and evidence
	// for a session. Returns ErrSessionNotFound if the session is
	// not active.
	FullSession(ctx context.Context, sessionID string) (*domain.SessionData, error)

	// TimedOutSessions lists active sessions not updated since the
	// cutoff instant.
	TimedOutSessions(ctx context.Context, cutoff time.Time) ([]string, error)

	// ActiveCount returns the number of sessions in the active store.
	ActiveCount(ctx context.Context) (int, error)

	// Clear deletes all rows for one active session.
	Clear(ctx context.Context, sessionID string) error

	// ClearAll deletes every active session. Maintenance only.
	ClearAll(ctx context.Context) error

	// UpsertArchive writes a finalized snapshot to the archive
	// ledger, replacing any prior entry for the same session id.
	UpsertArchive(ctx context.Context, snap *domain.ArchivedSession) error

	// ListArchived returns archived session headers, newest first.
	ListArchived(ctx context.Context, limit, offset int) ([]*domain.ArchivedSession, error)

	// ClearArchive deletes the whole archive ledger. Maintenance only.
	ClearArchive(ctx context.Context) error

	// UpsertScamIntel writes a confirmed-scam evidence snapshot,
	// replacing any prior record for the same session id.
	UpsertScamIntel(ctx context.Context, rec *domain.ScamIntelRecord) error

	// ScamIntel returns the stored record for a session, or nil if
	// none exists.
	ScamIntel(ctx context.Context, sessionID string) (*domain.ScamIntelRecord, error)

	// MarkPushed sets the one-way pushed flag and its timestamp.
	// Calling it again for an already-pushed record is a no-op.
	MarkPushed(ctx context.Context, sessionID string) error

	// ListPendingReports lists session ids whose scam intelligence
	// has not yet been pushed to the external endpoint.
	ListPendingReports(ctx context.Context) ([]string, error)

	// ClearScamIntel deletes every scam record. Maintenance only.
	ClearScamIntel(ctx context.Context) error

	// Ping verifies connectivity to all backing databases.
	Ping(ctx context.Context) error

	// Close closes all database connections.
	Close() error
}
