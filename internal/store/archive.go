package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
)

// UpsertArchive writes a finalized snapshot to the archive ledger.
// No merge semantics: a re-finalize fully overwrites the prior entry,
// messages included.
func (s *SQLiteStore) UpsertArchive(ctx context.Context, snap *domain.ArchivedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.archive.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (
			session_id, channel, language, locale, total_messages,
			is_scam, scam_flags_count, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID, snap.Channel, snap.Language, snap.Locale, snap.TotalMessages,
		boolInt(snap.IsScam), snap.ScamFlags, snap.CreatedAt.Unix(), snap.CompletedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert archived session %s: %w", snap.SessionID, err)
	}

	// Replace, don't append: without this a re-finalize would
	// duplicate the message list.
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, snap.SessionID); err != nil {
		return fmt.Errorf("replace archived messages for %s: %w", snap.SessionID, err)
	}

	for _, msg := range snap.Messages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, sender, text, timestamp, is_response)
			VALUES (?, ?, ?, ?, ?)`,
			snap.SessionID, msg.Sender, msg.Text, msg.Timestamp.Unix(), boolInt(msg.IsResponse),
		)
		if err != nil {
			return fmt.Errorf("insert archived message for %s: %w", snap.SessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive for %s: %w", snap.SessionID, err)
	}
	return nil
}

// ListArchived returns archived session headers ordered by completion
// time, newest first. Messages are not loaded. limit <= 0 means a
// default page of 50.
func (s *SQLiteStore) ListArchived(ctx context.Context, limit, offset int) ([]*domain.ArchivedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.archive.QueryContext(ctx, `
		SELECT session_id, channel, language, locale, total_messages,
		       is_scam, scam_flags_count, created_at, completed_at
		FROM sessions ORDER BY completed_at DESC, session_id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query archived sessions: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.ArchivedSession
	for rows.Next() {
		var snap domain.ArchivedSession
		var isScam int
		var createdAt, completedAt int64
		if err := rows.Scan(&snap.SessionID, &snap.Channel, &snap.Language, &snap.Locale,
			&snap.TotalMessages, &isScam, &snap.ScamFlags, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan archived session: %w", err)
		}
		snap.IsScam = isScam != 0
		snap.CreatedAt = time.Unix(createdAt, 0)
		snap.CompletedAt = time.Unix(completedAt, 0)
		snaps = append(snaps, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived sessions: %w", err)
	}
	return snaps, nil
}

// ClearArchive deletes the whole archive ledger.
func (s *SQLiteStore) ClearArchive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.archive.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive clear tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{`DELETE FROM messages`, `DELETE FROM sessions`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear archive: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive clear: %w", err)
	}
	return nil
}
