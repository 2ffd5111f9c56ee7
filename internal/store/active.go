package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
)

// AppendMessage creates the session row if absent (defaulting channel,
// language and locale from the message metadata), inserts the message,
// bumps updated_at and — when the turn is flagged — increments the
// scam-flag counter and recomputes confirmation against the threshold.
// Confirmation never reverts: once set it survives unflagged turns.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg AppendMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = now
	}

	channel, language, locale := domain.DefaultChannel, domain.DefaultLanguage, domain.DefaultLocale
	if msg.Metadata != nil {
		if msg.Metadata.Channel != "" {
			channel = msg.Metadata.Channel
		}
		if msg.Metadata.Language != "" {
			language = msg.Metadata.Language
		}
		if msg.Metadata.Locale != "" {
			locale = msg.Metadata.Locale
		}
	}

	tx, err := s.active.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO session_info (session_id, channel, language, locale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at`,
		msg.SessionID, channel, language, locale, now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", msg.SessionID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (session_id, sender, text, timestamp, is_response, is_scam_flag)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Sender, msg.Text, ts.Unix(), boolInt(msg.IsResponse), boolInt(msg.IsScamFlag),
	)
	if err != nil {
		return fmt.Errorf("insert message for %s: %w", msg.SessionID, err)
	}

	if msg.IsScamFlag {
		_, err = tx.ExecContext(ctx, `
			UPDATE session_info
			SET scam_flags = scam_flags + 1,
			    is_confirmed_scam = CASE WHEN scam_flags + 1 >= ? THEN 1 ELSE is_confirmed_scam END
			WHERE session_id = ?`,
			s.flagThreshold, msg.SessionID,
		)
		if err != nil {
			return fmt.Errorf("increment scam flags for %s: %w", msg.SessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append for %s: %w", msg.SessionID, err)
	}
	return nil
}

// MergeIntelligence loads the session's current evidence (empty sets
// if none), unions the new evidence into it and writes the result
// back. Agent notes are replaced only when the new value is non-empty.
func (s *SQLiteStore) MergeIntelligence(ctx context.Context, sessionID string, delta domain.Intelligence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readIntel(ctx, sessionID)
	if err != nil {
		return err
	}
	merged := current.Merge(delta)

	_, err = s.active.ExecContext(ctx, `
		INSERT INTO extracted_intel (
			session_id, bank_accounts, upi_ids, phishing_links,
			phone_numbers, suspicious_keywords, agent_notes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			bank_accounts = excluded.bank_accounts,
			upi_ids = excluded.upi_ids,
			phishing_links = excluded.phishing_links,
			phone_numbers = excluded.phone_numbers,
			suspicious_keywords = excluded.suspicious_keywords,
			agent_notes = excluded.agent_notes,
			updated_at = excluded.updated_at`,
		sessionID,
		encodeSet(merged.BankAccounts), encodeSet(merged.UPIIDs), encodeSet(merged.PhishingLinks),
		encodeSet(merged.PhoneNumbers), encodeSet(merged.SuspiciousKeywords),
		merged.AgentNotes, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("merge intelligence for %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLiteStore) readIntel(ctx context.Context, sessionID string) (domain.Intelligence, error) {
	row := s.active.QueryRowContext(ctx, `
		SELECT bank_accounts, upi_ids, phishing_links, phone_numbers, suspicious_keywords, agent_notes
		FROM extracted_intel WHERE session_id = ?`, sessionID)

	var banks, upis, links, phones, keywords, notes string
	err := row.Scan(&banks, &upis, &links, &phones, &keywords, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Intelligence{}, nil
	}
	if err != nil {
		return domain.Intelligence{}, fmt.Errorf("scan intelligence for %s: %w", sessionID, err)
	}

	return domain.Intelligence{
		BankAccounts:       decodeSet(banks),
		UPIIDs:             decodeSet(upis),
		PhishingLinks:      decodeSet(links),
		PhoneNumbers:       decodeSet(phones),
		SuspiciousKeywords: decodeSet(keywords),
		AgentNotes:         notes,
	}, nil
}

// ScamStatus returns the flag summary for a session. Unknown sessions
// yield zero values, never an error.
func (s *SQLiteStore) ScamStatus(ctx context.Context, sessionID string) (domain.ScamStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.active.QueryRowContext(ctx, `
		SELECT scam_flags, is_confirmed_scam FROM session_info WHERE session_id = ?`, sessionID)

	var status domain.ScamStatus
	var confirmed int
	err := row.Scan(&status.ScamFlags, &confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScamStatus{}, nil
	}
	if err != nil {
		return domain.ScamStatus{}, fmt.Errorf("scan scam status for %s: %w", sessionID, err)
	}
	status.Confirmed = confirmed != 0
	return status, nil
}

// FullSession returns the session header, ordered messages and
// accumulated evidence, or ErrSessionNotFound if the session is not
// in the active store.
func (s *SQLiteStore) FullSession(ctx context.Context, sessionID string) (*domain.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.active.QueryRowContext(ctx, `
		SELECT session_id, channel, language, locale, scam_flags, is_confirmed_scam, created_at, updated_at
		FROM session_info WHERE session_id = ?`, sessionID)

	var info domain.Session
	var confirmed int
	var createdAt, updatedAt int64
	err := row.Scan(&info.SessionID, &info.Channel, &info.Language, &info.Locale,
		&info.ScamFlags, &confirmed, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session %s: %w", sessionID, err)
	}
	info.Confirmed = confirmed != 0
	info.CreatedAt = time.Unix(createdAt, 0)
	info.UpdatedAt = time.Unix(updatedAt, 0)

	messages, err := s.readMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	intel, err := s.readIntel(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &domain.SessionData{Info: info, Messages: messages, Intel: intel}, nil
}

func (s *SQLiteStore) readMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := s.active.QueryContext(ctx, `
		SELECT sender, text, timestamp, is_response, is_scam_flag
		FROM messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var ts int64
		var isResponse, isFlag int
		if err := rows.Scan(&msg.Sender, &msg.Text, &ts, &isResponse, &isFlag); err != nil {
			return nil, fmt.Errorf("scan message for %s: %w", sessionID, err)
		}
		msg.SessionID = sessionID
		msg.Timestamp = time.Unix(ts, 0)
		msg.IsResponse = isResponse != 0
		msg.IsScamFlag = isFlag != 0
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages for %s: %w", sessionID, err)
	}
	return messages, nil
}

// TimedOutSessions lists active sessions whose updated_at is strictly
// before the cutoff instant.
func (s *SQLiteStore) TimedOutSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.active.QueryContext(ctx, `
		SELECT session_id FROM session_info WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("query timed-out sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan timed-out session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timed-out sessions: %w", err)
	}
	return ids, nil
}

// ActiveCount returns the number of sessions in the active store.
func (s *SQLiteStore) ActiveCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.active.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_info`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return count, nil
}

// Clear deletes all rows (header, messages, evidence) for one session.
func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.active.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM messages WHERE session_id = ?`,
		`DELETE FROM extracted_intel WHERE session_id = ?`,
		`DELETE FROM session_info WHERE session_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, sessionID); err != nil {
			return fmt.Errorf("clear session %s: %w", sessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear for %s: %w", sessionID, err)
	}
	return nil
}

// ClearAll deletes every active session.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.active.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear-all tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM messages`,
		`DELETE FROM extracted_intel`,
		`DELETE FROM session_info`,
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear all sessions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear-all: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
