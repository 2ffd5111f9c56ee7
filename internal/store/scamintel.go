package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
)

// UpsertScamIntel writes a confirmed-scam evidence snapshot. Replace,
// not merge: the snapshot taken at finalize time is authoritative.
// The pushed flag and timestamp of an existing record are preserved.
func (s *SQLiteStore) UpsertScamIntel(ctx context.Context, rec *domain.ScamIntelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.scam.ExecContext(ctx, `
		INSERT INTO scam_intelligence (
			session_id, scam_detected, total_messages_exchanged,
			bank_accounts, upi_ids, phishing_links, phone_numbers,
			suspicious_keywords, agent_notes, created_at
		) VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			total_messages_exchanged = excluded.total_messages_exchanged,
			bank_accounts = excluded.bank_accounts,
			upi_ids = excluded.upi_ids,
			phishing_links = excluded.phishing_links,
			phone_numbers = excluded.phone_numbers,
			suspicious_keywords = excluded.suspicious_keywords,
			agent_notes = excluded.agent_notes,
			created_at = excluded.created_at`,
		rec.SessionID, rec.TotalMessages,
		encodeSet(rec.Intel.BankAccounts), encodeSet(rec.Intel.UPIIDs),
		encodeSet(rec.Intel.PhishingLinks), encodeSet(rec.Intel.PhoneNumbers),
		encodeSet(rec.Intel.SuspiciousKeywords), rec.Intel.AgentNotes,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert scam intelligence for %s: %w", rec.SessionID, err)
	}
	return nil
}

// ScamIntel returns the stored record for a session, or nil when no
// record exists.
func (s *SQLiteStore) ScamIntel(ctx context.Context, sessionID string) (*domain.ScamIntelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.scam.QueryRowContext(ctx, `
		SELECT session_id, total_messages_exchanged, bank_accounts, upi_ids,
		       phishing_links, phone_numbers, suspicious_keywords, agent_notes,
		       pushed_to_external, created_at, pushed_at
		FROM scam_intelligence WHERE session_id = ?`, sessionID)

	var rec domain.ScamIntelRecord
	var banks, upis, links, phones, keywords string
	var pushed int
	var createdAt int64
	var pushedAt sql.NullInt64
	err := row.Scan(&rec.SessionID, &rec.TotalMessages, &banks, &upis,
		&links, &phones, &keywords, &rec.Intel.AgentNotes,
		&pushed, &createdAt, &pushedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan scam intelligence for %s: %w", sessionID, err)
	}

	rec.Intel.BankAccounts = decodeSet(banks)
	rec.Intel.UPIIDs = decodeSet(upis)
	rec.Intel.PhishingLinks = decodeSet(links)
	rec.Intel.PhoneNumbers = decodeSet(phones)
	rec.Intel.SuspiciousKeywords = decodeSet(keywords)
	rec.Pushed = pushed != 0
	rec.CreatedAt = time.Unix(createdAt, 0)
	if pushedAt.Valid {
		ts := time.Unix(pushedAt.Int64, 0)
		rec.PushedAt = &ts
	}
	return &rec, nil
}

// MarkPushed sets the one-way pushed flag with the current timestamp.
// Repeated calls keep the original timestamp and are not an error.
func (s *SQLiteStore) MarkPushed(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.scam.ExecContext(ctx, `
		UPDATE scam_intelligence
		SET pushed_to_external = 1, pushed_at = COALESCE(pushed_at, ?)
		WHERE session_id = ?`,
		time.Now().Unix(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("mark pushed for %s: %w", sessionID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark pushed rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("MarkPushed affected 0 rows", "session_id", sessionID)
	}
	return nil
}

// ListPendingReports lists session ids whose scam intelligence has not
// yet been pushed to the external endpoint.
func (s *SQLiteStore) ListPendingReports(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.scam.QueryContext(ctx, `
		SELECT session_id FROM scam_intelligence WHERE pushed_to_external = 0 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query pending reports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending report: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending reports: %w", err)
	}
	return ids, nil
}

// ClearScamIntel deletes every scam intelligence record.
func (s *SQLiteStore) ClearScamIntel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.scam.ExecContext(ctx, `DELETE FROM scam_intelligence`); err != nil {
		return fmt.Errorf("clear scam intelligence: %w", err)
	}
	return nil
}
