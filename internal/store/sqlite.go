package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Database files under the data directory. Three independent stores,
// each durable across restarts.
const (
	activeDBFile  = "current_session.db"
	archiveDBFile = "chat_sessions.db"
	scamDBFile    = "scam_session.db"
)

// DefaultScamFlagThreshold is the number of flagged turns after which
// a session counts as a confirmed scam.
const DefaultScamFlagThreshold = 2

// Options tunes store behavior.
type Options struct {
	// ScamFlagThreshold overrides DefaultScamFlagThreshold when > 0.
	ScamFlagThreshold int
}

// SQLiteStore implements Repository over three SQLite databases.
// A single mutex serializes every public operation so each is atomic
// with respect to all others, including the sweeper's own calls.
type SQLiteStore struct {
	mu            sync.Mutex
	active        *sql.DB
	archive       *sql.DB
	scam          *sql.DB
	flagThreshold int
}

// NewSQLite opens (creating if needed) the three session databases
// under dataDir and initializes their schemas.
func NewSQLite(dataDir string, opts Options) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	threshold := opts.ScamFlagThreshold
	if threshold <= 0 {
		threshold = DefaultScamFlagThreshold
	}

	s := &SQLiteStore{flagThreshold: threshold}

	var err error
	if s.active, err = openDB(filepath.Join(dataDir, activeDBFile)); err != nil {
		return nil, err
	}
	if s.archive, err = openDB(filepath.Join(dataDir, archiveDBFile)); err != nil {
		s.Close()
		return nil, err
	}
	if s.scam, err = openDB(filepath.Join(dataDir, scamDBFile)); err != nil {
		s.Close()
		return nil, err
	}

	if err := s.initSchemas(); err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize schemas: %w", err)
	}

	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	// WAL mode for better concurrency between the request path and
	// the sweeper.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", filepath.Base(path), err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database %s: %w", filepath.Base(path), err)
	}
	return db, nil
}

func (s *SQLiteStore) initSchemas() error {
	activeSchema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS session_info (
		session_id TEXT PRIMARY KEY,
		channel TEXT NOT NULL DEFAULT 'SMS',
		language TEXT NOT NULL DEFAULT 'English',
		locale TEXT NOT NULL DEFAULT 'IN',
		scam_flags INTEGER NOT NULL DEFAULT 0,
		is_confirmed_scam INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_info_updated ON session_info(updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		is_response INTEGER NOT NULL DEFAULT 0,
		is_scam_flag INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

	CREATE TABLE IF NOT EXISTS extracted_intel (
		session_id TEXT PRIMARY KEY,
		bank_accounts TEXT NOT NULL DEFAULT '[]',
		upi_ids TEXT NOT NULL DEFAULT '[]',
		phishing_links TEXT NOT NULL DEFAULT '[]',
		phone_numbers TEXT NOT NULL DEFAULT '[]',
		suspicious_keywords TEXT NOT NULL DEFAULT '[]',
		agent_notes TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);
	`

	archiveSchema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		channel TEXT,
		language TEXT,
		locale TEXT,
		total_messages INTEGER NOT NULL DEFAULT 0,
		is_scam INTEGER NOT NULL DEFAULT 0,
		scam_flags_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_completed ON sessions(completed_at);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		is_response INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_archive_messages_session ON messages(session_id);
	`

	scamSchema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS scam_intelligence (
		session_id TEXT PRIMARY KEY,
		scam_detected INTEGER NOT NULL DEFAULT 1,
		total_messages_exchanged INTEGER NOT NULL DEFAULT 0,
		bank_accounts TEXT NOT NULL DEFAULT '[]',
		upi_ids TEXT NOT NULL DEFAULT '[]',
		phishing_links TEXT NOT NULL DEFAULT '[]',
		phone_numbers TEXT NOT NULL DEFAULT '[]',
		suspicious_keywords TEXT NOT NULL DEFAULT '[]',
		agent_notes TEXT NOT NULL DEFAULT '',
		pushed_to_external INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		pushed_at INTEGER
	);
	`

	if _, err := s.active.Exec(activeSchema); err != nil {
		return fmt.Errorf("create active schema: %w", err)
	}
	if _, err := s.archive.Exec(archiveSchema); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	if _, err := s.scam.Exec(scamSchema); err != nil {
		return fmt.Errorf("create scam schema: %w", err)
	}
	return nil
}

// Ping verifies connectivity to all backing databases.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, db := range map[string]*sql.DB{
		"active":  s.active,
		"archive": s.archive,
		"scam":    s.scam,
	} {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping %s database: %w", name, err)
		}
	}
	return nil
}

// Close closes all database connections.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, db := range []*sql.DB{s.active, s.archive, s.scam} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}

// encodeSet serializes an evidence set as a JSON array. Nil encodes
// as the empty array so columns never hold SQL NULL.
func encodeSet(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeSet deserializes a JSON array column. Corrupt values decode
// as an empty set rather than failing the read.
func decodeSet(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
