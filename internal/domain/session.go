// Package domain contains core domain types for the scamtrap service.
package domain

import (
	"time"
)

// Message senders. The counterpart is always recorded as "scammer";
// replies produced by the honeypot are recorded as "user".
const (
	SenderScammer = "scammer"
	SenderUser    = "user"
)

// Default session metadata applied when an inbound turn carries none.
const (
	DefaultChannel  = "SMS"
	DefaultLanguage = "English"
	DefaultLocale   = "IN"
)

// Session is the mutable header row for an in-progress conversation.
// ScamFlags only increases; Confirmed only transitions false to true.
type Session struct {
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	Language  string    `json:"language"`
	Locale    string    `json:"locale"`
	ScamFlags int       `json:"scam_flags"`
	Confirmed bool      `json:"is_confirmed_scam"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single conversation turn. Immutable once written;
// ordered by insertion within its session.
type Message struct {
	SessionID  string    `json:"session_id"`
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	IsResponse bool      `json:"is_response"`
	IsScamFlag bool      `json:"is_scam_flag"`
}

// Metadata carries optional per-session attributes from the caller.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// ScamStatus is the flag summary for a session. The zero value is the
// answer for an unknown session, so callers cannot use it as an
// existence check.
type ScamStatus struct {
	ScamFlags int  `json:"scam_flags"`
	Confirmed bool `json:"is_confirmed_scam"`
}

// SessionData bundles everything the active store knows about one
// session: header, ordered messages and accumulated intelligence.
type SessionData struct {
	Info     Session      `json:"session_info"`
	Messages []Message    `json:"messages"`
	Intel    Intelligence `json:"extracted_intel"`
}
