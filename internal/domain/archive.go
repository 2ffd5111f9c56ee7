package domain

import (
	"time"
)

// ArchivedSession is the finalized snapshot written to the archive
// ledger. Re-finalizing the same session id replaces the prior entry.
type ArchivedSession struct {
	SessionID     string    `json:"session_id"`
	Channel       string    `json:"channel"`
	Language      string    `json:"language"`
	Locale        string    `json:"locale"`
	TotalMessages int       `json:"total_messages"`
	IsScam        bool      `json:"is_scam"`
	ScamFlags     int       `json:"scam_flags_count"`
	CreatedAt     time.Time `json:"created_at"`
	CompletedAt   time.Time `json:"completed_at"`
	Messages      []Message `json:"messages"`
}

// ScamIntelRecord is the evidence snapshot kept for a confirmed-scam
// session at finalize time. Pushed only transitions false to true.
type ScamIntelRecord struct {
	SessionID     string       `json:"session_id"`
	TotalMessages int          `json:"total_messages_exchanged"`
	Intel         Intelligence `json:"extracted_intel"`
	Pushed        bool         `json:"pushed_to_external"`
	CreatedAt     time.Time    `json:"created_at"`
	PushedAt      *time.Time   `json:"pushed_at,omitempty"`
}

// ReportPayload is the wire shape pushed to the external evaluation
// endpoint for a confirmed scam session.
type ReportPayload struct {
	SessionID              string         `json:"sessionId"`
	ScamDetected           bool           `json:"scamDetected"`
	TotalMessagesExchanged int            `json:"totalMessagesExchanged"`
	ExtractedIntelligence  ReportEvidence `json:"extractedIntelligence"`
	AgentNotes             string         `json:"agentNotes"`
}

// ReportEvidence is the evidence portion of a ReportPayload. Slices
// are always non-nil so the JSON encodes empty arrays, not nulls.
type ReportEvidence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// NewReportPayload builds the external-reporting shape from a stored
// scam intelligence record.
func NewReportPayload(rec *ScamIntelRecord) *ReportPayload {
	return &ReportPayload{
		SessionID:              rec.SessionID,
		ScamDetected:           true,
		TotalMessagesExchanged: rec.TotalMessages,
		ExtractedIntelligence: ReportEvidence{
			BankAccounts:       nonNil(rec.Intel.BankAccounts),
			UPIIDs:             nonNil(rec.Intel.UPIIDs),
			PhishingLinks:      nonNil(rec.Intel.PhishingLinks),
			PhoneNumbers:       nonNil(rec.Intel.PhoneNumbers),
			SuspiciousKeywords: nonNil(rec.Intel.SuspiciousKeywords),
		},
		AgentNotes: rec.Intel.AgentNotes,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
