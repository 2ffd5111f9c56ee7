package agent

import (
	"encoding/json"
	"strings"

	"github.com/nmehra/scamtrap/internal/domain"
)

// extractionResponse is the JSON shape the extraction prompt asks the
// model to emit.
type extractionResponse struct {
	ScamDetected          bool   `json:"scamDetected"`
	ExtractedIntelligence struct {
		BankAccounts       []string `json:"bankAccounts"`
		UPIIDs             []string `json:"upiIds"`
		PhishingLinks      []string `json:"phishingLinks"`
		PhoneNumbers       []string `json:"phoneNumbers"`
		SuspiciousKeywords []string `json:"suspiciousKeywords"`
	} `json:"extractedIntelligence"`
	AgentNotes string `json:"agentNotes"`
}

// ParseIntelligence pulls the evidence JSON out of raw model output.
// Models wrap JSON in code fences or prose; this scans for the
// outermost object and tolerates missing fields. Returns ok=false
// when no parseable object is present.
func ParseIntelligence(raw string) (domain.Intelligence, bool) {
	content := strings.TrimSpace(raw)

	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return domain.Intelligence{}, false
	}
	content = content[start : end+1]

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.Intelligence{}, false
	}

	return domain.Intelligence{
		BankAccounts:       parsed.ExtractedIntelligence.BankAccounts,
		UPIIDs:             parsed.ExtractedIntelligence.UPIIDs,
		PhishingLinks:      parsed.ExtractedIntelligence.PhishingLinks,
		PhoneNumbers:       parsed.ExtractedIntelligence.PhoneNumbers,
		SuspiciousKeywords: parsed.ExtractedIntelligence.SuspiciousKeywords,
		AgentNotes:         parsed.AgentNotes,
	}, true
}
