package domain

// Intelligence is the evidence accumulated for one active session:
// five deduplicated sets plus free-text agent notes.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
	AgentNotes         string   `json:"agentNotes"`
}

// Merge unions newly extracted evidence into the existing sets and
// returns the result. Values already present are dropped, so merging
// the same payload twice is a no-op. AgentNotes is replaced only when
// the incoming value is non-empty, otherwise the current notes stand.
func (i Intelligence) Merge(delta Intelligence) Intelligence {
	out := Intelligence{
		BankAccounts:       unionStrings(i.BankAccounts, delta.BankAccounts),
		UPIIDs:             unionStrings(i.UPIIDs, delta.UPIIDs),
		PhishingLinks:      unionStrings(i.PhishingLinks, delta.PhishingLinks),
		PhoneNumbers:       unionStrings(i.PhoneNumbers, delta.PhoneNumbers),
		SuspiciousKeywords: unionStrings(i.SuspiciousKeywords, delta.SuspiciousKeywords),
		AgentNotes:         i.AgentNotes,
	}
	if delta.AgentNotes != "" {
		out.AgentNotes = delta.AgentNotes
	}
	return out
}

// IsEmpty reports whether no evidence and no notes have been recorded.
func (i Intelligence) IsEmpty() bool {
	return len(i.BankAccounts) == 0 &&
		len(i.UPIIDs) == 0 &&
		len(i.PhishingLinks) == 0 &&
		len(i.PhoneNumbers) == 0 &&
		len(i.SuspiciousKeywords) == 0 &&
		i.AgentNotes == ""
}

// unionStrings appends items of b not already in a, preserving
// first-seen order. Duplicates within either input collapse too.
func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range b {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
