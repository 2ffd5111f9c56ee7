package agent

import (
	"math"
	"strings"
)

// DefaultFlagConfidence is the analyzer confidence above which a turn
// is flagged as risky.
const DefaultFlagConfidence = 0.3

// scamKeywords maps indicator categories to the phrases that trigger
// them. Matching is case-insensitive substring search.
var scamKeywords = map[string][]string{
	"urgency": {"immediately", "urgent", "today", "now", "hurry", "fast", "quick", "limited time"},
	"banking": {"bank", "account", "blocked", "suspended", "verify", "upi", "otp", "pin", "password"},
	"money":   {"money", "payment", "transfer", "cash", "lottery", "prize", "won", "reward"},
	"threat":  {"blocked", "suspended", "legal", "police", "arrest", "court", "fine"},
	"action":  {"click", "call", "share", "send", "provide", "confirm", "update"},
}

// Analysis is the risk summary for a single message.
type Analysis struct {
	ScamType   string              `json:"scam_type"`
	Confidence float64             `json:"confidence"`
	Keywords   map[string][]string `json:"detected_keywords"`
	RiskLevel  string              `json:"risk_level"`
}

// Analyzer scores messages for scam indicators using keyword
// categories. Pure and stateless; safe for concurrent use.
type Analyzer struct {
	flagConfidence float64
}

// NewAnalyzer creates an analyzer that flags messages whose
// confidence exceeds flagConfidence. flagConfidence <= 0 selects
// DefaultFlagConfidence.
func NewAnalyzer(flagConfidence float64) *Analyzer {
	if flagConfidence <= 0 {
		flagConfidence = DefaultFlagConfidence
	}
	return &Analyzer{flagConfidence: flagConfidence}
}

// Analyze scores a message: each keyword hit contributes 10 points,
// confidence is the total capped at 1.0.
func (a *Analyzer) Analyze(text string) Analysis {
	if text == "" {
		return Analysis{ScamType: "unknown", Keywords: map[string][]string{}, RiskLevel: "LOW"}
	}

	lower := strings.ToLower(text)
	detected := make(map[string][]string)
	score := 0
	for category, keywords := range scamKeywords {
		var found []string
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
		}
		if len(found) > 0 {
			detected[category] = found
			score += len(found) * 10
		}
	}

	scamType := "unknown"
	switch {
	case len(detected["banking"]) > 0 || strings.Contains(lower, "upi"):
		scamType = "banking_fraud"
	case strings.Contains(lower, "lottery") || strings.Contains(lower, "prize") || strings.Contains(lower, "won"):
		scamType = "lottery_scam"
	case len(detected["threat"]) > 0:
		scamType = "intimidation_scam"
	case score > 0:
		scamType = "generic_scam"
	}

	confidence := math.Min(float64(score)/100, 1.0)
	confidence = math.Round(confidence*100) / 100

	risk := "LOW"
	if confidence > 0.5 {
		risk = "HIGH"
	} else if confidence > 0.2 {
		risk = "MEDIUM"
	}

	return Analysis{ScamType: scamType, Confidence: confidence, Keywords: detected, RiskLevel: risk}
}

// IsFlagged analyzes a message and reports whether it crosses the
// flag-confidence threshold.
func (a *Analyzer) IsFlagged(text string) (Analysis, bool) {
	analysis := a.Analyze(text)
	return analysis, analysis.Confidence > a.flagConfidence
}
