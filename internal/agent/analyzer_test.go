package agent

import "testing"

func TestAnalyzeBankingFraud(t *testing.T) {
	a := NewAnalyzer(0)

	analysis, flagged := a.IsFlagged("Your bank account is blocked, verify OTP immediately")

	if analysis.ScamType != "banking_fraud" {
		t.Errorf("Expected banking_fraud, got %s", analysis.ScamType)
	}
	if !flagged {
		t.Errorf("Expected message to be flagged, confidence %v", analysis.Confidence)
	}
	if analysis.RiskLevel != "HIGH" {
		t.Errorf("Expected HIGH risk, got %s", analysis.RiskLevel)
	}
	if len(analysis.Keywords["banking"]) == 0 {
		t.Error("Expected banking keywords to be detected")
	}
}

func TestAnalyzeLotteryScam(t *testing.T) {
	a := NewAnalyzer(0)

	analysis := a.Analyze("Congratulations! You have won a lottery prize")

	if analysis.ScamType != "lottery_scam" {
		t.Errorf("Expected lottery_scam, got %s", analysis.ScamType)
	}
	if analysis.Confidence != 0.3 {
		t.Errorf("Expected confidence 0.3, got %v", analysis.Confidence)
	}
}

func TestAnalyzeIntimidation(t *testing.T) {
	a := NewAnalyzer(0)

	analysis := a.Analyze("The police will arrest you, there is a court fine")

	if analysis.ScamType != "intimidation_scam" {
		t.Errorf("Expected intimidation_scam, got %s", analysis.ScamType)
	}
}

func TestAnalyzeBenignMessage(t *testing.T) {
	a := NewAnalyzer(0)

	analysis, flagged := a.IsFlagged("Hello, good morning")

	if flagged {
		t.Errorf("Expected benign message to pass, got confidence %v", analysis.Confidence)
	}
	if analysis.ScamType != "unknown" {
		t.Errorf("Expected unknown scam type, got %s", analysis.ScamType)
	}
	if analysis.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %v", analysis.Confidence)
	}
}

func TestAnalyzeEmptyMessage(t *testing.T) {
	a := NewAnalyzer(0)

	analysis := a.Analyze("")

	if analysis.ScamType != "unknown" || analysis.RiskLevel != "LOW" {
		t.Errorf("Expected unknown/LOW for empty message, got %+v", analysis)
	}
}

func TestConfidenceCapped(t *testing.T) {
	a := NewAnalyzer(0)

	analysis := a.Analyze("urgent now hurry fast bank account blocked suspended verify upi otp pin password money payment transfer cash click call share send")

	if analysis.Confidence > 1.0 {
		t.Errorf("Expected confidence capped at 1.0, got %v", analysis.Confidence)
	}
	if analysis.Confidence != 1.0 {
		t.Errorf("Expected saturated confidence, got %v", analysis.Confidence)
	}
}

func TestCustomFlagThreshold(t *testing.T) {
	strict := NewAnalyzer(0.05)
	lax := NewAnalyzer(0.9)

	msg := "You won a lottery prize"
	if _, flagged := strict.IsFlagged(msg); !flagged {
		t.Error("Expected strict analyzer to flag")
	}
	if _, flagged := lax.IsFlagged(msg); flagged {
		t.Error("Expected lax analyzer not to flag")
	}
}
