// Package agent implements the honeypot conversation agent: the
// keyword risk scorer, the canned fallback responder and the
// LLM-backed reply and intelligence generator.
package agent

import (
	"context"

	"github.com/nmehra/scamtrap/internal/domain"
)

// Result is one generated honeypot turn: the bait reply plus whatever
// evidence the extraction pass found in the conversation so far.
type Result struct {
	Reply string
	Intel domain.Intelligence
}

// Generator produces honeypot replies with intelligence extraction.
// Implementations must treat malformed model output as empty evidence
// rather than an error; only transport-level failures surface.
type Generator interface {
	Generate(ctx context.Context, current string, history []domain.Message, sessionID string) (*Result, error)
}
