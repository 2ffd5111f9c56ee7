// Package report pushes confirmed-scam intelligence to the external
// evaluation endpoint. Delivery is best-effort: records stay pending
// until a push succeeds, so every failure is retryable.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nmehra/scamtrap/internal/domain"
	"github.com/nmehra/scamtrap/internal/store"
)

// DefaultPushTimeout bounds a single push so a slow endpoint cannot
// stall the caller.
const DefaultPushTimeout = 10 * time.Second

// Client is an HTTP client for the external evaluation endpoint.
type Client struct {
	endpoint string
	enabled  bool
	http     *http.Client
}

// NewClient creates a reporter client. When enabled is false every
// push is skipped, which keeps records pending for a later manual
// push. timeout <= 0 selects DefaultPushTimeout.
func NewClient(endpoint string, enabled bool, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	return &Client{
		endpoint: endpoint,
		enabled:  enabled && endpoint != "",
		http:     &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether pushes are configured to go out.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Push POSTs the payload to the evaluation endpoint. Any non-200
// response is an error so the caller keeps the record pending.
func (c *Client) Push(ctx context.Context, payload *domain.ReportPayload) error {
	if !c.enabled {
		return fmt.Errorf("external reporting is disabled")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push report: endpoint returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// PushSession pushes one stored scam record and marks it pushed on
// success.
func (c *Client) PushSession(ctx context.Context, repo store.Repository, sessionID string) error {
	rec, err := repo.ScamIntel(ctx, sessionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no scam intelligence for session %s", sessionID)
	}

	if err := c.Push(ctx, domain.NewReportPayload(rec)); err != nil {
		return err
	}
	return repo.MarkPushed(ctx, sessionID)
}

// Stats summarizes a PushAllPending run.
type Stats struct {
	Enabled      bool `json:"enabled"`
	TotalPending int  `json:"total_pending"`
	Success      int  `json:"success"`
	Failed       int  `json:"failed"`
}

// PushAllPending pushes every scam record not yet delivered. Failures
// are logged and counted; the record stays pending for the next run.
func (c *Client) PushAllPending(ctx context.Context, repo store.Repository) Stats {
	if !c.enabled {
		return Stats{Enabled: false}
	}

	pending, err := repo.ListPendingReports(ctx)
	if err != nil {
		slog.Error("failed to list pending reports", "error", err)
		return Stats{Enabled: true}
	}

	stats := Stats{Enabled: true, TotalPending: len(pending)}
	for _, id := range pending {
		if err := c.PushSession(ctx, repo, id); err != nil {
			slog.Warn("report push failed", "session_id", id, "error", err)
			stats.Failed++
			continue
		}
		slog.Info("report pushed", "session_id", id)
		stats.Success++
	}
	return stats
}
