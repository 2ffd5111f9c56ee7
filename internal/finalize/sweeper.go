package finalize

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper checks for idle
// sessions.
const DefaultSweepInterval = 60 * time.Second

// TickCallback is invoked after each sweep with the number of
// sessions finalized.
type TickCallback func(count int)

// StartSweeper runs a background goroutine that periodically
// finalizes timed-out sessions. It runs until ctx is canceled; an
// error within one tick is logged and the loop continues on the next
// tick. onTick may be nil.
func StartSweeper(ctx context.Context, engine *Engine, interval time.Duration, onTick TickCallback) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("timeout sweeper started", "interval", interval, "session_timeout", engine.timeout)

		for {
			select {
			case <-ticker.C:
				count, err := engine.FinalizeTimedOut(ctx)
				if err != nil {
					slog.Error("timeout sweep failed", "error", err)
					continue
				}
				if count > 0 {
					slog.Info("timeout sweep finalized sessions", "count", count)
				}
				if onTick != nil {
					onTick(count)
				}
			case <-ctx.Done():
				slog.Info("timeout sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
