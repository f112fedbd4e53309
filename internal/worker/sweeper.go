// Package worker runs the background loops that keep wizard state tidy.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// SessionEvicter drops wizard sessions idle for longer than maxIdle, saving
// unsaved edits first.
// Implemented by wizard.SessionManager.
type SessionEvicter interface {
	EvictIdle(ctx context.Context, maxIdle time.Duration) int
}

// CacheSaver persists the local checkpoint cache. Implemented by wizard.LocalCache.
type CacheSaver interface {
	Save() error
}

// SessionSweeper periodically unmounts idle wizard sessions and saves the
// local checkpoint cache so positions survive a crash.
type SessionSweeper struct {
	sessions SessionEvicter
	cache    CacheSaver
	interval time.Duration
	maxIdle  time.Duration
}

// NewSessionSweeper creates a sweeper. cache may be nil.
func NewSessionSweeper(sessions SessionEvicter, cache CacheSaver, interval, maxIdle time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		cache:    cache,
		interval: interval,
		maxIdle:  maxIdle,
	}
}

// Run starts the sweep loop. Blocks until ctx is cancelled.
// Does NOT run immediately on start; freshly mounted sessions are never idle.
func (w *SessionSweeper) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "session-sweeper",
		"interval", w.interval.String(),
		"max_idle", w.maxIdle.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "session-sweeper",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep executes a single cycle.
func (w *SessionSweeper) sweep(ctx context.Context) {
	start := time.Now()

	evicted := 0
	if w.maxIdle > 0 {
		evicted = w.sessions.EvictIdle(ctx, w.maxIdle)
	}

	if w.cache != nil {
		if err := w.cache.Save(); err != nil {
			slog.Error("checkpoint cache save failed",
				"component", "worker",
				"action", "sweep_save_failed",
				"error", err,
			)
		}
	}

	slog.Debug("sweep cycle completed",
		"component", "worker",
		"action", "sweep_complete",
		"evicted", evicted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
