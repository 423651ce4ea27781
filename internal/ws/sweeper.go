package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/symcheck/internal/store"
)

const sweepInterval = 5 * time.Minute

// StartSweeper runs a background goroutine that periodically ends chat
// sessions detached for longer than sessionTTL and deletes transcripts older
// than retention.
func StartSweeper(ctx context.Context, sm *SessionManager, repo store.Repository, sessionTTL, retention time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "session_ttl", sessionTTL, "retention", retention)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, sm, repo, sessionTTL, retention)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, sm *SessionManager, repo store.Repository, sessionTTL, retention time.Duration) {
	if n := sm.Sweep(sessionTTL); n > 0 {
		slog.Info("Session sweeper ended idle chat sessions", "count", n)
	}

	deleted, err := repo.CleanupTranscripts(ctx, retention)
	if err != nil {
		slog.Error("Session sweeper failed to cleanup transcripts", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Session sweeper cleaned up transcripts", "count", deleted)
	}
}
