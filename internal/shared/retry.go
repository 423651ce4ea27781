package shared

import (
	"context"
	"log/slog"
	"time"
)

// SQLiteRetry controls RetrySQLite.
type SQLiteRetry struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultSQLiteRetry retries three times with 100ms, 200ms backoff.
var DefaultSQLiteRetry = SQLiteRetry{Attempts: 3, BaseDelay: 100 * time.Millisecond}

// RetrySQLite runs fn, retrying with exponential backoff while it fails with
// a SQLite conflict error. Other errors are returned immediately.
func RetrySQLite(ctx context.Context, op string, policy SQLiteRetry, fn func() error) error {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}

	var err error
	for i := 0; i < policy.Attempts; i++ {
		err = fn()
		if err == nil || !IsSQLiteConflictError(err) || i == policy.Attempts-1 {
			return err
		}

		delay := policy.BaseDelay * time.Duration(1<<i)
		slog.Debug("sqlite busy, retrying", "op", op, "attempt", i+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
