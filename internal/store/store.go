// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/symcheck/internal/domain"
)

// Repository persists gateway-local users, their preferences and the chat
// transcripts replayed when a tab reconnects.
type Repository interface {
	// GetUser retrieves a user by their user ID. It returns nil, nil when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record. DarkMode is only written
	// on insert; use SetDarkMode to change it.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// SetDarkMode stores the user's theme preference.
	SetDarkMode(ctx context.Context, userID string, enabled bool) error

	// AppendTranscript stores one message payload and returns its sequence
	// number within the (user, session) transcript.
	AppendTranscript(ctx context.Context, userID, sessionID, payload string) (int64, error)

	// LoadTranscript returns entries with Seq greater than afterSeq, oldest
	// first.
	LoadTranscript(ctx context.Context, userID, sessionID string, afterSeq int64) ([]domain.TranscriptEntry, error)

	// ClearTranscript removes the transcript of one session.
	ClearTranscript(ctx context.Context, userID, sessionID string) error

	// CleanupTranscripts removes transcript entries older than ttl.
	CleanupTranscripts(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
