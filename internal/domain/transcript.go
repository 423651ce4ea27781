package domain

import "time"

// TranscriptEntry is a persisted chat message kept for reconnect replay.
type TranscriptEntry struct {
	UserID    string
	SessionID string
	Seq       int64
	Payload   string
	CreatedAt time.Time
}
