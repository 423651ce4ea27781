package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/symcheck/internal/domain"
	"github.com/ashureev/symcheck/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db           *sql.DB
	transcriptMu sync.Mutex // serializes seq allocation to prevent SQLITE_BUSY and duplicate seqs
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		dark_mode INTEGER NOT NULL DEFAULT 0,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transcripts (
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, session_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, dark_mode, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &user.DarkMode, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, dark_mode, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	return shared.RetrySQLite(ctx, "upsert user", shared.DefaultSQLiteRetry, func() error {
		_, err := s.db.ExecContext(ctx, query,
			user.UserID, user.Username, user.DarkMode,
			user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		return nil
	})
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// ErrUserNotFound is returned by updates that target a missing user.
var ErrUserNotFound = errors.New("user not found")

// SetDarkMode stores the user's theme preference.
func (s *SQLiteStore) SetDarkMode(ctx context.Context, userID string, enabled bool) error {
	query := `UPDATE users SET dark_mode = ?, updated_at = ? WHERE user_id = ?`

	var rows int64
	err := shared.RetrySQLite(ctx, "set dark mode", shared.DefaultSQLiteRetry, func() error {
		result, err := s.db.ExecContext(ctx, query, enabled, time.Now().Unix(), userID)
		if err != nil {
			return fmt.Errorf("update dark_mode: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AppendTranscript stores one message payload.
func (s *SQLiteStore) AppendTranscript(ctx context.Context, userID, sessionID, payload string) (int64, error) {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()

	query := `
		INSERT INTO transcripts (user_id, session_id, seq, payload, created_at)
		SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?
		FROM transcripts WHERE user_id = ? AND session_id = ?
		RETURNING seq`

	var seq int64
	err := shared.RetrySQLite(ctx, "append transcript", shared.DefaultSQLiteRetry, func() error {
		row := s.db.QueryRowContext(ctx, query,
			userID, sessionID, payload, time.Now().Unix(),
			userID, sessionID,
		)
		if err := row.Scan(&seq); err != nil {
			return fmt.Errorf("append transcript: %w", err)
		}
		return nil
	})
	return seq, err
}

// LoadTranscript returns entries after afterSeq, oldest first.
func (s *SQLiteStore) LoadTranscript(ctx context.Context, userID, sessionID string, afterSeq int64) ([]domain.TranscriptEntry, error) {
	query := `
		SELECT seq, payload, created_at FROM transcripts
		WHERE user_id = ? AND session_id = ? AND seq > ?
		ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, userID, sessionID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close transcript rows", "error", closeErr)
		}
	}()

	var entries []domain.TranscriptEntry
	for rows.Next() {
		e := domain.TranscriptEntry{UserID: userID, SessionID: sessionID}
		var createdAt int64
		if err := rows.Scan(&e.Seq, &e.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}
	return entries, nil
}

// ClearTranscript removes the transcript of one session. Sequence numbers
// restart from 1 afterwards.
func (s *SQLiteStore) ClearTranscript(ctx context.Context, userID, sessionID string) error {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()

	return shared.RetrySQLite(ctx, "clear transcript", shared.DefaultSQLiteRetry, func() error {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM transcripts WHERE user_id = ? AND session_id = ?`, userID, sessionID)
		if err != nil {
			return fmt.Errorf("clear transcript: %w", err)
		}
		return nil
	})
}

// CleanupTranscripts removes entries older than ttl.
func (s *SQLiteStore) CleanupTranscripts(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup transcripts: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
