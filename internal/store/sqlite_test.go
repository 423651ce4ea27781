package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/symcheck/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	got, err := repo.GetUser(ctx, "anon_1")
	if err != nil || got != nil {
		t.Fatalf("GetUser on empty store = %v, %v", got, err)
	}

	user := &domain.User{UserID: "anon_1", Username: "guest", LastSeenAt: now, CreatedAt: now, UpdatedAt: now}
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := repo.SetDarkMode(ctx, "anon_1", true); err != nil {
		t.Fatalf("SetDarkMode failed: %v", err)
	}

	// A later upsert must not reset the preference.
	user.Username = "guest2"
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err = repo.GetUser(ctx, "anon_1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Username != "guest2" || !got.DarkMode {
		t.Errorf("unexpected user: %+v", got)
	}
	if !got.LastSeenAt.Equal(now) {
		t.Errorf("LastSeenAt = %v, want %v", got.LastSeenAt, now)
	}
	if got.Theme() != "dark" {
		t.Errorf("Theme = %q", got.Theme())
	}
}

func TestSetDarkModeUnknownUser(t *testing.T) {
	repo := newTestStore(t)
	err := repo.SetDarkMode(context.Background(), "ghost", true)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTranscriptAppendAndLoad(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for i, payload := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		seq, err := repo.AppendTranscript(ctx, "u", "s1", payload)
		if err != nil {
			t.Fatalf("AppendTranscript failed: %v", err)
		}
		if seq != int64(i+1) {
			t.Errorf("seq = %d, want %d", seq, i+1)
		}
	}
	if _, err := repo.AppendTranscript(ctx, "u", "s2", `{"other":true}`); err != nil {
		t.Fatalf("AppendTranscript failed: %v", err)
	}

	all, err := repo.LoadTranscript(ctx, "u", "s1", 0)
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if len(all) != 3 || all[0].Payload != `{"n":1}` || all[2].Seq != 3 {
		t.Fatalf("unexpected transcript: %+v", all)
	}

	tail, err := repo.LoadTranscript(ctx, "u", "s1", 2)
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if len(tail) != 1 || tail[0].Seq != 3 {
		t.Fatalf("unexpected tail: %+v", tail)
	}
}

func TestClearTranscriptRestartsSeq(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, _ = repo.AppendTranscript(ctx, "u", "s", "a")
	_, _ = repo.AppendTranscript(ctx, "u", "s", "b")
	if err := repo.ClearTranscript(ctx, "u", "s"); err != nil {
		t.Fatalf("ClearTranscript failed: %v", err)
	}

	entries, err := repo.LoadTranscript(ctx, "u", "s", 0)
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty transcript, got %d entries", len(entries))
	}

	seq, err := repo.AppendTranscript(ctx, "u", "s", "c")
	if err != nil || seq != 1 {
		t.Fatalf("AppendTranscript after clear = %d, %v", seq, err)
	}
}

func TestCleanupTranscripts(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, _ = repo.AppendTranscript(ctx, "u", "s", "a")
	n, err := repo.CleanupTranscripts(ctx, time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("CleanupTranscripts(1h) = %d, %v", n, err)
	}
	n, err = repo.CleanupTranscripts(ctx, -time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("CleanupTranscripts(-1m) = %d, %v", n, err)
	}
}
