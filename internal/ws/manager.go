// Package ws hosts chat sessions over websockets.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/symcheck/internal/chatlog"
	"github.com/ashureev/symcheck/internal/domain"
	"github.com/ashureev/symcheck/internal/session"
	"github.com/ashureev/symcheck/internal/store"
)

const channelWS = "ws_chat"

// BackendFactory returns the backend client for a gateway user.
type BackendFactory func(userID string) (session.Backend, error)

// entry is one live chat session and the connection currently driving it.
type entry struct {
	sess *session.Session
	sink *connSink

	// turnMu serializes frame handling; a reconnect can briefly overlap the
	// old read loop.
	turnMu sync.Mutex

	mu         sync.Mutex
	detachedAt time.Time
}

func (e *entry) idleSince() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detachedAt, !e.detachedAt.IsZero()
}

func (e *entry) markDetached(t time.Time) {
	e.mu.Lock()
	e.detachedAt = t
	e.mu.Unlock()
}

// SessionManager keeps chat sessions alive across reconnects, keyed by
// user and tab session id.
type SessionManager struct {
	mu      sync.Mutex
	entries map[string]*entry

	backends BackendFactory
	repo     store.Repository
	chatlog  chatlog.Logger
	opts     session.Options
	logger   *slog.Logger
}

// NewSessionManager creates a session manager.
func NewSessionManager(backends BackendFactory, repo store.Repository, log chatlog.Logger, opts session.Options) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if log == nil {
		log, _ = chatlog.New(chatlog.Config{}, logger)
	}
	return &SessionManager{
		entries:  make(map[string]*entry),
		backends: backends,
		repo:     repo,
		chatlog:  log,
		opts:     opts,
		logger:   logger,
	}
}

func sessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// connect attaches conn to the user's session, creating and greeting it on
// first use. Any previous connection for the same tab is closed.
func (m *SessionManager) connect(ctx context.Context, userID, sessionID string, conn *websocket.Conn, lastSeq int64) (*entry, error) {
	m.mu.Lock()
	e, ok := m.entries[sessionKey(userID, sessionID)]
	if !ok {
		b, err := m.backends(userID)
		if err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("backend for %s: %w", userID, err)
		}
		logger := m.logger.With("user_id", userID)
		sink := &connSink{
			userID:    userID,
			sessionID: sessionID,
			repo:      m.repo,
			chatlog:   m.chatlog,
			logger:    logger.With("session_id", sessionID),
		}
		opts := m.opts
		opts.Logger = logger
		e = &entry{sess: session.New(sessionID, b, sink, opts), sink: sink}
		m.entries[sessionKey(userID, sessionID)] = e
	}
	m.mu.Unlock()

	if prev := e.sink.current(); prev != nil && prev != conn {
		_ = prev.Close(websocket.StatusNormalClosure, "session replaced")
	}

	if !ok {
		// A transcript left over from before a restart belongs to a
		// controller that no longer exists.
		if err := m.repo.ClearTranscript(ctx, userID, sessionID); err != nil {
			m.logger.Warn("failed to clear stale transcript", "user_id", userID, "session_id", sessionID, "error", err)
		}
		lastSeq = 0
	}

	replayed, err := e.sink.attach(ctx, conn, lastSeq)
	if err != nil {
		e.markDetached(time.Now())
		return nil, fmt.Errorf("replay transcript: %w", err)
	}
	e.markDetached(time.Time{})

	if !ok {
		e.turnMu.Lock()
		e.sess.Start(ctx)
		e.turnMu.Unlock()
		m.logger.Info("chat session started", "user_id", userID, "session_id", sessionID)
	} else {
		m.logger.Info("chat session resumed", "user_id", userID, "session_id", sessionID, "replayed", replayed)
	}
	return e, nil
}

// disconnect detaches conn; the session stays until swept.
func (m *SessionManager) disconnect(e *entry, conn *websocket.Conn) {
	if e.sink.detach(conn) {
		e.markDetached(time.Now())
	}
}

// LastDiagnosis returns the most recent diagnosis of a live session.
func (m *SessionManager) LastDiagnosis(userID, sessionID string) (*domain.Diagnosis, bool) {
	m.mu.Lock()
	e, ok := m.entries[sessionKey(userID, sessionID)]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	d := e.sess.LastDiagnosis()
	return d, d != nil
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// CloseUser ends every session of a user, e.g. after they sign in as
// someone else.
func (m *SessionManager) CloseUser(userID string) {
	m.mu.Lock()
	var closing []*entry
	for key, e := range m.entries {
		if strings.HasPrefix(key, userID+":") {
			closing = append(closing, e)
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()

	for _, e := range closing {
		if conn := e.sink.current(); conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		}
		e.sess.Close()
	}
	if len(closing) > 0 {
		m.logger.Info("chat sessions closed", "user_id", userID, "count", len(closing))
	}
}

// Sweep ends sessions that have been detached for longer than ttl.
func (m *SessionManager) Sweep(ttl time.Duration) int {
	now := time.Now()
	m.mu.Lock()
	var expired []*entry
	for key, e := range m.entries {
		if since, idle := e.idleSince(); idle && now.Sub(since) > ttl {
			expired = append(expired, e)
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.sess.Close()
	}
	return len(expired)
}

// CloseAll ends every session, for shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		if conn := e.sink.current(); conn != nil {
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		e.sess.Close()
	}
}
