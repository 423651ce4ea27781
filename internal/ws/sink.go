package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/symcheck/internal/chatlog"
	"github.com/ashureev/symcheck/internal/conversation"
	"github.com/ashureev/symcheck/internal/store"
)

const writeTimeout = 10 * time.Second

// Frame is one server-to-client message. Seq lets a reconnecting client ask
// only for what it missed.
type Frame struct {
	Seq int64 `json:"seq"`
	conversation.Message
}

// connSink persists every message to the transcript, logs it and forwards it
// to the currently attached connection, if any. Messages emitted while no
// connection is attached are delivered by replay on reconnect.
type connSink struct {
	userID    string
	sessionID string
	repo      store.Repository
	chatlog   chatlog.Logger
	logger    *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *connSink) Emit(m conversation.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if m.Kind == conversation.KindClear {
		if err := s.repo.ClearTranscript(ctx, s.userID, s.sessionID); err != nil {
			s.logger.Warn("failed to clear transcript", "error", err)
		}
	}

	var seq int64
	payload, err := json.Marshal(m)
	if err != nil {
		s.logger.Error("failed to encode chat message", "error", err)
	} else if seq, err = s.repo.AppendTranscript(ctx, s.userID, s.sessionID, string(payload)); err != nil {
		s.logger.Warn("failed to persist chat message", "error", err)
	}

	s.chatlog.Log(chatlog.Event{
		UserID:     s.userID,
		SessionID:  s.sessionID,
		Channel:    channelWS,
		Direction:  chatlog.DirectionOutbound,
		EventType:  string(m.Sender) + "_" + string(m.Kind),
		State:      stateName(m.State),
		ContentRaw: m.Text,
	})

	if s.conn == nil {
		return
	}
	if err := wsjson.Write(ctx, s.conn, Frame{Seq: seq, Message: m}); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
	}
}

// attach replays the transcript after lastSeq to conn and makes it the live
// connection. Holding the lock keeps live messages from interleaving with
// the replay.
func (s *connSink) attach(ctx context.Context, conn *websocket.Conn, lastSeq int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.repo.LoadTranscript(ctx, s.userID, s.sessionID, lastSeq)
	if err != nil {
		return 0, err
	}
	replayed := 0
	for _, e := range entries {
		var m conversation.Message
		if err := json.Unmarshal([]byte(e.Payload), &m); err != nil {
			s.logger.Warn("skipping corrupt transcript entry", "seq", e.Seq, "error", err)
			continue
		}
		if err := wsjson.Write(ctx, conn, Frame{Seq: e.Seq, Message: m}); err != nil {
			return replayed, err
		}
		replayed++
	}
	s.conn = conn
	return replayed, nil
}

// detach forgets conn if it is still the live connection.
func (s *connSink) detach(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return false
	}
	s.conn = nil
	return true
}

func (s *connSink) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func stateName(st *conversation.State) string {
	if st == nil {
		return ""
	}
	return st.String()
}
