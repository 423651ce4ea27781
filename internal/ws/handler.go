package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/symcheck/internal/chatlog"
	"github.com/ashureev/symcheck/internal/conversation"
	"github.com/ashureev/symcheck/internal/identity"
	"github.com/ashureev/symcheck/internal/store"
)

// maxFrameSize caps a single client frame.
const maxFrameSize = 64 << 10

// Client frame types.
const (
	FrameInput         = "input"
	FrameAction        = "action"
	FrameNewChat       = "new_chat"
	FrameClear         = "clear"
	FrameHistory       = "history"
	FrameHistoryDetail = "history_detail"
	FrameHistoryDelete = "history_delete"
	FramePing          = "ping"
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Type   string               `json:"type"`
	Text   string               `json:"text,omitempty"`
	Action *conversation.Action `json:"action,omitempty"`
	ChatID string               `json:"chat_id,omitempty"`
}

// Handler serves /ws/chat.
type Handler struct {
	sm            *SessionManager
	repo          store.Repository
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a chat websocket handler.
func NewHandler(sm *SessionManager, repo store.Repository, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		sm:            sm,
		repo:          repo,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "user_id", userID, "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	lastSeq, _ := strconv.ParseInt(r.URL.Query().Get("last_seq"), 10, 64)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	conn.SetReadLimit(maxFrameSize)
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	e, err := h.sm.connect(ctx, userID, sessionID, conn, lastSeq)
	if err != nil {
		slog.Error("Failed to attach chat session", "error", err, "user_id", userID, "session_id", sessionID)
		_ = wsjson.Write(ctx, conn, map[string]string{"error": "session_unavailable"})
		return
	}
	defer h.sm.disconnect(e, conn)

	h.readLoop(ctx, conn, e, userID, sessionID)
	slog.Info("Chat connection ended", "user_id", userID, "session_id", sessionID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, e *entry, userID, sessionID string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else if ctx.Err() == nil {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var f ClientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			// Plain text frames are treated as chat input.
			f = ClientFrame{Type: FrameInput, Text: string(data)}
		}

		if f.Type == FramePing {
			if err := wsjson.Write(ctx, conn, map[string]string{"type": "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
			continue
		}

		h.sm.chatlog.Log(chatlog.Event{
			UserID:     userID,
			SessionID:  sessionID,
			Channel:    channelWS,
			Direction:  chatlog.DirectionInbound,
			EventType:  f.Type,
			ContentRaw: f.Text,
		})

		e.turnMu.Lock()
		h.dispatch(ctx, e, f)
		e.turnMu.Unlock()

		// Update last seen asynchronously with timeout.
		go func() {
			updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.repo.UpdateLastSeen(updateCtx, userID, time.Now()); err != nil {
				slog.Warn("Failed to update last seen", "error", err)
			}
		}()
	}
}

func (h *Handler) dispatch(ctx context.Context, e *entry, f ClientFrame) {
	s := e.sess
	switch f.Type {
	case FrameInput:
		s.Input(ctx, f.Text)
	case FrameAction:
		if f.Action == nil {
			slog.Warn("action frame without action", "session_id", s.ID())
			return
		}
		s.Dispatch(ctx, *f.Action)
	case FrameNewChat:
		_ = s.NewChat(ctx)
	case FrameClear:
		s.Clear()
	case FrameHistory:
		s.History(ctx)
	case FrameHistoryDetail:
		s.Detail(ctx, f.ChatID)
	case FrameHistoryDelete:
		s.Delete(ctx, f.ChatID)
	default:
		slog.Warn("unknown chat frame type", "type", f.Type, "session_id", s.ID())
	}
}
