// Package session ties one conversation controller to the chat-level
// features around it: greeting, new chat, clearing the transcript, chat
// history and report export.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/symcheck/internal/conversation"
	"github.com/ashureev/symcheck/internal/domain"
	"github.com/ashureev/symcheck/internal/history"
	"github.com/ashureev/symcheck/internal/report"
)

const (
	greetingStart   = "🤖 Hello %s! I'm your Health Assistant. Please enter your symptom or u can ask queries!."
	greetingNewChat = "🤖 Hello %s! New chat session started. Please enter your first symptom."
	msgCleared      = "✅ Chat cleared. You can continue from where you left off."
	msgDeleted      = "Chat deleted successfully!"
	msgDeleteFailed = "⚠️ Error deleting chat."
	msgDetailFailed = "⚠️ Could not load that chat."
	msgNewChatFail  = "⚠️ Could not start a new chat. Please try again."
)

// Backend is everything a session needs from the prediction service.
type Backend interface {
	conversation.Backend
	history.Backend
	Username(ctx context.Context) (string, error)
	NewChat(ctx context.Context) (*domain.NewSession, error)
}

// Options configures a Session.
type Options struct {
	FollowUpDelay time.Duration
	DetailTTL     time.Duration
	Logger        *slog.Logger
}

// Session is one chat tab or terminal run. Its methods are meant to be
// called from a single goroutine; only the controller's delayed prompts
// reach the sink from elsewhere.
type Session struct {
	id      string
	backend Backend
	sink    conversation.Sink
	conv    *conversation.Controller
	history *history.Service
	logger  *slog.Logger
}

// New creates a session with a fresh controller.
func New(id string, b Backend, sink conversation.Sink, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", id)

	return &Session{
		id:      id,
		backend: b,
		sink:    sink,
		conv: conversation.New(b, sink, conversation.Options{
			FollowUpDelay: opts.FollowUpDelay,
			Logger:        logger,
		}),
		history: history.NewService(b, opts.DetailTTL, logger),
		logger:  logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start greets the user and loads the history sidebar.
func (s *Session) Start(ctx context.Context) {
	s.say(fmt.Sprintf(greetingStart, s.username(ctx)))
	s.emit(conversation.NewMessage(conversation.SenderBot, conversation.KindReportHidden, ""))
	s.History(ctx)
}

// Input forwards one line of user input to the controller.
func (s *Session) Input(ctx context.Context, text string) {
	s.conv.Handle(ctx, text)
}

// Dispatch forwards a button action to the controller.
func (s *Session) Dispatch(ctx context.Context, a conversation.Action) {
	s.conv.Dispatch(ctx, a)
}

// NewChat asks the backend for a fresh session and, when granted, resets
// the conversation and the visible transcript.
func (s *Session) NewChat(ctx context.Context) error {
	ns, err := s.backend.NewChat(ctx)
	if err != nil {
		s.logger.Error("new chat failed", "error", err)
		s.say(msgNewChatFail)
		return fmt.Errorf("new chat: %w", err)
	}
	if !ns.NewSession {
		s.logger.Warn("backend declined new chat session")
		return nil
	}

	s.conv.Reset()
	s.history.Flush()
	s.emit(conversation.NewMessage(conversation.SenderBot, conversation.KindClear, ""))
	s.say(fmt.Sprintf(greetingNewChat, s.username(ctx)))
	s.emit(conversation.NewMessage(conversation.SenderBot, conversation.KindReportHidden, ""))
	s.History(ctx)

	s.logger.Info("new chat started", "backend_session_id", ns.SessionID)
	return nil
}

// Clear empties the visible transcript. Collected symptoms and state stay.
func (s *Session) Clear() {
	s.emit(conversation.NewMessage(conversation.SenderBot, conversation.KindClear, ""))
	s.say(msgCleared)
}

// History emits the current history list. Failures are only logged so the
// sidebar keeps its previous content.
func (s *Session) History(ctx context.Context) {
	entries, err := s.history.List(ctx)
	if err != nil {
		s.logger.Error("load chat history failed", "error", err)
		return
	}
	m := conversation.NewMessage(conversation.SenderBot, conversation.KindHistory, "")
	m.History = entries
	if m.History == nil {
		m.History = []domain.ChatSummary{}
	}
	s.emit(m)
}

// Detail replaces the transcript with one stored chat.
func (s *Session) Detail(ctx context.Context, chatID string) {
	d, err := s.history.Detail(ctx, chatID)
	if err != nil {
		s.logger.Error("load chat detail failed", "chat_id", chatID, "error", err)
		s.say(msgDetailFailed)
		return
	}
	s.emit(conversation.NewMessage(conversation.SenderBot, conversation.KindClear, ""))
	m := conversation.NewMessage(conversation.SenderBot, conversation.KindChatDetail, DetailText(d))
	m.Detail = d
	s.emit(m)
}

// Delete removes a history entry and refreshes the list.
func (s *Session) Delete(ctx context.Context, chatID string) {
	msg, err := s.history.Delete(ctx, chatID)
	if err != nil || msg == "" {
		s.logger.Error("delete chat failed", "chat_id", chatID, "error", err)
		s.say(msgDeleteFailed)
		return
	}
	s.say(msgDeleted)
	s.History(ctx)
}

// LastDiagnosis returns the diagnosis the report would be built from.
func (s *Session) LastDiagnosis() *domain.Diagnosis {
	return s.conv.LastDiagnosis()
}

// ReportText renders the last diagnosis as the plain-text report.
func (s *Session) ReportText() (string, error) {
	return report.Format(s.conv.LastDiagnosis())
}

// SaveReport writes the text report into dir.
func (s *Session) SaveReport(dir string) (string, error) {
	return report.Save(dir, s.conv.LastDiagnosis())
}

// State returns the conversation state.
func (s *Session) State() conversation.State {
	return s.conv.State()
}

// Symptoms returns the collected symptoms.
func (s *Session) Symptoms() []string {
	return s.conv.Symptoms()
}

// Close stops pending delayed prompts.
func (s *Session) Close() {
	s.conv.Close()
}

func (s *Session) username(ctx context.Context) string {
	name, err := s.backend.Username(ctx)
	if err != nil {
		s.logger.Warn("fetch username failed", "error", err)
		return domain.DefaultUsername
	}
	if strings.TrimSpace(name) == "" {
		return domain.DefaultUsername
	}
	return name
}

func (s *Session) say(text string) {
	s.emit(conversation.BotText(text))
}

func (s *Session) emit(m conversation.Message) {
	st := s.conv.State()
	m.State = &st
	s.sink.Emit(m)
}

// DetailText renders a stored chat for text-only clients.
func DetailText(d *domain.ChatDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧑‍⚕️ You: %s\n", d.UserMessage)
	fmt.Fprintf(&b, "🤖 Bot: %s\n\n", d.BotResponse)
	writeDisease(&b, "🔹 Primary Disease", d.PrimaryDisease, d.PrimaryDescription, d.PrimaryPrecautions)
	b.WriteString("\n")
	writeDisease(&b, "🔸 Secondary Disease", d.SecondaryDisease, d.SecondaryDescription, d.SecondaryPrecautions)
	return strings.TrimRight(b.String(), "\n")
}

func writeDisease(b *strings.Builder, title, disease, description string, precautions []string) {
	fmt.Fprintf(b, "%s: %s\n", title, disease)
	fmt.Fprintf(b, "📝 Description: %s\n", description)
	b.WriteString("💊 Precautions:\n")
	for _, p := range precautions {
		fmt.Fprintf(b, "  • %s\n", p)
	}
}
