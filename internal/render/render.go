// Package render draws conversation messages on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/ashureev/symcheck/internal/conversation"
	"github.com/ashureev/symcheck/internal/domain"
)

// Theme is the palette used for each part of the transcript.
type Theme struct {
	Name    string
	Bot     *color.Color
	User    *color.Color
	Heading *color.Color
	Action  *color.Color
	Muted   *color.Color
}

// Dark is the palette for dark terminals.
func Dark() Theme {
	return Theme{
		Name:    "dark",
		Bot:     color.New(color.FgHiWhite),
		User:    color.New(color.FgHiCyan, color.Bold),
		Heading: color.New(color.FgHiYellow, color.Bold),
		Action:  color.New(color.FgHiGreen),
		Muted:   color.New(color.FgHiBlack),
	}
}

// Light is the palette for light terminals.
func Light() Theme {
	return Theme{
		Name:    "light",
		Bot:     color.New(color.FgBlack),
		User:    color.New(color.FgBlue, color.Bold),
		Heading: color.New(color.FgMagenta, color.Bold),
		Action:  color.New(color.FgGreen),
		Muted:   color.New(color.FgWhite),
	}
}

// ThemeFor picks the palette matching a dark mode preference.
func ThemeFor(dark bool) Theme {
	if dark {
		return Dark()
	}
	return Light()
}

// Renderer is a conversation.Sink writing to a terminal. It remembers the
// last action list and history list so the REPL can resolve numbered picks.
type Renderer struct {
	mu          sync.Mutex
	w           io.Writer
	theme       Theme
	actions     []conversation.Action
	history     []domain.ChatSummary
	reportReady bool
}

// New creates a renderer.
func New(w io.Writer, theme Theme) *Renderer {
	return &Renderer{w: w, theme: theme}
}

// SetTheme swaps the palette.
func (r *Renderer) SetTheme(theme Theme) {
	r.mu.Lock()
	r.theme = theme
	r.mu.Unlock()
}

// Emit draws one message.
func (r *Renderer) Emit(m conversation.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch m.Kind {
	case conversation.KindClear:
		r.actions = nil
		r.theme.Muted.Fprintln(r.w, strings.Repeat("─", 40))
	case conversation.KindReportReady:
		r.reportReady = true
		r.theme.Action.Fprintln(r.w, "📄 Report ready. Type /report to save it.")
	case conversation.KindReportHidden:
		r.reportReady = false
	case conversation.KindHistory:
		r.history = m.History
		r.drawHistory()
	case conversation.KindDiagnosis:
		r.theme.Heading.Fprintln(r.w, m.Text)
	case conversation.KindChatDetail:
		r.theme.Bot.Fprintln(r.w, m.Text)
	default:
		if m.Sender == conversation.SenderUser {
			r.theme.User.Fprintf(r.w, "› %s\n", m.Text)
		} else if m.Text != "" {
			r.theme.Bot.Fprintln(r.w, m.Text)
		}
	}

	if len(m.Actions) > 0 {
		r.actions = m.Actions
		for i, a := range m.Actions {
			r.theme.Action.Fprintf(r.w, "  [%d] %s\n", i+1, a.Label)
		}
	}
}

func (r *Renderer) drawHistory() {
	if len(r.history) == 0 {
		r.theme.Muted.Fprintln(r.w, "No previous chats.")
		return
	}
	r.theme.Heading.Fprintln(r.w, "Chat history:")
	for i, h := range r.history {
		r.theme.Muted.Fprintf(r.w, "  %d. %s (%s, %s)\n", i+1, h.UserMessage, h.PrimaryDisease, h.SecondaryDisease)
	}
}

// Action resolves a 1-based pick from the last action list.
func (r *Renderer) Action(n int) (conversation.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 || n > len(r.actions) {
		return conversation.Action{}, false
	}
	return r.actions[n-1], true
}

// HistoryID resolves a 1-based pick from the last history list.
func (r *Renderer) HistoryID(n int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 || n > len(r.history) {
		return "", false
	}
	return r.history[n-1].ID, true
}

// ReportReady reports whether a diagnosis is available for export.
func (r *Renderer) ReportReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportReady
}

// Printf writes a bot-coloured line outside the conversation flow.
func (r *Renderer) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.theme.Bot.Fprintf(r.w, format, args...)
	fmt.Fprintln(r.w)
}
