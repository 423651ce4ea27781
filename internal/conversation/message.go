package conversation

import (
	"time"

	"github.com/ashureev/symcheck/internal/domain"
	"github.com/google/uuid"
)

// Sender identifies which side of the chat a message belongs to.
type Sender string

const (
	// SenderBot messages are left-aligned assistant output.
	SenderBot Sender = "bot"
	// SenderUser messages echo the user's own text, right-aligned.
	SenderUser Sender = "user"
)

// Kind tells a renderer how to present a message.
type Kind string

const (
	// KindText is a plain chat line.
	KindText Kind = "text"
	// KindDiagnosis carries the rendered diagnosis block.
	KindDiagnosis Kind = "diagnosis"
	// KindReportReady shows the report download links.
	KindReportReady Kind = "report_ready"
	// KindReportHidden hides the report download links.
	KindReportHidden Kind = "report_hidden"
	// KindClear empties the chat window.
	KindClear Kind = "clear"
	// KindHistory lists previous chats.
	KindHistory Kind = "history"
	// KindChatDetail replays one saved chat.
	KindChatDetail Kind = "chat_detail"
)

// ActionKind names a clickable follow-up attached to a message.
type ActionKind string

const (
	// ActionAddSymptom re-runs symptom collection with Symptom as input.
	ActionAddSymptom ActionKind = "add_symptom"
	// ActionRemoveSymptom removes the collected symptom at Index.
	ActionRemoveSymptom ActionKind = "remove_symptom"
)

// Action is a button rendered alongside a message.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Label   string     `json:"label"`
	Symptom string     `json:"symptom,omitempty"`
	Index   int        `json:"index"`
}

// Message is one rendered chat entry.
type Message struct {
	ID        string               `json:"id"`
	Sender    Sender               `json:"sender"`
	Kind      Kind                 `json:"kind"`
	Text      string               `json:"text,omitempty"`
	Actions   []Action             `json:"actions,omitempty"`
	Diagnosis *domain.Diagnosis    `json:"diagnosis,omitempty"`
	History   []domain.ChatSummary `json:"history,omitempty"`
	Detail    *domain.ChatDetail   `json:"detail,omitempty"`
	State     *State               `json:"state,omitempty"`
	Time      time.Time            `json:"time"`
}

// NewMessage builds a message with a fresh id and timestamp.
func NewMessage(sender Sender, kind Kind, text string) Message {
	return Message{
		ID:     uuid.NewString(),
		Sender: sender,
		Kind:   kind,
		Text:   text,
		Time:   time.Now().UTC(),
	}
}

// BotText is shorthand for a plain bot message.
func BotText(text string) Message {
	return NewMessage(SenderBot, KindText, text)
}

// Sink receives every message the conversation produces. Implementations
// must be safe for concurrent use: delayed prompts arrive from a timer.
type Sink interface {
	Emit(Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Message)

// Emit calls f(m).
func (f SinkFunc) Emit(m Message) { f(m) }
