package conversation

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/symcheck/internal/domain"
)

// DefaultFollowUpDelay is the pause before the "any other queries?" prompt.
const DefaultFollowUpDelay = time.Second

// Backend is the subset of the prediction service the controller needs.
type Backend interface {
	CollectSymptom(ctx context.Context, symptom string, collected []string) (*domain.SymptomCheck, error)
	PredictDisease(ctx context.Context, symptoms []string, days int) (*domain.Diagnosis, error)
	AskMedical(ctx context.Context, query string) (string, error)
}

// Options tunes a Controller.
type Options struct {
	// FollowUpDelay delays the follow-up prompt after a pre-diagnosis answer.
	// Zero emits it inline.
	FollowUpDelay time.Duration
	Logger        *slog.Logger
}

// Controller is the per-session conversation state machine. Turns and
// actions are serialized: a call blocks until the previous one, including
// its backend round trip, has finished.
type Controller struct {
	mu            sync.Mutex
	backend       Backend
	sink          Sink
	logger        *slog.Logger
	followUpDelay time.Duration

	state         State
	symptoms      []string
	lastDiagnosis *domain.Diagnosis

	// generation changes on every reset; a pending follow-up from an
	// earlier generation is dropped.
	generation uint64
	followUp   *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a controller in the initial CollectingSymptoms state.
func New(backend Backend, sink Sink, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend:       backend,
		sink:          sink,
		logger:        logger,
		followUpDelay: opts.FollowUpDelay,
		state:         StateCollectingSymptoms,
		done:          make(chan struct{}),
	}
}

// Handle interprets one line of user input according to the current state.
func (c *Controller) Handle(ctx context.Context, input string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		c.say(promptEmptyInput)
		return
	}

	before := c.state
	switch c.state {
	case StatePostDiagnosisQuery:
		c.ask(ctx, text)
	case StatePreDiagnosisQuery:
		c.handlePreDiagnosis(ctx, text)
	case StateAwaitingDays:
		c.handleDays(ctx, text)
	case StateCollectingSymptoms:
		c.handleCollecting(ctx, text)
	}

	if c.state != before {
		c.logger.Debug("conversation transition", "from", before.String(), "to", c.state.String())
	}
}

// Dispatch runs a button action produced by an earlier message.
func (c *Controller) Dispatch(ctx context.Context, a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch a.Kind {
	case ActionAddSymptom:
		if c.state != StateCollectingSymptoms {
			c.say(promptCollectionClosed)
			return
		}
		c.collect(ctx, a.Symptom)
	case ActionRemoveSymptom:
		c.remove(a.Index, a.Symptom)
	default:
		c.logger.Warn("unknown conversation action", "kind", string(a.Kind))
	}
}

// Reset returns the controller to its initial state and forgets the last
// diagnosis.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateCollectingSymptoms
	c.symptoms = nil
	c.lastDiagnosis = nil
	c.generation++
	if c.followUp != nil {
		c.followUp.Stop()
		c.followUp = nil
	}
}

// State returns the current conversation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Symptoms returns a copy of the collected symptoms in insertion order.
func (c *Controller) Symptoms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.symptoms)
}

// LastDiagnosis returns a copy of the most recent diagnosis, or nil.
func (c *Controller) LastDiagnosis() *domain.Diagnosis {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastDiagnosis == nil {
		return nil
	}
	d := *c.lastDiagnosis
	d.PrimaryPrecautions = slices.Clone(d.PrimaryPrecautions)
	d.SecondaryPrecautions = slices.Clone(d.SecondaryPrecautions)
	return &d
}

// Close cancels pending delayed prompts.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Controller) handleCollecting(ctx context.Context, text string) {
	switch {
	case text == "exit":
		c.state = StateAwaitingDays
		c.say(promptAskDays)
	case text == "edit":
		c.edit()
	case looksLikeQuery(text):
		c.state = StatePreDiagnosisQuery
		c.ask(ctx, text)
	default:
		c.collect(ctx, text)
	}
}

func (c *Controller) handlePreDiagnosis(ctx context.Context, text string) {
	if text != "no" {
		c.ask(ctx, text)
		return
	}
	if len(c.symptoms) < MaxSymptoms {
		c.state = StateCollectingSymptoms
		c.say(promptEnterSymptom)
		return
	}
	c.state = StateAwaitingDays
	c.say(promptEnoughSymptoms)
}

func (c *Controller) emit(m Message) {
	st := c.state
	m.State = &st
	c.sink.Emit(m)
}

func (c *Controller) say(text string) {
	c.emit(BotText(text))
}

// later emits m after the follow-up delay unless the controller has been
// closed or reset in the meantime.
func (c *Controller) later(m Message) {
	if c.followUpDelay <= 0 {
		c.emit(m)
		return
	}
	st := c.state
	m.State = &st
	gen := c.generation
	c.followUp = time.AfterFunc(c.followUpDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return
		}
		select {
		case <-c.done:
		default:
			c.sink.Emit(m)
		}
	})
}
