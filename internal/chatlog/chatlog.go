// Package chatlog records every chat turn as NDJSON, one file per
// user/session plus an optional rotated global file.
package chatlog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Directions of a logged event relative to the gateway.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Config controls conversation logging.
type Config struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
	MaxSizeMB     int
	MaxBackups    int
}

// Event is one logged line.
type Event struct {
	Timestamp  time.Time `json:"ts"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Channel    string    `json:"channel"`
	Direction  string    `json:"direction"`
	EventType  string    `json:"event_type"`
	State      string    `json:"state,omitempty"`
	ContentRaw string    `json:"content_raw,omitempty"`
	Content    string    `json:"content,omitempty"`
}

// Logger accepts events without blocking the caller.
type Logger interface {
	Log(Event)
	Close() error
}

// New returns a logger for cfg. A disabled config yields a no-op logger.
func New(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return nopLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}

	l := &fileLogger{
		dir:    cfg.Dir,
		queue:  make(chan Event, cfg.QueueSize),
		files:  make(map[string]*os.File),
		logger: logger,
		done:   make(chan struct{}),
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o755); err != nil {
			return nil, fmt.Errorf("create global conversation log dir: %w", err)
		}
		l.global = &lumberjack.Logger{
			Filename:   cfg.GlobalPath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
	}

	go l.run()
	return l, nil
}

type nopLogger struct{}

func (nopLogger) Log(Event)    {}
func (nopLogger) Close() error { return nil }

type fileLogger struct {
	dir    string
	queue  chan Event
	files  map[string]*os.File
	global io.WriteCloser
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// Log enqueues e. When the queue is full the event is dropped.
func (l *fileLogger) Log(e Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Content == "" && e.ContentRaw != "" {
		e.Content = cleanForReadability(e.ContentRaw)
	}
	select {
	case l.queue <- e:
	default:
		l.logger.Warn("conversation log queue full, dropping event",
			"user_id", e.UserID, "session_id", e.SessionID, "event_type", e.EventType)
	}
}

// Close drains the queue and closes every file.
func (l *fileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done

	var firstErr error
	for key, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close conversation log %s: %w", key, err)
		}
	}
	if l.global != nil {
		if err := l.global.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close global conversation log: %w", err)
		}
	}
	return firstErr
}

func (l *fileLogger) run() {
	defer close(l.done)
	for e := range l.queue {
		line, err := json.Marshal(e)
		if err != nil {
			l.logger.Warn("failed to encode conversation event", "error", err)
			continue
		}
		line = append(line, '\n')

		if err := l.writeSession(e, line); err != nil {
			l.logger.Warn("failed to write conversation log", "user_id", e.UserID, "session_id", e.SessionID, "error", err)
		}
		if l.global != nil {
			if _, err := l.global.Write(line); err != nil {
				l.logger.Warn("failed to write global conversation log", "error", err)
			}
		}
	}
}

func (l *fileLogger) writeSession(e Event, line []byte) error {
	user := safeName(e.UserID)
	session := safeName(e.SessionID)
	key := user + "/" + session

	f, ok := l.files[key]
	if !ok {
		dir := filepath.Join(l.dir, user)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create user log dir: %w", err)
		}
		var err error
		f, err = os.OpenFile(filepath.Join(dir, session+".ndjson"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open session log: %w", err)
		}
		l.files[key] = f
	}
	_, err := f.Write(line)
	return err
}

var (
	ansiPattern   = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	unsafePattern = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	spacePattern  = regexp.MustCompile(`[ \t]+`)
)

// cleanForReadability strips ANSI escapes and collapses runs of blanks.
func cleanForReadability(raw string) string {
	s := ansiPattern.ReplaceAllString(raw, "")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func safeName(s string) string {
	s = unsafePattern.ReplaceAllString(s, "_")
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return s
}
