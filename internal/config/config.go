// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	GRPCHealthAddr  string
	Backend         BackendConfig
	Chat            ChatConfig
	Report          ReportConfig
	ConversationLog ConversationLogConfig
}

// BackendConfig describes the prediction backend.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
	// ClientTTL is how long an idle per-user backend client is kept.
	ClientTTL time.Duration
}

// ChatConfig tunes the conversation and session lifecycle.
type ChatConfig struct {
	FollowUpDelay time.Duration
	HistoryTTL    time.Duration
	// SessionTTL is how long a disconnected tab's session survives.
	SessionTTL time.Duration
	// TranscriptRetention is how long persisted transcripts are kept.
	TranscriptRetention time.Duration
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	FontPaths []string
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
	MaxSizeMB     int
	MaxBackups    int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/symcheck.db"),
		GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ""),
		Backend: BackendConfig{
			URL:       getEnv("BACKEND_URL", "http://127.0.0.1:5000"),
			Timeout:   getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
			ClientTTL: getEnvDuration("BACKEND_CLIENT_TTL", time.Hour),
		},
		Chat: ChatConfig{
			FollowUpDelay:       getEnvDuration("FOLLOW_UP_DELAY", time.Second),
			HistoryTTL:          getEnvDuration("HISTORY_CACHE_TTL", 5*time.Minute),
			SessionTTL:          getEnvDuration("SESSION_TTL", 30*time.Minute),
			TranscriptRetention: getEnvDuration("TRANSCRIPT_RETENTION", 24*time.Hour),
		},
		Report: ReportConfig{
			FontPaths: getEnvList("REPORT_FONT_PATHS"),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:           getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", "./data/logs/conversations/all.ndjson"),
			QueueSize:     queueSize,
			MaxSizeMB:     getEnvInt("CONVERSATION_LOG_MAX_SIZE_MB", 50),
			MaxBackups:    getEnvInt("CONVERSATION_LOG_MAX_BACKUPS", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if c.Chat.FollowUpDelay < 0 {
		return fmt.Errorf("FOLLOW_UP_DELAY cannot be negative")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// Validate checks the backend URL and timeout.
func (b BackendConfig) Validate() error {
	if b.URL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	u, err := url.Parse(b.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", b.URL)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be > 0")
	}
	return nil
}

// LoadBackend reads only the backend settings, for the CLI.
func LoadBackend() (BackendConfig, error) {
	b := BackendConfig{
		URL:     getEnv("BACKEND_URL", "http://127.0.0.1:5000"),
		Timeout: getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
	}
	if err := b.Validate(); err != nil {
		return BackendConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return b, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("1500ms") or plain seconds ("2").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
