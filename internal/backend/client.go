// Package backend is a typed HTTP client for the symptom prediction backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/symcheck/internal/domain"
)

// maxResponseBody caps how much of a backend reply is read (4MB).
const maxResponseBody = 4 << 20

// ErrUnauthorized is returned when the backend rejects the session cookie.
var ErrUnauthorized = errors.New("backend: unauthorized")

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the backend on behalf of one user. The cookie jar carries
// the backend session, so a Client must not be shared between users.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a backend client with its own cookie jar.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout, Jar: jar},
		logger:  logger,
	}, nil
}

// Cookies returns the backend session cookies held by the client.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.baseURL)
}

// SetCookies restores session cookies saved by an earlier process.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.http.Jar.SetCookies(c.baseURL, cookies)
}

// Username returns the display name of the signed-in user.
func (c *Client) Username(ctx context.Context) (string, error) {
	var resp struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, "/get_username", nil, &resp); err != nil {
		return "", fmt.Errorf("get username: %w", err)
	}
	return resp.Username, nil
}

// CollectSymptom asks the backend to validate one candidate symptom.
func (c *Client) CollectSymptom(ctx context.Context, symptom string, collected []string) (*domain.SymptomCheck, error) {
	if collected == nil {
		collected = []string{}
	}
	req := map[string]any{
		"symptom":            symptom,
		"collected_symptoms": collected,
	}
	var resp domain.SymptomCheck
	if err := c.do(ctx, http.MethodPost, "/collect_symptoms", req, &resp); err != nil {
		return nil, fmt.Errorf("collect symptom: %w", err)
	}
	return &resp, nil
}

// PredictDisease requests a diagnosis for the collected symptoms.
func (c *Client) PredictDisease(ctx context.Context, symptoms []string, days int) (*domain.Diagnosis, error) {
	if symptoms == nil {
		symptoms = []string{}
	}
	req := map[string]any{
		"symptoms": symptoms,
		"days":     days,
	}
	var resp domain.Diagnosis
	if err := c.do(ctx, http.MethodPost, "/predict_disease", req, &resp); err != nil {
		return nil, fmt.Errorf("predict disease: %w", err)
	}
	return &resp, nil
}

// AskMedical relays a free-text medical question.
func (c *Client) AskMedical(ctx context.Context, query string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/ask_medical", map[string]string{"query": query}, &resp); err != nil {
		return "", fmt.Errorf("ask medical: %w", err)
	}
	return resp.Response, nil
}

// ChatHistory lists past diagnosis turns, newest first.
func (c *Client) ChatHistory(ctx context.Context) ([]domain.ChatSummary, error) {
	var resp struct {
		ChatHistory []domain.ChatSummary `json:"chat_history"`
	}
	if err := c.do(ctx, http.MethodGet, "/get_chat_history", nil, &resp); err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}
	return resp.ChatHistory, nil
}

// ChatDetails loads one stored diagnosis turn.
func (c *Client) ChatDetails(ctx context.Context, chatID string) (*domain.ChatDetail, error) {
	path := "/get_chat_details?chat_id=" + url.QueryEscape(chatID)
	var resp domain.ChatDetail
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get chat details: %w", err)
	}
	return &resp, nil
}

// NewChat asks the backend to start a fresh chat session.
func (c *Client) NewChat(ctx context.Context) (*domain.NewSession, error) {
	var resp domain.NewSession
	if err := c.do(ctx, http.MethodPost, "/new_chat", nil, &resp); err != nil {
		return nil, fmt.Errorf("new chat: %w", err)
	}
	return &resp, nil
}

// DeleteChat removes one history entry and returns the backend message.
func (c *Client) DeleteChat(ctx context.Context, chatID string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/delete_chat", map[string]string{"chat_id": chatID}, &resp); err != nil {
		return "", fmt.Errorf("delete chat: %w", err)
	}
	return resp.Message, nil
}

// AuthResult is the backend reply to a signup or signin request. The message
// is shown to the user regardless of OK.
type AuthResult struct {
	OK      bool
	Status  int
	Message string
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, username, email, password string) (*AuthResult, error) {
	return c.auth(ctx, "/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// SignIn authenticates and stores the backend session cookie in the jar.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.auth(ctx, "/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) auth(ctx context.Context, path string, body any) (*AuthResult, error) {
	resp, err := c.send(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp)

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &AuthResult{
		OK:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:  resp.StatusCode,
		Message: payload.Message,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer c.closeBody(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:  method,
			Path:    stripQuery(path),
			Status:  resp.StatusCode,
			Message: errorMessage(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, stripQuery(path), err)
	}
	c.logger.Debug("backend call",
		"method", method,
		"path", stripQuery(path),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Debug("failed to close backend response body", "error", err)
	}
}

// errorMessage extracts "message" or "error" from a JSON error body.
func errorMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
