// Package history wraps the backend chat-history endpoints with a short-lived
// cache for chat details, which never change once stored.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ashureev/symcheck/internal/domain"
)

// DefaultDetailTTL is how long a loaded chat detail is served from memory.
const DefaultDetailTTL = 5 * time.Minute

// Backend is the subset of the backend client used for history.
type Backend interface {
	ChatHistory(ctx context.Context) ([]domain.ChatSummary, error)
	ChatDetails(ctx context.Context, chatID string) (*domain.ChatDetail, error)
	DeleteChat(ctx context.Context, chatID string) (string, error)
}

// Service lists, loads and deletes history entries for one user.
type Service struct {
	backend Backend
	details *cache.Cache
	logger  *slog.Logger
}

// NewService creates a history service. A ttl of zero uses DefaultDetailTTL.
func NewService(backend Backend, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultDetailTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: backend,
		details: cache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

// List returns the user's history, newest first.
func (s *Service) List(ctx context.Context) ([]domain.ChatSummary, error) {
	entries, err := s.backend.ChatHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Detail returns one stored turn, from cache when possible.
func (s *Service) Detail(ctx context.Context, chatID string) (*domain.ChatDetail, error) {
	if v, ok := s.details.Get(chatID); ok {
		return v.(*domain.ChatDetail), nil
	}
	d, err := s.backend.ChatDetails(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load chat %s: %w", chatID, err)
	}
	s.details.SetDefault(chatID, d)
	return d, nil
}

// Delete removes one entry and returns the backend confirmation message.
func (s *Service) Delete(ctx context.Context, chatID string) (string, error) {
	s.details.Delete(chatID)
	msg, err := s.backend.DeleteChat(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("delete chat %s: %w", chatID, err)
	}
	s.logger.Info("chat deleted", "chat_id", chatID)
	return msg, nil
}

// Flush drops every cached detail, e.g. after signing in as someone else.
func (s *Service) Flush() {
	s.details.Flush()
}
