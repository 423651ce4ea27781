package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/symcheck/internal/backend"
	"github.com/ashureev/symcheck/internal/config"
	"github.com/ashureev/symcheck/internal/domain"
	"github.com/ashureev/symcheck/internal/render"
	"github.com/ashureev/symcheck/internal/store"
)

const (
	// localUserID owns the terminal client's preferences row.
	localUserID = "local"
	dbFile      = "symcheck.db"
	cookieFile  = "session.json"
)

// app bundles what every subcommand needs.
type app struct {
	dataDir string
	repo    store.Repository
	client  *backend.Client
	logger  *slog.Logger
	out     io.Writer
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func openApp(cmd *cobra.Command, opts *options) (*app, error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadBackend()
	if err != nil {
		return nil, err
	}
	if opts.backendURL != "" {
		cfg.URL = opts.backendURL
	}

	if err := os.MkdirAll(opts.dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := store.NewSQLite(filepath.Join(opts.dataDir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	client, err := backend.NewClient(backend.ClientConfig{BaseURL: cfg.URL, Timeout: cfg.Timeout}, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	a := &app{
		dataDir: opts.dataDir,
		repo:    repo,
		client:  client,
		logger:  logger,
		out:     cmd.OutOrStdout(),
	}
	if err := a.loadCookies(); err != nil {
		logger.Warn("Failed to restore backend session", "error", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}

// user returns the local preferences row, creating it on first use.
func (a *app) user(ctx context.Context) (*domain.User, error) {
	u, err := a.repo.GetUser(ctx, localUserID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	now := time.Now()
	u = &domain.User{
		UserID:     localUserID,
		Username:   domain.DefaultUsername,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.repo.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (a *app) renderer(ctx context.Context) *render.Renderer {
	dark := false
	if u, err := a.user(ctx); err == nil {
		dark = u.DarkMode
	} else {
		a.logger.Warn("Failed to load theme preference", "error", err)
	}
	return render.New(a.out, render.ThemeFor(dark))
}

func (a *app) loadCookies() error {
	data, err := os.ReadFile(filepath.Join(a.dataDir, cookieFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	a.client.SetCookies(cookies)
	return nil
}

func (a *app) saveCookies() error {
	cookies := a.client.Cookies()
	saved := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.dataDir, cookieFile), data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// withApp adapts a function needing an app into a cobra RunE.
func withApp(opts *options, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn("Failed to close preferences", "error", cerr)
			}
		}()
		return fn(cmd, a, args)
	}
}
