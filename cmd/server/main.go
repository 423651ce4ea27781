// symcheck - symptom checker chat gateway
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/symcheck/internal/api"
	"github.com/ashureev/symcheck/internal/auth"
	"github.com/ashureev/symcheck/internal/backend"
	"github.com/ashureev/symcheck/internal/chatlog"
	"github.com/ashureev/symcheck/internal/config"
	"github.com/ashureev/symcheck/internal/health"
	"github.com/ashureev/symcheck/internal/identity"
	"github.com/ashureev/symcheck/internal/middleware"
	"github.com/ashureev/symcheck/internal/session"
	"github.com/ashureev/symcheck/internal/store"
	"github.com/ashureev/symcheck/internal/ws"
	"github.com/ashureev/symcheck/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "backend", cfg.Backend.URL)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	conversationLogger, err := chatlog.New(chatlog.Config{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
		MaxSizeMB:     cfg.ConversationLog.MaxSizeMB,
		MaxBackups:    cfg.ConversationLog.MaxBackups,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// One backend client per user keeps each backend session cookie apart.
	pool := backend.NewPool(backend.ClientConfig{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
	}, cfg.Backend.ClientTTL, logger)

	// Initialize services.
	sm := ws.NewSessionManager(func(userID string) (session.Backend, error) {
		return pool.Get(userID)
	}, repo, conversationLogger, session.Options{
		FollowUpDelay: cfg.Chat.FollowUpDelay,
		DetailTTL:     cfg.Chat.HistoryTTL,
		Logger:        logger,
	})
	defer sm.CloseAll()

	// Initialize handlers.
	apiHandler := api.NewHandler(repo, sm, func(userID string) (auth.Backend, error) {
		return pool.Get(userID)
	}, api.Options{
		OnSignIn:  sm.CloseUser,
		FontPaths: cfg.Report.FontPaths,
		Logger:    logger,
	})
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := ws.NewHandler(sm, repo, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// All routes use identity middleware (no auth needed).
	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WebSocket connections outlive any write deadline, so WriteTimeout stays 0.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start session sweeper.
	ws.StartSweeper(ctx, sm, repo, cfg.Chat.SessionTTL, cfg.Chat.TranscriptRetention)

	// Start gRPC health service (optional).
	var healthSrv *health.Server
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "addr", cfg.GRPCHealthAddr, "error", err)
			os.Exit(1)
		}
		healthSrv = health.New(repo, 0, logger)
		go healthSrv.Run(ctx)
		go func() {
			if err := healthSrv.Serve(lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	if healthSrv != nil {
		healthSrv.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
