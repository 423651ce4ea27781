// Package api provides HTTP handlers for the symcheck gateway.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/symcheck/internal/auth"
	"github.com/ashureev/symcheck/internal/domain"
	"github.com/ashureev/symcheck/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// DiagnosisSource looks up the last diagnosis of a live chat session.
type DiagnosisSource interface {
	LastDiagnosis(userID, sessionID string) (*domain.Diagnosis, bool)
}

// AuthFactory returns the auth backend bound to a gateway user.
type AuthFactory func(userID string) (auth.Backend, error)

// Handler serves the gateway's REST endpoints.
type Handler struct {
	repo      store.Repository
	sessions  DiagnosisSource
	authFor   AuthFactory
	onSignIn  func(userID string)
	fontPaths []string
	logger    *slog.Logger
}

// Options holds optional Handler dependencies.
type Options struct {
	// OnSignIn runs after a successful signin, e.g. to restart chat sessions
	// under the new backend identity.
	OnSignIn  func(userID string)
	FontPaths []string
	Logger    *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, sessions DiagnosisSource, authFor AuthFactory, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:      repo,
		sessions:  sessions,
		authFor:   authFor,
		onSignIn:  opts.OnSignIn,
		fontPaths: opts.FontPaths,
		logger:    logger,
	}
}

// RegisterRoutes registers the /api routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.PutPreferences)
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Get("/report", h.Report)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
