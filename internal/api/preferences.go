package api

import (
	"errors"
	"net/http"

	"github.com/ashureev/symcheck/internal/identity"
	"github.com/ashureev/symcheck/internal/store"
)

type preferencesResponse struct {
	Username string `json:"username"`
	DarkMode bool   `json:"dark_mode"`
	Theme    string `json:"theme"`
}

type preferencesRequest struct {
	DarkMode *bool `json:"dark_mode"`
}

// GetPreferences returns the caller's UI preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load preferences", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	if user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	JSON(w, http.StatusOK, preferencesResponse{
		Username: user.Username,
		DarkMode: user.DarkMode,
		Theme:    user.Theme(),
	})
}

// PutPreferences updates the caller's dark mode flag.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req preferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DarkMode == nil {
		Error(w, http.StatusBadRequest, "dark_mode is required")
		return
	}

	if err := h.repo.SetDarkMode(r.Context(), userID, *req.DarkMode); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			Error(w, http.StatusUnauthorized, "user not found")
			return
		}
		h.logger.Error("Failed to save preferences", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	h.logger.Info("Preferences updated", "user_id", userID, "dark_mode", *req.DarkMode)
	h.GetPreferences(w, r)
}
