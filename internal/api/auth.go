package api

import (
	"net/http"

	"github.com/ashureev/symcheck/internal/auth"
	"github.com/ashureev/symcheck/internal/identity"
)

// SignUp validates the signup form and forwards it to the backend.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form auth.SignUpForm
	if !decodeJSON(w, r, &form) {
		return
	}
	svc, ok := h.authService(w, r)
	if !ok {
		return
	}

	out, err := svc.SignUp(r.Context(), form)
	h.writeOutcome(w, out, err, http.StatusBadRequest)
}

// SignIn validates the signin form and forwards it to the backend. On
// success the backend session cookie lives in the user's pooled client.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var form auth.SignInForm
	if !decodeJSON(w, r, &form) {
		return
	}
	svc, ok := h.authService(w, r)
	if !ok {
		return
	}

	out, err := svc.SignIn(r.Context(), form)
	if err == nil && out.OK && h.onSignIn != nil {
		h.onSignIn(identity.UserIDFromContext(r.Context()))
	}
	h.writeOutcome(w, out, err, http.StatusUnauthorized)
}

func (h *Handler) authService(w http.ResponseWriter, r *http.Request) (*auth.Service, bool) {
	userID := identity.UserIDFromContext(r.Context())
	b, err := h.authFor(userID)
	if err != nil {
		h.logger.Error("Failed to get backend client", "error", err, "user_id", userID)
		Error(w, http.StatusBadGateway, "backend unavailable")
		return nil, false
	}
	return auth.NewService(b, h.logger.With("user_id", userID)), true
}

func (h *Handler) writeOutcome(w http.ResponseWriter, out auth.Outcome, err error, rejectStatus int) {
	if err != nil {
		if auth.IsValidation(err) {
			JSON(w, http.StatusBadRequest, auth.Outcome{Message: err.Error()})
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !out.OK {
		JSON(w, rejectStatus, out)
		return
	}
	JSON(w, http.StatusOK, out)
}
