// Package auth validates the signup and signin forms and submits them to the
// backend. The backend decides the outcome; its message is shown verbatim.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ashureev/symcheck/internal/backend"
)

// MinPasswordLength is the shortest password the signup form accepts.
const MinPasswordLength = 6

// Validation errors carry the user-facing message.
var (
	ErrMissingFields      = errors.New("Please fill in all fields!")
	ErrPasswordTooShort   = errors.New("Password must be at least 6 characters long.")
	ErrPasswordMismatch   = errors.New("Passwords do not match!")
	ErrMissingCredentials = errors.New("Please enter your email and password.")
)

const (
	// MessageSignInOK is shown after a successful signin.
	MessageSignInOK = "Sign-in successful!"
	// MessageSignUpFailed is shown when the signup request itself fails.
	MessageSignUpFailed = "Carry on!!!."
	// MessageSignInFailed is shown when the signin request itself fails.
	MessageSignInFailed = "An error occurred during sign-in."
)

// SignUpForm is the registration form.
type SignUpForm struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Normalize trims the username and trims and lower-cases the email.
// Passwords are taken as typed.
func (f *SignUpForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// Validate applies the form rules in order and returns the first failure.
func (f *SignUpForm) Validate() error {
	if f.Username == "" || f.Email == "" || f.Password == "" || f.ConfirmPassword == "" {
		return ErrMissingFields
	}
	if len([]rune(f.Password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// SignInForm is the login form.
type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims and lower-cases the email.
func (f *SignInForm) Normalize() {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// Validate requires both fields.
func (f *SignInForm) Validate() error {
	if f.Email == "" || f.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Backend submits validated forms.
type Backend interface {
	SignUp(ctx context.Context, username, email, password string) (*backend.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*backend.AuthResult, error)
}

// Outcome is what the user sees after submitting a form.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Service validates and submits auth forms.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService creates an auth service.
func NewService(b Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, logger: logger}
}

// SignUp normalizes and validates f, then registers the account. A
// validation failure is returned as an error; a backend rejection is a
// non-OK Outcome carrying the backend's message.
func (s *Service) SignUp(ctx context.Context, f SignUpForm) (Outcome, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Outcome{}, err
	}

	res, err := s.backend.SignUp(ctx, f.Username, f.Email, f.Password)
	if err != nil {
		s.logger.Error("signup request failed", "error", err)
		return Outcome{Message: MessageSignUpFailed}, nil
	}
	return Outcome{OK: res.OK, Message: res.Message}, nil
}

// SignIn normalizes and validates f, then authenticates.
func (s *Service) SignIn(ctx context.Context, f SignInForm) (Outcome, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Outcome{}, err
	}

	res, err := s.backend.SignIn(ctx, f.Email, f.Password)
	if err != nil {
		s.logger.Error("signin request failed", "error", err)
		return Outcome{Message: MessageSignInFailed}, nil
	}
	if res.OK {
		return Outcome{OK: true, Message: MessageSignInOK}, nil
	}
	return Outcome{Message: res.Message}, nil
}

// IsValidation reports whether err is a form validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordMismatch) ||
		errors.Is(err, ErrMissingCredentials)
}

