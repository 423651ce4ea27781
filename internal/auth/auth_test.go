package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/symcheck/internal/backend"
)

type fakeBackend struct {
	gotEmail string
	result   *backend.AuthResult
	err      error
	calls    int
}

func (f *fakeBackend) SignUp(_ context.Context, _, email, _ string) (*backend.AuthResult, error) {
	f.calls++
	f.gotEmail = email
	return f.result, f.err
}

func (f *fakeBackend) SignIn(_ context.Context, email, _ string) (*backend.AuthResult, error) {
	f.calls++
	f.gotEmail = email
	return f.result, f.err
}

func TestSignUpFormValidate(t *testing.T) {
	tests := []struct {
		name string
		form SignUpForm
		want error
	}{
		{"valid", SignUpForm{"ann", "a@b.c", "secret", "secret"}, nil},
		{"missing username", SignUpForm{"", "a@b.c", "secret", "secret"}, ErrMissingFields},
		{"missing confirm", SignUpForm{"ann", "a@b.c", "secret", ""}, ErrMissingFields},
		{"short password", SignUpForm{"ann", "a@b.c", "12345", "12345"}, ErrPasswordTooShort},
		{"mismatch", SignUpForm{"ann", "a@b.c", "secret", "secreT"}, ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.form.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignUpNormalizesEmail(t *testing.T) {
	fb := &fakeBackend{result: &backend.AuthResult{OK: true, Status: 201, Message: "User registered"}}
	s := NewService(fb, nil)

	out, err := s.SignUp(context.Background(), SignUpForm{
		Username:        " ann ",
		Email:           "  Ann@Example.COM ",
		Password:        "secret",
		ConfirmPassword: "secret",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if fb.gotEmail != "ann@example.com" {
		t.Errorf("email = %q", fb.gotEmail)
	}
	if !out.OK || out.Message != "User registered" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestSignUpValidationSkipsBackend(t *testing.T) {
	fb := &fakeBackend{}
	s := NewService(fb, nil)

	_, err := s.SignUp(context.Background(), SignUpForm{Username: "ann", Email: "a@b.c", Password: "abc", ConfirmPassword: "abc"})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fb.calls != 0 {
		t.Errorf("backend called %d times", fb.calls)
	}
}

func TestSignUpTransportFailure(t *testing.T) {
	s := NewService(&fakeBackend{err: errors.New("dial tcp: refused")}, nil)

	out, err := s.SignUp(context.Background(), SignUpForm{"ann", "a@b.c", "secret", "secret"})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if out.OK || out.Message != MessageSignUpFailed {
		t.Errorf("outcome = %+v", out)
	}
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name   string
		result *backend.AuthResult
		err    error
		want   Outcome
	}{
		{"ok", &backend.AuthResult{OK: true, Status: 200, Message: "Welcome"}, nil, Outcome{OK: true, Message: MessageSignInOK}},
		{"rejected", &backend.AuthResult{Status: 401, Message: "Invalid email or password"}, nil, Outcome{Message: "Invalid email or password"}},
		{"transport", nil, errors.New("timeout"), Outcome{Message: MessageSignInFailed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(&fakeBackend{result: tt.result, err: tt.err}, nil)
			got, err := s.SignIn(context.Background(), SignInForm{Email: "A@B.C", Password: "pw"})
			if err != nil {
				t.Fatalf("SignIn returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SignIn() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSignInMissingCredentials(t *testing.T) {
	s := NewService(&fakeBackend{}, nil)
	if _, err := s.SignIn(context.Background(), SignInForm{Email: "  "}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
