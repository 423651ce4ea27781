package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/symcheck/internal/auth"
	"github.com/ashureev/symcheck/internal/report"
)

// fakeBackend serves the prediction API and requires a session cookie for
// history calls.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/get_username", func(w http.ResponseWriter, _ *http.Request) {
		write(w, map[string]string{"username": "Ann"})
	})
	mux.HandleFunc("/collect_symptoms", func(w http.ResponseWriter, _ *http.Request) {
		write(w, map[string]any{"related_symptoms": []string{"chills"}})
	})
	mux.HandleFunc("/predict_disease", func(w http.ResponseWriter, _ *http.Request) {
		write(w, map[string]any{
			"primary_disease":       "Flu",
			"primary_description":   "Viral infection.",
			"primary_precautions":   []string{"rest"},
			"secondary_disease":     "Cold",
			"secondary_description": "Mild infection.",
			"secondary_precautions": []string{"fluids"},
		})
	})
	mux.HandleFunc("/signin", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
		write(w, map[string]string{"message": "Welcome"})
	})
	mux.HandleFunc("/get_chat_history", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "s1" {
			write(w, map[string]any{"chat_history": []any{}})
			return
		}
		write(w, map[string]any{"chat_history": []map[string]string{
			{"id": "7", "user_message": "Symptoms: fever", "primary_disease": "Flu", "secondary_disease": "Cold"},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestThemeCommand(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--data-dir", dir, "--backend", "http://127.0.0.1:1"}

	out, err := run(t, "", append([]string{"theme"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, "", append([]string{"theme", "dark"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = run(t, "", append([]string{"theme"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out, "theme should persist between runs")

	_, err = run(t, "", append([]string{"theme", "blue"}, common...)...)
	assert.Error(t, err)
}

func TestSignUpValidatesLocally(t *testing.T) {
	_, err := run(t, "", "signup",
		"--data-dir", t.TempDir(), "--backend", "http://127.0.0.1:1",
		"--username", "ann", "--email", "a@b.c", "--password", "abc", "--confirm-password", "abc")
	require.Error(t, err)
	assert.Equal(t, auth.ErrPasswordTooShort.Error(), err.Error())
}

func TestSignInSessionIsReusedByHistory(t *testing.T) {
	srv := fakeBackend(t)
	dir := t.TempDir()
	common := []string{"--data-dir", dir, "--backend", srv.URL}

	out, err := run(t, "", append([]string{"history"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No previous chats.")

	out, err = run(t, "", append([]string{"signin", "--email", "a@b.c", "--password", "secret1"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, auth.MessageSignInOK)

	out, err = run(t, "", append([]string{"history", "list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "7  Symptoms: fever  (Flu, Cold)")
}

func TestChatDiagnosisAndReport(t *testing.T) {
	srv := fakeBackend(t)
	reportDir := t.TempDir()

	script := strings.Join([]string{"fever", "#1", "exit", "3", "/report", "/quit"}, "\n") + "\n"
	out, err := run(t, script, "chat",
		"--data-dir", t.TempDir(), "--backend", srv.URL,
		"--follow-up-delay", "0", "--report-dir", reportDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Hello Ann")
	assert.Contains(t, out, "[1] chills")
	assert.Contains(t, out, "Primary Disease: Flu")
	assert.Contains(t, out, "Report saved to")

	data, err := os.ReadFile(filepath.Join(reportDir, report.Filename))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Flu")
}

func TestChatRejectsUnknownPick(t *testing.T) {
	srv := fakeBackend(t)

	out, err := run(t, "#4\n/report\n/bogus\n", "chat",
		"--data-dir", t.TempDir(), "--backend", srv.URL, "--follow-up-delay", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "No option 4.")
	assert.Contains(t, out, "No diagnosis yet.")
	assert.Contains(t, out, "Unknown command /bogus.")
}
