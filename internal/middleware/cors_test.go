package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, origins []string, method, origin string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	h := CORS(origins)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(method, "/api/preferences", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, called
}

func TestCORSExplicitOrigin(t *testing.T) {
	rec, called := serve(t, []string{"https://app.example.com"}, http.MethodGet, "https://app.example.com")
	if !called {
		t.Fatal("next handler not called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials for explicit origin")
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	rec, _ := serve(t, []string{"*"}, http.MethodGet, "https://evil.example.com")
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected Allow-Origin for wildcard")
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("wildcard must not allow credentials")
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	rec, _ := serve(t, []string{"https://app.example.com"}, http.MethodGet, "https://other.example.com")
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unexpected Allow-Origin for unknown origin")
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	rec, called := serve(t, []string{"*"}, http.MethodOptions, "https://app.example.com")
	if called {
		t.Error("preflight should not reach next handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
