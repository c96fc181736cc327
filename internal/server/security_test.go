package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/educheia/educheia/internal/httputil"
)

func serveWithSecurity(cfg SecurityConfig, inner http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	securityHeaders(cfg)(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestSecurityHeaders_CSPContainsNonce(t *testing.T) {
	var captured string
	rec := serveWithSecurity(SecurityConfig{BaseURL: "https://educheia.test"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = httputil.Nonce(r.Context())
	}))

	if captured == "" {
		t.Fatal("expected non-empty nonce in context")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-"+captured+"'") {
		t.Errorf("CSP should contain nonce, got: %s", csp)
	}
	if strings.Contains(csp, "'unsafe-inline'") {
		t.Errorf("CSP should not contain 'unsafe-inline', got: %s", csp)
	}
}

func TestSecurityHeaders_AllowsYouTubeEmbed(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	csp := rec.Header().Get("Content-Security-Policy")
	for _, want := range []string{"frame-src https://www.youtube.com", "https://i.ytimg.com", "https://www.youtube.com https://s.ytimg.com"} {
		if !strings.Contains(csp, want) {
			t.Errorf("expected CSP to contain %q, got: %s", want, csp)
		}
	}
	if pp := rec.Header().Get("Permissions-Policy"); !strings.Contains(pp, "fullscreen=") {
		t.Errorf("expected fullscreen permission for the embed, got: %s", pp)
	}
}

func TestSecurityHeaders_ConnectSources(t *testing.T) {
	rec := serveWithSecurity(SecurityConfig{ConnectSources: []string{"https://feed.example.com"}}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "connect-src 'self' https://feed.example.com") {
		t.Errorf("expected connect-src to include the feed origin, got: %s", csp)
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	if rec := serveWithSecurity(SecurityConfig{BaseURL: "https://educheia.test"}, inner); rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS for https base URL")
	}
	if rec := serveWithSecurity(SecurityConfig{BaseURL: "http://localhost:8080"}, inner); rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("expected no HSTS for http base URL")
	}
}
