package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddlewareAllowAll(t *testing.T) {
	handler := CORSMiddleware(CORSConfig{}, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("credentials must not be allowed with a wildcard origin")
	}
}

func TestCORSMiddlewareRestrictedOrigins(t *testing.T) {
	handler := CORSMiddleware(CORSConfig{
		AllowedOrigins: []string{"https://example.com", "https://trusted.com"},
	}, okHandler())

	tests := []struct {
		name            string
		method          string
		origin          string
		wantStatus      int
		wantAllowOrigin string
	}{
		{"allowed origin", http.MethodGet, "https://example.com", http.StatusOK, "https://example.com"},
		{"second allowed origin", http.MethodGet, "https://trusted.com", http.StatusOK, "https://trusted.com"},
		{"disallowed origin", http.MethodGet, "https://evil.com", http.StatusOK, ""},
		{"no origin", http.MethodGet, "", http.StatusOK, ""},
		{"preflight allowed", http.MethodOptions, "https://example.com", http.StatusNoContent, "https://example.com"},
		{"preflight disallowed", http.MethodOptions, "https://evil.com", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/convert", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowOrigin)
			}
			wantCreds := tt.wantAllowOrigin != ""
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != wantCreds {
				t.Errorf("Allow-Credentials set = %v, want %v", got, wantCreds)
			}
		})
	}
}

func TestAbsPath(t *testing.T) {
	got := AbsPath("library")
	if !filepath.IsAbs(got) || filepath.Base(got) != "library" {
		t.Errorf("AbsPath(library) = %q", got)
	}
	if got := AbsPath("/already/abs"); got != "/already/abs" {
		t.Errorf("AbsPath(/already/abs) = %q", got)
	}
}

func TestBuildCSPHeader(t *testing.T) {
	tests := []struct {
		name string
		cfg  CSPConfig
		want string
	}{
		{"empty", CSPConfig{}, ""},
		{"api", APICSPConfig(), "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"},
		{"partial", CSPConfig{DefaultSrc: []string{"'self'", "data:"}}, "default-src 'self' data:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.BuildCSPHeader(); got != tt.want {
				t.Errorf("BuildCSPHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(APICSPConfig(), okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "default-src 'none'") {
		t.Errorf("CSP = %q", w.Header().Get("Content-Security-Policy"))
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"", true},
		{"text/markdown", true},
		{"text/markdown; charset=utf-8", true},
		{"Application/XML", true},
		{"application/x-sexpr", true},
		{"image/png", false},
		{"application/json", false},
	}
	for _, tt := range tests {
		if got := ValidateContentType(tt.contentType, SourceContentTypes); got != tt.want {
			t.Errorf("ValidateContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
