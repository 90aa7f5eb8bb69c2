package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/FocuswithJustin/rtjson/internal/config"
	"github.com/FocuswithJustin/rtjson/internal/logging"
)

// AuthMiddleware checks for API key authentication when enabled.
// Requests must carry the key in the X-API-Key header. Public endpoints
// (/, /health) always bypass authentication, and /ws authenticates in its
// own handler.
func AuthMiddleware(authCfg config.AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health and root stay open; /ws checks its own key so that
		// browsers can pass it as a query parameter
		if !authCfg.Enabled || isPublicEndpoint(r.URL.Path) || r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		// Auth is enabled, so the key header is mandatory
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "missing API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
			return
		}
		// Compare in constant time so the key cannot be guessed byte by byte
		if !constantTimeCompare(apiKey, authCfg.APIKey) {
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "invalid API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
			return
		}

		// Valid key
		next.ServeHTTP(w, r)
	})
}

// isPublicEndpoint reports whether path is reachable without a key.
func isPublicEndpoint(path string) bool {
	return path == "/" || path == "/health"
}

// constantTimeCompare compares two strings without leaking where they
// differ through timing.
func constantTimeCompare(a, b string) bool {
	// Inputs of different length compare unequal without an early exit
	// on content
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
