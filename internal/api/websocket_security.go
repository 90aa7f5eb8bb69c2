package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/rtjson/internal/logging"
)

// wsReadOverhead leaves room for the JSON envelope around the source text.
const wsReadOverhead = 4096

// defaultWSReadLimit applies when no input cap is configured.
const defaultWSReadLimit = 1 << 20

// isOriginAllowed checks origin against the allowed list. Entries match
// exactly, "*" matches anything, and "*.example.com" matches subdomains.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") {
			u, err := url.Parse(origin)
			if err != nil {
				continue
			}
			if strings.HasSuffix(u.Hostname(), allowed[1:]) {
				return true
			}
		}
	}
	return false
}

// checkOrigin validates the Origin of an upgrade request. Without a
// configured list, only clients that send no Origin or a same-host Origin
// are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	var allowed bool
	if len(s.cfg.AllowedOrigins) == 0 {
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		allowed = err == nil && strings.EqualFold(u.Host, r.Host)
	} else {
		allowed = isOriginAllowed(origin, s.cfg.AllowedOrigins)
	}

	if !allowed {
		logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
	}
	return allowed
}

// authenticateWebSocket checks the API key before upgrade. Browsers cannot
// set headers on a WebSocket handshake, so the key may also come from the
// api_key query parameter. It returns a reason on failure.
func (s *Server) authenticateWebSocket(r *http.Request) string {
	if !s.cfg.Auth.Enabled {
		return ""
	}
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		apiKey = r.URL.Query().Get("api_key")
	}
	if apiKey == "" {
		return "missing API key (X-API-Key header or api_key query parameter)"
	}
	if !constantTimeCompare(apiKey, s.cfg.Auth.APIKey) {
		return "invalid API key"
	}
	return ""
}

// handleWebSocket authenticates, upgrades and starts the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if reason := s.authenticateWebSocket(r); reason != "" {
		logging.SecurityEvent("unauthorized_request", "websocket",
			"reason", reason,
			"remote", getClientIP(r))
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", reason)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Warn("websocket upgrade failed", "error", err)
		return
	}

	limit := int64(defaultWSReadLimit)
	if s.enc.MaxInputBytes > 0 {
		limit = int64(s.enc.MaxInputBytes)*2 + wsReadOverhead
	}
	conn.SetReadLimit(limit)

	client := newClient(s.hub, conn, s.cfg.WSMessagesPerSecond)
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	// The request context ends when this handler returns.
	ctx := logging.WithRequestID(context.Background(), logging.GetRequestID(r.Context()))
	go client.writePump()
	go client.readPump(ctx, s)
}
