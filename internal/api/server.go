// Package api serves conversions and the document library over HTTP and
// WebSocket.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/FocuswithJustin/rtjson/internal/config"
	"github.com/FocuswithJustin/rtjson/internal/library"
	"github.com/FocuswithJustin/rtjson/internal/logging"
	"github.com/FocuswithJustin/rtjson/internal/server"
)

// shutdownTimeout bounds graceful shutdown once the context is done.
const shutdownTimeout = 10 * time.Second

// Server holds everything a request handler needs.
type Server struct {
	cfg     config.ServerConfig
	enc     config.EncodingConfig
	lib     *library.Library
	hub     *Hub
	limiter *RateLimiter
	version string
	started time.Time
}

// New builds a server over lib. Run starts it.
func New(cfg config.Config, lib *library.Library, version string) *Server {
	s := &Server{
		cfg:     cfg.Server,
		enc:     cfg.Encoding,
		lib:     lib,
		hub:     NewHub(),
		version: version,
		started: time.Now(),
	}
	if cfg.Server.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.Server.RateLimitRequests,
			BurstSize:         cfg.Server.RateLimitBurst,
		})
	}
	return s
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/convert", s.handleConvert)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentByID)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// Handler returns the routes wrapped in the middleware chain. From the
// outside in: request logging, CORS, rate limiting, authentication and
// security headers.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = server.SecurityHeaders(server.APICSPConfig(), s.routes())
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORSMiddleware(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	return logging.CombinedMiddleware(handler)
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.TLS.Enabled {
		if _, err := os.Stat(s.cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(s.cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.hub.Run(ctx)
	if s.limiter != nil {
		defer s.limiter.Close()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: seconds(s.cfg.ReadTimeoutSeconds),
		ReadTimeout:       seconds(s.cfg.ReadTimeoutSeconds),
		WriteTimeout:      seconds(s.cfg.WriteTimeoutSeconds),
	}

	protocol, wsProtocol := "http", "ws"
	if s.cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "use TLS or a reverse proxy outside localhost")
	}
	logging.ServerStartup("rest_api", protocol, ln.Addr().String(),
		"websocket_protocol", wsProtocol,
		"library_dir", server.AbsPath(s.lib.Dir()),
		"auth", s.cfg.Auth.Enabled,
		"rate_limit_per_minute", s.cfg.RateLimitRequests)

	errCh := make(chan error, 1)
	go func() {
		if s.cfg.TLS.Enabled {
			errCh <- srv.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			errCh <- srv.Serve(ln)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
