package mcp

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
)

// SSE endpoint paths.
const (
	PathSSE     = "/sse"
	PathMessage = "/message"
)

// ErrNoToken is returned by ServeSSE when no bearer token is configured.
var ErrNoToken = errors.New("mcp sse transport requires a token")

// SSEHandler serves the MCP SSE transport. baseURL is advertised to clients
// as the prefix of the message endpoint. Every request must carry
// "Authorization: Bearer <token>"; without a configured token all requests
// are refused.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sse := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint(PathSSE),
		server.WithMessageEndpoint(PathMessage),
	)

	r := chi.NewRouter()
	r.Use(s.requireToken)
	r.Handle(PathSSE, sse.SSEHandler())
	r.Handle(PathMessage, sse.MessageHandler())
	return r
}

// ServeSSE listens on addr until ctx is done, then shuts down within 5s.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	if s.token == "" {
		return ErrNoToken
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid mcp address %q: %w", addr, err)
	}
	if host == "" {
		host = "localhost"
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.SSEHandler(fmt.Sprintf("http://%s", net.JoinHostPort(host, port))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop mcp server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.logger.Warn("mcp request rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="remoteui-mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return false
	}
	scheme, provided, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	// Hashing first keeps the comparison length-independent.
	want := sha256.Sum256([]byte(s.token))
	got := sha256.Sum256([]byte(strings.TrimSpace(provided)))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}
