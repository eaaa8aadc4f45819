package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reloadCall = `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"reload","arguments":{}}}`

func postMessage(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, PathMessage+"?sessionId=unknown", strings.NewReader(reloadCall))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSSEHandler_RequiresToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		auth  string
	}{
		{"no header", "s3cret", ""},
		{"wrong token", "s3cret", "Bearer nope"},
		{"wrong scheme", "s3cret", "Basic s3cret"},
		{"no token configured", "", "Bearer "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reloader := &fakeReloader{result: "reloaded"}
			srv := NewServer(&fakeEngine{state: domain.NewState()}, reloader, "test", WithToken(tt.token))

			rec := postMessage(srv.SSEHandler("http://localhost:8090"), tt.auth)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Empty(t, reloader.trigger, "reload must not run")
		})
	}
}

func TestSSEHandler_StreamRequiresToken(t *testing.T) {
	srv := NewServer(&fakeEngine{state: domain.NewState()}, &fakeReloader{}, "test", WithToken("s3cret"))
	rec := httptest.NewRecorder()
	srv.SSEHandler("http://localhost:8090").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathSSE, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSSEHandler_AcceptsToken(t *testing.T) {
	srv := NewServer(&fakeEngine{state: domain.NewState()}, &fakeReloader{}, "test", WithToken("s3cret"))

	rec := postMessage(srv.SSEHandler("http://localhost:8090"), "Bearer s3cret")

	// The session is unknown, so the transport rejects it past the auth check.
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestSSEHandler_UnknownPath(t *testing.T) {
	srv := NewServer(&fakeEngine{state: domain.NewState()}, &fakeReloader{}, "test", WithToken("s3cret"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	srv.SSEHandler("http://localhost:8090").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeSSE_InvalidAddr(t *testing.T) {
	srv := NewServer(&fakeEngine{state: domain.NewState()}, &fakeReloader{}, "test", WithToken("s3cret"))
	err := srv.ServeSSE(context.Background(), "no-port")
	require.Error(t, err)
}

func TestServeSSE_NoToken(t *testing.T) {
	srv := NewServer(&fakeEngine{state: domain.NewState()}, &fakeReloader{}, "test")
	err := srv.ServeSSE(context.Background(), "127.0.0.1:0")
	require.ErrorIs(t, err, ErrNoToken)
}
