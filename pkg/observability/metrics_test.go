package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnAction(ctx, &domain.ActionEvent{Action: "increment", Handled: true})
	hooks.OnAction(ctx, &domain.ActionEvent{Action: "increment", Handled: true})
	hooks.OnAction(ctx, &domain.ActionEvent{Action: "whatever-the-host-sent", Handled: false})
	hooks.OnAction(ctx, &domain.ActionEvent{Action: "set_message", Handled: true, Error: "boom"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("increment", "true", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues(UnknownAction, "false", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("set_message", "true", "error")))

	hooks.OnRender(ctx, &domain.RenderEvent{Route: "/ui", Duration: time.Millisecond})
	hooks.OnRender(ctx, &domain.RenderEvent{Route: "/action", Degraded: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("/ui", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("/action", "true")))

	hooks.OnReload(ctx, &domain.ReloadEvent{Trigger: "api"})
	hooks.OnReload(ctx, &domain.ReloadEvent{Trigger: "watch", Error: "reload failed"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("api", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("watch", "error")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.Hooks().OnReload(context.Background(), &domain.ReloadEvent{Trigger: "api"})

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Reloads.WithLabelValues("api", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Reloads.WithLabelValues("api", "ok")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.Hooks().OnAction(context.Background(), &domain.ActionEvent{Action: "decrement", Handled: true})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `remoteui_actions_total{action="decrement",handled="true",status="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
