package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/remoteui/pkg/dispatch"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/observability"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/reload"
	"github.com/aretw0/remoteui/pkg/render"
	"github.com/aretw0/remoteui/pkg/state"
	"github.com/aretw0/remoteui/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server     *Server
	handler    http.Handler
	controller *reload.Controller
	store      *state.Store
}

func newFixture(t *testing.T, loader reload.Loader, opts ...Option) *fixture {
	t.Helper()
	if loader == nil {
		loader = reload.BuiltinLoader{}
	}
	ctrl, err := reload.NewController(context.Background(), loader)
	require.NoError(t, err)
	store := state.NewStore()
	srv, err := NewServer(ctrl, store, dispatch.New(), opts...)
	require.NoError(t, err)
	return &fixture{server: srv, handler: srv.Routes(), controller: ctrl, store: store}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) action(t *testing.T, name string) *ui.Node {
	t.Helper()
	w := f.do(http.MethodPost, RouteAction, fmt.Sprintf(`{"action":%q}`, name))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return parseTree(t, w.Body.Bytes())
}

func parseTree(t *testing.T, data []byte) *ui.Node {
	t.Helper()
	n, err := ui.Parse(data)
	require.NoError(t, err)
	return n
}

// countLabel extracts the second Text of the home screen.
func countLabel(t *testing.T, root *ui.Node) string {
	t.Helper()
	require.Equal(t, ui.KindScaffold, root.Kind)
	column := root.Children()[0]
	require.Equal(t, ui.KindColumn, column.Kind)
	return column.Children()[1].String("text")
}

func TestGetUI_InitialScreen(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, RouteUI, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	root := parseTree(t, w.Body.Bytes())
	children := root.Children()[0].Children()
	require.Len(t, children, 4)

	assert.Equal(t, ui.KindText, children[0].Kind)
	assert.Equal(t, "Hello from Python!", children[0].String("text"))
	size, _ := children[0].Get("fontSize")
	assert.Equal(t, 24, size)
	assert.Equal(t, "Count: 0", children[1].String("text"))
	size, _ = children[1].Get("fontSize")
	assert.Equal(t, 48, size)
	assert.Equal(t, ui.KindButton, children[2].Kind)
	assert.Equal(t, "Increment", children[2].String("text"))
	assert.Equal(t, ui.KindButton, children[3].Kind)
	assert.Equal(t, "Decrement", children[3].String("text"))
}

func TestPostAction_Scenario(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, "Count: 1", countLabel(t, f.action(t, "increment")))
	assert.Equal(t, "Count: 2", countLabel(t, f.action(t, "increment")))
	assert.Equal(t, "Count: 1", countLabel(t, f.action(t, "decrement")))

	w := f.do(http.MethodGet, RouteUI, "")
	assert.Equal(t, "Count: 1", countLabel(t, parseTree(t, w.Body.Bytes())))
}

func TestPostAction_NetSum(t *testing.T) {
	f := newFixture(t, nil)
	seq := []string{"increment", "decrement", "decrement", "decrement", "increment", "increment", "decrement"}

	want := 0
	for _, name := range seq {
		if name == "increment" {
			want++
		} else {
			want--
		}
		assert.Equal(t, fmt.Sprintf("Count: %d", want), countLabel(t, f.action(t, name)))
	}
	assert.Equal(t, want, f.store.Snapshot().Counter)
}

func TestGetUI_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.action(t, "increment")

	first := f.do(http.MethodGet, RouteUI, "")
	second := f.do(http.MethodGet, RouteUI, "")
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, 1, f.store.Snapshot().Counter, "GET must not mutate")
}

func TestPostAction_UnknownActionIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	f.action(t, "increment")
	before := f.do(http.MethodGet, RouteUI, "").Body.String()

	for _, body := range []string{`{"action":"no_op"}`, `{}`, `{"action":42}`, `{"other":"field"}`} {
		w := f.do(http.MethodPost, RouteAction, body)
		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, before, w.Body.String(), body)
	}
	assert.Equal(t, 1, f.store.Snapshot().Counter)
}

func TestPostAction_ExtraFieldsIgnored(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodPost, RouteAction, `{"action":"increment","source":"button","n":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Count: 1", countLabel(t, parseTree(t, w.Body.Bytes())))
}

func TestPostAction_Malformed(t *testing.T) {
	f := newFixture(t, nil)

	cases := map[string]string{
		"invalid json": `{"action":`,
		"array":        `["increment"]`,
		"string":       `"increment"`,
		"null":         `null`,
		"empty":        ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, RouteAction, strings.NewReader(body))
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Empty(t, w.Body.String())
		})
	}

	t.Run("unknown length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, RouteAction, strings.NewReader(`{"action":"increment"}`))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("too large", func(t *testing.T) {
		body := `{"action":"increment","pad":"` + strings.Repeat("x", MaxActionBody) + `"}`
		w := f.do(http.MethodPost, RouteAction, body)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Body.String())
	})

	assert.Equal(t, 0, f.store.Snapshot().Counter)
}

func TestUnknownRoutes(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/nope"},
		{http.MethodPost, "/nope"},
		{http.MethodPost, RouteUI},
		{http.MethodPut, RouteUI},
		{http.MethodGet, RouteAction},
		{http.MethodDelete, RouteAction},
	}
	for _, tc := range cases {
		w := f.do(tc.method, tc.path, `{"action":"increment"}`)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.Empty(t, w.Body.String(), "%s %s", tc.method, tc.path)
	}
	assert.Equal(t, 0, f.store.Snapshot().Counter)
}

func TestSetMessage(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, RouteAction, `{"action":"set_message","value":"hi\u0007 there"}`)
	require.Equal(t, http.StatusOK, w.Code)
	root := parseTree(t, w.Body.Bytes())
	assert.Equal(t, "hi there", root.Children()[0].Children()[0].String("text"))

	// A failing handler leaves state untouched but still answers 200.
	w = f.do(http.MethodPost, RouteAction, `{"action":"set_message"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi there", f.store.Snapshot().Message)
}

// flakyLoader binds a renderer that fails while broken is set.
func flakyLoader(broken *atomic.Bool) reload.Loader {
	return reload.LoaderFunc(func(context.Context) (*reload.Bindings, error) {
		r := ports.RendererFunc(func(ctx context.Context, s domain.State) (*ui.Node, error) {
			if broken.Load() {
				return nil, errors.New("bad format string")
			}
			return render.Home{}.Render(ctx, s)
		})
		return &reload.Bindings{Source: "flaky", Catalog: ui.DefaultCatalog(), Renderer: r}, nil
	})
}

func TestRenderFailure_Degrades(t *testing.T) {
	var broken atomic.Bool
	f := newFixture(t, flakyLoader(&broken))
	broken.Store(true)

	for _, tc := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPost, `{"action":"increment"}`},
	} {
		path := RouteUI
		if tc.method == http.MethodPost {
			path = RouteAction
		}
		w := f.do(tc.method, path, tc.body)
		require.Equal(t, http.StatusOK, w.Code)

		root := parseTree(t, w.Body.Bytes())
		assert.Equal(t, ui.KindText, root.Kind)
		assert.Equal(t, "Render error: bad format string", root.String("text"))
		assert.Equal(t, render.ErrorColor, root.String("color"))
	}

	// The mutation still happened.
	broken.Store(false)
	w := f.do(http.MethodGet, RouteUI, "")
	assert.Equal(t, "Count: 1", countLabel(t, parseTree(t, w.Body.Bytes())))
}

func TestRenderFailure_UnencodableTreeDegrades(t *testing.T) {
	loader := reload.LoaderFunc(func(context.Context) (*reload.Bindings, error) {
		r := ports.RendererFunc(func(ctx context.Context, s domain.State) (*ui.Node, error) {
			if s.Counter > 0 {
				return ui.Text(ui.TextProps{Text: s.CountLabel()}).Set("font_size", math.NaN()), nil
			}
			return render.Home{}.Render(ctx, s)
		})
		return &reload.Bindings{Source: "nan", Catalog: ui.DefaultCatalog(), Renderer: r}, nil
	})
	f := newFixture(t, loader)

	w := f.do(http.MethodPost, RouteAction, `{"action":"increment"}`)
	require.Equal(t, http.StatusOK, w.Code)
	root := parseTree(t, w.Body.Bytes())
	assert.Equal(t, render.ErrorColor, root.String("color"))
	assert.Contains(t, root.String("text"), "NaN")
	assert.Equal(t, 1, f.store.Snapshot().Counter)

	w = f.do(http.MethodGet, RouteUI, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ErrorColor, parseTree(t, w.Body.Bytes()).String("color"))
}

func TestReload_PreservesState(t *testing.T) {
	f := newFixture(t, nil)
	f.action(t, "increment")
	f.action(t, "increment")
	before := f.controller.Current().ID

	assert.Equal(t, reload.ResultOK, f.controller.Reload(context.Background()))
	assert.NotEqual(t, before, f.controller.Current().ID)

	w := f.do(http.MethodGet, RouteUI, "")
	assert.Equal(t, "Count: 2", countLabel(t, parseTree(t, w.Body.Bytes())))
	assert.Equal(t, "Count: 3", countLabel(t, f.action(t, "increment")))
}

func TestPostAction_ConcurrentResponsesAreConsistent(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	const n = 40
	labels := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+RouteAction, "application/json", bytes.NewBufferString(`{"action":"increment"}`))
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			if !assert.NoError(t, err) {
				return
			}
			root, err := ui.Parse(data)
			if !assert.NoError(t, err) {
				return
			}
			labels <- root.Children()[0].Children()[1].String("text")
		}()
	}
	wg.Wait()
	close(labels)

	// Every response reflects exactly the state its own mutation produced.
	seen := make(map[string]bool)
	for l := range labels {
		assert.False(t, seen[l], "duplicate %s", l)
		seen[l] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, f.store.Snapshot().Counter)
}

func TestLifecycleHooks(t *testing.T) {
	var (
		mu      sync.Mutex
		actions []*domain.ActionEvent
		renders []*domain.RenderEvent
	)
	hooks := domain.LifecycleHooks{
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			mu.Lock()
			defer mu.Unlock()
			actions = append(actions, e)
		},
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			mu.Lock()
			defer mu.Unlock()
			renders = append(renders, e)
		},
	}
	f := newFixture(t, nil, WithLifecycleHooks(hooks))

	f.action(t, "increment")
	f.action(t, "no_op")
	f.do(http.MethodGet, RouteUI, "")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, actions, 2)
	assert.True(t, actions[0].Handled)
	assert.Equal(t, "increment", actions[0].Action)
	assert.False(t, actions[1].Handled)

	require.Len(t, renders, 3)
	assert.Equal(t, RouteAction, renders[0].Route)
	assert.Equal(t, RouteUI, renders[2].Route)
	assert.False(t, renders[2].Degraded)
}

func TestAuxiliaryRoutes(t *testing.T) {
	metrics := observability.NewMetrics()
	f := newFixture(t, nil,
		WithVersion("1.2.3"),
		WithMetrics(metrics.Handler()),
		WithLifecycleHooks(metrics.Hooks()),
	)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, AppName, info["app"])
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, f.controller.Current().ID, info["bindings_id"])
	assert.Equal(t, reload.BuiltinSource, info["bindings_source"])

	w = f.do(http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	f.action(t, "increment")
	w = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `remoteui_actions_total{action="increment",handled="true",status="ok"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return f.server.Streams.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	f.action(t, "increment")
	f.action(t, "no_op")
	require.Equal(t, reload.ResultOK, f.controller.Reload(context.Background()))
	newID := f.controller.Current().ID

	// Give the stream a moment to drain before disconnecting.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	out := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, out, "event: ping\ndata: connected\n\n")
	assert.Contains(t, out, "event: state\ndata: {\"fields\":{\"counter\":1}}\n\n")
	assert.Contains(t, out, "event: reload\ndata: "+newID+"\n\n")
	assert.Equal(t, 1, strings.Count(out, "event: state"), "no diff for a no-op action")
	assert.Equal(t, 0, f.server.Streams.Subscribers())
}

func TestSubscribeEvents_WatchFilter(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events?watch=message", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(w, req)
	}()
	require.Eventually(t, func() bool { return f.server.Streams.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	f.action(t, "increment")
	f.do(http.MethodPost, RouteAction, `{"action":"set_message","value":"changed"}`)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	out := w.Body.String()
	assert.NotContains(t, out, `"counter"`)
	assert.Contains(t, out, `{"fields":{"message":"changed"}}`)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe()

	for i := 0; i < 20; i++ {
		sm.Broadcast(fmt.Sprint(i))
	}
	assert.Len(t, ch, 10)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers())
}

func TestApply_DiffsFollowMutationOrder(t *testing.T) {
	f := newFixture(t, nil)
	events, cancel := f.server.Streams.Subscribe()
	defer cancel()

	const posts = 40
	var seen []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range events {
			var diff domain.StateDiff
			if err := json.Unmarshal([]byte(msg), &diff); err != nil {
				continue
			}
			if v, ok := diff.Fields["counter"].(float64); ok {
				seen = append(seen, int(v))
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.do(http.MethodPost, RouteAction, `{"action":"increment"}`)
		}()
	}
	wg.Wait()
	cancel()
	<-done

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1], seen[i], "diffs out of order: %v", seen)
	}
	assert.Equal(t, posts, f.store.Snapshot().Counter)
}
