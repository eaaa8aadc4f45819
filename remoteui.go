package remoteui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/remoteui/internal/logging"
	httpAdapter "github.com/aretw0/remoteui/pkg/adapters/http"
	"github.com/aretw0/remoteui/pkg/dispatch"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/observability"
	"github.com/aretw0/remoteui/pkg/reload"
	"github.com/aretw0/remoteui/pkg/state"
	"github.com/aretw0/remoteui/pkg/ui"
)

// RouteAPI labels render events caused by direct Go API calls.
const RouteAPI = "api"

// App is the high-level entry point: state, dispatcher, reloadable
// bindings and the HTTP handler wired together.
type App struct {
	loader      reload.Loader
	initial     *domain.State
	handlers    map[string]dispatch.Handler
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	scriptDir   string
	scriptLimit time.Duration

	store      *state.Store
	dispatcher *dispatch.Dispatcher
	controller *reload.Controller
	metrics    *observability.Metrics
	server     *httpAdapter.Server
	handler    http.Handler
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLoader injects a custom bindings Loader. It takes precedence over
// WithScripts.
func WithLoader(l reload.Loader) Option {
	return func(a *App) {
		a.loader = l
	}
}

// WithScripts renders with the *.js files of dir instead of the built-in
// screen. timeout bounds each evaluation; zero keeps the default.
func WithScripts(dir string, timeout time.Duration) Option {
	return func(a *App) {
		a.scriptDir = dir
		a.scriptLimit = timeout
	}
}

// WithInitialState replaces the state the App starts with.
func WithInitialState(s domain.State) Option {
	return func(a *App) {
		a.initial = &s
	}
}

// WithHandler registers an action handler besides the built-in ones.
func WithHandler(name string, h dispatch.Handler) Option {
	return func(a *App) {
		a.handlers[name] = h
	}
}

// WithLifecycleHooks registers observability hooks. They run after the
// built-in metrics hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New builds an App and performs the initial load of the bindings.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{
		handlers: make(map[string]dispatch.Handler),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.loader == nil {
		a.loader = reload.BuiltinLoader{}
		if a.scriptDir != "" {
			a.loader = &reload.ScriptLoader{Dir: a.scriptDir, Timeout: a.scriptLimit, Logger: a.logger}
		}
	}

	storeOpts := []state.Option{state.WithLogger(a.logger)}
	if a.initial != nil {
		storeOpts = append(storeOpts, state.WithInitial(*a.initial))
	}
	a.store = state.NewStore(storeOpts...)

	dispatchOpts := []dispatch.Option{dispatch.WithLogger(a.logger)}
	for name, h := range a.handlers {
		dispatchOpts = append(dispatchOpts, dispatch.WithHandler(name, h))
	}
	a.dispatcher = dispatch.New(dispatchOpts...)

	a.metrics = observability.NewMetrics()
	hooks := a.metrics.Hooks().Merge(a.hooks)

	controller, err := reload.NewController(ctx, a.loader,
		reload.WithLogger(a.logger),
		reload.WithLifecycleHooks(hooks),
		reload.WithTrialState(a.store.Snapshot),
	)
	if err != nil {
		return nil, err
	}
	a.controller = controller

	server, err := httpAdapter.NewServer(controller, a.store, a.dispatcher,
		httpAdapter.WithLogger(a.logger),
		httpAdapter.WithLifecycleHooks(hooks),
		httpAdapter.WithMetrics(a.metrics.Handler()),
		httpAdapter.WithVersion(Version),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build http server: %w", err)
	}
	a.server = server
	a.handler = server.Routes()
	return a, nil
}

// Handler serves GET /ui, POST /action and the auxiliary routes.
func (a *App) Handler() http.Handler {
	return a.handler
}

// RenderUI renders the current state. The tree is never nil; a non-nil
// error means it is the degraded error tree.
func (a *App) RenderUI(ctx context.Context) (*ui.Node, error) {
	return a.server.Render(ctx, RouteAPI)
}

// Dispatch applies act and renders the result as one unit.
func (a *App) Dispatch(ctx context.Context, act domain.Action) (*ui.Node, error) {
	return a.server.Apply(ctx, RouteAPI, act)
}

// Reload rebinds the rendering code and returns "OK" or the failure message.
// State is never reset.
func (a *App) Reload(ctx context.Context) string {
	return a.controller.Reload(ctx)
}

// Watch streams the ID of every bindings generation that goes live.
func (a *App) Watch(ctx context.Context) (<-chan string, error) {
	return a.controller.Watch(ctx)
}

// State returns a snapshot of the application state.
func (a *App) State() domain.State {
	return a.store.Snapshot()
}

// Controller exposes the reload controller.
func (a *App) Controller() *reload.Controller {
	return a.controller
}

// Store exposes the state store.
func (a *App) Store() *state.Store {
	return a.store
}

// Server exposes the HTTP adapter, which also implements the MCP engine.
func (a *App) Server() *httpAdapter.Server {
	return a.server
}

// Metrics exposes the Prometheus collectors.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}
