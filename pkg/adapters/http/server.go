package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/remoteui/api"
	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/reload"
	"github.com/aretw0/remoteui/pkg/render"
	"github.com/aretw0/remoteui/pkg/state"
	"github.com/aretw0/remoteui/pkg/ui"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxActionBody caps the size of a POST /action payload.
const MaxActionBody = 1 << 20

// AppName is reported by GET /info.
const AppName = "remoteui-http"

// Routes served besides the fallback 404.
const (
	RouteUI     = "/ui"
	RouteAction = "/action"
)

// Bindings gives request handling shared access to the live rendering code.
// *reload.Controller implements it.
type Bindings interface {
	Use(fn func(*reload.Bindings) error) error
	Current() *reload.Bindings
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the host-facing endpoints.
type Server struct {
	Bindings   Bindings
	Store      *state.Store
	Dispatcher ports.ActionDispatcher
	Streams    *StreamManager

	hooks   domain.LifecycleHooks
	metrics http.Handler
	version string
	doc     *openapi3.T
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks for actions and renders.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = hooks
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer wires a Server. It fails only when the embedded OpenAPI
// document is invalid.
func NewServer(bindings Bindings, store *state.Store, dispatcher ports.ActionDispatcher, opts ...Option) (*Server, error) {
	doc, err := api.Load(context.Background())
	if err != nil {
		return nil, err
	}
	s := &Server{
		Bindings:   bindings,
		Store:      store,
		Dispatcher: dispatcher,
		Streams:    NewStreamManager(),
		version:    "dev",
		doc:        doc,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s, nil
}

// NewHandler creates the HTTP handler.
func NewHandler(bindings Bindings, store *state.Store, dispatcher ports.ActionDispatcher, opts ...Option) (http.Handler, error) {
	s, err := NewServer(bindings, store, dispatcher, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

// Routes builds the chi router. Unknown paths and methods get 404 with an
// empty body.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.NotFound(emptyNotFound)
	r.MethodNotAllowed(emptyNotFound)

	r.Get(RouteUI, s.GetUI)
	r.Post(RouteAction, s.PostAction)

	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.Raw())
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/v1/agent/execute", s.ExecuteAgent)
	r.Post("/v1/completion/inline", s.InlineCompletion)
	return r
}

func emptyNotFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

// Render renders the current state with the live bindings. The tree is
// never nil; a non-nil error means it is the degraded error tree. route
// labels the lifecycle event.
func (s *Server) Render(ctx context.Context, route string) (*ui.Node, error) {
	start := time.Now()
	var node *ui.Node
	var renderErr error
	_ = s.Bindings.Use(func(b *reload.Bindings) error {
		return s.Store.View(func(st domain.State) error {
			node, renderErr = render.Safely(ctx, rendererOf(b), st)
			return nil
		})
	})
	s.emitRender(ctx, route, start, renderErr != nil)
	return node, renderErr
}

// Apply dispatches act and renders the resulting state as one unit: no
// other mutation can interleave between the two. Unknown actions and
// failing handlers leave state unchanged. The returned tree is never nil;
// a non-nil error means it is the degraded error tree.
func (s *Server) Apply(ctx context.Context, route string, act domain.Action) (*ui.Node, error) {
	start := time.Now()
	var (
		node      *ui.Node
		handled   bool
		applyErr  error
		renderErr error
	)
	_ = s.Bindings.Use(func(b *reload.Bindings) error {
		return s.Store.Update(func(st *domain.State) error {
			before := *st
			handled, applyErr = s.Dispatcher.Apply(st, act)
			node, renderErr = render.Safely(ctx, rendererOf(b), *st)
			// Broadcast never blocks, so diffs leave in mutation order.
			s.publishDiff(&before, st)
			return nil
		})
	})

	s.emitAction(ctx, act, handled, applyErr)
	switch {
	case applyErr != nil:
		s.logger.Warn("Action handler failed, state unchanged", "action", act.Name, "err", applyErr)
	case !handled:
		s.logger.Debug("No handler for action, ignoring", "action", act.Name)
	}
	s.emitRender(ctx, route, start, renderErr != nil)
	return node, renderErr
}

func (s *Server) publishDiff(before, after *domain.State) {
	diff := domain.Diff(before, after)
	if diff.IsEmpty() {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Warn("State diff encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(string(data))
}

func rendererOf(b *reload.Bindings) ports.Renderer {
	if b == nil {
		return nil
	}
	return b.Renderer
}

// GetUI handles GET /ui. It never fails: a broken renderer yields the
// degraded error tree with status 200.
func (s *Server) GetUI(w http.ResponseWriter, r *http.Request) {
	node, err := s.Render(r.Context(), RouteUI)
	if err != nil {
		s.logger.Warn("GET /ui: serving degraded tree", "err", err)
	}
	writeJSONBytes(w, http.StatusOK, s.encodeTree(RouteUI, node))
}

// PostAction handles POST /action. Malformed framing or payload yields 500
// with an empty body.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength < 0 {
		s.logger.Warn("POST /action: missing content length")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxActionBody))
	if err != nil {
		s.logger.Warn("POST /action: read failed", "err", err, "too_large", isMaxBytes(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	act, err := domain.ParseAction(body)
	if err != nil {
		s.logger.Warn("POST /action: malformed payload", "err", err, "size", len(body))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	node, err := s.Apply(r.Context(), RouteAction, act)
	if err != nil {
		s.logger.Warn("POST /action: serving degraded tree", "err", err)
	}
	writeJSONBytes(w, http.StatusOK, s.encodeTree(RouteAction, node))
}

// encodeTree returns the wire form of node, or of the error tree when node
// cannot be encoded. The state change behind node is already committed.
func (s *Server) encodeTree(route string, node *ui.Node) []byte {
	payload, err := json.Marshal(node)
	if err != nil {
		s.logger.Error("Encode failed, serving degraded tree", "route", route, "err", err)
		payload, _ = json.Marshal(render.ErrorNode(err))
	}
	return payload
}

func (s *Server) emitRender(ctx context.Context, route string, start time.Time, degraded bool) {
	if s.hooks.OnRender == nil {
		return
	}
	s.hooks.OnRender(ctx, &domain.RenderEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRender},
		Route:     route,
		Duration:  time.Since(start),
		Degraded:  degraded,
	})
}

func (s *Server) emitAction(ctx context.Context, act domain.Action, handled bool, err error) {
	if s.hooks.OnAction == nil {
		return
	}
	e := &domain.ActionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAction},
		Action:    act.Name,
		Handled:   handled,
	}
	if err != nil {
		e.Error = err.Error()
	}
	s.hooks.OnAction(ctx, e)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	resp := map[string]string{
		"app":         AppName,
		"version":     s.version,
		"api_version": apiVersion,
	}
	if b := s.Bindings.Current(); b != nil {
		resp["bindings_id"] = b.ID
		resp["bindings_source"] = b.Source
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSONBytes(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSONBytes(w, status, data)
}

func isMaxBytes(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
