package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/ui"
	"github.com/dop251/goja"
)

// DefaultScriptTimeout bounds a single script evaluation or render call.
const DefaultScriptTimeout = 2 * time.Second

// ErrScriptTimeout is the interrupt reason for evaluations that run too long.
var ErrScriptTimeout = errors.New("script timed out")

// Source is one JavaScript module evaluated by a Script.
type Source struct {
	Name string
	Code string
}

// ScriptError reports a failure inside a render script.
type ScriptError struct {
	Script string
	Cause  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Script, e.Cause)
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// Script renders by calling the global render(state) function defined by a
// set of JavaScript sources.
//
// Scripts see a global "ui" object with one constructor per catalog kind
// (ui.Text({text: "hi", font_size: 24})), ui.node(kind, props) for kinds the
// catalog does not declare, and ui.define(kind, fields) to declare new ones.
// log(...) writes to the structured logger.
//
// A goja runtime is single threaded, so calls are serialized.
type Script struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	render  goja.Callable
	catalog *ui.Catalog
	name    string
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Renderer = (*Script)(nil)

// ScriptOption configures a Script.
type ScriptOption func(*Script)

// WithTimeout overrides DefaultScriptTimeout.
func WithTimeout(d time.Duration) ScriptOption {
	return func(s *Script) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used by log(...) and for diagnostics.
func WithLogger(logger *slog.Logger) ScriptOption {
	return func(s *Script) {
		s.logger = logger
	}
}

// NewScript evaluates sources in order in a fresh runtime bound to catalog.
// The catalog may be extended by ui.define calls; pass a clone when it is shared.
func NewScript(ctx context.Context, catalog *ui.Catalog, sources []Source, opts ...ScriptOption) (*Script, error) {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name)
	}

	s := &Script{
		vm:      goja.New(),
		catalog: catalog,
		name:    strings.Join(names, ","),
		timeout: DefaultScriptTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("script", s.name)

	if err := s.install(); err != nil {
		return nil, &ScriptError{Script: s.name, Cause: err}
	}

	for _, src := range sources {
		prog, err := goja.Compile(src.Name, src.Code, false)
		if err != nil {
			return nil, wrapScriptError(err, src.Name)
		}
		if err := s.guard(ctx, func() error {
			_, err := s.vm.RunProgram(prog)
			return err
		}); err != nil {
			return nil, wrapScriptError(err, src.Name)
		}
	}

	fn, ok := goja.AssertFunction(s.vm.Get("render"))
	if !ok {
		return nil, &ScriptError{Script: s.name, Cause: domain.ErrNoRenderFunc}
	}
	s.render = fn
	return s, nil
}

// Name lists the evaluated sources.
func (s *Script) Name() string {
	return s.name
}

// Catalog returns the catalog the script builds nodes with.
func (s *Script) Catalog() *ui.Catalog {
	return s.catalog
}

// Render implements ports.Renderer.
func (s *Script) Render(ctx context.Context, state domain.State) (*ui.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result goja.Value
	err := s.guard(ctx, func() error {
		var err error
		result, err = s.render(goja.Undefined(), s.vm.ToValue(state.Fields()))
		return err
	})
	if err != nil {
		return nil, wrapScriptError(err, s.name)
	}

	node, err := s.toNode(result)
	if err != nil {
		return nil, &ScriptError{Script: s.name, Cause: err}
	}
	return node, nil
}

// guard runs fn with the timeout and ctx wired to vm.Interrupt, and turns Go
// panics raised by host functions into errors.
func (s *Script) guard(ctx context.Context, fn func() error) (err error) {
	timer := time.AfterFunc(s.timeout, func() {
		s.vm.Interrupt(ErrScriptTimeout)
	})

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			s.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	defer func() {
		timer.Stop()
		close(done)
		<-exited
		s.vm.ClearInterrupt()
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	return fn()
}

func (s *Script) toNode(v goja.Value) (*ui.Node, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, errors.New("render returned nothing")
	}
	switch out := v.Export().(type) {
	case *ui.Node:
		if out == nil {
			return nil, errors.New("render returned a nil node")
		}
		return out, nil
	case map[string]any:
		// Plain {type, properties} objects are accepted in wire form.
		data, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return ui.Parse(data)
	default:
		return nil, fmt.Errorf("render returned %T, want a node", out)
	}
}

func (s *Script) install() error {
	uiObj := s.vm.NewObject()
	for _, kind := range s.catalog.Kinds() {
		if err := uiObj.Set(kind, s.constructor(kind)); err != nil {
			return err
		}
	}

	if err := uiObj.Set("node", func(call goja.FunctionCall) goja.Value {
		kind, ok := call.Argument(0).Export().(string)
		if !ok || kind == "" {
			panic(s.vm.NewTypeError("ui.node: kind must be a non-empty string"))
		}
		return s.vm.ToValue(s.catalog.Build(kind, s.props(call.Argument(1))...))
	}); err != nil {
		return err
	}

	if err := uiObj.Set("define", func(call goja.FunctionCall) goja.Value {
		kind, ok := call.Argument(0).Export().(string)
		if !ok || kind == "" {
			panic(s.vm.NewTypeError("ui.define: kind must be a non-empty string"))
		}
		fields, err := parseFields(call.Argument(1).Export())
		if err != nil {
			panic(s.vm.NewTypeError("ui.define: " + err.Error()))
		}
		s.catalog.Define(kind, fields...)
		if err := uiObj.Set(kind, s.constructor(kind)); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := s.vm.Set("ui", uiObj); err != nil {
		return err
	}

	logFn := func(call goja.FunctionCall) goja.Value {
		s.logger.Info(formatLogMessage(call.Arguments))
		return goja.Undefined()
	}
	if err := s.vm.Set("log", logFn); err != nil {
		return err
	}
	console := s.vm.NewObject()
	if err := console.Set("log", logFn); err != nil {
		return err
	}
	return s.vm.Set("console", console)
}

func (s *Script) constructor(kind string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return s.vm.ToValue(s.catalog.Build(kind, s.props(call.Argument(0))...))
	}
}

// props reads a JS object into ordered props, skipping undefined values.
func (s *Script) props(v goja.Value) []ui.Prop {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj := v.ToObject(s.vm)
	keys := obj.Keys()
	out := make([]ui.Prop, 0, len(keys))
	for _, k := range keys {
		val := obj.Get(k)
		if val == nil || goja.IsUndefined(val) {
			continue
		}
		out = append(out, ui.Prop{Name: k, Value: val.Export()})
	}
	return out
}

// parseFields accepts ["text", {name: "size", default: 14, required: false}].
func parseFields(v any) ([]ui.Field, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("fields must be an array, got %T", v)
	}
	fields := make([]ui.Field, 0, len(items))
	for i, item := range items {
		switch f := item.(type) {
		case string:
			fields = append(fields, ui.Field{Name: f})
		case map[string]any:
			name, _ := f["name"].(string)
			if name == "" {
				return nil, fmt.Errorf("field %d has no name", i)
			}
			required, _ := f["required"].(bool)
			fields = append(fields, ui.Field{Name: name, Default: f["default"], Required: required})
		default:
			return nil, fmt.Errorf("field %d: unsupported %T", i, item)
		}
	}
	return fields, nil
}

func formatLogMessage(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, " ")
}

// wrapScriptError converts goja errors to ScriptError.
func wrapScriptError(err error, scriptName string) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		cause, ok := interrupted.Value().(error)
		if !ok {
			cause = fmt.Errorf("interrupted: %v", interrupted.Value())
		}
		return &ScriptError{Script: scriptName, Cause: cause}
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return &ScriptError{Script: scriptName, Cause: fmt.Errorf("exception: %s", exception.Value().String())}
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return &ScriptError{Script: scriptName, Cause: fmt.Errorf("syntax error: %s", syntax.Error())}
	}

	return &ScriptError{Script: scriptName, Cause: err}
}
