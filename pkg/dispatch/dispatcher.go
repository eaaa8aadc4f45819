// Package dispatch maps host actions to state mutations.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// ErrMissingValue is returned by handlers that require a "value" argument.
var ErrMissingValue = errors.New("action requires a string value")

// Handler mutates state in response to an action.
type Handler func(state *domain.State, action domain.Action) error

// Dispatcher routes actions to handlers by name.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

var _ ports.ActionDispatcher = (*Dispatcher)(nil)

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithHandler registers an extra handler, replacing any built-in of the same name.
func WithHandler(name string, h Handler) Option {
	return func(d *Dispatcher) {
		d.handlers[name] = h
	}
}

// WithLogger configures a logger for the Dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher with the built-in handlers registered.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: map[string]Handler{
			domain.ActionIncrement:  Increment,
			domain.ActionDecrement:  Decrement,
			domain.ActionSetMessage: SetMessage,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds or replaces a handler.
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Names lists the registered action names in lexical order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the handler for action against state.
//
// Unknown names are ignored: handled is false and err is nil. A handler runs
// against a copy and its changes are committed only if it succeeds, so a
// failed handler leaves state untouched.
func (d *Dispatcher) Apply(state *domain.State, action domain.Action) (bool, error) {
	d.mu.RLock()
	h, ok := d.handlers[action.Name]
	d.mu.RUnlock()

	if !ok {
		d.logger.Debug("Ignoring unknown action", "action", action.Name)
		return false, nil
	}

	next := *state
	if err := h(&next, action); err != nil {
		return true, fmt.Errorf("action %q: %w", action.Name, err)
	}
	*state = next
	return true, nil
}

// Increment adds one to the counter.
func Increment(state *domain.State, _ domain.Action) error {
	state.Counter++
	return nil
}

// Decrement subtracts one from the counter.
func Decrement(state *domain.State, _ domain.Action) error {
	state.Counter--
	return nil
}

type setMessageArgs struct {
	Value *string `mapstructure:"value"`
}

// SetMessage replaces the message with the sanitized "value" argument.
func SetMessage(state *domain.State, action domain.Action) error {
	var args setMessageArgs
	if err := mapstructure.Decode(action.Args, &args); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingValue, err)
	}
	if args.Value == nil {
		return ErrMissingValue
	}
	clean, err := SanitizeInput(*args.Value)
	if err != nil {
		return err
	}
	state.Message = clean
	return nil
}
