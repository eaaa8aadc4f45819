package reload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/render"
	"github.com/google/uuid"
)

// ResultOK is the Reload result for a successful swap.
const ResultOK = "OK"

// Controller owns the live Bindings and replaces them on demand.
type Controller struct {
	mu      sync.RWMutex
	current *Bindings

	// reloadMu serializes reloads; loading happens outside mu.
	reloadMu sync.Mutex

	loader Loader
	trial  func() domain.State
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	subsMu sync.Mutex
	subs   map[chan string]struct{}
}

var _ ports.Reloader = (*Controller)(nil)

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithTrialState sets the state used to trial-render new bindings before they go
// live. Defaults to domain.NewState.
func WithTrialState(snapshot func() domain.State) Option {
	return func(c *Controller) {
		c.trial = snapshot
	}
}

// NewController performs the initial load. It fails when the loader cannot
// produce working bindings.
func NewController(ctx context.Context, loader Loader, opts ...Option) (*Controller, error) {
	c := &Controller{
		loader: loader,
		trial:  domain.NewState,
		logger: logging.NewNop(),
		subs:   make(map[chan string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	b, err := c.prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: initial load: %w", domain.ErrReloadFailed, err)
	}
	c.current = b
	c.logger.Info("Bindings loaded", "bindings_id", b.ID, "source", b.Source)
	return c, nil
}

// Current returns the live bindings. Callers rendering with them should use
// Use instead so a reload cannot complete mid-render.
func (c *Controller) Current() *Bindings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Use runs fn with the live bindings while holding the read lock.
func (c *Controller) Use(fn func(*Bindings) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.current)
}

// Reload rebinds the rendering code and returns "OK" or the failure message.
func (c *Controller) Reload(ctx context.Context) string {
	if _, err := c.ReloadBindings(ctx); err != nil {
		return err.Error()
	}
	return ResultOK
}

// ReloadBindings rebinds the rendering code. On failure the previous
// bindings stay live and the error wraps domain.ErrReloadFailed.
func (c *Controller) ReloadBindings(ctx context.Context) (*Bindings, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	trigger := TriggerFrom(ctx)
	start := time.Now()

	next, err := c.prepare(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrReloadFailed, err)
		prev := c.Current()
		c.logger.Error("Reload failed, keeping previous bindings",
			"trigger", trigger,
			"bindings_id", prev.ID,
			"err", err,
		)
		c.emit(ctx, &domain.ReloadEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventReload},
			Trigger:    trigger,
			BindingsID: prev.ID,
			Source:     prev.Source,
			Duration:   time.Since(start),
			Error:      err.Error(),
		})
		return nil, err
	}

	c.mu.Lock()
	prev := c.current
	c.current = next
	c.mu.Unlock()

	c.logger.Info("Reloaded bindings",
		"trigger", trigger,
		"bindings_id", next.ID,
		"previous_id", prev.ID,
		"source", next.Source,
		"duration", time.Since(start),
	)
	c.emit(ctx, &domain.ReloadEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventReload},
		Trigger:    trigger,
		BindingsID: next.ID,
		Source:     next.Source,
		Duration:   time.Since(start),
	})
	c.notify(next.ID)
	return next, nil
}

// prepare loads and test-renders a new generation without touching the
// live one. Panics in loader or renderer code are returned as errors.
func (c *Controller) prepare(ctx context.Context) (b *Bindings, err error) {
	defer func() {
		if p := recover(); p != nil {
			b, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	b, err = c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil || b.Renderer == nil {
		return nil, errors.New("loader returned no renderer")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.LoadedAt.IsZero() {
		b.LoadedAt = time.Now()
	}

	node, err := b.Renderer.Render(ctx, c.trial())
	if err != nil {
		return nil, fmt.Errorf("trial render: %w", err)
	}
	if node == nil {
		return nil, errors.New("trial render: renderer returned no tree")
	}
	if err := render.Encodable(node); err != nil {
		return nil, fmt.Errorf("trial render: %w", err)
	}
	return b, nil
}

func (c *Controller) emit(ctx context.Context, e *domain.ReloadEvent) {
	if c.hooks.OnReload != nil {
		c.hooks.OnReload(ctx, e)
	}
}

// Watch streams the ID of every bindings generation that goes live.
// The channel is closed when ctx is done. Slow readers miss notifications.
func (c *Controller) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 8)

	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	c.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		c.subsMu.Lock()
		delete(c.subs, ch)
		close(ch)
		c.subsMu.Unlock()
	}()
	return ch, nil
}

func (c *Controller) notify(id string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- id:
		default:
			c.logger.Warn("Reload subscriber buffer full, dropping notification", "bindings_id", id)
		}
	}
}

// Follow reloads every time src signals a change, until ctx is done.
func (c *Controller) Follow(ctx context.Context, src ports.Watchable) error {
	changes, err := src.Watch(ctx)
	if err != nil {
		return err
	}
	ctx = WithTrigger(ctx, "watch")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			c.Reload(ctx)
		}
	}
}
