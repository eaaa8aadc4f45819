package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAction EventType = "action"
	EventRender EventType = "render"
	EventReload EventType = "reload"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ActionEvent is emitted after an action has been applied (or ignored).
type ActionEvent struct {
	EventBase
	Action  string `json:"action"`
	Handled bool   `json:"handled"`
	Error   string `json:"error,omitempty"`
}

// RenderEvent is emitted after a tree has been produced for a request.
type RenderEvent struct {
	EventBase
	Route    string        `json:"route"`
	Duration time.Duration `json:"duration"`
	Degraded bool          `json:"degraded,omitempty"`
}

// ReloadEvent is emitted after every reload attempt.
type ReloadEvent struct {
	EventBase
	Trigger    string        `json:"trigger"`
	BindingsID string        `json:"bindings_id,omitempty"`
	Source     string        `json:"source,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// OK reports whether the reload swapped in new bindings.
func (e *ReloadEvent) OK() bool {
	return e.Error == ""
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnAction func(context.Context, *ActionEvent)
	OnRender func(context.Context, *RenderEvent)
	OnReload func(context.Context, *ReloadEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnAction: chain(h.OnAction, other.OnAction),
		OnRender: chain(h.OnRender, other.OnRender),
		OnReload: chain(h.OnReload, other.OnReload),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
