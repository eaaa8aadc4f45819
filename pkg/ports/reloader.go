package ports

import "context"

// Reloader rebinds the rendering code without touching state or listeners.
// It returns "OK" or the failure message.
type Reloader interface {
	Reload(ctx context.Context) string
}

// Watchable defines an interface for sources that can notify about changes.
// This is typically used for hot-reload during development.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying source changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
