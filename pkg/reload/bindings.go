package reload

import (
	"context"
	"time"

	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/ui"
)

// Bindings is one loaded generation of rendering code.
type Bindings struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loaded_at"`
	Catalog  *ui.Catalog    `json:"-"`
	Renderer ports.Renderer `json:"-"`
}

// Loader produces a fresh Bindings generation.
// Each call must build new values; bindings are never shared between generations.
type Loader interface {
	Load(ctx context.Context) (*Bindings, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (*Bindings, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (*Bindings, error) {
	return f(ctx)
}

type triggerKey struct{}

// WithTrigger labels ctx with the entry point that requested a reload
// ("api", "watch", "redis", "mcp"). The label is reported in logs and events.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFrom returns the label set by WithTrigger, or "api".
func TriggerFrom(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return "api"
}
