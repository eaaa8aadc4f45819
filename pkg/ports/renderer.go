package ports

import (
	"context"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ui"
)

// Renderer produces the component tree for a State snapshot.
// Implementations must not mutate state and must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, state domain.State) (*ui.Node, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, state domain.State) (*ui.Node, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, state domain.State) (*ui.Node, error) {
	return f(ctx, state)
}
