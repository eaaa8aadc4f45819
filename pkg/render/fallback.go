package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/ui"
)

// ErrorColor marks degraded trees.
const ErrorColor = "#FF0000"

// ErrorNode is the tree served in place of a failed render.
func ErrorNode(err error) *ui.Node {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ui.Text(ui.TextProps{
		Text:     "Render error: " + msg,
		FontSize: ui.DefaultFontSize,
		Color:    ErrorColor,
	})
}

// Safely renders s with r and never fails: errors, nil trees, trees that
// cannot be encoded as JSON and panics are replaced by ErrorNode. The returned error is non-nil exactly when the tree
// is degraded and always wraps domain.ErrRenderFailed.
func Safely(ctx context.Context, r ports.Renderer, s domain.State) (node *ui.Node, err error) {
	defer func() {
		if p := recover(); p != nil {
			cause := fmt.Errorf("panic: %v", p)
			node = ErrorNode(cause)
			err = fmt.Errorf("%w: %w", domain.ErrRenderFailed, cause)
		}
	}()

	if r == nil {
		cause := errors.New("no renderer bound")
		return ErrorNode(cause), fmt.Errorf("%w: %w", domain.ErrRenderFailed, cause)
	}

	node, err = r.Render(ctx, s)
	if err == nil && node == nil {
		err = errors.New("renderer returned no tree")
	}
	if err != nil {
		node = ErrorNode(err)
		if !errors.Is(err, domain.ErrRenderFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrRenderFailed, err)
		}
		return node, err
	}
	if err := Encodable(node); err != nil {
		return ErrorNode(err), fmt.Errorf("%w: %w", domain.ErrRenderFailed, err)
	}
	return node, nil
}

// Encodable reports whether node has a JSON wire form. Values such as NaN
// or channels make encoding fail.
func Encodable(node *ui.Node) error {
	if _, err := json.Marshal(node); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return nil
}
