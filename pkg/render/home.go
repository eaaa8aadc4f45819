package render

import (
	"context"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/ui"
)

// Home renders the reference counter screen.
type Home struct{}

var _ ports.Renderer = Home{}

// Render implements ports.Renderer.
func (Home) Render(_ context.Context, s domain.State) (*ui.Node, error) {
	return ui.Scaffold(
		ui.Column(ui.ColumnProps{},
			ui.Text(ui.TextProps{Text: s.Message, FontSize: 24}),
			ui.Text(ui.TextProps{Text: s.CountLabel(), FontSize: 48}),
			ui.Button(ui.ButtonProps{Text: "Increment", OnClick: domain.ActionIncrement}),
			ui.Button(ui.ButtonProps{Text: "Decrement", OnClick: domain.ActionDecrement}),
		),
	), nil
}
