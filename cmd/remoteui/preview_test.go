package main

import (
	"context"
	"testing"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewAction(t *testing.T) {
	act, err := previewAction("increment")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionIncrement, act.Name)

	act, err = previewAction(`{"action":"set_message","value":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSetMessage, act.Name)
	assert.Equal(t, "hi", act.Args["value"])

	_, err = previewAction(`{"action":`)
	assert.ErrorIs(t, err, domain.ErrMalformedAction)
}

func TestFormatTree(t *testing.T) {
	node, err := render.Home{}.Render(context.Background(), domain.NewState())
	require.NoError(t, err)

	out, err := formatTree(node, "json", nil)
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "Scaffold"`)
	assert.Contains(t, out, `"text": "Count: 0"`)

	out, err = formatTree(node, "yaml", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "type: Scaffold")
	assert.Contains(t, out, "Count: 0")

	out, err = formatTree(node, "mermaid", []string{domain.ActionIncrement})
	require.NoError(t, err)
	assert.Contains(t, out, "class act_increment active;")

	_, err = formatTree(node, "xml", nil)
	assert.Error(t, err)
}
