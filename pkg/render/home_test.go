package render_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_Contract(t *testing.T) {
	ports.RunRendererContract(t, render.Home{})
}

func TestHome_InitialTree(t *testing.T) {
	node, err := render.Home{}.Render(context.Background(), domain.NewState())
	require.NoError(t, err)

	data, err := json.Marshal(node)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"Scaffold","properties":{"children":[{"type":"Column","properties":{"children":[`+
			`{"type":"Text","properties":{"text":"Hello from Python!","fontSize":24,"color":"#000000"}},`+
			`{"type":"Text","properties":{"text":"Count: 0","fontSize":48,"color":"#000000"}},`+
			`{"type":"Button","properties":{"text":"Increment","onClick":"increment"}},`+
			`{"type":"Button","properties":{"text":"Decrement","onClick":"decrement"}}`+
			`],"verticalArrangement":"Top","horizontalAlignment":"Start"}}]}}`,
		string(data))
}

func TestHome_ReflectsState(t *testing.T) {
	node, err := render.Home{}.Render(context.Background(), domain.State{Counter: -3, Message: "m"})
	require.NoError(t, err)

	texts := node.Children()[0].Children()
	assert.Equal(t, "m", texts[0].String("text"))
	assert.Equal(t, "Count: -3", texts[1].String("text"))
}
