package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", doc.Info.Version)
	for _, path := range []string{"/ui", "/action", "/v1/agent/execute", "/v1/completion/inline"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
	for _, name := range []string{"ExecuteRequest", "InlineCompletionRequest", "Node"} {
		assert.Contains(t, doc.Components.Schemas, name)
	}
}
