package ports

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/remoteui/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRendererContract runs a suite of tests to verify that a Renderer
// implementation adheres to the interface contract.
func RunRendererContract(t *testing.T, r Renderer) {
	ctx := context.Background()

	t.Run("Produces a tree", func(t *testing.T) {
		node, err := r.Render(ctx, domain.NewState())
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.NotEmpty(t, node.Kind)
	})

	t.Run("Does not mutate state", func(t *testing.T) {
		state := domain.State{Counter: 7, Message: "keep"}
		_, err := r.Render(ctx, state)
		require.NoError(t, err)
		assert.Equal(t, domain.State{Counter: 7, Message: "keep"}, state)
	})

	t.Run("Deterministic", func(t *testing.T) {
		state := domain.State{Counter: 3, Message: "same"}
		first, err := r.Render(ctx, state)
		require.NoError(t, err)
		second, err := r.Render(ctx, state)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	})

	t.Run("Concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if _, err := r.Render(ctx, domain.State{Counter: n, Message: "c"}); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
	})
}
