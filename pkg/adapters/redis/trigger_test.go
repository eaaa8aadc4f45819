package redis_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/remoteui/pkg/adapters/redis"
	"github.com/aretw0/remoteui/pkg/reload"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReloader struct {
	calls  atomic.Int32
	result string
	sawCtx atomic.Value
}

func (f *fakeReloader) Reload(ctx context.Context) string {
	f.calls.Add(1)
	f.sawCtx.Store(reload.TriggerFrom(ctx))
	return f.result
}

func setup(t *testing.T, reloader *fakeReloader, opts ...redis.Option) (*backend.Client, *redis.Trigger, context.CancelFunc) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	trigger := redis.NewTrigger(client, reloader, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- trigger.Run(ctx) }()

	select {
	case <-trigger.Ready():
	case err := <-done:
		t.Fatalf("trigger exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger never subscribed")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("trigger did not stop")
		}
	})
	return client, trigger, cancel
}

func TestTrigger_RoundTrip(t *testing.T) {
	reloader := &fakeReloader{result: reload.ResultOK}
	client, trigger, _ := setup(t, reloader)

	res, err := redis.Send(context.Background(), client, trigger.Channel(), "test", 2*time.Second)
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, int32(1), reloader.calls.Load())
	assert.Equal(t, "redis", reloader.sawCtx.Load())

	last, err := redis.Last(context.Background(), client, trigger.Channel())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, res.ID, last.ID)
}

func TestTrigger_FailureMessage(t *testing.T) {
	reloader := &fakeReloader{result: "reload failed: script main.js: exception: boom"}
	client, _, _ := setup(t, reloader, redis.WithChannel("custom:reload"))

	res, err := redis.Send(context.Background(), client, "custom:reload", "test", 2*time.Second)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, reloader.result, res.Result)
}

func TestTrigger_BarePayload(t *testing.T) {
	reloader := &fakeReloader{result: reload.ResultOK}
	client, trigger, _ := setup(t, reloader)
	ctx := context.Background()

	require.NoError(t, client.Publish(ctx, trigger.Channel(), "not-json").Err())

	require.Eventually(t, func() bool {
		last, err := redis.Last(ctx, client, trigger.Channel())
		return err == nil && last != nil && last.ID == "not-json"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSend_NoListener(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err = redis.Send(context.Background(), client, redis.DefaultChannel, "test", time.Second)
	assert.ErrorIs(t, err, redis.ErrNoListener)

	last, err := redis.Last(context.Background(), client, redis.DefaultChannel)
	assert.NoError(t, err)
	assert.Nil(t, last)
}
