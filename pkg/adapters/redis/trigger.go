// Package redis lets a supervising process request reloads over Redis
// pub/sub.
//
// A request is published on the trigger channel; the serving process reloads
// and publishes a Result carrying the same ID on the reply channel. The most
// recent Result is also stored under a key so it can be read back later.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/ports"
	"github.com/aretw0/remoteui/pkg/reload"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the channel reload requests are published on.
const DefaultChannel = "remoteui:reload"

var (
	// ErrNoListener is returned when no server is subscribed to the channel.
	ErrNoListener = errors.New("no server is listening for reload requests")

	// ErrNoReply is returned when no result arrives in time.
	ErrNoReply = errors.New("timed out waiting for reload result")
)

// Request asks a server to reload.
type Request struct {
	ID     string `json:"id"`
	Sender string `json:"sender,omitempty"`
}

// Result reports the outcome of one Request.
type Result struct {
	ID     string    `json:"id"`
	Result string    `json:"result"`
	At     time.Time `json:"at"`
}

// OK reports whether the reload succeeded.
func (r Result) OK() bool {
	return r.Result == reload.ResultOK
}

// ReplyChannel is where results for channel are published.
func ReplyChannel(channel string) string {
	return channel + ":result"
}

// LastKey stores the most recent Result for channel.
func LastKey(channel string) string {
	return channel + ":last"
}

// Trigger subscribes to a channel and reloads on every request.
type Trigger struct {
	client   *backend.Client
	reloader ports.Reloader
	channel  string
	ttl      time.Duration
	logger   *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures the Trigger.
type Option func(*Trigger)

// WithChannel overrides DefaultChannel.
func WithChannel(channel string) Option {
	return func(t *Trigger) {
		if channel != "" {
			t.channel = channel
		}
	}
}

// WithTTL sets the expiration of the stored last result. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(t *Trigger) {
		t.ttl = ttl
	}
}

// WithLogger configures a logger for the Trigger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trigger) {
		t.logger = logger
	}
}

// NewTrigger creates a Trigger for reloader.
func NewTrigger(client *backend.Client, reloader ports.Reloader, opts ...Option) *Trigger {
	t := &Trigger{
		client:   client,
		reloader: reloader,
		channel:  DefaultChannel,
		logger:   logging.NewNop(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Channel returns the subscribed channel.
func (t *Trigger) Channel() string {
	return t.channel
}

// Ready is closed once the subscription is confirmed.
func (t *Trigger) Ready() <-chan struct{} {
	return t.ready
}

// Run serves reload requests until ctx is done.
func (t *Trigger) Run(ctx context.Context) error {
	sub := t.client.Subscribe(ctx, t.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe %s: %w", t.channel, err)
	}
	t.readyOnce.Do(func() { close(t.ready) })
	t.logger.Info("Listening for reload requests", "channel", t.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			t.handle(ctx, msg.Payload)
		}
	}
}

func (t *Trigger) handle(ctx context.Context, payload string) {
	req := parseRequest(payload)
	logger := t.logger.With("request_id", req.ID, "sender", req.Sender)

	res := Result{
		ID:     req.ID,
		Result: t.reloader.Reload(reload.WithTrigger(ctx, "redis")),
		At:     time.Now().UTC(),
	}
	data, err := json.Marshal(res)
	if err != nil {
		logger.Error("Failed to encode reload result", "err", err)
		return
	}

	if err := t.client.Publish(ctx, ReplyChannel(t.channel), data).Err(); err != nil {
		logger.Error("Failed to publish reload result", "err", err)
	}
	if err := t.client.Set(ctx, LastKey(t.channel), data, t.ttl).Err(); err != nil {
		logger.Error("Failed to store reload result", "err", err)
	}
	logger.Info("Handled reload request", "result", res.Result)
}

// parseRequest accepts a JSON Request or a bare ID. Requests without an ID
// get a fresh one.
func parseRequest(payload string) Request {
	var req Request
	payload = strings.TrimSpace(payload)
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		req = Request{ID: payload}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req
}

// Send publishes a reload request on channel and waits up to timeout for
// its result.
func Send(ctx context.Context, client *backend.Client, channel, sender string, timeout time.Duration) (Result, error) {
	sub := client.Subscribe(ctx, ReplyChannel(channel))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return Result{}, fmt.Errorf("redis subscribe %s: %w", ReplyChannel(channel), err)
	}
	replies := sub.Channel()

	req := Request{ID: uuid.NewString(), Sender: sender}
	data, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}
	n, err := client.Publish(ctx, channel, data).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis publish %s: %w", channel, err)
	}
	if n == 0 {
		return Result{}, fmt.Errorf("%w on %s", ErrNoListener, channel)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
			return Result{}, fmt.Errorf("%w: request %s", ErrNoReply, req.ID)
		case msg, ok := <-replies:
			if !ok {
				return Result{}, fmt.Errorf("%w: subscription closed", ErrNoReply)
			}
			var res Result
			if err := json.Unmarshal([]byte(msg.Payload), &res); err != nil || res.ID != req.ID {
				continue
			}
			return res, nil
		}
	}
}

// Last reads the most recent stored Result. It returns nil when none exists.
func Last(ctx context.Context, client *backend.Client, channel string) (*Result, error) {
	data, err := client.Get(ctx, LastKey(channel)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", LastKey(channel), err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode last result: %w", err)
	}
	return &res, nil
}
