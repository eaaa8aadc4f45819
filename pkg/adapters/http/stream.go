package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
)

// SSE event names.
const (
	EventPing   = "ping"
	EventReload = "reload"
	EventState  = "state"
)

// StreamManager fans state diffs out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel. The returned func unregisters and
// closes it.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers reports the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast delivers msg to every subscriber without blocking.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "subscribers", len(sm.subscribers), "payload_size", len(msg))
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message")
		}
	}
}

// SubscribeEvents handles GET /events.
//
// The stream opens with a ping, then carries "reload" events (data is the
// new bindings ID) and "state" events (data is a domain.StateDiff). The
// optional watch query parameter lists state fields; diffs touching none of
// them are skipped.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("SubscribeEvents: Streaming not supported")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	reloads, err := s.Bindings.Watch(r.Context())
	if err != nil {
		s.logger.Error("SubscribeEvents: Watch failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	diffs, cancel := s.Streams.Subscribe()
	defer cancel()

	watchList := parseWatchList(r.URL.Query().Get("watch"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, EventPing, "connected")
	flusher.Flush()
	s.logger.Info("SSE: Client connected", "watch", watchList)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected")
			return
		case id, ok := <-reloads:
			if !ok {
				return
			}
			writeEvent(w, EventReload, id)
			flusher.Flush()
		case msg, ok := <-diffs:
			if !ok {
				return
			}
			if !matchesWatch(msg, watchList) {
				continue
			}
			writeEvent(w, EventState, msg)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func parseWatchList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

// matchesWatch reports whether a serialized diff touches a watched field.
// Undecodable messages are passed through.
func matchesWatch(msg string, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		if _, ok := diff.Fields[field]; ok {
			return true
		}
	}
	return false
}
