// Package state owns the single application State of a remoteui process.
package state

import (
	"log/slog"
	"sync"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/domain"
)

// Store guards the process-wide State.
//
// Readers share the lock, so concurrent renders never see a torn state.
// Update holds the lock exclusively for the whole callback, which lets the
// caller apply an action and render the result as one unit.
type Store struct {
	mu     sync.RWMutex
	state  domain.State
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithInitial replaces the default starting state.
func WithInitial(s domain.State) Option {
	return func(st *Store) {
		st.state = s
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(st *Store) {
		st.logger = logger
	}
}

// NewStore creates a Store holding domain.NewState unless WithInitial is given.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:  domain.NewState(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View runs fn with a copy of the state under the shared lock.
func (s *Store) View(fn func(domain.State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update runs fn with exclusive access to the state.
// Changes made through the pointer are kept even when fn returns an error;
// callers that need all-or-nothing semantics mutate a copy first.
func (s *Store) Update(fn func(*domain.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.state
	err := fn(&s.state)
	if s.state != before {
		s.logger.Debug("State updated", "counter", s.state.Counter, "message_len", len(s.state.Message))
	}
	return err
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
