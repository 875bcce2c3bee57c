// Package store composes the device, analytics and settings domains into
// the process-wide state container.
//
// Transitions are applied one at a time in submission order. Listeners are
// notified after each committed transition, in the same order, and must not
// dispatch or subscribe synchronously from inside the callback.
package store

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/QzDevz/TrashBin-IoT/internal/domain"
)

// ErrUnknownDomain indicates a snapshot key outside device, analytics and settings.
var ErrUnknownDomain = errors.New("unknown domain")

// Change describes one committed transition.
type Change struct {
	Action   domain.Action
	Previous Snapshot
	Current  Snapshot
	At       time.Time
}

// Listener receives committed changes.
type Listener func(Change)

type subscription struct {
	id       uint64
	listener Listener
}

// Store is the single source of truth for all domains.
type Store struct {
	mu    sync.Mutex
	state Snapshot

	notifyMu  sync.Mutex
	listeners []subscription
	nextID    uint64

	clock  func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp status updates and usage entries.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator sets the generator of usage entry IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store holding the initial state of every domain.
func New(opts ...Option) *Store {
	s := &Store{
		state:     Initial(),
		clock:     time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies action and returns the resulting snapshot. Actions no
// domain recognizes leave the state untouched and notify nobody.
func (s *Store) Dispatch(action domain.Action) Snapshot {
	if action == nil {
		return s.Snapshot()
	}

	s.mu.Lock()
	now := s.clock()
	prev := s.state
	next, handled := reduce(prev, action, domain.Env{Now: now, NewID: s.newID})
	if !handled {
		current := prev.Clone()
		s.mu.Unlock()
		s.logger.Warn("dispatch ignored unknown action", "type", action.Type())
		return current
	}
	s.state = next
	change := Change{Action: action, Previous: prev.Clone(), Current: next.Clone(), At: now}

	// Hand over to the notify lock before releasing the state lock so
	// listeners observe changes in commit order.
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, sub := range s.listeners {
		sub.listener(change)
	}
	return change.Current.Clone()
}

// Hydrate replaces the state with a persisted snapshot.
func (s *Store) Hydrate(snapshot Snapshot) Snapshot {
	return s.Dispatch(Hydrate{Snapshot: snapshot})
}

// Subscribe registers listener and returns a func that removes it.
// Listeners run in subscription order.
func (s *Store) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			defer s.notifyMu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool {
				return sub.id == id
			})
		})
	}
}
