package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
)

// DefaultEventBuffer is the per-watcher channel size used when none is set.
const DefaultEventBuffer = 100

// Event reports one dispatched action.
type Event struct {
	Seq       uint64
	Kind      Kind
	Action    Action
	Changed   bool
	Timestamp int64
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("#%d %s changed=%t", e.Seq, e.Kind, e.Changed)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Initial is the starting store. Nil means Default().
	Initial     *Store
	Logger      *slog.Logger
	EventBuffer int
}

// Service owns the single live store. Actions are validated, then applied
// one at a time in arrival order, and every watcher is told about each one.
type Service struct {
	mu       sync.RWMutex
	store    *Store
	seq      uint64
	changes  uint64
	dropped  uint64
	watchers map[uint64]chan Event
	nextID   uint64

	lastKind Kind
	lastAt   time.Time

	logger          *slog.Logger
	eventBufferSize int
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Initial == nil {
		cfg.Initial = Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}
	return &Service{
		store:           cfg.Initial,
		watchers:        make(map[uint64]chan Event),
		logger:          cfg.Logger,
		eventBufferSize: cfg.EventBuffer,
	}
}

// Store returns the current snapshot.
func (s *Service) Store() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Dispatch validates a and applies it. An invalid action leaves the store
// untouched.
func (s *Service) Dispatch(ctx context.Context, a Action) (*Store, error) {
	if a == nil {
		return s.Store(), fmt.Errorf("%w: nil action", ErrInvalidAction)
	}
	if err := ctx.Err(); err != nil {
		return s.Store(), err
	}
	if err := a.Validate(); err != nil {
		s.logger.Warn("action rejected", "kind", a.Kind(), "error", err)
		return s.Store(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.store
	next := Reduce(prev, a)
	changed := next != prev

	s.store = next
	s.seq++
	if changed {
		s.changes++
	}
	s.lastKind = a.Kind()
	s.lastAt = time.Now()

	s.logger.Debug("action applied", "seq", s.seq, "kind", a.Kind(), "changed", changed)
	s.publish(Event{
		Seq:       s.seq,
		Kind:      a.Kind(),
		Action:    a,
		Changed:   changed,
		Timestamp: s.lastAt.Unix(),
	})
	return next, nil
}

// DispatchAll dispatches actions in order and stops at the first error.
func (s *Service) DispatchAll(ctx context.Context, actions ...Action) (*Store, error) {
	store := s.Store()
	for i, a := range actions {
		var err error
		if store, err = s.Dispatch(ctx, a); err != nil {
			return store, fmt.Errorf("action %d: %w", i, err)
		}
	}
	return store, nil
}

// publish must be called with mu held. Watchers that are not keeping up
// lose the event.
func (s *Service) publish(e Event) {
	for id, ch := range s.watchers {
		select {
		case ch <- e:
		default:
			s.dropped++
			s.logger.Warn("event dropped", "watcher", id, "seq", e.Seq, "kind", e.Kind)
		}
	}
}

// Watch returns a channel of dispatch events. It is closed when ctx ends.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan Event, s.eventBufferSize)
	s.watchers[id] = ch
	s.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
		close(ch)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watch cleanup failed", "error", err)
	}))
	return ch, nil
}
