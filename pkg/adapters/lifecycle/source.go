package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/globalstate/pkg/core"
)

// SourceOption narrows the dispatch events a source forwards.
type SourceOption func(*dispatchSource)

// ChangedOnly drops events whose dispatch left the store unchanged.
func ChangedOnly() SourceOption {
	return func(s *dispatchSource) { s.changedOnly = true }
}

// WithKinds forwards only events of the given action kinds.
func WithKinds(kinds ...core.Kind) SourceOption {
	return func(s *dispatchSource) {
		s.kinds = make(map[core.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}
}

type dispatchSource struct {
	events      <-chan core.Event
	out         chan lifecycle.Event
	changedOnly bool
	kinds       map[core.Kind]struct{}
}

// NewSource creates a lifecycle.Source over the events of Service.Watch.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &dispatchSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *dispatchSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *dispatchSource) accept(e core.Event) bool {
	if s.changedOnly && !e.Changed {
		return false
	}
	if s.kinds != nil {
		if _, ok := s.kinds[e.Kind]; !ok {
			return false
		}
	}
	return true
}

// Start forwards events until ctx ends or the service closes the watch.
func (s *dispatchSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-s.events:
				if !ok {
					return nil
				}
				e = ev
			}
			if !s.accept(e) {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
