package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Dispatched      uint64     `json:"dispatched" yaml:"dispatched"`
	Changes         uint64     `json:"changes" yaml:"changes"`
	DroppedEvents   uint64     `json:"dropped_events" yaml:"dropped_events"`
	Watchers        int        `json:"watchers" yaml:"watchers"`
	EventBufferSize int        `json:"event_buffer_size" yaml:"event_buffer_size"`
	LastKind        Kind       `json:"last_kind,omitempty" yaml:"last_kind,omitempty"`
	LastDispatch    *time.Time `json:"last_dispatch,omitempty" yaml:"last_dispatch,omitempty"`
	Counts          Counts     `json:"counts" yaml:"counts"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ServiceState{
		Dispatched:      s.seq,
		Changes:         s.changes,
		DroppedEvents:   s.dropped,
		Watchers:        len(s.watchers),
		EventBufferSize: s.eventBufferSize,
		LastKind:        s.lastKind,
		Counts:          s.store.Counts(),
	}
	if !s.lastAt.IsZero() {
		at := s.lastAt
		st.LastDispatch = &at
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
