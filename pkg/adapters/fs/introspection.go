package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// SourceState exposes internal state for observability.
type SourceState struct {
	Path          string     `json:"path"`
	Pattern       string     `json:"pattern"`
	Strict        bool       `json:"strict"`
	Decoders      []string   `json:"decoders"`
	Files         int        `json:"files"`
	Actions       int        `json:"actions"`
	WatcherActive bool       `json:"watcher_active"`
	LastLoad      *time.Time `json:"last_load,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Source) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	decoders := make([]string, 0, len(s.decoders))
	for ext := range s.decoders {
		decoders = append(decoders, ext)
	}
	sort.Strings(decoders)

	return SourceState{
		Path:          s.Path,
		Pattern:       s.config.Pattern,
		Strict:        s.config.Strict,
		Decoders:      decoders,
		Files:         s.ledger.Len(),
		Actions:       s.ledger.Total(),
		WatcherActive: s.watcherActive,
		LastLoad:      s.lastLoad,
	}
}

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string {
	return "source"
}

var _ introspection.Introspectable = (*Source)(nil)
var _ introspection.Component = (*Source)(nil)

func (s *Source) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *Source) recordLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastLoad = &now
}
