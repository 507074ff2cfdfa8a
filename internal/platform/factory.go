package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/globalstate/pkg/adapters/fs"
	"github.com/aretw0/globalstate/pkg/core"
	"github.com/aretw0/globalstate/pkg/effects"
)

// New creates a dispatch service.
func New(opts ...Option) *core.Service {
	return newService(apply(opts))
}

func newService(o *options) *core.Service {
	return core.NewService(core.ServiceConfig{
		Initial:     o.initial,
		Logger:      o.logger,
		EventBuffer: o.eventBuffer,
	})
}

func newSource(dir string, o *options) *fs.Source {
	return fs.NewSource(fs.Config{
		Path:         dir,
		Pattern:      o.pattern,
		Strict:       o.strict,
		Debounce:     o.debounce,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
}

func newFetcher(o *options) *effects.Fetcher {
	return effects.NewFetcher(effects.Config{
		Client:  o.httpClient,
		TTL:     o.fetchTTL,
		Timeout: o.fetchTimeout,
		Logger:  o.logger,
	})
}

// Runtime wires a dispatch service to an action-log directory and, when
// effects are enabled, to the FETCH_JSON fetcher.
type Runtime struct {
	Service *core.Service
	Source  *fs.Source
	Fetcher *effects.Fetcher

	o *options
}

// NewRuntime creates a runtime reading actions from dir.
func NewRuntime(dir string, opts ...Option) *Runtime {
	o := apply(opts)
	r := &Runtime{
		Service: newService(o),
		Source:  newSource(dir, o),
		o:       o,
	}
	if o.effects {
		r.Fetcher = newFetcher(o)
	}
	return r
}

// Replay applies every action file in order. Effects are not performed.
func (r *Runtime) Replay(ctx context.Context) (*core.Store, error) {
	actions, err := r.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.Service.DispatchAll(ctx, actions...)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", r.Source.Path, err)
	}
	r.o.logger.Info("replay finished", "path", r.Source.Path, "actions", len(actions))
	return s, nil
}

// Run replays the directory, then applies new action files as they appear
// until ctx ends. FETCH_JSON actions are served while it runs.
func (r *Runtime) Run(ctx context.Context) error {
	if r.Fetcher != nil {
		events, err := r.Service.Watch(ctx)
		if err != nil {
			return err
		}
		lifecycle.Go(ctx, func(ctx context.Context) error {
			return r.Fetcher.Run(ctx, events, r.Service)
		}, lifecycle.WithErrorHandler(func(err error) {
			r.o.logger.Error("fetcher stopped", "error", err)
		}))
	}

	if _, err := r.Replay(ctx); err != nil {
		return err
	}

	batches, err := r.Source.Watch(ctx)
	if err != nil {
		return err
	}
	for b := range batches {
		if b.Err != nil {
			// already reported by the source
			continue
		}
		if _, err := r.Service.DispatchAll(ctx, b.Actions...); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.o.logger.Warn("batch rejected", "path", b.Path, "error", err)
			continue
		}
		r.o.logger.Info("batch applied", "path", b.Path, "actions", len(b.Actions))
	}
	return nil
}

// RuntimeState exposes the state of every wired component.
type RuntimeState struct {
	Service any `json:"service"`
	Source  any `json:"source"`
	Fetcher any `json:"fetcher,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Runtime) State() any {
	st := RuntimeState{
		Service: r.Service.State(),
		Source:  r.Source.State(),
	}
	if r.Fetcher != nil {
		st.Fetcher = r.Fetcher.State()
	}
	return st
}

// ComponentType implements introspection.Component.
func (r *Runtime) ComponentType() string {
	return "runtime"
}

var _ introspection.Introspectable = (*Runtime)(nil)
var _ introspection.Component = (*Runtime)(nil)
