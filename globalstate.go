package globalstate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/globalstate/internal/platform"
	"github.com/aretw0/globalstate/pkg/core"
)

// --- Types ---

// Store is an immutable snapshot of the client state.
type Store = core.Store

// Action is any state transition request.
type Action = core.Action

// Service holds the live store and applies actions one at a time.
type Service = core.Service

// Runtime wires a Service to an action-log directory.
type Runtime = platform.Runtime

// --- Configuration ---

// Option defines a functional option for configuring the runtime.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithInitialState starts the service from s instead of the default store.
func WithInitialState(s *Store) Option {
	return platform.WithInitialState(s)
}

// WithEventBuffer sets the per-watcher event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithPattern sets the doublestar pattern selecting action files.
func WithPattern(pattern string) Option {
	return platform.WithPattern(pattern)
}

// WithStrict keeps numbers in action files as json.Number.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithDebounce sets how long a watched file must stay quiet before it is read.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler registers a callback for watch errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithEffects enables or disables serving FETCH_JSON while watching.
func WithEffects(enabled bool) Option {
	return platform.WithEffects(enabled)
}

// WithHTTPClient sets the client used for FETCH_JSON requests.
func WithHTTPClient(c *http.Client) Option {
	return platform.WithHTTPClient(c)
}

// WithFetchTTL sets how long FETCH_JSON responses are reused.
func WithFetchTTL(ttl time.Duration) Option {
	return platform.WithFetchTTL(ttl)
}

// WithFetchTimeout bounds each FETCH_JSON request.
func WithFetchTimeout(d time.Duration) Option {
	return platform.WithFetchTimeout(d)
}

// --- Factory ---

// New creates a dispatch service.
func New(opts ...Option) *Service {
	return platform.New(opts...)
}

// NewRuntime creates a runtime reading actions from dir.
func NewRuntime(dir string, opts ...Option) *Runtime {
	return platform.NewRuntime(dir, opts...)
}

// Replay applies every action file under dir, in lexical path order, to a
// fresh service and returns it.
func Replay(ctx context.Context, dir string, opts ...Option) (*Service, error) {
	r := platform.NewRuntime(dir, opts...)
	if _, err := r.Replay(ctx); err != nil {
		return nil, err
	}
	return r.Service, nil
}

// Reduce applies one action to state. A nil state is the default store.
func Reduce(state *Store, a Action) *Store {
	return core.Reduce(state, a)
}

// Default returns the initial store.
func Default() *Store {
	return core.Default()
}
