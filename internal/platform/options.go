package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/globalstate/pkg/core"
)

// options holds the internal configuration for the dispatch runtime.
type options struct {
	logger       *slog.Logger
	initial      *core.Store
	eventBuffer  int
	pattern      string
	strict       bool
	debounce     time.Duration
	errorHandler func(error)
	effects      bool
	httpClient   *http.Client
	fetchTTL     time.Duration
	fetchTimeout time.Duration
}

// Option defines a functional option for configuring the runtime.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:  slog.New(slog.DiscardHandler),
		effects: true,
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInitialState starts the service from s instead of the default store.
func WithInitialState(s *core.Store) Option {
	return func(o *options) {
		o.initial = s
	}
}

// WithEventBuffer sets the per-watcher event buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithPattern sets the doublestar pattern selecting action files.
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.pattern = pattern
	}
}

// WithStrict enables strict number parsing for action files.
// Numbers are kept as json.Number to preserve large rshares values.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithDebounce sets how long a watched file must stay quiet before it is read.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while
// watching action files (unreadable files, decode failures, fsnotify errors).
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithEffects enables or disables serving FETCH_JSON while watching.
// Enabled by default.
func WithEffects(enabled bool) Option {
	return func(o *options) {
		o.effects = enabled
	}
}

// WithHTTPClient sets the client used for FETCH_JSON requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithFetchTTL sets how long FETCH_JSON responses are reused.
// A negative value disables the cache.
func WithFetchTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.fetchTTL = ttl
	}
}

// WithFetchTimeout bounds each FETCH_JSON request.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = d
	}
}
