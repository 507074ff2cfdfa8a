// Package effects performs the side effects some actions ask for and feeds
// their outcome back as actions.
package effects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/patrickmn/go-cache"

	"github.com/aretw0/globalstate/pkg/core"
)

const (
	// DefaultTTL is how long a GET response is reused.
	DefaultTTL = 5 * time.Minute
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 8 << 20
)

// Dispatcher applies actions to the live store. *core.Service satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, a core.Action) (*core.Store, error)
}

// Config configures a Fetcher.
type Config struct {
	Client  *http.Client
	TTL     time.Duration // negative disables the response cache
	Timeout time.Duration
	Logger  *slog.Logger
}

// Fetcher serves FETCH_JSON requests over HTTP. Requests without a body are
// sent as GET and their decoded responses memoized; requests with a body
// are sent as POST with a JSON body and never memoized.
type Fetcher struct {
	client  *http.Client
	cache   *cache.Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger

	requests  atomic.Uint64
	cacheHits atomic.Uint64
	failures  atomic.Uint64
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	f := &Fetcher{
		client:  cfg.Client,
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if cfg.TTL > 0 {
		f.cache = cache.New(cfg.TTL, 2*cfg.TTL)
	}
	return f
}

// Fetch performs the request and reports its outcome. Failures land in
// the result's Error, never in a returned error.
func (f *Fetcher) Fetch(ctx context.Context, a core.FetchJSON) core.FetchJSONResult {
	res := core.FetchJSONResult{ID: a.ID}

	get := a.Body == nil
	if get && f.cache != nil {
		if v, ok := f.cache.Get(a.URL); ok {
			f.cacheHits.Add(1)
			res.Result = v
			return res
		}
	}

	f.requests.Add(1)
	v, err := f.do(ctx, a)
	if err != nil {
		f.failures.Add(1)
		f.logger.Warn("fetch failed", "id", a.ID, "url", a.URL, "error", err)
		res.Error = err.Error()
		return res
	}

	if get && f.cache != nil {
		f.cache.Set(a.URL, v, f.ttl)
	}
	res.Result = v
	return res
}

func (f *Fetcher) do(ctx context.Context, a core.FetchJSON) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	method := http.MethodGet
	var body io.Reader
	if a.Body != nil {
		method = http.MethodPost
		raw, err := json.Marshal(a.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	v, err := core.ParseJSON(data, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return v, nil
}

// Run serves every FETCH_JSON event until events closes or ctx ends,
// dispatching a FETCH_JSON_RESULT for each. Requests run concurrently; Run
// returns once all of them have been dispatched.
func (f *Fetcher) Run(ctx context.Context, events <-chan core.Event, d Dispatcher) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			req, ok := e.Action.(core.FetchJSON)
			if !ok {
				continue
			}

			wg.Add(1)
			lifecycle.Go(ctx, func(ctx context.Context) error {
				defer wg.Done()
				if _, err := d.Dispatch(ctx, f.Fetch(ctx, req)); err != nil {
					return fmt.Errorf("dispatch result %s: %w", req.ID, err)
				}
				return nil
			}, lifecycle.WithErrorHandler(func(err error) {
				f.logger.Error("fetch effect failed", "error", err)
			}))
		}
	}
}

// FetcherState exposes internal state for observability.
type FetcherState struct {
	Requests   uint64        `json:"requests"`
	CacheHits  uint64        `json:"cache_hits"`
	Failures   uint64        `json:"failures"`
	CacheItems int           `json:"cache_items"`
	TTL        time.Duration `json:"ttl"`
}

// State implements introspection.Introspectable.
func (f *Fetcher) State() any {
	st := FetcherState{
		Requests:  f.requests.Load(),
		CacheHits: f.cacheHits.Load(),
		Failures:  f.failures.Load(),
		TTL:       f.ttl,
	}
	if f.cache != nil {
		st.CacheItems = f.cache.ItemCount()
	}
	return st
}

// ComponentType implements introspection.Component.
func (f *Fetcher) ComponentType() string {
	return "fetcher"
}

var _ introspection.Introspectable = (*Fetcher)(nil)
var _ introspection.Component = (*Fetcher)(nil)
