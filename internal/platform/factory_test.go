package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/globalstate/pkg/adapters/fs"
	"github.com/aretw0/globalstate/pkg/core"
	"github.com/aretw0/globalstate/pkg/effects"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRuntime_Replay(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "01.json", `[
		{"type": "RECEIVE_CONTENT", "payload": {"content": {"author": "a", "permlink": "p", "category": "life"}}},
		{"type": "FETCHING_DATA", "payload": {"order": "trending", "category": "life"}}
	]`)
	write(t, dir, "02.yaml", "type: RECEIVE_DATA\npayload:\n  order: trending\n  category: life\n  data:\n    - {author: a, permlink: p}\n")

	r := NewRuntime(dir, WithEventBuffer(8))
	s, err := r.Replay(context.Background())
	require.NoError(t, err)
	assert.Same(t, s, r.Service.Store())

	keys, ok := s.Index("life", "trending")
	require.True(t, ok)
	assert.Equal(t, []string{"a/p"}, keys)

	st, ok := s.Status("life", "trending")
	require.True(t, ok)
	assert.False(t, st.Fetching)

	state := r.State().(RuntimeState)
	assert.Equal(t, 8, state.Service.(core.ServiceState).EventBufferSize)
	assert.NotNil(t, state.Fetcher)
	assert.Equal(t, "runtime", r.ComponentType())
}

func TestRuntime_ReplayStopsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "bad.json", `{"type": "NOPE"}`)

	_, err := NewRuntime(dir).Replay(context.Background())
	assert.ErrorIs(t, err, core.ErrUnknownAction)
}

func TestRuntime_RunAppliesNewFilesAndServesFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	write(t, dir, "01.json", `{"type": "UPDATE_ACCOUNT_WITNESS_PROXY", "payload": {"account": "a", "proxy": "b"}}`)

	r := NewRuntime(dir, WithDebounce(20*time.Millisecond), WithHTTPClient(srv.Client()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// 1. Existing files are replayed before the watch starts
	require.Eventually(t, func() bool {
		return r.Source.State().(fs.SourceState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)
	_, ok := r.Service.Store().Account("a")
	assert.True(t, ok)

	// 2. New files are applied, and their fetches served
	write(t, dir, "02.json", `{"type": "FETCH_JSON", "payload": {"id": "probe", "url": "`+srv.URL+`"}}`)
	require.Eventually(t, func() bool {
		v, ok := r.Service.Store().GetPath([]string{"probe", "result", "ok"})
		return ok && v == true
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, uint64(1), r.State().(RuntimeState).Fetcher.(effects.FetcherState).Requests)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestNew(t *testing.T) {
	initial := core.Reduce(nil, core.UpdateAccountWitnessProxy{Account: "a", Proxy: "b"})
	svc := New(WithInitialState(initial), WithLogger(nil))
	assert.Same(t, initial, svc.Store())
}
