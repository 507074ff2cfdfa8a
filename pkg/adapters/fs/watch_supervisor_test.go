package fs

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/globalstate/pkg/core"
)

func TestWatch_StreamsNewActions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	src := NewSource(Config{Path: dir, Debounce: 20 * time.Millisecond})

	batches, err := src.Watch(ctx)
	require.NoError(t, err)
	waitForWatcher(t, src, true)

	// 1. A new file is delivered once it settles
	writeFile(t, dir, "feed.json", `{"type": "FETCHING_DATA", "payload": {"order": "hot", "category": "life"}}`)
	b := waitForBatch(t, batches)
	assert.Equal(t, "feed.json", b.Path)
	assert.Equal(t, []core.Action{core.FetchingData{Order: "hot", Category: "life"}}, b.Actions)

	// 2. Files in directories created later are seen too
	writeFile(t, dir, "later/votes.yaml", "type: UPDATE_ACCOUNT_WITNESS_PROXY\npayload: {account: a, proxy: b}\n")
	b = waitForBatch(t, batches)
	assert.Equal(t, "later/votes.yaml", b.Path)

	// 3. Decode failures arrive as errors
	writeFile(t, dir, "broken.json", `{"type":`)
	b = waitForBatch(t, batches)
	assert.Error(t, b.Err)

	// 4. Cancel closes the stream
	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-batches:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("batch channel not closed")
		}
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	_, err := NewSource(Config{Path: "/does/not/exist"}).Watch(context.Background())
	assert.Error(t, err)
}

func TestWatcherSupervisorRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewSource(Config{Path: t.TempDir()})

	out := newBatchSink()
	created := make(chan *watchWorker, 2)

	spec := supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := newWatchWorker(src, out)
			created <- w
			return w, nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      1,
			ResetDuration:   50 * time.Millisecond,
			MaxRestarts:     2,
			MaxDuration:     200 * time.Millisecond,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("test-watcher", supervisor.StrategyOneForOne, spec)
	require.NoError(t, sup.Start(ctx))

	first := waitForWorker(t, created, "first")
	waitForWatcher(t, src, true)

	waitForWatcherInit(t, first)
	_ = first.watcher.Close()

	second := waitForWorker(t, created, "second")
	assert.NotSame(t, first, second, "expected supervisor to restart watcher with a new instance")
	waitForWatcher(t, src, true)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
}

func waitForBatch(t *testing.T, ch <-chan Batch) Batch {
	t.Helper()

	select {
	case b, ok := <-ch:
		require.True(t, ok, "batch channel closed")
		return b
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for batch")
		return Batch{}
	}
}

func waitForWorker(t *testing.T, ch <-chan *watchWorker, label string) *watchWorker {
	t.Helper()

	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s worker", label)
		return nil
	}
}

func waitForWatcherInit(t *testing.T, w *watchWorker) {
	t.Helper()

	require.Eventually(t, func() bool { return w.watcher != nil },
		2*time.Second, 10*time.Millisecond, "timeout waiting for watcher initialization")
}

func waitForWatcher(t *testing.T, src *Source, expected bool) {
	t.Helper()

	require.Eventually(t, func() bool {
		state, ok := src.State().(SourceState)
		return ok && state.WatcherActive == expected
	}, 2*time.Second, 10*time.Millisecond, "timeout waiting for watcher state = %v", expected)
}

func TestBatchSink_CloseWaitsForSendersAndDropsLateSends(t *testing.T) {
	sink := newBatchSink()
	ctx, cancel := context.WithCancel(context.Background())

	// A sender blocked on an unread channel holds the sink open.
	sent := make(chan bool, 1)
	go func() { sent <- sink.send(ctx, Batch{Path: "a.json"}) }()

	assert.Eventually(t, func() bool {
		if sink.mu.TryLock() {
			sink.mu.Unlock()
			return false
		}
		return true
	}, time.Second, time.Millisecond, "sender never started")

	closed := make(chan struct{})
	go func() {
		sink.close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("close returned while a send was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	assert.False(t, <-sent)
	<-closed

	_, ok := <-sink.ch
	assert.False(t, ok, "sink channel should be closed")

	require.NotPanics(t, func() {
		assert.False(t, sink.send(context.Background(), Batch{Path: "late.json"}))
	})
	sink.close()
}
