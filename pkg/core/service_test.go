package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/globalstate/pkg/core"
)

func TestService_Dispatch(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{})
	ctx := context.Background()

	// 1. Initial store is the default
	assert.Same(t, core.Default(), svc.Store())

	// 2. Valid action moves the store
	next, err := svc.Dispatch(ctx, core.ReceiveContent{Content: core.Payload{"author": "a", "permlink": "p"}})
	require.NoError(t, err)
	assert.Same(t, next, svc.Store())
	_, ok := next.Content("a/p")
	assert.True(t, ok)

	// 3. Invalid action is rejected and leaves the store alone
	_, err = svc.Dispatch(ctx, core.ReceiveContent{Content: core.Payload{"author": "a"}})
	assert.ErrorIs(t, err, core.ErrInvalidAction)
	assert.Same(t, next, svc.Store())

	_, err = svc.Dispatch(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidAction)
}

func TestService_DispatchAllStopsAtFirstError(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{})

	_, err := svc.DispatchAll(context.Background(),
		core.UpdateAccountWitnessProxy{Account: "alice", Proxy: "bob"},
		core.DeleteContent{Author: "only-author"},
		core.UpdateAccountWitnessProxy{Account: "carol", Proxy: "bob"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action 1")

	assert.Equal(t, []string{"alice"}, svc.Store().AccountNames())
}

func TestService_DispatchCanceled(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Dispatch(ctx, core.Noop{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_WatchDeliversEventsInOrder(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	actions := []core.Action{
		core.FetchingData{Order: "hot", Category: "life"},
		core.FetchingData{Order: "hot", Category: "life"},
		core.Noop{},
	}
	_, err = svc.DispatchAll(ctx, actions...)
	require.NoError(t, err)

	for i, want := range []bool{true, false, false} {
		select {
		case e := <-events:
			assert.Equal(t, uint64(i+1), e.Seq)
			assert.Equal(t, actions[i].Kind(), e.Kind)
			assert.Equal(t, want, e.Changed, "event %d", i)
			assert.NotEmpty(t, e.String())
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for event %d", i)
		}
	}
}

func TestService_SlowWatcherDropsEvents(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{EventBuffer: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	// Dispatch never blocks on a watcher that is not reading.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_, _ = svc.Dispatch(ctx, core.Noop{})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked on a slow watcher")
	}

	e := <-events
	assert.Equal(t, uint64(1), e.Seq)

	state := svc.State().(core.ServiceState)
	assert.Equal(t, uint64(4), state.DroppedEvents)
	assert.Equal(t, uint64(5), state.Dispatched)
}

func TestService_WatchClosesOnCancel(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	events, err := svc.Watch(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed")
	}

	assert.Eventually(t, func() bool {
		return svc.State().(core.ServiceState).Watchers == 0
	}, time.Second, 10*time.Millisecond)
}

func TestService_Introspection(t *testing.T) {
	svc := core.NewService(core.ServiceConfig{EventBuffer: 7})
	_, err := svc.Dispatch(context.Background(), core.UpdateAccountWitnessProxy{Account: "a", Proxy: "b"})
	require.NoError(t, err)

	state := svc.State().(core.ServiceState)
	assert.Equal(t, 7, state.EventBufferSize)
	assert.Equal(t, uint64(1), state.Changes)
	assert.Equal(t, core.KindUpdateAccountWitnessProxy, state.LastKind)
	assert.NotNil(t, state.LastDispatch)
	assert.Equal(t, 1, state.Counts.Accounts)
	assert.Equal(t, "service", svc.ComponentType())
}
