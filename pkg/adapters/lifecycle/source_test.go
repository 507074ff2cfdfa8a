package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/globalstate/pkg/adapters/lifecycle"
	"github.com/aretw0/globalstate/pkg/core"
)

func TestSource_BridgesDispatchEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := core.NewService(core.ServiceConfig{})
	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	src := lifecycle.NewSource(events)
	require.NoError(t, src.Start(ctx))

	_, err = svc.Dispatch(ctx, core.FetchingData{Order: "hot", Category: "life"})
	require.NoError(t, err)

	select {
	case e := <-src.Events():
		ev, ok := e.(core.Event)
		require.True(t, ok)
		assert.Equal(t, core.KindFetchingData, ev.Kind)
		assert.Contains(t, e.String(), string(core.KindFetchingData))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bridged event")
	}

	// The bridge closes once its context ends.
	cancel()
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge not closed")
	}
}

func TestSource_Filters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := core.NewService(core.ServiceConfig{})
	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	src := lifecycle.NewSource(events,
		lifecycle.ChangedOnly(),
		lifecycle.WithKinds(core.KindFetchingData),
	)
	require.NoError(t, src.Start(ctx))

	// Noop leaves the store unchanged, SET_COLLAPSED is filtered by kind.
	_, err = svc.DispatchAll(ctx,
		core.Noop{},
		core.SetCollapsed{Post: "a/b", Collapsed: true},
		core.FetchingData{Order: "trending", Category: "life"},
	)
	require.NoError(t, err)

	select {
	case e := <-src.Events():
		assert.Equal(t, core.KindFetchingData, e.(core.Event).Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for filtered event")
	}
}
