package fs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesPerKey(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)

	var a, b atomic.Int32
	for i := 0; i < 5; i++ {
		d.add("a", func() { a.Add(1) })
	}
	d.add("b", func() { b.Add(1) })

	assert.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), a.Load())
}

func TestDebouncer_StopDropsWaitingCalls(t *testing.T) {
	d := newDebouncer(time.Hour)

	var n atomic.Int32
	d.add("a", func() { n.Add(1) })

	assert.True(t, d.stopAndWait(time.Second))
	d.add("a", func() { n.Add(1) })
	assert.Equal(t, int32(0), n.Load())
}
