package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() (*Scheduler, *ManualClock) {
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	return New(clock), clock
}

func TestPostRunsInOrder(t *testing.T) {
	s, _ := newTestScheduler()
	var got []int

	for i := 0; i < 5; i++ {
		require.True(t, s.Post("step", func() { got = append(got, i) }))
	}

	assert.Equal(t, 5, s.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestPostNeverBlocks(t *testing.T) {
	s, _ := newTestScheduler()

	for i := 0; i < DefaultQueueSize; i++ {
		require.True(t, s.Post("fill", func() {}))
	}
	assert.False(t, s.Post("overflow", func() {}))
	assert.Equal(t, 1, s.Dropped())
}

func TestAfterFiresOnVirtualClock(t *testing.T) {
	s, clock := newTestScheduler()
	fired := 0

	s.After("copy", 250*time.Millisecond, func() { fired++ })
	assert.True(t, s.IsPending("copy"))

	clock.Advance(249 * time.Millisecond)
	s.RunPending()
	assert.Equal(t, 0, fired)

	clock.Advance(time.Millisecond)
	assert.False(t, s.IsPending("copy"))
	s.RunPending()
	assert.Equal(t, 1, fired)
}

func TestAfterReplacesSameName(t *testing.T) {
	s, clock := newTestScheduler()
	var got []string

	s.After("reassert", 50*time.Millisecond, func() { got = append(got, "first") })
	clock.Advance(30 * time.Millisecond)
	s.After("reassert", 50*time.Millisecond, func() { got = append(got, "second") })

	clock.Advance(30 * time.Millisecond)
	s.RunPending()
	assert.Empty(t, got, "replaced task must not fire")

	clock.Advance(20 * time.Millisecond)
	s.RunPending()
	assert.Equal(t, []string{"second"}, got)
}

func TestCancel(t *testing.T) {
	s, clock := newTestScheduler()
	fired := false

	s.After("copy", time.Second, func() { fired = true })
	assert.True(t, s.Cancel("copy"))
	assert.False(t, s.Cancel("copy"))

	clock.Advance(2 * time.Second)
	s.RunPending()
	assert.False(t, fired)
	assert.Equal(t, 0, clock.Pending())
}

func TestPanicInTaskIsRecovered(t *testing.T) {
	s, _ := newTestScheduler()
	ran := false

	s.Post("boom", func() { panic("boom") })
	s.Post("after", func() { ran = true })

	assert.NotPanics(t, func() { s.RunPending() })
	assert.True(t, ran)
}

func TestCloseRejectsWork(t *testing.T) {
	s, clock := newTestScheduler()
	fired := false

	s.After("late", 10*time.Millisecond, func() { fired = true })
	s.Post("queued", func() { fired = true })
	s.Close()
	s.Close()

	assert.False(t, s.Post("new", func() {}))
	s.After("new", time.Millisecond, func() { fired = true })

	clock.Advance(time.Second)
	assert.Equal(t, 0, s.RunPending())
	assert.False(t, fired)
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	s := New(SystemClock{})
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()

	done := make(chan struct{})
	s.After("tick", 5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task did not run")
	}

	cancel()
	wg.Wait()
}

func TestManualClockOrdering(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var got []string

	clock.AfterFunc(20*time.Millisecond, func() { got = append(got, "b") })
	clock.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	stopped := clock.AfterFunc(15*time.Millisecond, func() { got = append(got, "x") })
	clock.AfterFunc(20*time.Millisecond, func() { got = append(got, "c") })

	assert.True(t, stopped.Stop())
	clock.Advance(time.Second)

	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, time.Unix(1, 0), clock.Now())
}
