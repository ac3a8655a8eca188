package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutineMainloopRunsScheduledCallback(t *testing.T) {
	t.Parallel()
	m := NewGoroutineMainloop()
	calls := make(chan bool, 1)
	m.Schedule(func(force bool) { calls <- force })

	go m.Run()
	defer m.Stop()

	m.Activate()
	select {
	case got := <-calls:
		assert.False(t, got)
	case <-time.After(time.Second):
		t.Fatal("scheduled callback did not run")
	}
}

func TestGoroutineMainloopCoalescesActivations(t *testing.T) {
	t.Parallel()
	m := NewGoroutineMainloop()
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	m.Schedule(func(force bool) {
		started <- struct{}{}
		<-release
	})

	go m.Run()
	defer func() {
		close(release)
		m.Stop()
	}()

	m.Activate()
	<-started // first flush is now blocked on release

	m.Activate()
	m.Activate()
	m.Activate()

	require.Eventually(t, func() bool {
		return len(m.wake) <= 1
	}, time.Second, time.Millisecond)
}

func TestGoroutineMainloopStopUnblocksRun(t *testing.T) {
	t.Parallel()
	m := NewGoroutineMainloop()
	m.Schedule(func(bool) {})
	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	m.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
