package dispatch

import "sync"

// GoroutineMainloop is a concrete Mainloop backed by a single dedicated
// goroutine: Activate wakes it (coalescing any activations that arrive
// while it is already running a flush), and it calls the scheduled
// callback with force=false on every wake.
type GoroutineMainloop struct {
	mu      sync.Mutex
	fn      func(force bool)
	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// NewGoroutineMainloop returns a mainloop with its background goroutine
// not yet started; call Run to start it.
func NewGoroutineMainloop() *GoroutineMainloop {
	return &GoroutineMainloop{
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Schedule implements Mainloop.
func (m *GoroutineMainloop) Schedule(fn func(force bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

// Activate implements Mainloop: it wakes the loop goroutine without
// blocking, coalescing with any pending wake that hasn't been consumed
// yet.
func (m *GoroutineMainloop) Activate() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run drives the loop until Stop is called. It must be run from its own
// goroutine by the caller — the dispatcher core never spawns goroutines
// on its own.
func (m *GoroutineMainloop) Run() {
	defer close(m.stopped)
	for {
		select {
		case <-m.wake:
			m.mu.Lock()
			fn := m.fn
			m.mu.Unlock()
			if fn != nil {
				fn(false)
			}
		case <-m.stop:
			return
		}
	}
}

// Stop signals Run to return and waits for it to do so.
func (m *GoroutineMainloop) Stop() {
	close(m.stop)
	<-m.stopped
}
