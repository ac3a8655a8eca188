package dispatch

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/eventcode"
)

// fakeMainloop records Schedule/Activate calls and lets the test invoke
// the scheduled flush synchronously, the way the real mainloop would on
// its own goroutine.
type fakeMainloop struct {
	mu       sync.Mutex
	fn       func(force bool)
	activate int
}

func (m *fakeMainloop) Schedule(fn func(force bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

func (m *fakeMainloop) Activate() {
	m.mu.Lock()
	m.activate++
	m.mu.Unlock()
}

func (m *fakeMainloop) activations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activate
}

func (m *fakeMainloop) run(force bool) {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	fn(force)
}

// allInterested treats every code as interesting, mirroring an interest
// registry whose global mask is all-ones for the test's purposes.
type allInterested struct{}

func (allInterested) IsInteresting(eventcode.Code) bool { return true }

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPublishDiscardsUninterestingCode(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	checker := interestFunc(func(c eventcode.Code) bool { return c == eventcode.CIRC })

	reg := clientconn.NewRegistry()
	ml := &fakeMainloop{}
	d := New(checker, reg, ml, newTestLogger())
	d.BindMainloop()

	d.Publish(eventcode.STREAM, []byte("should be dropped"))
	assert.Equal(t, 0, d.QueueLen())

	d.Publish(eventcode.CIRC, []byte("kept"))
	assert.Equal(t, 1, d.QueueLen())
}

type interestFunc func(eventcode.Code) bool

func (f interestFunc) IsInteresting(c eventcode.Code) bool { return f(c) }

func TestFlushDeliversOnlyToSubscribedClients(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	circOnly := clientconn.NewConn()
	circOnly.SetMask(eventcode.CIRC.Bit())
	streamOnly := clientconn.NewConn()
	streamOnly.SetMask(eventcode.STREAM.Bit())
	reg.Add(circOnly)
	reg.Add(streamOnly)

	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()

	d.Publish(eventcode.CIRC, []byte("650 CIRC hi\r\n"))
	require.Equal(t, 1, ml.activations())

	ml.run(false)

	assert.Equal(t, "650 CIRC hi\r\n", string(circOnly.Outbound()))
	assert.Empty(t, streamOnly.Outbound())
	assert.Equal(t, 0, d.QueueLen())
}

func TestFlushSkipsClientsMarkedForClose(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	c := clientconn.NewConn()
	c.SetMask(eventcode.CIRC.Bit())
	c.MarkForClose()
	reg.Add(c)

	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()
	d.Publish(eventcode.CIRC, []byte("650 CIRC hi\r\n"))
	ml.run(false)

	assert.Empty(t, c.Outbound())
}

func TestPublishOffMainloopDoesNotScheduleFlush(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	c := clientconn.NewConn()
	c.SetMask(eventcode.CIRC.Bit())
	reg.Add(c)

	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	// Deliberately do not BindMainloop: every goroutine, including this
	// test's own, is then "not the mainloop thread".

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Publish(eventcode.CIRC, []byte("650 CIRC hi\r\n"))
	}()
	<-done

	assert.Equal(t, 0, ml.activations())
	assert.Equal(t, 1, d.QueueLen())

	// A subsequent independently scheduled flush still delivers it.
	ml.run(false)
	assert.Equal(t, "650 CIRC hi\r\n", string(c.Outbound()))
}

func TestCrossThreadOrderingPreservedPerClient(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	c := clientconn.NewConn()
	c.SetMask(eventcode.CIRC.Bit())
	reg.Add(c)

	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()

	// Force a deterministic mutex-acquisition order E1, E3, E2 across two
	// goroutines using a rendezvous channel, then assert the client sees
	// exactly that byte order after flush.
	step1 := make(chan struct{})
	step2 := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.Publish(eventcode.CIRC, []byte("E1"))
		close(step1)
		<-step2
		d.Publish(eventcode.CIRC, []byte("E2"))
	}()
	go func() {
		defer wg.Done()
		<-step1
		d.Publish(eventcode.CIRC, []byte("E3"))
		close(step2)
	}()
	wg.Wait()

	ml.run(false)
	assert.Equal(t, "E1E3E2", string(c.Outbound()))
}

func TestReentrantPublishDuringFlushIsDiscarded(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()

	// A client whose AppendOutbound simulates a log statement fired
	// during delivery that is itself hooked to re-publish. This must be
	// silently discarded rather than recurse.
	nested := &reentrantConn{}
	reg.Add(nested)
	nested.onAppend = func() {
		d.Publish(eventcode.WARN, []byte("reentrant, must be dropped"))
	}
	nested.SetMask(eventcode.CIRC.Bit().Set(eventcode.WARN))

	d.Publish(eventcode.CIRC, []byte("650 CIRC hi\r\n"))
	ml.run(false)

	assert.Equal(t, "650 CIRC hi\r\n", string(nested.Outbound()))
	assert.Equal(t, 0, d.QueueLen())
}

// reentrantConn wraps clientconn.Conn to call back into the dispatcher
// from AppendOutbound, simulating a log hook firing mid-delivery.
type reentrantConn struct {
	clientconn.Conn
	onAppend func()
}

func (c *reentrantConn) AppendOutbound(p []byte) {
	c.Conn.AppendOutbound(p)
	if c.onAppend != nil {
		f := c.onAppend
		c.onAppend = nil // avoid recursing on the dropped event's own append
		f()
	}
}

func TestFreeAllDiscardsQueueAndIsIdempotent(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()

	d.Publish(eventcode.CIRC, []byte("dropped on teardown"))
	require.Equal(t, 1, d.QueueLen())

	d.FreeAll()
	assert.Equal(t, 0, d.QueueLen())
	d.FreeAll() // idempotent
	assert.Equal(t, 0, d.QueueLen())
}

func TestLogDrainRunsBeforeGuardRaised(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)

	reg := clientconn.NewRegistry()
	c := clientconn.NewConn()
	c.SetMask(eventcode.WARN.Bit())
	reg.Add(c)

	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()
	d.SetLogDrain(func() {
		d.Publish(eventcode.WARN, []byte("650 WARN drained log line\r\n"))
	})

	ml.run(false)
	assert.Equal(t, "650 WARN drained log line\r\n", string(c.Outbound()))
}

func TestBindMainloopRequiredForActivation(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t)
	// A publish from the goroutine that called BindMainloop activates the
	// flush exactly once; TestPublishOffMainloopDoesNotScheduleFlush covers
	// the unbound case.
	reg := clientconn.NewRegistry()
	ml := &fakeMainloop{}
	d := New(allInterested{}, reg, ml, newTestLogger())
	d.BindMainloop()
	d.Publish(eventcode.CIRC, []byte("x"))
	assert.Equal(t, 1, ml.activations())
	<-time.After(time.Millisecond)
}
