// Package clientconn defines the opaque client-connection handle shared by
// the interest registry, dispatcher, and reply writer. The core never
// constructs or destroys a Handle; it observes an externally maintained
// collection of connections.
package clientconn

import (
	"bytes"
	"sync"

	"github.com/tlyu/ctrlevent/eventcode"
)

// Handle is the minimal view of an administrative connection that the
// event-delivery core needs: its subscription mask, its outbound buffer,
// and its lifecycle flags. Production code backs this with a real network
// connection; tests back it with Conn below.
type Handle interface {
	// Mask returns the client's current event subscription mask.
	Mask() eventcode.Mask
	// SetMask stores a new subscription mask. It does not itself trigger
	// recomputation of the global mask; callers go through
	// interest.Registry.SetClientMask for that.
	SetMask(m eventcode.Mask)
	// AppendOutbound appends p to the client's outbound buffer. It must
	// not block or touch the network; this core only ever appends.
	AppendOutbound(p []byte)
	// MarkedForClose reports whether this connection is slated for
	// teardown and should be excluded from delivery.
	MarkedForClose() bool
	// RequestFlush asks the owner of this connection to push its
	// outbound buffer to the network as soon as possible. Used by a
	// forced dispatcher flush.
	RequestFlush()
	// Flushed reports whether the outbound buffer has been drained to
	// the network since the last append.
	Flushed() bool
}

// Conn is a minimal concrete Handle: an in-memory outbound buffer plus the
// mask and close-mark fields. It is not goroutine-safe by itself — like
// every Handle, it is only ever touched from the single mainloop thread —
// and is suitable both for the control listener's real connections and for
// tests.
type Conn struct {
	mask           eventcode.Mask
	markedForClose bool
	flushed        bool
	outbuf         bytes.Buffer

	// flushRequests counts RequestFlush calls; tests assert against it.
	// Production wiring overrides OnFlushRequested to perform the actual
	// network write instead.
	flushRequests int
	// OnFlushRequested, if set, is invoked by RequestFlush in addition to
	// incrementing flushRequests.
	OnFlushRequested func()
}

// NewConn returns a fresh, empty Conn with no subscriptions. Its empty
// outbound buffer counts as flushed.
func NewConn() *Conn { return &Conn{flushed: true} }

func (c *Conn) Mask() eventcode.Mask    { return c.mask }
func (c *Conn) SetMask(m eventcode.Mask) { c.mask = m }

func (c *Conn) AppendOutbound(p []byte) {
	c.outbuf.Write(p)
	c.flushed = false
}

func (c *Conn) MarkedForClose() bool { return c.markedForClose }
func (c *Conn) MarkForClose()        { c.markedForClose = true }

func (c *Conn) Flushed() bool { return c.flushed }

func (c *Conn) RequestFlush() {
	c.flushRequests++
	c.flushed = true
	if c.OnFlushRequested != nil {
		c.OnFlushRequested()
	}
}

// FlushRequests reports how many times RequestFlush has been called.
func (c *Conn) FlushRequests() int { return c.flushRequests }

// Outbound returns a copy of the bytes appended so far.
func (c *Conn) Outbound() []byte {
	return append([]byte(nil), c.outbuf.Bytes()...)
}

// ResetOutbound discards everything written so far, simulating a network
// flush having drained the buffer.
func (c *Conn) ResetOutbound() { c.outbuf.Reset() }

// Registry is a simple externally maintained collection of Handles: an
// iterable set of open connections. Production code can back this with
// whatever owns real sockets; it need not be this type.
type Registry struct {
	mu    sync.Mutex
	conns []Handle
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry { return &Registry{} }

// Add registers a handle as open.
func (r *Registry) Add(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = append(r.conns, h)
}

// Remove unregisters a handle (e.g. on disconnect).
func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.conns {
		if c == h {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return
		}
	}
}

// OpenControlConns returns every registered handle that is not marked for
// close. The returned slice is a snapshot; mutating it does not affect the
// registry.
func (r *Registry) OpenControlConns() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.conns))
	for _, c := range r.conns {
		if !c.MarkedForClose() {
			out = append(out, c)
		}
	}
	return out
}
