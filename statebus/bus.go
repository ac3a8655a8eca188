// Package statebus implements an in-process state bus: a one-way
// broadcast where publishers call Publish and every registered subscriber
// is invoked synchronously, in registration order, on the publisher's own
// goroutine. There is no wire encoding and no payload queue; a Subscriber
// is an interface value rather than a bare func so registrations can be
// compared for identity and deduplicated.
package statebus

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Message is one broadcast on the bus. ID is a fresh correlation id
// assigned by New, letting downstream logging correlate a single
// broadcast across every subscriber it reaches.
type Message struct {
	ID      uuid.UUID
	Topic   string
	Payload any
}

// New returns a Message with a fresh correlation ID.
func New(topic string, payload any) Message {
	return Message{ID: uuid.New(), Topic: topic, Payload: payload}
}

// Subscriber receives broadcasts registered on a Bus. Implementations
// should be comparable (e.g. a pointer or an interface-holding pointer
// type) so Register can suppress duplicate registrations by identity.
type Subscriber interface {
	Receive(msg Message)
}

// ErrNotInitialized is returned by Register and Publish when called
// before Init.
var ErrNotInitialized = errors.New("statebus: bus not initialized")

// ErrTornDown is returned by Register and Publish when called after
// Teardown.
var ErrTornDown = errors.New("statebus: bus torn down")

// Bus is the state bus. The zero value is not ready for use; construct
// one with NewBus.
type Bus struct {
	mu          sync.Mutex
	initialized bool
	tornDown    bool
	subs        []Subscriber
}

// NewBus returns an uninitialized Bus. Call Init before registering
// subscribers or publishing.
func NewBus() *Bus {
	return &Bus{}
}

// Init opens the registration window. Calling Init twice is a no-op.
func (b *Bus) Init() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
}

// Teardown closes the registration window and discards every subscriber.
// Safe to call multiple times.
func (b *Bus) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tornDown = true
	b.subs = nil
}

// Register adds s to the bus unless an identical Subscriber (by ==) is
// already registered, in which case it is a silent no-op. Returns
// ErrNotInitialized or ErrTornDown if called outside the init/teardown
// window.
func (b *Bus) Register(s Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return ErrNotInitialized
	}
	if b.tornDown {
		return ErrTornDown
	}
	for _, existing := range b.subs {
		if existing == s {
			return nil
		}
	}
	b.subs = append(b.subs, s)
	return nil
}

// Publish invokes every registered subscriber's Receive synchronously, in
// registration order, on the calling goroutine. The bus holds no payload
// queue: Publish imposes no ordering across concurrent callers beyond
// each individual call's own single pass over the subscriber list.
func (b *Bus) Publish(msg Message) error {
	b.mu.Lock()
	if !b.initialized {
		b.mu.Unlock()
		return ErrNotInitialized
	}
	if b.tornDown {
		b.mu.Unlock()
		return ErrTornDown
	}
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.Receive(msg)
	}
	return nil
}
