package mqtt

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sweeney/shower-regulator/internal/regulator"
)

// DefaultBacklog bounds the messages waiting for the sender goroutine.
const DefaultBacklog = 32

// DefaultDrainTimeout bounds how long Close waits for the backlog to go out.
const DefaultDrainTimeout = 5 * time.Second

var (
	// ErrBacklogFull is returned when the sender has fallen behind.
	ErrBacklogFull = errors.New("mqtt: backlog full, message dropped")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("mqtt: publisher closed")
)

type job struct {
	name string
	send func() error
}

// Async hands messages to another Publisher on its own goroutine, so the
// caller never waits on the broker. Messages are sent in order.
type Async struct {
	next  Publisher
	jobs  chan job
	done  chan struct{}
	drain time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts a sender for next holding at most backlog messages.
func NewAsync(next Publisher, backlog int) *Async {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	a := &Async{
		next:  next,
		jobs:  make(chan job, backlog),
		done:  make(chan struct{}),
		drain: DefaultDrainTimeout,
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.jobs {
		if err := j.send(); err != nil {
			log.Printf("mqtt: publish %s: %v", j.name, err)
		}
	}
}

// Publish queues a setpoint event. It never blocks.
func (a *Async) Publish(event regulator.Event) error {
	return a.enqueue(job{name: string(event.Type), send: func() error { return a.next.Publish(event) }})
}

// PublishSystem queues a lifecycle event. It never blocks.
func (a *Async) PublishSystem(event SystemEvent) error {
	return a.enqueue(job{name: event.Event, send: func() error { return a.next.PublishSystem(event) }})
}

func (a *Async) enqueue(j job) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.jobs <- j:
		return nil
	default:
		return ErrBacklogFull
	}
}

// Pending returns the number of queued messages.
func (a *Async) Pending() int {
	return len(a.jobs)
}

// Close stops accepting messages, waits up to the drain timeout for the
// queued ones and closes the underlying publisher.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drain):
		log.Printf("mqtt: %d messages not sent after %v", len(a.jobs), a.drain)
	}
	return a.next.Close()
}
