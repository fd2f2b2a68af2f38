package mqtt

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/shower-regulator/internal/regulator"
)

// gatedPublisher holds every send until gate is closed.
type gatedPublisher struct {
	*FakePublisher
	gate    chan struct{}
	started chan struct{}
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{
		FakePublisher: NewFakePublisher(),
		gate:          make(chan struct{}),
		started:       make(chan struct{}, 16),
	}
}

func (g *gatedPublisher) Publish(event regulator.Event) error {
	g.started <- struct{}{}
	<-g.gate
	return g.FakePublisher.Publish(event)
}

func (g *gatedPublisher) PublishSystem(event SystemEvent) error {
	g.started <- struct{}{}
	<-g.gate
	return g.FakePublisher.PublishSystem(event)
}

func waitStarted(t *testing.T, g *gatedPublisher) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(time.Second):
		t.Fatal("sender did not pick up the message")
	}
}

func TestAsyncPublishDoesNotWaitForBroker(t *testing.T) {
	next := newGatedPublisher()
	a := NewAsync(next, 8)

	begin := time.Now()
	for i := 0; i < 3; i++ {
		if err := a.Publish(regulator.Event{Timestamp: ts, Type: regulator.EventSetpointUp, Desired: float64(31 + i)}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if err := a.PublishSystem(SystemEvent{Timestamp: ts, Event: "HEARTBEAT"}); err != nil {
		t.Fatalf("publish system: %v", err)
	}
	if elapsed := time.Since(begin); elapsed > 100*time.Millisecond {
		t.Errorf("publishing took %v with the broker stalled", elapsed)
	}

	close(next.gate)
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(next.Events) != 3 {
		t.Fatalf("events: got %d, want 3", len(next.Events))
	}
	for i, ev := range next.Events {
		if ev.Desired != float64(31+i) {
			t.Errorf("event %d out of order: desired %v", i, ev.Desired)
		}
	}
	if len(next.SystemEvents) != 1 || next.SystemEvents[0].Event != "HEARTBEAT" {
		t.Errorf("system events: got %v", next.SystemEventNames())
	}
	if !next.Closed {
		t.Error("Close should close the underlying publisher")
	}
}

func TestAsyncBacklogFull(t *testing.T) {
	next := newGatedPublisher()
	a := NewAsync(next, 1)

	a.Publish(regulator.Event{Timestamp: ts, Desired: 31})
	waitStarted(t, next) // first message is with the sender
	if err := a.Publish(regulator.Event{Timestamp: ts, Desired: 32}); err != nil {
		t.Fatalf("second publish should fill the backlog: %v", err)
	}
	if a.Pending() != 1 {
		t.Errorf("pending: got %d, want 1", a.Pending())
	}
	if err := a.Publish(regulator.Event{Timestamp: ts, Desired: 33}); !errors.Is(err, ErrBacklogFull) {
		t.Errorf("third publish: got %v, want ErrBacklogFull", err)
	}

	close(next.gate)
	a.Close()
	if len(next.Events) != 2 {
		t.Errorf("events: got %d, want 2", len(next.Events))
	}
}

func TestAsyncSendErrorsAreLogged(t *testing.T) {
	next := NewFakePublisher()
	next.PublishError = errors.New("not authorized")
	a := NewAsync(next, 0)

	if err := a.Publish(regulator.Event{Timestamp: ts}); err != nil {
		t.Errorf("publish should not report the broker error: %v", err)
	}
	a.Close()
	if len(next.Events) != 0 {
		t.Errorf("events: got %d, want 0", len(next.Events))
	}
}

func TestAsyncClose(t *testing.T) {
	next := newGatedPublisher()
	a := NewAsync(next, 4)
	a.drain = 20 * time.Millisecond

	a.PublishSystem(SystemEvent{Timestamp: ts, Event: "SHUTDOWN"})
	waitStarted(t, next)

	begin := time.Now()
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("close waited %v on a stalled broker", elapsed)
	}
	if err := a.Publish(regulator.Event{Timestamp: ts}); !errors.Is(err, ErrClosed) {
		t.Errorf("publish after close: got %v, want ErrClosed", err)
	}
	close(next.gate)
}
