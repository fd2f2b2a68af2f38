package firing

import (
	"sync"
	"time"
)

// FakeTimer is a test double that records schedules and fires on demand.
type FakeTimer struct {
	mu sync.Mutex

	// Delays contains every duration passed to Start.
	Delays []time.Duration

	// Stops counts calls to Stop.
	Stops int

	f func()
}

// NewFakeTimer creates a FakeTimer.
func NewFakeTimer() *FakeTimer {
	return &FakeTimer{}
}

// Start records the delay and keeps f until Expire or Stop.
func (t *FakeTimer) Start(d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Delays = append(t.Delays, d)
	t.f = f
}

// Stop drops the pending callback.
func (t *FakeTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Stops++
	t.f = nil
}

// Pending reports whether a callback is scheduled.
func (t *FakeTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f != nil
}

// Expire runs the pending callback, as the hardware timer would.
// Returns false if nothing was scheduled.
func (t *FakeTimer) Expire() bool {
	t.mu.Lock()
	f := t.f
	t.f = nil
	t.mu.Unlock()
	if f == nil {
		return false
	}
	f()
	return true
}

// FakeTrigger records every value written to the trigger line.
type FakeTrigger struct {
	mu sync.Mutex

	// Values contains the written levels in order.
	Values []int

	// SetError, if set, will be returned by SetValue.
	SetError error
}

// SetValue records the level.
func (f *FakeTrigger) SetValue(v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, v)
	return nil
}

// Pulses counts completed high-then-low pulses.
func (f *FakeTrigger) Pulses() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i := 1; i < len(f.Values); i++ {
		if f.Values[i-1] == 1 && f.Values[i] == 0 {
			n++
		}
	}
	return n
}
