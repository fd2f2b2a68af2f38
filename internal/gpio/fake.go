package gpio

import (
	"sync"
)

// FakePin is a test double that records every level written to it.
// Safe for use from the firing timer goroutine.
type FakePin struct {
	mu sync.Mutex

	// Values contains the written levels in order.
	Values []int

	// SetError, if set, will be returned by SetValue.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePin creates a FakePin.
func NewFakePin() *FakePin {
	return &FakePin{}
}

// SetValue records the level.
func (p *FakePin) SetValue(value int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SetError != nil {
		return p.SetError
	}
	p.Values = append(p.Values, value)
	return nil
}

// Pulses counts completed active-then-inactive transitions.
func (p *FakePin) Pulses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for i := 1; i < len(p.Values); i++ {
		if p.Values[i-1] == 1 && p.Values[i] == 0 {
			n++
		}
	}
	return n
}

// Close marks the pin as closed.
func (p *FakePin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// FakeBank is a test double that records every write to a line group.
type FakeBank struct {
	mu sync.Mutex

	// Writes contains a copy of every value slice written.
	Writes [][]int

	// SetError, if set, will be returned by SetValues.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBank creates a FakeBank.
func NewFakeBank() *FakeBank {
	return &FakeBank{}
}

// SetValues records a copy of values; callers may reuse the slice.
func (b *FakeBank) SetValues(values []int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SetError != nil {
		return b.SetError
	}
	b.Writes = append(b.Writes, append([]int(nil), values...))
	return nil
}

// Last returns the most recent write, or nil.
func (b *FakeBank) Last() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Writes) == 0 {
		return nil
	}
	return b.Writes[len(b.Writes)-1]
}

// Close marks the bank as closed.
func (b *FakeBank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// Reset clears recorded writes.
func (b *FakeBank) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Writes = nil
	b.Closed = false
}
