package gpio

import (
	"sync"
	"time"
)

// Readings reported by Crossing, in the 10-bit counts the mains gate expects.
const (
	CrossingLow  = 0
	CrossingHigh = 1023
)

// Crossing turns zero-cross comparator edges into mains readings: one low
// reading for each edge, high otherwise. Edge is called from the line event
// goroutine, Read from the control loop.
type Crossing struct {
	mu      sync.Mutex
	now     func() time.Time
	maxAge  time.Duration
	edge    time.Time
	pending bool
	edges   uint64
	missed  uint64
}

// NewCrossing returns a Crossing that drops edges older than maxAge when they
// are read. A maxAge of 0 keeps every edge.
func NewCrossing(maxAge time.Duration) *Crossing {
	return &Crossing{now: time.Now, maxAge: maxAge}
}

// Edge records a comparator edge that happened at t.
func (c *Crossing) Edge(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		c.missed++
	}
	c.edge = t
	c.pending = true
	c.edges++
}

// Read returns CrossingLow once per fresh edge and CrossingHigh otherwise.
func (c *Crossing) Read() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return CrossingHigh, nil
	}
	c.pending = false
	if c.maxAge > 0 && c.now().Sub(c.edge) > c.maxAge {
		c.missed++
		return CrossingHigh, nil
	}
	return CrossingLow, nil
}

// Sampled returns the time of the last edge.
func (c *Crossing) Sampled() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edge
}

// Stats returns the edges seen and how many of them were never acted on.
func (c *Crossing) Stats() (edges, missed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edges, c.missed
}
