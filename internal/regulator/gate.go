package regulator

// Gate detects the zero-crossing window on the rectified mains sense line.
//
// A reading below ZeroCross opens the window once; the "controlled" latch then
// holds until the reading rises above Rearm, so a noisy crossing arms only once.
type Gate struct {
	zeroCross  int
	rearm      int
	controlled bool
}

// NewGate creates a gate with the given thresholds in raw ADC counts.
func NewGate(zeroCross, rearm int) *Gate {
	return &Gate{zeroCross: zeroCross, rearm: rearm}
}

// Observe processes one mains reading and reports whether this reading opens
// a new half-cycle (the caller must arm the firing scheduler).
func (g *Gate) Observe(raw int) bool {
	if raw < g.zeroCross && !g.controlled {
		g.controlled = true
		return true
	}
	if raw > g.rearm {
		g.controlled = false
	}
	return false
}

// Controlled reports whether the current half-cycle has already been armed.
func (g *Gate) Controlled() bool {
	return g.controlled
}
