package regulator

import "time"

// SetpointConfig holds the button ladder thresholds and setpoint bounds.
type SetpointConfig struct {
	// Press: readings below this latch a press.
	Press int
	// Split: the first reading after a latched press below this is an
	// increase, at or above it a decrease.
	Split   int
	Desired float64
	Minimum float64
	Maximum float64
}

// DefaultSetpointConfig returns the thresholds of the stock resistor ladder.
func DefaultSetpointConfig() SetpointConfig {
	return SetpointConfig{
		Press:   DefaultButtonPress,
		Split:   DefaultButtonSplit,
		Desired: DefaultDesired,
		Minimum: DefaultMinimum,
		Maximum: DefaultMaximum,
	}
}

// Setpoint debounces the two-button ladder and owns DesiredTemperature.
type Setpoint struct {
	cfg        SetpointConfig
	desired    float64
	latched    bool
	lastChange time.Time
}

// NewSetpoint creates a setpoint input. since is used as the initial
// last-change time, so the setpoint is shown right after boot.
func NewSetpoint(cfg SetpointConfig, since time.Time) *Setpoint {
	return &Setpoint{
		cfg:        cfg,
		desired:    clamp(cfg.Desired, cfg.Minimum, cfg.Maximum),
		lastChange: since,
	}
}

// Poll processes one button ladder reading.
// A press is latched while the reading is in the low band; the edge is
// consumed on the first poll that leaves it, so a held button counts once.
// Returns the event type when DesiredTemperature changed, "" otherwise.
func (s *Setpoint) Poll(raw int, now time.Time) EventType {
	if raw < s.cfg.Press {
		s.latched = true
		return ""
	}
	if !s.latched {
		return ""
	}

	s.latched = false
	s.lastChange = now

	step, typ := SetpointStep, EventSetpointUp
	if raw >= s.cfg.Split {
		step, typ = -SetpointStep, EventSetpointDown
	}

	next := clamp(s.desired+step, s.cfg.Minimum, s.cfg.Maximum)
	if next == s.desired {
		return ""
	}
	s.desired = next
	return typ
}

// Desired returns DesiredTemperature.
func (s *Setpoint) Desired() float64 {
	return s.desired
}

// LastChange returns when the last press was consumed.
func (s *Setpoint) LastChange() time.Time {
	return s.lastChange
}

// Latched reports whether a press is waiting to be consumed.
func (s *Setpoint) Latched() bool {
	return s.latched
}
