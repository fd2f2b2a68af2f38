package regulator

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotStarted is returned by Step before Start has taken the baseline.
var ErrNotStarted = errors.New("regulator: cycle not started")

// Config holds the thresholds used by the main cycle.
type Config struct {
	ZeroCross int // mains reading below this opens the firing window
	Rearm     int // mains reading above this re-arms the gate
	Setpoint  SetpointConfig
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ZeroCross: DefaultZeroCross,
		Rearm:     DefaultRearm,
		Setpoint:  DefaultSetpointConfig(),
	}
}

// Parts are the hardware-facing collaborators of the cycle.
type Parts struct {
	Mains    Analog
	Button   Analog
	Sensor   Sensor
	Firer    Firer
	Segments SegmentWriter
}

// Cycle is the cooperative main loop body. It is not safe for concurrent use;
// every method must be called from the single control goroutine.
type Cycle struct {
	mains  Analog
	button Analog
	firer  Firer

	gate       *Gate
	sampler    *Sampler
	setpoint   *Setpoint
	controller *Controller
	display    *Display

	startTime     time.Time
	started       bool
	counts        Counts
	lastHeartbeat time.Time
}

// NewCycle wires the components. boot is the power-on instant: the setpoint
// is displayed for DisplayWindow after it and heartbeat uptime counts from it.
func NewCycle(p Parts, cfg Config, boot time.Time) *Cycle {
	sampler := NewSampler(p.Sensor)
	return &Cycle{
		mains:         p.Mains,
		button:        p.Button,
		firer:         p.Firer,
		gate:          NewGate(cfg.ZeroCross, cfg.Rearm),
		sampler:       sampler,
		setpoint:      NewSetpoint(cfg.Setpoint, boot),
		controller:    NewController(sampler),
		display:       NewDisplay(p.Segments),
		startTime:     boot,
		lastHeartbeat: boot,
	}
}

// Start takes the ambient baseline (one reading plus PrimeSamples smoothing
// updates), computes the initial duty fraction and schedules the first
// control instant at now. Call it once, after the settle delay.
func (c *Cycle) Start(now time.Time) error {
	ambient, err := c.sampler.Prime(PrimeSamples)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	c.controller.Start(ambient, c.setpoint.Desired(), now)
	c.started = true
	return nil
}

// Step runs one iteration of the main loop.
// On a new zero-crossing it arms the firing scheduler with the delay computed
// during the previous update, then refreshes the display, polls the buttons
// and runs the controller, in that order. Every stage runs even if an earlier
// one failed; the failures are joined into the returned error.
func (c *Cycle) Step(now time.Time) (Result, error) {
	if !c.started {
		return Result{}, ErrNotStarted
	}

	raw, err := c.mains.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read mains: %w", err)
	}
	if !c.gate.Observe(raw) {
		return Result{}, nil
	}

	c.counts.HalfCycles++
	res := Result{Armed: true}
	var errs []error

	if err := c.firer.Arm(c.controller.DelayFraction()); err != nil {
		c.counts.ArmErrors++
		errs = append(errs, fmt.Errorf("arm: %w", err))
	}

	frame := FrameFor(now, c.setpoint.LastChange(), c.setpoint.Desired(), c.controller.Duty())
	if err := c.display.Refresh(frame); err != nil {
		errs = append(errs, err)
	}

	if btn, err := c.button.Read(); err != nil {
		errs = append(errs, fmt.Errorf("read button: %w", err))
	} else if typ := c.setpoint.Poll(btn, now); typ != "" {
		if typ == EventSetpointUp {
			c.counts.SetpointUp++
		} else {
			c.counts.SetpointDown++
		}
		res.Events = append(res.Events, Event{
			Timestamp:   now,
			Type:        typ,
			Desired:     c.setpoint.Desired(),
			Temperature: c.sampler.Estimate(),
			Duty:        c.controller.Duty(),
		})
	}

	updated, err := c.controller.Update(now, c.setpoint.Desired())
	if updated {
		res.Updated = true
		c.counts.ControlUpdates++
	}
	if err != nil {
		c.counts.SensorErrors++
		errs = append(errs, err)
	}

	return res, errors.Join(errs...)
}

// Snapshot returns a copy of the shared state.
func (c *Cycle) Snapshot() State {
	e, prev := c.controller.Errors()
	return State{
		Temperature:   c.sampler.Estimate(),
		Ambient:       c.controller.Ambient(),
		Desired:       c.setpoint.Desired(),
		Duty:          c.controller.Duty(),
		DelayFraction: c.controller.DelayFraction(),
		Error:         e,
		PrevError:     prev,
		Controlled:    c.gate.Controlled(),
		Started:       c.started,
		LastChange:    c.setpoint.LastChange(),
		Next:          c.controller.Next(),
		Counts:        c.counts,
	}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or boot). Returns nil before Start, if the interval has not
// elapsed, or if interval is <= 0 (disabled).
func (c *Cycle) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 || !c.started {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
