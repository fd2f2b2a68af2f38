// Package firing drives the power switch a computed fraction into each mains
// half-cycle.
//
// Arm is called from the main loop; the timer callback is the only other
// context. The two share nothing but the pending fire event and the state
// word, both accessed atomically.
package firing

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Timing constants for 60 Hz mains.
const (
	// HalfCycle60Hz is one zero-crossing-to-zero-crossing interval at 60 Hz.
	HalfCycle60Hz = 8333 * time.Microsecond
	// HalfCycle50Hz is one zero-crossing-to-zero-crossing interval at 50 Hz.
	HalfCycle50Hz = 10000 * time.Microsecond
	// LatencyScale shortens the programmed delay to absorb the fixed latency
	// between timer expiry and the trigger edge.
	LatencyScale = 0.88
	// LongPulse is used near full power, where the triac carries little
	// current right after the crossing and needs a longer gate pulse to latch.
	LongPulse = 1000 * time.Microsecond
	// ShortPulse is used otherwise.
	ShortPulse = 100 * time.Microsecond
	// LongPulseBelow selects LongPulse for delay fractions under this value.
	LongPulseBelow = 0.1

	releaseAttempts = 3
)

// ErrArmed is returned when Arm is called while a fire event is pending.
var ErrArmed = errors.New("firing: already armed")

// State is the scheduler state.
type State int32

const (
	StateIdle State = iota
	StateArmed
	StateFired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateArmed:
		return "ARMED"
	case StateFired:
		return "FIRED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Trigger is the power-switch trigger line.
type Trigger interface {
	SetValue(value int) error
}

// Timer is a one-shot timer. Start schedules f after d; Stop cancels a
// pending expiry and is safe to call from within f.
type Timer interface {
	Start(d time.Duration, f func())
	Stop()
}

// Stats counts scheduler activity since startup.
type Stats struct {
	Fires     uint64 // pulses delivered from the timer
	Immediate uint64 // pulses delivered directly at full power
	Skipped   uint64 // half-cycles with zero power requested
	Errors    uint64 // pulses with a failed trigger line write
	Late      uint64 // timed fires whose reference was older than the delay
}

// event is the single pending fire slot.
type event struct {
	pulse time.Duration
}

var (
	sleepFn = time.Sleep
	nowFn   = time.Now
)

// Scheduler is the FiringScheduler state machine.
type Scheduler struct {
	trigger   Trigger
	timer     Timer
	halfCycle time.Duration
	reference func() time.Time

	state   atomic.Int32
	pending atomic.Pointer[event]

	fires     atomic.Uint64
	immediate atomic.Uint64
	skipped   atomic.Uint64
	errs      atomic.Uint64
	late      atomic.Uint64
}

// New creates a scheduler pulsing trigger, timed by timer, for mains with the
// given half-cycle duration.
func New(trigger Trigger, timer Timer, halfCycle time.Duration) *Scheduler {
	if halfCycle <= 0 {
		halfCycle = HalfCycle60Hz
	}
	return &Scheduler{trigger: trigger, timer: timer, halfCycle: halfCycle}
}

// SetReference sets where the firing delay is measured from: ref returns the
// instant the mains reading that opened the window was taken. The time
// between that instant and Arm is taken off the delay. Without a reference
// the delay runs from Arm. Call before the first Arm.
func (s *Scheduler) SetReference(ref func() time.Time) {
	s.reference = ref
}

// Delay returns the timer delay for a firing delay fraction.
func (s *Scheduler) Delay(fraction float64) time.Duration {
	return time.Duration(fraction * float64(s.halfCycle) * LatencyScale)
}

// PulseWidth returns the gate pulse width for a firing delay fraction.
func PulseWidth(fraction float64) time.Duration {
	if fraction < LongPulseBelow {
		return LongPulse
	}
	return ShortPulse
}

// Arm schedules the power switch for this half-cycle.
//
// A fraction of 0 (full power) pulses immediately on the caller's goroutine.
// A fraction of 1 or more (zero power) schedules nothing. Anything in between
// programs the one-shot timer.
func (s *Scheduler) Arm(fraction float64) error {
	if fraction >= 1 {
		s.skipped.Add(1)
		return nil
	}

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateArmed)) {
		return ErrArmed
	}

	pulse := PulseWidth(fraction)
	if fraction <= 0 {
		s.state.Store(int32(StateFired))
		err := s.pulse(pulse)
		s.state.Store(int32(StateIdle))
		if err != nil {
			return err
		}
		s.immediate.Add(1)
		return nil
	}

	delay := s.Delay(fraction) - s.age()
	if delay < 0 {
		delay = 0
		s.late.Add(1)
	}
	s.pending.Store(&event{pulse: pulse})
	s.timer.Start(delay, s.expire)
	return nil
}

// age returns how long ago the reference reading was taken.
func (s *Scheduler) age() time.Duration {
	if s.reference == nil {
		return 0
	}
	at := s.reference()
	if at.IsZero() {
		return 0
	}
	if d := nowFn().Sub(at); d > 0 {
		return d
	}
	return 0
}

// expire is the timer callback: pulse, stop the timer, return to IDLE.
func (s *Scheduler) expire() {
	ev := s.pending.Swap(nil)
	if ev == nil {
		return
	}
	s.state.Store(int32(StateFired))
	if err := s.pulse(ev.pulse); err == nil {
		s.fires.Add(1)
	}
	s.timer.Stop()
	s.state.Store(int32(StateIdle))
}

// pulse drives the trigger high for width, then low. The line is released on
// every path, including a failed assert. A pulse with any failed write counts
// as one error.
func (s *Scheduler) pulse(width time.Duration) error {
	var err error
	if aerr := s.trigger.SetValue(1); aerr != nil {
		err = fmt.Errorf("firing: assert trigger: %w", aerr)
	} else {
		sleepFn(width)
	}
	retried, rerr := s.release()
	if err != nil || retried {
		s.errs.Add(1)
	}
	return errors.Join(err, rerr)
}

// release drives the trigger low, retrying up to releaseAttempts writes.
// retried reports whether any write failed.
func (s *Scheduler) release() (retried bool, err error) {
	for i := 0; i < releaseAttempts; i++ {
		if err = s.trigger.SetValue(0); err == nil {
			return i > 0, nil
		}
	}
	return true, fmt.Errorf("firing: deassert trigger: %w", err)
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns activity counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Fires:     s.fires.Load(),
		Immediate: s.immediate.Load(),
		Skipped:   s.skipped.Load(),
		Errors:    s.errs.Load(),
		Late:      s.late.Load(),
	}
}

// Close cancels any pending fire event and drives the trigger line low.
func (s *Scheduler) Close() error {
	s.timer.Stop()
	s.pending.Store(nil)
	s.state.Store(int32(StateIdle))
	_, err := s.release()
	return err
}
