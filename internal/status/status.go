// Package status provides a thread-safe status tracker for the regulator.
// It is written by the control loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/shower-regulator/internal/firing"
	"github.com/sweeney/shower-regulator/internal/regulator"
)

// Config contains daemon configuration for display.
type Config struct {
	PollUs      int64
	SettleMs    int64
	HeartbeatMs int64
	MainsHz     int
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Regulator     regulator.State
	Firing        firing.Stats
	FiringState   firing.State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Frame returns what the display shows at Now.
func (s Snapshot) Frame() regulator.Frame {
	r := s.Regulator
	return regulator.FrameFor(s.Now, r.LastChange, r.Desired, r.Duty)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the regulator state and firing counters.
// Called from the control loop after each step.
func (t *Tracker) Update(state regulator.State, fs firing.State, stats firing.Stats) {
	t.mu.Lock()
	t.snap.Regulator = state
	t.snap.FiringState = fs
	t.snap.Firing = stats
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state with Now set to
// the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
