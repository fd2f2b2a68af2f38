// Package regulator contains the pure control logic of the shower regulator.
// This package has NO direct hardware, MQTT or OS dependencies: inputs and
// outputs are reached through small interfaces and time is always injected
// via time.Time parameters.
package regulator

import "time"

// Plant model and control law. Empirical values for one heating element and
// flow rate; recalibrate together or not at all.
const (
	// PlantPole weights the re-centered measured temperature in the prediction.
	PlantPole = 0.9613
	// PlantGain ties the duty fraction to its steady-state temperature rise.
	PlantGain = 1.103
	// ErrorGain multiplies the current normalized error.
	ErrorGain = 0.143
	// PrevErrorGain multiplies the previous normalized error.
	PrevErrorGain = 0.1374
	// InitialRiseSpan is the temperature rise (°C) assumed for full duty when
	// the first duty fraction is computed at boot.
	InitialRiseSpan = 28.0
)

// Sampling filter.
const (
	// SmoothingKeep is the weight of the previous estimate.
	SmoothingKeep = 0.9
	// SmoothingNew is the weight of the new raw reading.
	SmoothingNew = 0.1
	// PrimeSamples is the number of smoothing updates taken at boot after the
	// first direct reading.
	PrimeSamples = 20
)

// Timing.
const (
	// ControlPeriod is how far the control instant advances after each update.
	ControlPeriod = 1000 * time.Millisecond
	// DisplayWindow is how long the setpoint stays on the display after a press.
	DisplayWindow = 5000 * time.Millisecond
)

// Setpoint defaults (°C).
const (
	DefaultDesired = 30.0
	DefaultMinimum = 20.0
	DefaultMaximum = 50.0
	SetpointStep   = 1.0
)

// Threshold defaults, in 10-bit ADC counts.
const (
	DefaultZeroCross   = 2
	DefaultRearm       = 10
	DefaultButtonPress = 2
	DefaultButtonSplit = 819
)

// Analog is one analog input channel returning raw ADC counts.
type Analog interface {
	Read() (int, error)
}

// Sensor returns the current temperature in °C.
type Sensor interface {
	Temperature() (float64, error)
}

// Firer arms the power switch for the current half-cycle.
// fraction is the FiringDelayFraction (1 - d).
type Firer interface {
	Arm(fraction float64) error
}

// SegmentWriter drives the display bank: seven segment lines (a..g) followed
// by the two digit-select lines.
type SegmentWriter interface {
	SetValues(values []int) error
}

// EventType identifies a reportable change.
type EventType string

const (
	EventSetpointUp   EventType = "SETPOINT_UP"
	EventSetpointDown EventType = "SETPOINT_DOWN"
)

// Event is a setpoint change to be published.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	Desired     float64
	Temperature float64
	Duty        float64
}

// State is a point-in-time copy of the values shared between components.
//
// Ownership (single writer, all on the main loop):
//   - Temperature: TemperatureSampler
//   - Desired, LastChange: SetpointInput
//   - Duty, Error, PrevError, Next: Controller
//   - Controlled: ZeroCrossGate
//   - Ambient: written once by Cycle.Start
type State struct {
	Temperature   float64
	Ambient       float64
	Desired       float64
	Duty          float64
	DelayFraction float64
	Error         float64
	PrevError     float64
	Controlled    bool
	Started       bool
	LastChange    time.Time
	Next          time.Time
	Counts        Counts
}

// Counts tracks activity since startup.
type Counts struct {
	HalfCycles     int
	ControlUpdates int
	SetpointUp     int
	SetpointDown   int
	ArmErrors      int
	SensorErrors   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// Result reports what one MainCycle iteration did.
type Result struct {
	// Armed is true when a zero-crossing was detected and the firing
	// scheduler was driven for this half-cycle.
	Armed bool
	// Updated is true when the controller ran its update.
	Updated bool
	Events  []Event
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
