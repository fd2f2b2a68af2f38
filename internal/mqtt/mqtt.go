// Package mqtt publishes regulator events to an MQTT broker, with an
// interface so the main loop can be tested without one.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/shower-regulator/internal/regulator"
)

// Topic is the MQTT topic for setpoint events.
const Topic = "home/shower/regulator/events"

// TopicSystem is the MQTT topic for lifecycle events and status snapshots.
const TopicSystem = "home/shower/regulator/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a setpoint event. Failures are reported, never fatal.
	Publish(event regulator.Event) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // shutdown only, e.g. "SIGTERM"
	RawPayload []byte // pre-formatted status snapshot; sent verbatim when set
	Retained   bool
}

// Payload is the JSON body of a setpoint event.
type Payload struct {
	Shower ShowerPayload `json:"shower"`
}

// ShowerPayload contains the setpoint event details.
type ShowerPayload struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	Desired     float64 `json:"desired_c"`
	Temperature float64 `json:"temperature_c"`
	Power       int     `json:"power_pct"`
}

// FormatPayload creates the JSON payload for a setpoint event.
func FormatPayload(event regulator.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Shower: ShowerPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			Desired:     event.Desired,
			Temperature: round1(event.Temperature),
			Power:       int(math.Round(event.Duty * 100)),
		},
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SystemPayload is the JSON body of a lifecycle event without a snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
// A RawPayload is returned unchanged.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
