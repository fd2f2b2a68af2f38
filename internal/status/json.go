package status

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Ready         bool        `json:"ready"`
	Temperature   float64     `json:"temperature_c"`
	Ambient       float64     `json:"ambient_c"`
	Desired       float64     `json:"desired_c"`
	Power         int         `json:"power_pct"`
	DelayFraction float64     `json:"delay_fraction"`
	Controlled    bool        `json:"controlled"`
	Display       DisplayJSON `json:"display"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"counts"`
	Firing        FiringJSON  `json:"firing"`
	Config        ConfigJSON  `json:"config"`
}

// DisplayJSON describes the two digits currently shown.
type DisplayJSON struct {
	Digits string `json:"digits"`
	Mode   string `json:"mode"` // "setpoint" or "power"
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of regulator counts.
type CountsJSON struct {
	HalfCycles     int `json:"half_cycles"`
	ControlUpdates int `json:"control_updates"`
	SetpointUp     int `json:"setpoint_up"`
	SetpointDown   int `json:"setpoint_down"`
	ArmErrors      int `json:"arm_errors"`
	SensorErrors   int `json:"sensor_errors"`
}

// FiringJSON is the JSON representation of the firing scheduler.
type FiringJSON struct {
	State     string `json:"state"`
	Fires     uint64 `json:"fires"`
	Immediate uint64 `json:"immediate"`
	Skipped   uint64 `json:"skipped"`
	Errors    uint64 `json:"errors"`
	Late      uint64 `json:"late"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollUs      int64  `json:"poll_us"`
	SettleMs    int64  `json:"settle_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	MainsHz     int    `json:"mains_hz"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func buildInner(snap Snapshot) StatusInner {
	r := snap.Regulator
	f := snap.Frame()
	mode := "power"
	if f.Setpoint {
		mode = "setpoint"
	}

	return StatusInner{
		Ready:         r.Started,
		Temperature:   round(r.Temperature, 1),
		Ambient:       round(r.Ambient, 1),
		Desired:       r.Desired,
		Power:         int(math.Round(r.Duty * 100)),
		DelayFraction: round(r.DelayFraction, 4),
		Controlled:    r.Controlled,
		Display:       DisplayJSON{Digits: fmt.Sprintf("%d%d", f.Tens, f.Ones), Mode: mode},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			HalfCycles:     r.Counts.HalfCycles,
			ControlUpdates: r.Counts.ControlUpdates,
			SetpointUp:     r.Counts.SetpointUp,
			SetpointDown:   r.Counts.SetpointDown,
			ArmErrors:      r.Counts.ArmErrors,
			SensorErrors:   r.Counts.SensorErrors,
		},
		Firing: FiringJSON{
			State:     snap.FiringState.String(),
			Fires:     snap.Firing.Fires,
			Immediate: snap.Firing.Immediate,
			Skipped:   snap.Firing.Skipped,
			Errors:    snap.Firing.Errors,
			Late:      snap.Firing.Late,
		},
		Config: ConfigJSON{
			PollUs:      snap.Config.PollUs,
			SettleMs:    snap.Config.SettleMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			MainsHz:     snap.Config.MainsHz,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
