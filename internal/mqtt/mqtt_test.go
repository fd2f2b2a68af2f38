package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/shower-regulator/internal/regulator"
)

var ts = time.Date(2026, 3, 14, 7, 15, 0, 0, time.UTC)

func TestFormatPayload(t *testing.T) {
	event := regulator.Event{
		Timestamp:   ts,
		Type:        regulator.EventSetpointUp,
		Desired:     31,
		Temperature: 29.4567,
		Duty:        0.8654,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"shower":{"timestamp":"2026-03-14T07:15:00Z","event":"SETPOINT_UP","desired_c":31,"temperature_c":29.5,"power_pct":87}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	event := regulator.Event{
		Timestamp: time.Date(2026, 3, 14, 4, 15, 0, 0, loc),
		Type:      regulator.EventSetpointDown,
		Desired:   29,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Shower.Timestamp != "2026-03-14T07:15:00Z" {
		t.Errorf("timestamp should be UTC, got %s", parsed.Shower.Timestamp)
	}
	if parsed.Shower.Event != "SETPOINT_DOWN" {
		t.Errorf("event: got %s, want SETPOINT_DOWN", parsed.Shower.Event)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	cases := []struct {
		event SystemEvent
		want  string
	}{
		{
			SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "SIGTERM"},
			`{"system":{"timestamp":"2026-03-14T07:15:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			SystemEvent{Timestamp: ts, Event: "RECONNECTED"},
			`{"system":{"timestamp":"2026-03-14T07:15:00Z","event":"RECONNECTED"}}`,
		},
		{
			SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"},
			`{"system":{"timestamp":"2026-03-14T07:15:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`,
		},
	}

	for _, c := range cases {
		payload, err := FormatSystemPayload(c.event)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.event.Event, err)
		}
		if string(payload) != c.want {
			t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, c.want)
		}
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload should pass through, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	event := regulator.Event{Timestamp: ts, Type: regulator.EventSetpointUp, Desired: 31}

	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0] != event {
		t.Errorf("events: got %+v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("payloads: got %d, want 1", len(f.Payloads))
	}

	f.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: ts, Event: "HEARTBEAT"})
	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "HEARTBEAT" {
		t.Errorf("system events: got %v", names)
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flag should be recorded as given")
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(regulator.Event{}); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}

	f.Close()
	if !f.Closed {
		t.Error("Close should mark the fake closed")
	}
}
