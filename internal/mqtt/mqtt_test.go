package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/blind-control/internal/control"
)

func TestFormatPayload(t *testing.T) {
	event := control.Event{
		Timestamp: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Nr:        2,
		Action:    "UP",
		Position:  100,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Blind.Timestamp != "2026-03-01T12:30:00Z" {
		t.Errorf("timestamp: got %q", p.Blind.Timestamp)
	}
	if p.Blind.Nr != 2 || p.Blind.Action != "UP" || p.Blind.Position != 100 {
		t.Errorf("payload: got %+v", p.Blind)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.System.Event != "SHUTDOWN" || p.System.Reason != "SIGTERM" {
		t.Errorf("payload: got %+v", p.System)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
	})
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["system"]["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := control.Event{Timestamp: time.Now(), Nr: 1, Action: "SYNC", Position: 40}
	if err := f.Publish(event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("publish system: %v", err)
	}

	if got := f.Recorded(); len(got) != 1 || got[0].Nr != 1 {
		t.Errorf("recorded events: got %+v", got)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system events: got %+v", f.SystemEvents)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker unreachable")

	if err := f.Publish(control.Event{}); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Recorded()) != 0 {
		t.Error("failed publish must not be recorded")
	}
}
