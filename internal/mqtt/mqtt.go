// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/blind-control/internal/control"
)

// Topic is the MQTT topic for blind state change events.
const Topic = "home/blinds/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/blinds/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a blind state change event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Retained  bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Blind BlindPayload `json:"blind"`
}

// BlindPayload contains the state change details.
type BlindPayload struct {
	Timestamp string `json:"timestamp"`
	Nr        int    `json:"nr"`
	Action    string `json:"action"`
	Position  int    `json:"position"`
}

// FormatPayload creates the JSON payload for a blind event.
func FormatPayload(event control.Event) ([]byte, error) {
	payload := Payload{
		Blind: BlindPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Nr:        event.Nr,
			Action:    event.Action,
			Position:  event.Position,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
