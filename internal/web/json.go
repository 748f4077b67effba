package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/blind-control/internal/status"
)

// SyncRequest is the body of POST /sync.
// Pointer fields distinguish "missing" from zero values.
type SyncRequest struct {
	Nr    *int `json:"nr"`
	Value *int `json:"value"`
}

// SyncResponse is the success body of POST /sync.
type SyncResponse struct {
	Status   string `json:"status"`
	Nr       int    `json:"nr"`
	Position int    `json:"position"`
}

// ActionRequest is one entry of the POST /actions body.
type ActionRequest struct {
	Nr         int    `json:"nr"`
	Action     string `json:"action"`
	DurationMs *int   `json:"duration_ms,omitempty"`
}

// ActionResult is the per-entry outcome in the POST /actions response.
type ActionResult struct {
	Nr       int    `json:"nr"`
	Action   string `json:"action"`
	Position *int   `json:"position,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ActionsResponse is the body of the POST /actions response.
type ActionsResponse struct {
	Status  string         `json:"status"`
	Results []ActionResult `json:"results"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Channels      []ChannelJSON `json:"channels"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"command_counts"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is the JSON representation of one blind channel.
type ChannelJSON struct {
	Nr           int    `json:"nr"`
	Position     int    `json:"position"`
	LastAction   string `json:"last_action,omitempty"`
	LastActionAt string `json:"last_action_at,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of command counts.
type CountsJSON struct {
	Commands int `json:"commands"`
	Rejected int `json:"rejected"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HTTPAddr     string `json:"http_addr"`
	Broker       string `json:"broker"`
	StateFile    string `json:"state_file"`
	MaxPosition  int    `json:"max_position"`
	Hardware     bool   `json:"hardware"`
	PressMs      int64  `json:"press_ms"`
	FullTravelMs int64  `json:"full_travel_ms"`
}

func formatJSON(snap status.Snapshot) []byte {
	channels := make([]ChannelJSON, len(snap.Channels))
	for i, ch := range snap.Channels {
		cj := ChannelJSON{
			Nr:         ch.Nr,
			Position:   ch.Position,
			LastAction: ch.LastAction,
		}
		if !ch.LastActionAt.IsZero() {
			cj.LastActionAt = ch.LastActionAt.UTC().Format(time.RFC3339)
		}
		channels[i] = cj
	}

	sj := StatusJSON{
		Status: StatusInner{
			Channels:      channels,
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
			Counts: CountsJSON{
				Commands: snap.Counts.Commands,
				Rejected: snap.Counts.Rejected,
			},
			Config: ConfigJSON{
				HTTPAddr:     snap.Config.HTTPAddr,
				Broker:       snap.Config.Broker,
				StateFile:    snap.Config.StateFile,
				MaxPosition:  snap.Config.MaxPosition,
				Hardware:     snap.Config.Hardware,
				PressMs:      snap.Config.PressMs,
				FullTravelMs: snap.Config.FullTravelMs,
			},
		},
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
