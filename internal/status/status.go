// Package status provides a thread-safe status tracker for the blind-control
// daemon. It is read by the HTTP handlers.
package status

import (
	"sort"
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	HTTPAddr     string
	Broker       string
	StateFile    string
	MaxPosition  int
	Hardware     bool
	PressMs      int64
	FullTravelMs int64
}

// ChannelStatus is the tracked state of one blind channel.
type ChannelStatus struct {
	Nr           int
	Position     int
	LastAction   string
	LastActionAt time.Time
}

// Counts tracks command totals since startup.
type Counts struct {
	Commands int
	Rejected int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Channels      []ChannelStatus // sorted by Nr
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu       sync.RWMutex
	channels map[int]ChannelStatus
	counts   Counts
	start    time.Time
	cfg      Config
	mqtt     bool
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		channels: make(map[int]ChannelStatus),
		start:    startTime,
		cfg:      cfg,
	}
}

// SeedChannels initializes channel positions from the loaded state.
func (t *Tracker) SeedChannels(positions map[int]int) {
	t.mu.Lock()
	for nr, pos := range positions {
		ch := t.channels[nr]
		ch.Nr = nr
		ch.Position = pos
		t.channels[nr] = ch
	}
	t.mu.Unlock()
}

// RecordCommand updates a channel after a committed command.
func (t *Tracker) RecordCommand(nr int, action string, pos int, at time.Time) {
	t.mu.Lock()
	t.channels[nr] = ChannelStatus{
		Nr:           nr,
		Position:     pos,
		LastAction:   action,
		LastActionAt: at,
	}
	t.counts.Commands++
	t.mu.Unlock()
}

// RecordRejected counts a failed command.
func (t *Tracker) RecordRejected() {
	t.mu.Lock()
	t.counts.Rejected++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqtt = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	channels := make([]ChannelStatus, 0, len(t.channels))
	for _, ch := range t.channels {
		channels = append(channels, ch)
	}
	s := Snapshot{
		Channels:      channels,
		Counts:        t.counts,
		StartTime:     t.start,
		MQTTConnected: t.mqtt,
		Config:        t.cfg,
	}
	t.mu.RUnlock()

	sort.Slice(s.Channels, func(i, j int) bool { return s.Channels[i].Nr < s.Channels[j].Nr })
	s.Now = time.Now()
	return s
}
