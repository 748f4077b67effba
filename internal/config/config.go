// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sweeney/blind-control/internal/position"
)

// ChannelConfig describes one blind channel and its relay pins.
type ChannelConfig struct {
	Nr      int  `yaml:"nr"`
	UpPin   *int `yaml:"up_pin"`
	DownPin *int `yaml:"down_pin"`
	StopPin *int `yaml:"stop_pin"`
}

// Config is the main configuration structure for blind-control.
type Config struct {
	// HTTP listen address (empty disables the HTTP server).
	HTTPAddr string `yaml:"http_addr"`

	// MQTT broker address (empty disables event publishing).
	Broker string `yaml:"broker"`

	// Path of the persisted channel position file.
	StateFile string `yaml:"state_file"`

	// Hardware selects the real GPIO driver; false runs in simulation mode.
	Hardware bool `yaml:"hardware"`

	// GPIO character device name.
	Chip string `yaml:"chip"`

	// ActiveHigh selects relay polarity. Most opto-isolated relay boards
	// are active-low.
	ActiveHigh bool `yaml:"active_high"`

	// Position bounds and step size.
	MaxPosition int `yaml:"max_position"`
	Step        int `yaml:"step"`

	// Relay hold durations.
	PressMs     int `yaml:"press_ms"`
	StepPressMs int `yaml:"step_press_ms"`

	// Time for a blind to traverse the full range, used by the open-loop
	// estimator when a STOP interrupts a traversal.
	FullTravelMs int `yaml:"full_travel_ms"`

	// StopEstimate: "interpolate" or "snap".
	StopEstimate string `yaml:"stop_estimate"`

	Channels []ChannelConfig `yaml:"channels"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		HTTPAddr:     ":4000",
		StateFile:    "storage/state.json",
		Hardware:     true,
		Chip:         "gpiochip0",
		ActiveHigh:   false,
		MaxPosition:  100,
		Step:         5,
		PressMs:      300,
		StepPressMs:  100,
		FullTravelMs: 20000,
		StopEstimate: string(position.StopInterpolate),
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.MaxPosition < 1 {
		return fmt.Errorf("max_position must be >= 1, got %d", c.MaxPosition)
	}
	if c.Step < 1 {
		return fmt.Errorf("step must be >= 1, got %d", c.Step)
	}
	if c.PressMs <= 0 || c.StepPressMs <= 0 {
		return fmt.Errorf("press_ms and step_press_ms must be positive")
	}
	if c.FullTravelMs < 0 {
		return fmt.Errorf("full_travel_ms must not be negative, got %d", c.FullTravelMs)
	}
	switch position.StopEstimate(c.StopEstimate) {
	case position.StopInterpolate, position.StopSnap:
	default:
		return fmt.Errorf("stop_estimate must be %q or %q, got %q",
			position.StopInterpolate, position.StopSnap, c.StopEstimate)
	}
	if c.StateFile == "" {
		return fmt.Errorf("state_file must not be empty")
	}

	if len(c.Channels) == 0 {
		return fmt.Errorf("at least one channel must be configured")
	}
	seen := make(map[int]bool, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Nr < 1 {
			return fmt.Errorf("channel %d: nr must be a positive integer, got %d", i, ch.Nr)
		}
		if seen[ch.Nr] {
			return fmt.Errorf("channel nr %d configured twice", ch.Nr)
		}
		seen[ch.Nr] = true
		if ch.UpPin == nil || ch.DownPin == nil || ch.StopPin == nil {
			return fmt.Errorf("channel %d: up_pin, down_pin and stop_pin are all required", ch.Nr)
		}
	}
	return nil
}

// Params converts the configuration into estimator parameters.
func (c Config) Params() position.Params {
	return position.Params{
		Max:          c.MaxPosition,
		Step:         c.Step,
		FullTravel:   time.Duration(c.FullTravelMs) * time.Millisecond,
		StopEstimate: position.StopEstimate(c.StopEstimate),
	}
}

// Press returns the relay hold for full-travel actions.
func (c Config) Press() time.Duration {
	return time.Duration(c.PressMs) * time.Millisecond
}

// StepPress returns the relay hold for nudge actions.
func (c Config) StepPress() time.Duration {
	return time.Duration(c.StepPressMs) * time.Millisecond
}

// Pins returns the deduplicated list of every configured relay pin,
// for requesting GPIO lines at startup.
func (c Config) Pins() []int {
	seen := make(map[int]bool)
	var pins []int
	for _, ch := range c.Channels {
		for _, p := range []*int{ch.UpPin, ch.DownPin, ch.StopPin} {
			if p != nil && !seen[*p] {
				seen[*p] = true
				pins = append(pins, *p)
			}
		}
	}
	return pins
}
