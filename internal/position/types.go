// Package position contains pure position-estimation logic for blind channels.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Duration parameters.
package position

import (
	"fmt"
	"strings"
	"time"
)

// Action is a logical command for a blind channel.
type Action string

const (
	// ActionUp drives the blind toward Max (fully open/raised).
	ActionUp Action = "UP"
	// ActionDown drives the blind toward 0 (fully closed/lowered).
	ActionDown Action = "DOWN"
	// ActionStop halts motion, freezing the current estimate.
	ActionStop Action = "STOP"
	// ActionIncrease nudges the position up by one step.
	ActionIncrease Action = "INCREASE"
	// ActionDecrease nudges the position down by one step.
	ActionDecrease Action = "DECREASE"
	// ActionDelay pauses between batch entries. It never reaches the
	// estimator or the relay; the dispatcher handles it directly.
	ActionDelay Action = "DELAY"
)

// ParseAction converts a request string into an Action.
// Matching is case-insensitive.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case ActionUp, ActionDown, ActionStop, ActionIncrease, ActionDecrease, ActionDelay:
		return a, nil
	}
	return "", fmt.Errorf("unrecognized action %q", s)
}

// Moves reports whether the action starts a full traversal
// (and therefore opens a partial-travel window for STOP).
func (a Action) Moves() bool {
	return a == ActionUp || a == ActionDown
}

// StopEstimate selects how a STOP that lands mid-travel updates the estimate.
type StopEstimate string

const (
	// StopInterpolate computes a linear partial position from elapsed time.
	StopInterpolate StopEstimate = "interpolate"
	// StopSnap rounds the interpolated position to the nearer endpoint.
	StopSnap StopEstimate = "snap"
)

// Params holds the estimator configuration.
type Params struct {
	// Max is the upper position bound (positions live in [0, Max]).
	Max int
	// Step is the increment applied by INCREASE/DECREASE.
	Step int
	// FullTravel is the time a blind takes to traverse the full range.
	FullTravel time.Duration
	// StopEstimate selects the mid-travel STOP policy.
	StopEstimate StopEstimate
}
