package control

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned for a channel number with no configuration.
var ErrUnknownChannel = errors.New("unknown channel")

// ErrUnknownAction is returned for an action outside the recognized set.
var ErrUnknownAction = errors.New("unknown action")

// ErrOutOfRange is returned when a sync value violates [0, Max].
var ErrOutOfRange = errors.New("value out of range")

// ErrBadDelay is returned for a DELAY entry with a negative duration.
var ErrBadDelay = errors.New("delay duration must not be negative")

// HardwareError reports a failed relay pulse. The command was aborted:
// position and persisted state are untouched.
type HardwareError struct {
	Nr  int
	Pin int
	Err error
}

func (e *HardwareError) Error() string {
	return fmt.Sprintf("channel %d: relay pulse on pin %d: %v", e.Nr, e.Pin, e.Err)
}

func (e *HardwareError) Unwrap() error {
	return e.Err
}
