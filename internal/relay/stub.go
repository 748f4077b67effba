//go:build !linux

package relay

import (
	"errors"
	"time"
)

// Real is not available on non-Linux platforms.
type Real struct{}

// NewReal returns an error on non-Linux platforms.
func NewReal(chipName string, pins []int, activeHigh bool) (*Real, error) {
	return nil, errors.New("relay: not supported on this platform (requires Linux)")
}

// Pulse is not implemented on non-Linux platforms.
func (r *Real) Pulse(pin int, hold time.Duration) error {
	return errors.New("relay: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *Real) Close() error {
	return nil
}
