// Package relay provides relay pulse actuation with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The sim implementation keeps the timing contract without hardware.
// The fake implementation allows testing without delays.
package relay

import "time"

// Driver actuates relay pins.
type Driver interface {
	// Pulse sets pin to its active level, holds it for the given duration,
	// then restores the inactive level. The inactive level is restored on
	// every exit path, including hardware faults during the active phase.
	// Pulse blocks the caller for the hold duration.
	Pulse(pin int, hold time.Duration) error

	// Close releases hardware resources.
	Close() error
}

// DefaultChip is the GPIO character device used on Raspberry Pi.
const DefaultChip = "gpiochip0"
