package relay

import (
	"log"
	"time"
)

// Sim honours the pulse timing contract without touching hardware.
// Used when no GPIO is available (development machines, hardware: false).
type Sim struct{}

// NewSim creates a simulated relay driver.
func NewSim() *Sim {
	return &Sim{}
}

// Pulse logs the intended transition and blocks for the hold duration,
// so command pacing behaves exactly as with real hardware.
func (s *Sim) Pulse(pin int, hold time.Duration) error {
	log.Printf("relay: [simulate] pin %d active for %v", pin, hold)
	time.Sleep(hold)
	log.Printf("relay: [simulate] pin %d released", pin)
	return nil
}

// Close releases nothing; there is nothing to release.
func (s *Sim) Close() error {
	return nil
}
