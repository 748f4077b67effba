package relay

import (
	"sync"
	"time"
)

// Pulse records a single actuation observed by the fake driver.
type Pulse struct {
	Pin   int
	Hold  time.Duration
	Start time.Time
	End   time.Time
}

// Fake is a test double that records pulses instead of toggling hardware.
// Safe for concurrent use, so tests can assert on pulse timestamps from
// multiple goroutines.
type Fake struct {
	mu     sync.Mutex
	pulses []Pulse

	// PulseError, if set, will be returned by Pulse before anything is
	// recorded.
	PulseError error

	// Block makes Pulse sleep for the hold duration, like real hardware.
	// Leave false for fast tests that only care about ordering.
	Block bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake relay driver.
func NewFake() *Fake {
	return &Fake{}
}

// Pulse records the actuation. With Block set it also sleeps for hold.
func (f *Fake) Pulse(pin int, hold time.Duration) error {
	f.mu.Lock()
	if f.PulseError != nil {
		err := f.PulseError
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	start := time.Now()
	if f.Block {
		time.Sleep(hold)
	}
	end := time.Now()

	f.mu.Lock()
	f.pulses = append(f.pulses, Pulse{Pin: pin, Hold: hold, Start: start, End: end})
	f.mu.Unlock()
	return nil
}

// Close marks the driver as closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Pulses returns a copy of all recorded pulses.
func (f *Fake) Pulses() []Pulse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Pulse, len(f.pulses))
	copy(out, f.pulses)
	return out
}

// SetPulseError sets the error returned by subsequent Pulse calls.
func (f *Fake) SetPulseError(err error) {
	f.mu.Lock()
	f.PulseError = err
	f.mu.Unlock()
}

// Reset clears recorded pulses and error state.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.pulses = nil
	f.PulseError = nil
	f.Closed = false
	f.mu.Unlock()
}
