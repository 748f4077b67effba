//go:build linux

package relay

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Real drives relay pins through the Linux GPIO character device.
// Every configured pin is requested as an output preset to the inactive
// level at construction, matching the relay board's resting state.
type Real struct {
	chip     *gpiocdev.Chip
	lines    map[int]*gpiocdev.Line
	active   int
	inactive int
}

// NewReal opens the GPIO chip and requests the given pins as outputs.
// activeHigh selects relay polarity: true means a high level energizes
// the relay, false (common opto-isolated boards) means a low level does.
func NewReal(chipName string, pins []int, activeHigh bool) (*Real, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	active, inactive := 1, 0
	if !activeHigh {
		active, inactive = 0, 1
	}

	lines := make(map[int]*gpiocdev.Line, len(pins))
	for _, pin := range pins {
		if _, ok := lines[pin]; ok {
			continue
		}
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(inactive))
		if err != nil {
			for _, l := range lines {
				l.Close()
			}
			chip.Close()
			return nil, fmt.Errorf("request pin %d: %w", pin, err)
		}
		lines[pin] = line
	}

	return &Real{
		chip:     chip,
		lines:    lines,
		active:   active,
		inactive: inactive,
	}, nil
}

// Pulse energizes the relay on pin for the hold duration.
// The inactive level is restored even if activation partially failed.
func (r *Real) Pulse(pin int, hold time.Duration) (err error) {
	line, ok := r.lines[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured", pin)
	}

	if aerr := line.SetValue(r.active); aerr != nil {
		// Restore anyway: a failed write may still have left the pin active.
		if rerr := line.SetValue(r.inactive); rerr != nil {
			return fmt.Errorf("activate pin %d: %v (restore also failed: %v)", pin, aerr, rerr)
		}
		return fmt.Errorf("activate pin %d: %w", pin, aerr)
	}

	defer func() {
		if rerr := line.SetValue(r.inactive); rerr != nil && err == nil {
			err = fmt.Errorf("release pin %d: %w", pin, rerr)
		}
	}()

	time.Sleep(hold)
	return nil
}

// Close restores every pin to its inactive level and releases GPIO resources.
func (r *Real) Close() error {
	var errs []error

	for pin, line := range r.lines {
		if serr := line.SetValue(r.inactive); serr != nil {
			errs = append(errs, fmt.Errorf("restore pin %d: %w", pin, serr))
		}
		if cerr := line.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, cerr))
		}
	}
	if r.chip != nil {
		if cerr := r.chip.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", cerr))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
