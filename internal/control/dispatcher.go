// Package control orchestrates blind commands: validation, per-channel
// locking, relay actuation, position estimation and persistence.
package control

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/blind-control/internal/metrics"
	"github.com/sweeney/blind-control/internal/position"
	"github.com/sweeney/blind-control/internal/relay"
	"github.com/sweeney/blind-control/internal/store"
)

// Pins holds the relay pin assignment for one channel.
type Pins struct {
	Up   int
	Down int
	Stop int
}

// Config holds the dispatcher's static configuration.
type Config struct {
	// Channels maps channel number to its relay pins.
	Channels map[int]Pins

	// Params configures the position estimator.
	Params position.Params

	// Press is the relay hold for full-travel actions (UP, DOWN, STOP).
	Press time.Duration

	// StepPress is the relay hold for nudge actions (INCREASE, DECREASE).
	StepPress time.Duration
}

// Command is one entry of a batch request.
type Command struct {
	Nr     int
	Action position.Action
	// Delay applies to DELAY entries only.
	Delay time.Duration
}

// Result is the per-entry outcome of a batch request.
type Result struct {
	Nr       int
	Action   position.Action
	Position int
	Err      error
}

// Event describes a committed state change, for MQTT publishing and
// status tracking. Sync commands carry Action "SYNC".
type Event struct {
	Timestamp time.Time
	Nr        int
	Action    string
	Position  int
}

// inflight records the last full-travel move on a channel, so a following
// STOP can estimate how far the blind actually got.
type inflight struct {
	action  position.Action
	origin  int
	started time.Time
}

// Dispatcher is the single orchestration point for blind commands.
// It is safe for concurrent use: commands on the same channel serialize
// in lock-acquisition order, commands on different channels proceed
// independently.
type Dispatcher struct {
	cfg    Config
	driver relay.Driver
	store  *store.Store
	rec    metrics.Recorder
	sink   func(Event)

	// test hooks
	now   func() time.Time
	sleep func(time.Duration)

	// lockMu guards the lock arena. Channel locks are created on first
	// use and live for the process lifetime.
	lockMu sync.Mutex
	locks  map[int]*sync.Mutex

	// posMu guards positions and moves across all channels.
	posMu     sync.Mutex
	positions map[int]int
	moves     map[int]inflight
}

// New creates a Dispatcher. initial seeds the in-memory positions,
// typically from store.Load; values are clamped into [0, Max].
func New(cfg Config, driver relay.Driver, st *store.Store, initial map[int]int) *Dispatcher {
	positions := make(map[int]int, len(initial))
	for nr, pos := range initial {
		positions[nr] = position.Next(pos, position.ActionStop, cfg.Params)
	}
	return &Dispatcher{
		cfg:       cfg,
		driver:    driver,
		store:     st,
		rec:       metrics.Noop{},
		now:       time.Now,
		sleep:     time.Sleep,
		locks:     make(map[int]*sync.Mutex),
		positions: positions,
		moves:     make(map[int]inflight),
	}
}

// SetRecorder installs a metrics recorder. Call before serving requests.
func (d *Dispatcher) SetRecorder(rec metrics.Recorder) {
	if rec != nil {
		d.rec = rec
	}
}

// SetEventSink installs a callback invoked after every committed command,
// outside any channel lock. Call before serving requests.
func (d *Dispatcher) SetEventSink(sink func(Event)) {
	d.sink = sink
}

// Apply validates, actuates and commits a single command.
// It returns the new position estimate for the channel.
func (d *Dispatcher) Apply(nr int, action position.Action) (int, error) {
	pins, ok := d.cfg.Channels[nr]
	if !ok {
		d.rec.CommandRejected("invalid_input")
		return 0, fmt.Errorf("channel %d: %w", nr, ErrUnknownChannel)
	}
	pin, hold, err := d.resolve(pins, action)
	if err != nil {
		d.rec.CommandRejected("invalid_input")
		return 0, err
	}

	lock := d.channelLock(nr)
	lock.Lock()

	start := d.now()
	if err := d.driver.Pulse(pin, hold); err != nil {
		lock.Unlock()
		d.rec.CommandRejected("hardware")
		return 0, &HardwareError{Nr: nr, Pin: pin, Err: err}
	}
	d.rec.PulseObserved(hold)

	pos := d.commit(nr, action, start)
	lock.Unlock()

	d.rec.CommandApplied(string(action))
	d.emit(Event{Timestamp: d.now(), Nr: nr, Action: string(action), Position: pos})
	return pos, nil
}

// ApplyBatch dispatches entries in order. Each entry is independent: a
// failure is recorded in its Result and does not abort the remainder.
func (d *Dispatcher) ApplyBatch(commands []Command) []Result {
	results := make([]Result, 0, len(commands))
	for _, cmd := range commands {
		r := Result{Nr: cmd.Nr, Action: cmd.Action}
		if cmd.Action == position.ActionDelay {
			r.Err = d.delay(cmd)
			r.Position = d.Position(cmd.Nr)
		} else {
			r.Position, r.Err = d.Apply(cmd.Nr, cmd.Action)
		}
		results = append(results, r)
	}
	return results
}

// Sync overwrites a channel's position estimate without touching hardware.
// Used to correct drift between the open-loop estimate and the observed
// physical position.
func (d *Dispatcher) Sync(nr, value int) error {
	if _, ok := d.cfg.Channels[nr]; !ok {
		d.rec.CommandRejected("invalid_input")
		return fmt.Errorf("channel %d: %w", nr, ErrUnknownChannel)
	}
	if value < 0 || value > d.cfg.Params.Max {
		d.rec.CommandRejected("out_of_range")
		return fmt.Errorf("value %d not in [0, %d]: %w", value, d.cfg.Params.Max, ErrOutOfRange)
	}

	lock := d.channelLock(nr)
	lock.Lock()

	d.posMu.Lock()
	d.positions[nr] = value
	delete(d.moves, nr)
	snapshot := d.snapshotLocked()
	d.posMu.Unlock()

	d.save(snapshot)
	lock.Unlock()

	d.rec.CommandApplied("SYNC")
	d.emit(Event{Timestamp: d.now(), Nr: nr, Action: "SYNC", Position: value})
	return nil
}

// State returns the current position estimate for every configured channel.
// Channels never commanded report 0.
func (d *Dispatcher) State() map[int]int {
	d.posMu.Lock()
	defer d.posMu.Unlock()

	out := make(map[int]int, len(d.cfg.Channels))
	for nr := range d.cfg.Channels {
		out[nr] = d.positions[nr]
	}
	return out
}

// Position returns the current estimate for one channel (0 if unknown).
func (d *Dispatcher) Position(nr int) int {
	d.posMu.Lock()
	defer d.posMu.Unlock()
	return d.positions[nr]
}

// commit updates the estimate for a completed pulse and persists the full
// mapping. start is when the pulse began, used for STOP interpolation.
func (d *Dispatcher) commit(nr int, action position.Action, start time.Time) int {
	d.posMu.Lock()
	cur := d.positions[nr]

	var pos int
	switch {
	case action == position.ActionStop:
		if mv, ok := d.moves[nr]; ok {
			pos = position.Travelled(mv.origin, mv.action, start.Sub(mv.started), d.cfg.Params)
			delete(d.moves, nr)
		} else {
			pos = cur
		}
	case action.Moves():
		d.moves[nr] = inflight{action: action, origin: cur, started: start}
		pos = position.Next(cur, action, d.cfg.Params)
	default:
		// A nudge supersedes any in-flight traversal estimate.
		delete(d.moves, nr)
		pos = position.Next(cur, action, d.cfg.Params)
	}

	d.positions[nr] = pos
	snapshot := d.snapshotLocked()
	d.posMu.Unlock()

	d.save(snapshot)
	return pos
}

// save persists the mapping. Save failures are non-fatal: the in-memory
// state stays authoritative and the next save rewrites everything.
func (d *Dispatcher) save(snapshot map[int]int) {
	if err := d.store.Save(snapshot); err != nil {
		log.Printf("control: state save failed (in-memory state still authoritative): %v", err)
		d.rec.SaveFailed()
	}
}

func (d *Dispatcher) snapshotLocked() map[int]int {
	snapshot := make(map[int]int, len(d.positions))
	for nr, pos := range d.positions {
		snapshot[nr] = pos
	}
	return snapshot
}

func (d *Dispatcher) delay(cmd Command) error {
	if cmd.Delay < 0 {
		d.rec.CommandRejected("invalid_input")
		return fmt.Errorf("channel %d: %w", cmd.Nr, ErrBadDelay)
	}
	wait := cmd.Delay
	if wait == 0 {
		wait = time.Second
	}
	d.sleep(wait)
	return nil
}

// resolve maps an action to its relay pin and hold duration.
func (d *Dispatcher) resolve(pins Pins, action position.Action) (int, time.Duration, error) {
	switch action {
	case position.ActionUp:
		return pins.Up, d.cfg.Press, nil
	case position.ActionDown:
		return pins.Down, d.cfg.Press, nil
	case position.ActionStop:
		return pins.Stop, d.cfg.Press, nil
	case position.ActionIncrease:
		return pins.Up, d.cfg.StepPress, nil
	case position.ActionDecrease:
		return pins.Down, d.cfg.StepPress, nil
	}
	return 0, 0, fmt.Errorf("action %q: %w", action, ErrUnknownAction)
}

// channelLock returns the lock for nr, creating it on first use.
func (d *Dispatcher) channelLock(nr int) *sync.Mutex {
	d.lockMu.Lock()
	defer d.lockMu.Unlock()

	lock, ok := d.locks[nr]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[nr] = lock
	}
	return lock
}

func (d *Dispatcher) emit(ev Event) {
	if d.sink != nil {
		d.sink(ev)
	}
}
