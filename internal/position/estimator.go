package position

import (
	"math"
	"time"
)

// Next returns the estimated position after applying action to pos.
// The result is always within [0, p.Max]. Next is deterministic and
// side-effect free.
func Next(pos int, action Action, p Params) int {
	switch action {
	case ActionUp:
		return p.Max
	case ActionDown:
		return 0
	case ActionIncrease:
		return clamp(pos+p.Step, p.Max)
	case ActionDecrease:
		return clamp(pos-p.Step, p.Max)
	default:
		// STOP (and anything unknown) freezes the caller's estimate.
		return clamp(pos, p.Max)
	}
}

// Travelled returns the estimated position after a full-travel action
// (UP or DOWN) has been running for elapsed, starting from origin.
// The traversal is modeled as linear motion across the whole range in
// p.FullTravel; elapsed beyond that clamps to the action's bound.
// With StopSnap the interpolated value rounds to the nearer endpoint.
func Travelled(origin int, action Action, elapsed time.Duration, p Params) int {
	if !action.Moves() {
		return clamp(origin, p.Max)
	}
	if p.FullTravel <= 0 || elapsed >= p.FullTravel {
		return Next(origin, action, p)
	}
	if elapsed < 0 {
		elapsed = 0
	}

	fraction := float64(elapsed) / float64(p.FullTravel)
	delta := int(math.Round(fraction * float64(p.Max)))

	var pos int
	switch action {
	case ActionUp:
		pos = clamp(origin+delta, p.Max)
	case ActionDown:
		pos = clamp(origin-delta, p.Max)
	}

	if p.StopEstimate == StopSnap {
		if pos*2 > p.Max {
			return p.Max
		}
		return 0
	}
	return pos
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
