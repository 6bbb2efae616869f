package spinwheel

import (
	"math"
	"time"
)

// computeVelocity estimates the spin velocity (rad/s) from the two most recent
// touch samples.
//
// The sign is the negative of the naive angle delta over time: deceleration
// rotates the wheel by -velocity/tickRate per tick, which continues the drag
// in the same direction.
//
// Degenerate input never yields NaN/Inf:
//   - non-positive elapsed time gives 0
//   - a sample delta below minRadians gives 0 (micro-jitter at release)
//   - the magnitude is clamped to maxVelocity
func computeVelocity(previousRadians, currentRadians float64, elapsed time.Duration, minRadians, maxVelocity float64) float64 {
	dt := elapsed.Seconds()
	if dt <= 0 {
		return 0
	}

	// previous - current, measured on the circle.
	delta := AngularDistance(currentRadians, previousRadians)
	if math.Abs(delta) < minRadians {
		return 0
	}

	v := delta / dt
	if math.IsNaN(v) {
		return 0
	}
	if v > maxVelocity {
		v = maxVelocity
	}
	if v < -maxVelocity {
		v = -maxVelocity
	}
	return v
}
