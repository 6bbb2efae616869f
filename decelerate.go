package spinwheel

import "math"

// stepDeceleration advances the friction simulation by one logical tick.
//
// It returns the velocity for the next tick, the rotation to apply this tick,
// and whether deceleration is over. When done is true the rotation is zero
// and the caller hands over to snapping.
//
// |next| < |velocity| for every tick that is not done, since the multiplier
// is in (0, 0.99].
func stepDeceleration(velocity float64, cfg Config) (next, rotate float64, done bool) {
	next = velocity * cfg.DecelerationMultiplier
	if math.Abs(next) <= cfg.SpeedToSnap {
		return 0, 0, true
	}
	radiansThisTick := velocity / cfg.TickRateHz
	return next, -radiansThisTick, false
}
