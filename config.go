package spinwheel

import (
	"errors"
	"fmt"
	"math"
)

const minWedgeCount = 2

// Physics defaults.
const (
	DefaultTickRateHz             = 60.0
	DefaultMaxVelocity            = 20.0  // rad/s
	DefaultMinRadiansForSpin      = 0.1   // rad; smaller sample deltas never spin
	DefaultDecelerationMultiplier = 0.98  // per tick
	DefaultSpeedToSnap            = 0.1   // rad/s; below this deceleration hands over to snapping
	DefaultSnapSteps              = 10    // snap eases over this many ticks
	DefaultSnapProximity          = 0.001 // rad
	DefaultDeadZoneRadius         = 30.0  // host units
	DefaultRandomSpinMin          = 0.6   // multiplier of MaxVelocity
	DefaultRandomSpinMax          = 1.0   // multiplier of MaxVelocity
)

// Config contains the tunable parameters of the rotation engine.
//
// The wedge count is not part of Config: it is supplied by Reload, the same
// way the host's data source is queried on every reload.
type Config struct {
	// Anchor is the direction (radians, host axes) in which wedge zero rests.
	Anchor float64

	// TickRateHz is the logical simulation rate. It is independent from any
	// display refresh rate; see FixedStep.
	TickRateHz float64

	// Velocity estimation
	MaxVelocity       float64
	MinRadiansForSpin float64

	// Deceleration
	DecelerationMultiplier float64 // in (0, 0.99]
	SpeedToSnap            float64

	// Snapping
	SnapSteps     int
	SnapProximity float64

	// Touch handling
	DeadZoneRadius float64

	// RandomSpin picks a multiplier uniformly from [RandomSpinMin, RandomSpinMax].
	RandomSpinMin float64
	RandomSpinMax float64
}

// DefaultConfig returns a fully-populated Config with the wheel resting upward.
func DefaultConfig() Config {
	return Config{
		Anchor:                 SnapUp.Radians(),
		TickRateHz:             DefaultTickRateHz,
		MaxVelocity:            DefaultMaxVelocity,
		MinRadiansForSpin:      DefaultMinRadiansForSpin,
		DecelerationMultiplier: DefaultDecelerationMultiplier,
		SpeedToSnap:            DefaultSpeedToSnap,
		SnapSteps:              DefaultSnapSteps,
		SnapProximity:          DefaultSnapProximity,
		DeadZoneRadius:         DefaultDeadZoneRadius,
		RandomSpinMin:          DefaultRandomSpinMin,
		RandomSpinMax:          DefaultRandomSpinMax,
	}
}

// withDefaults fills zero-valued fields. Anchor and DeadZoneRadius are left
// alone since zero is meaningful for both.
func (c Config) withDefaults() Config {
	if c.TickRateHz == 0 {
		c.TickRateHz = DefaultTickRateHz
	}
	if c.MaxVelocity == 0 {
		c.MaxVelocity = DefaultMaxVelocity
	}
	if c.MinRadiansForSpin == 0 {
		c.MinRadiansForSpin = DefaultMinRadiansForSpin
	}
	if c.DecelerationMultiplier == 0 {
		c.DecelerationMultiplier = DefaultDecelerationMultiplier
	}
	if c.SpeedToSnap == 0 {
		c.SpeedToSnap = DefaultSpeedToSnap
	}
	if c.SnapSteps == 0 {
		c.SnapSteps = DefaultSnapSteps
	}
	if c.SnapProximity == 0 {
		c.SnapProximity = DefaultSnapProximity
	}
	if c.RandomSpinMin == 0 && c.RandomSpinMax == 0 {
		c.RandomSpinMin = DefaultRandomSpinMin
		c.RandomSpinMax = DefaultRandomSpinMax
	}
	return c
}

// Validate checks config invariants and returns a user-friendly error.
func (c Config) Validate() error {
	if math.IsNaN(c.Anchor) || math.IsInf(c.Anchor, 0) {
		return errors.New("anchor must be finite")
	}
	if !(c.TickRateHz > 0) || c.TickRateHz > 1000 {
		return errors.New("tick rate must be between 0 and 1000 Hz")
	}
	if !(c.MaxVelocity > 0) {
		return errors.New("max velocity must be > 0")
	}
	if c.MinRadiansForSpin < 0 {
		return errors.New("min radians for spin must be >= 0")
	}
	if !(c.DecelerationMultiplier > 0) || c.DecelerationMultiplier > 0.99 {
		return fmt.Errorf("deceleration multiplier must be in (0, 0.99], got %v", c.DecelerationMultiplier)
	}
	if !(c.SpeedToSnap > 0) {
		return errors.New("speed to snap must be > 0")
	}
	if c.SnapSteps < 1 {
		return errors.New("snap steps must be >= 1")
	}
	if !(c.SnapProximity > 0) {
		return errors.New("snap proximity must be > 0")
	}
	if c.DeadZoneRadius < 0 {
		return errors.New("dead zone radius must be >= 0")
	}
	if c.RandomSpinMin < 0 || c.RandomSpinMax > 1 || c.RandomSpinMin > c.RandomSpinMax {
		return errors.New("random spin range must satisfy 0 <= min <= max <= 1")
	}
	return nil
}

