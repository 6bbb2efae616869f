package spinwheel

import "math"

// snapPlan describes the ease from the current rotation onto a wedge.
type snapPlan struct {
	wedge       int
	destination float64
	increment   float64
}

// planSnap picks the wedge nearest to the anchor and the rotation that centres
// it there. The destination is always on the shorter arc, and the increment
// covers the distance in snapSteps ticks.
func planSnap(rotation float64, wedgeCount int, radiansPerWedge float64, cfg Config) snapPlan {
	wedge := indexAtRotation(rotation, wedgeCount, radiansPerWedge, cfg.Anchor)
	dest := rotationForWedge(wedge, rotation, radiansPerWedge)
	return snapPlan{
		wedge:       wedge,
		destination: dest,
		increment:   AngularDistance(rotation, dest) / float64(cfg.SnapSteps),
	}
}

// stepSnap advances the snap by one tick. It returns the rotation to apply and
// whether the wheel is close enough to the destination to finalize.
//
// A step never overshoots: when the remaining distance is shorter than the
// increment the remaining distance is used instead. With a fixed increment of
// distance/snapSteps this bounds a snap to snapSteps+1 ticks.
func stepSnap(rotation float64, plan snapPlan, proximity float64) (rotate float64, done bool) {
	diff := AngularDistance(rotation, plan.destination)
	if math.Abs(diff) <= proximity {
		return 0, true
	}
	step := plan.increment
	if math.Abs(step) > math.Abs(diff) || math.Signbit(step) != math.Signbit(diff) {
		step = diff
	}
	return step, false
}
