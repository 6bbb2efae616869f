package spinwheel

import "time"

// trackingSession exists only while a drag is active.
//
// Samples shift previous <- current on every accepted move so velocity is
// always estimated from the last two samples.
type trackingSession struct {
	startAt    time.Time
	previousAt time.Time
	currentAt  time.Time

	startRadians    float64
	previousRadians float64
	currentRadians  float64

	// tapCandidate stays true until the first accepted move.
	tapCandidate bool
	// accumulated is the sum of per-sample deltas.
	accumulated float64
}

func newTrackingSession(touchRadians float64, now time.Time) *trackingSession {
	return &trackingSession{
		startAt:         now,
		previousAt:      now,
		currentAt:       now,
		startRadians:    touchRadians,
		previousRadians: touchRadians,
		currentRadians:  touchRadians,
		tapCandidate:    true,
	}
}

// sample records a new touch angle and returns the wraparound-safe delta from
// the previous sample.
func (s *trackingSession) sample(touchRadians float64, now time.Time) float64 {
	s.previousAt = s.currentAt
	s.currentAt = now
	s.previousRadians = s.currentRadians
	s.currentRadians = touchRadians

	delta := AngularDistance(s.previousRadians, s.currentRadians)
	s.accumulated += delta
	s.tapCandidate = false
	return delta
}

// isTap reports whether ending the session now should count as a tap.
func (s *trackingSession) isTap(tapCount int) bool {
	return s.tapCandidate && tapCount > 0 && s.accumulated == 0
}

// velocity estimates the release velocity from the last two samples.
func (s *trackingSession) velocity(cfg Config) float64 {
	return computeVelocity(
		s.previousRadians,
		s.currentRadians,
		s.currentAt.Sub(s.previousAt),
		cfg.MinRadiansForSpin,
		cfg.MaxVelocity,
	)
}
