package main

import (
	"time"

	"spinwheel"
)

// loopScheduler is the daemon's tick source for the engine.
//
// The engine decides when it wants ticks (Start/Stop); the daemon loop selects
// on C() and converts wake-ups into whole logical ticks with a FixedStep, so a
// late wake-up never changes the physics, it only runs more ticks at once.
//
// Owned by the daemon goroutine; not safe for concurrent use.
type loopScheduler struct {
	now func() time.Time

	ticker *time.Ticker
	step   *spinwheel.FixedStep
	rateHz float64
	starts int
}

func newLoopScheduler(now func() time.Time) *loopScheduler {
	if now == nil {
		now = time.Now
	}
	return &loopScheduler{now: now}
}

// Start replaces any running ticker with one at rateHz.
func (s *loopScheduler) Start(rateHz float64) {
	s.Stop()

	s.rateHz = rateHz
	s.step = spinwheel.NewFixedStep(rateHz, maxTicksPerWake)
	s.step.Reset(s.now())
	s.ticker = time.NewTicker(s.step.Interval())
	s.starts++
}

func (s *loopScheduler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
}

// Running reports whether the engine currently wants ticks.
func (s *loopScheduler) Running() bool { return s.ticker != nil }

// C returns the ticker channel, or nil (blocks forever in select) while stopped.
func (s *loopScheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// Due returns how many logical ticks are due at now.
func (s *loopScheduler) Due(now time.Time) int {
	if s.step == nil || s.ticker == nil {
		return 0
	}
	return s.step.Advance(now)
}
