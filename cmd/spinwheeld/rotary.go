package main

import (
	"time"
)

// rotaryState tracks recent encoder detents so that turning the knob faster
// produces a stronger spin.
//
// Owned by the daemon goroutine; not safe for concurrent use.
type rotaryState struct {
	recentSteps []rotaryStep
}

// rotaryStep records a single encoder detent
type rotaryStep struct {
	at        time.Time
	direction int // +1 clockwise, -1 counter-clockwise
}

func newRotaryState() *rotaryState {
	return &rotaryState{
		recentSteps: make([]rotaryStep, 0, 16),
	}
}

// addStep records a detent at now and returns how many detents in the same
// direction fall inside the window (including this one).
func (r *rotaryState) addStep(direction int, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)

	// Drop steps outside the window, reusing the backing array.
	filtered := r.recentSteps[:0]
	for _, s := range r.recentSteps {
		if s.at.After(cutoff) {
			filtered = append(filtered, s)
		}
	}

	filtered = append(filtered, rotaryStep{at: now, direction: direction})
	r.recentSteps = filtered

	sameDir := 0
	for _, s := range filtered {
		if s.direction == direction {
			sameDir++
		}
	}
	return sameDir
}

// spinMultiplier maps detents-in-window to a spin strength in [minMult, 1].
func spinMultiplier(count int, cfg RotaryConfig) float64 {
	if cfg.FullSpinSteps <= 0 {
		return 1
	}
	m := float64(count) / float64(cfg.FullSpinSteps)
	if m < cfg.MinMultiplier {
		m = cfg.MinMultiplier
	}
	if m > 1 {
		m = 1
	}
	return m
}
