package main

import (
	"testing"
	"time"
)

var rotaryEpoch = time.Unix(1700000000, 0)

func rotaryAt(ms int) time.Time { return rotaryEpoch.Add(time.Duration(ms) * time.Millisecond) }

// TestRotaryState_AddStep_Basic tests basic step tracking
func TestRotaryState_AddStep_Basic(t *testing.T) {
	r := newRotaryState()
	window := 200 * time.Millisecond

	for i := 1; i <= 3; i++ {
		if count := r.addStep(1, rotaryAt(i*10), window); count != i {
			t.Errorf("step %d: expected count=%d, got %d", i, i, count)
		}
	}
}

// TestRotaryState_AddStep_DirectionChange tests that steps in the other
// direction don't count toward the spin strength
func TestRotaryState_AddStep_DirectionChange(t *testing.T) {
	r := newRotaryState()
	window := 200 * time.Millisecond

	r.addStep(1, rotaryAt(0), window)
	r.addStep(1, rotaryAt(10), window)
	if count := r.addStep(1, rotaryAt(20), window); count != 3 {
		t.Errorf("expected 3 clockwise steps, got %d", count)
	}

	if count := r.addStep(-1, rotaryAt(30), window); count != 1 {
		t.Errorf("expected count=1 for new direction, got %d", count)
	}

	if count := r.addStep(1, rotaryAt(40), window); count != 4 {
		t.Errorf("expected count=4 (3 old + 1 new clockwise steps still in window), got %d", count)
	}
}

// TestRotaryState_AddStep_WindowExpiry tests that old steps are pruned
func TestRotaryState_AddStep_WindowExpiry(t *testing.T) {
	r := newRotaryState()
	window := 100 * time.Millisecond

	r.addStep(1, rotaryAt(0), window)
	r.addStep(1, rotaryAt(10), window)
	if count := r.addStep(1, rotaryAt(20), window); count != 3 {
		t.Errorf("expected count=3, got %d", count)
	}

	if count := r.addStep(1, rotaryAt(200), window); count != 1 {
		t.Errorf("expected count=1 after window expired, got %d", count)
	}
	if len(r.recentSteps) != 1 {
		t.Errorf("expected old steps pruned, %d remain", len(r.recentSteps))
	}
}

func TestSpinMultiplier(t *testing.T) {
	cfg := RotaryConfig{FullSpinSteps: 4, MinMultiplier: 0.2}

	cases := []struct {
		count int
		want  float64
	}{
		{0, 0.2},
		{1, 0.25},
		{2, 0.5},
		{4, 1},
		{12, 1},
	}
	for _, tc := range cases {
		if got := spinMultiplier(tc.count, cfg); got != tc.want {
			t.Errorf("spinMultiplier(%d) = %v, want %v", tc.count, got, tc.want)
		}
	}
}
