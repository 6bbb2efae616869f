package spinwheel

import "time"

// Scheduler is the tick source injected by the host.
//
// The engine calls Start when deceleration or snapping begins and Stop when
// the wheel comes to rest or motion is cancelled. While started, the host is
// expected to call Engine.Tick at rateHz. Start is always preceded by Stop, so
// a host never has two tick sources running for one engine.
type Scheduler interface {
	Start(rateHz float64)
	Stop()
}

// ManualScheduler records what the engine asked for and leaves the actual
// ticking to the caller. Hosts with their own frame loop (and tests) poll
// Running to decide whether to tick.
type ManualScheduler struct {
	running bool
	rateHz  float64
	starts  int
}

func (s *ManualScheduler) Start(rateHz float64) {
	s.running = true
	s.rateHz = rateHz
	s.starts++
}

func (s *ManualScheduler) Stop() { s.running = false }

// Running reports whether the engine currently wants ticks.
func (s *ManualScheduler) Running() bool { return s.running }

// RateHz returns the rate requested by the last Start.
func (s *ManualScheduler) RateHz() float64 { return s.rateHz }

// Starts returns how many times Start has been called.
func (s *ManualScheduler) Starts() int { return s.starts }

// nopScheduler is used when the host does not inject one.
type nopScheduler struct{}

func (nopScheduler) Start(float64) {}
func (nopScheduler) Stop()         {}

// FixedStep converts irregular host frame times into whole logical ticks, so
// the simulation runs at a fixed rate whatever the display refresh is.
//
// Not safe for concurrent use; it belongs to the goroutine driving the engine.
type FixedStep struct {
	interval time.Duration
	maxSteps int

	last time.Time
	acc  time.Duration
}

// NewFixedStep creates an accumulator for rateHz logical ticks per second.
// maxSteps caps how many ticks a single Advance may return after a stall;
// excess time is dropped rather than replayed.
func NewFixedStep(rateHz float64, maxSteps int) *FixedStep {
	if rateHz <= 0 {
		rateHz = DefaultTickRateHz
	}
	if maxSteps <= 0 {
		maxSteps = 4
	}
	return &FixedStep{
		interval: time.Duration(float64(time.Second) / rateHz),
		maxSteps: maxSteps,
	}
}

// Reset restarts accumulation from now.
func (f *FixedStep) Reset(now time.Time) {
	f.last = now
	f.acc = 0
}

// Interval returns the duration of one logical tick.
func (f *FixedStep) Interval() time.Duration { return f.interval }

// Advance returns how many logical ticks have elapsed since the previous call.
// The first call after construction only seeds the clock and returns 0.
func (f *FixedStep) Advance(now time.Time) int {
	if f.last.IsZero() {
		f.last = now
		return 0
	}
	elapsed := now.Sub(f.last)
	f.last = now
	if elapsed <= 0 {
		return 0
	}

	f.acc += elapsed
	n := int(f.acc / f.interval)
	f.acc -= time.Duration(n) * f.interval
	if n > f.maxSteps {
		n = f.maxSteps
		f.acc = 0
	}
	return n
}
