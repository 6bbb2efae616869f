package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"spinwheel"
)

// fakeClock is a manually advanced time source shared by the daemon and its
// scheduler.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDaemon(t *testing.T, cfg Config) (*daemon, *fakeClock, chan spinwheel.Event) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	out := make(chan spinwheel.Event, 4096)
	d, err := newDaemon(cfg, out, clock.Now, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("newDaemon failed: %v", err)
	}
	t.Cleanup(d.sched.Stop)
	return d, clock, out
}

// settle ticks the daemon at the engine's rate until it stops asking for ticks.
func settle(t *testing.T, d *daemon, clock *fakeClock) {
	t.Helper()
	interval := time.Second / time.Duration(d.engine.Config().TickRateHz)
	for i := 0; d.sched.Running(); i++ {
		if i > 5000 {
			t.Fatalf("wheel never settled (status=%v)", d.engine.Status())
		}
		clock.advance(interval)
		d.tick(clock.Now())
		d.flush()
	}
}

func drain(out chan spinwheel.Event) []spinwheel.Event {
	var evs []spinwheel.Event
	for {
		select {
		case ev := <-out:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func TestDaemon_SpinSettlesAndPublishesSelection(t *testing.T) {
	d, clock, out := newTestDaemon(t, DefaultConfig())

	d.handle(InputReceived{Input: spinwheel.SpinRequested{Multiplier: 0.8}, Origin: "test"}, clock.Now())
	d.flush()

	if !d.sched.Running() {
		t.Fatal("expected scheduler running after spin")
	}
	if d.engine.Status() != spinwheel.StatusDecelerating {
		t.Fatalf("expected decelerating, got %v", d.engine.Status())
	}

	settle(t, d, clock)

	evs := drain(out)
	if len(evs) < 2 {
		t.Fatalf("expected events to be published, got %d", len(evs))
	}

	// The run ends with the status going idle and then the selection.
	last, ok := evs[len(evs)-1].(spinwheel.SelectionChanged)
	if !ok {
		t.Fatalf("expected SelectionChanged last, got %T", evs[len(evs)-1])
	}
	if last.Index != d.engine.SelectedIndex() {
		t.Fatalf("published index %d, engine says %d", last.Index, d.engine.SelectedIndex())
	}
	if sc, ok := evs[len(evs)-2].(spinwheel.StatusChanged); !ok || sc.To != spinwheel.StatusIdle {
		t.Fatalf("expected StatusChanged to idle before selection, got %#v", evs[len(evs)-2])
	}

	var rotations, decelEnded int
	for _, ev := range evs {
		switch ev.(type) {
		case spinwheel.RotationDelta:
			rotations++
		case spinwheel.DecelerationEnded:
			decelEnded++
		}
	}
	if rotations == 0 {
		t.Fatal("expected rotation deltas")
	}
	if decelEnded != 1 {
		t.Fatalf("expected exactly one DecelerationEnded, got %d", decelEnded)
	}
}

func TestDaemon_InputReplyCarriesEngineError(t *testing.T) {
	d, clock, _ := newTestDaemon(t, DefaultConfig())

	reply := make(chan error, 1)
	d.handle(InputReceived{Input: spinwheel.ReloadRequested{WedgeCount: 1}, Origin: "test", Reply: reply}, clock.Now())

	select {
	case err := <-reply:
		if !errors.Is(err, spinwheel.ErrInvalidWedgeCount) {
			t.Fatalf("expected ErrInvalidWedgeCount, got %v", err)
		}
	default:
		t.Fatal("expected a reply")
	}

	reply = make(chan error, 1)
	d.handle(InputReceived{Input: spinwheel.SpinRequested{Multiplier: 1}, Origin: "test", Reply: reply}, clock.Now())
	if err := <-reply; !errors.Is(err, spinwheel.ErrUnconfigured) {
		t.Fatalf("expected ErrUnconfigured after invalid reload, got %v", err)
	}

	reply = make(chan error, 1)
	d.handle(InputReceived{Input: spinwheel.TouchBegan{X: 300, Y: 200}, Origin: "test", Reply: reply}, clock.Now())
	if err := <-reply; !errors.Is(err, spinwheel.ErrUnconfigured) {
		t.Fatalf("expected ErrUnconfigured for a touch, got %v", err)
	}
}

func TestDaemon_DeadZoneTouchReplyIsError(t *testing.T) {
	cfg := DefaultConfig()
	d, clock, _ := newTestDaemon(t, cfg)
	before := d.engine.Snapshot()

	reply := make(chan error, 1)
	g := cfg.Geometry()
	d.handle(InputReceived{Input: spinwheel.TouchBegan{X: g.Origin.X, Y: g.Origin.Y}, Origin: "test", Reply: reply}, clock.Now())
	if err := <-reply; !errors.Is(err, spinwheel.ErrTouchRejected) {
		t.Fatalf("expected ErrTouchRejected, got %v", err)
	}
	if d.engine.Tracking() || d.engine.Snapshot() != before {
		t.Fatal("rejected touch changed the wheel")
	}
}

func TestDaemon_UnconfiguredAtStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wheel.WedgeCount = 0
	d, clock, _ := newTestDaemon(t, cfg)

	if d.engine.Configured() {
		t.Fatal("expected unconfigured wheel")
	}
	d.handle(RotaryTurn{Steps: 3}, clock.Now())
	if d.sched.Running() {
		t.Fatal("rotary turn should not spin an unconfigured wheel")
	}
}

func TestDaemon_RotaryTurnSpinsHarderWhenFast(t *testing.T) {
	d, clock, _ := newTestDaemon(t, DefaultConfig())
	maxV := d.engine.Config().MaxVelocity

	// A single detent gets the minimum strength.
	d.handle(RotaryTurn{Steps: 1}, clock.Now())
	if got, want := d.engine.Velocity(), maxV*defaultRotaryMinMultiplier; got != want {
		t.Fatalf("single detent: velocity %v, want %v", got, want)
	}

	// A burst inside the window reaches full strength.
	clock.advance(20 * time.Millisecond)
	d.handle(RotaryTurn{Steps: defaultRotaryFullSpinSteps}, clock.Now())
	if got := d.engine.Velocity(); got != maxV {
		t.Fatalf("fast burst: velocity %v, want %v", got, maxV)
	}

	// Counter-clockwise detents count separately.
	clock.advance(20 * time.Millisecond)
	d.handle(RotaryTurn{Steps: -1}, clock.Now())
	if got, want := d.engine.Velocity(), maxV*defaultRotaryMinMultiplier; got != want {
		t.Fatalf("reverse detent: velocity %v, want %v", got, want)
	}
}

func TestDaemon_ConfigReloaded(t *testing.T) {
	d, clock, _ := newTestDaemon(t, DefaultConfig())

	d.handle(InputReceived{Input: spinwheel.SpinRequested{Multiplier: 1}}, clock.Now())

	cfg := DefaultConfig()
	cfg.Wheel.WedgeCount = 12
	cfg.Wheel.Anchor = "right"
	cfg.Wheel.CenterX = 50
	d.handle(ConfigReloaded{Config: cfg}, clock.Now())

	if d.engine.WedgeCount() != 12 {
		t.Fatalf("expected 12 wedges after reload, got %d", d.engine.WedgeCount())
	}
	if d.engine.Config().Anchor != spinwheel.SnapRight.Radians() {
		t.Fatalf("expected anchor right, got %v", d.engine.Config().Anchor)
	}
	if d.geometry.Origin.X != 50 {
		t.Fatalf("expected geometry centre updated, got %+v", d.geometry.Origin)
	}
	if d.sched.Running() {
		t.Fatal("reconfigure should cancel motion")
	}

	// An invalid physics config is rejected and leaves the engine alone.
	bad := cfg
	bad.Physics.DecelerationMultiplier = 1.5
	d.handle(ConfigReloaded{Config: bad}, clock.Now())
	if d.engine.Config().DecelerationMultiplier == 1.5 {
		t.Fatal("invalid config should not be applied")
	}
}

func TestDaemon_TouchDragOverIPCCoordinates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wheel.CenterX, cfg.Wheel.CenterY = 200, 200
	d, clock, _ := newTestDaemon(t, cfg)

	steps := []spinwheel.Input{
		spinwheel.TouchBegan{X: 300, Y: 200},
		spinwheel.TouchMoved{X: 200, Y: 300},
		spinwheel.TouchEnded{},
	}
	for _, in := range steps {
		d.handle(InputReceived{Input: in, Origin: "test"}, clock.Now())
		clock.advance(20 * time.Millisecond)
	}
	if d.engine.Status() != spinwheel.StatusDecelerating {
		t.Fatalf("expected fling to decelerate, got %v", d.engine.Status())
	}
}

func TestDaemon_SnapshotRequest(t *testing.T) {
	d, clock, _ := newTestDaemon(t, DefaultConfig())

	reply := make(chan StateSnapshot, 1)
	d.handle(RequestSnapshot{Reply: reply}, clock.Now())

	snap := <-reply
	if snap.WedgeCount != defaultWedgeCount || !snap.Configured {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.At.Equal(clock.Now()) {
		t.Fatalf("snapshot time %v, want %v", snap.At, clock.Now())
	}
}

func TestDaemon_RunStopsOnContextCancel(t *testing.T) {
	d, _, _ := newTestDaemon(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan Message, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx, msgs)
	}()

	reply := make(chan StateSnapshot, 1)
	msgs <- RequestSnapshot{Reply: reply}
	select {
	case <-reply:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for snapshot from running daemon")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for daemon to stop")
	}
}

func TestDaemon_FlushDropsWhenOutFull(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	out := make(chan spinwheel.Event, 1)
	d, err := newDaemon(DefaultConfig(), out, clock.Now, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	defer d.sched.Stop()

	d.enqueue(spinwheel.RotationDelta{Radians: 1})
	d.enqueue(spinwheel.RotationDelta{Radians: 2})
	d.flush()

	if len(out) != 1 || len(d.pending) != 0 {
		t.Fatalf("expected one delivered and queue cleared, got out=%d pending=%d", len(out), len(d.pending))
	}
}
