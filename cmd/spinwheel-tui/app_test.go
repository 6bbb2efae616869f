package main

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"spinwheel"
)

type countingClicker struct {
	clicks int
}

func (c *countingClicker) Click() { c.clicks++ }
func (c *countingClicker) Close() {}

var tuiEpoch = time.Unix(1700000000, 0)

func tuiAt(ms int) time.Time { return tuiEpoch.Add(time.Duration(ms) * time.Millisecond) }

func newTestApp(t *testing.T, wedges int) (*app, *countingClicker) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)

	sound := &countingClicker{}
	a, err := newApp(screen, spinwheel.DefaultConfig(), wedges, sound, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a, sound
}

func mouse(x, y int, down bool) *tcell.EventMouse {
	btn := tcell.ButtonNone
	if down {
		btn = tcell.Button1
	}
	return tcell.NewEventMouse(x, y, btn, tcell.ModNone)
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

// settleFrames runs frames from start until the engine stops ticking.
func settleFrames(t *testing.T, a *app, startMS int) {
	t.Helper()
	ms := startMS
	for i := 0; a.sched.Running(); i++ {
		if i > 5000 {
			t.Fatalf("wheel never settled (status=%v)", a.engine.Status())
		}
		ms += int(frameInterval / time.Millisecond)
		a.frame(tuiAt(ms))
	}
}

func TestApp_Layout(t *testing.T) {
	a, _ := newTestApp(t, 8)

	if a.geometry.Origin != (spinwheel.Point{X: 40, Y: 24}) {
		t.Fatalf("origin = %+v", a.geometry.Origin)
	}
	if a.radius != 21 {
		t.Fatalf("radius = %v, want 21", a.radius)
	}
}

func TestApp_TapSelectsWedgeUnderPointer(t *testing.T) {
	a, sound := newTestApp(t, 8)

	x, y := 55, 12
	p := cellToPlane(x, y)
	cfg := a.engine.Config()
	want := spinwheel.WedgeIndexForAngle(a.geometry.AngleOf(p), 8, spinwheel.RadiansPerWedge(8), cfg.Anchor)
	if want == 0 {
		t.Fatal("test point should not be on the anchor wedge")
	}

	a.handleEvent(mouse(x, y, true), tuiAt(0))
	if !a.engine.Tracking() {
		t.Fatal("expected the press to start tracking")
	}
	a.handleEvent(mouse(x, y, false), tuiAt(80))

	if got := a.engine.SelectedIndex(); got != want {
		t.Fatalf("selected %d, want %d", got, want)
	}
	if sound.clicks != 1 {
		t.Fatalf("expected one click, got %d", sound.clicks)
	}
	if !strings.Contains(a.message, "tapped") {
		t.Fatalf("message = %q", a.message)
	}
}

func TestApp_PressOnHubIsIgnored(t *testing.T) {
	a, sound := newTestApp(t, 8)

	a.handleEvent(mouse(40, 12, true), tuiAt(0))
	if a.engine.Tracking() {
		t.Fatal("press on the hub should not track")
	}
	a.handleEvent(mouse(55, 12, true), tuiAt(20))
	a.handleEvent(mouse(55, 12, false), tuiAt(40))

	if a.engine.Status() != spinwheel.StatusIdle || sound.clicks != 0 {
		t.Fatalf("expected no motion, status=%v clicks=%d", a.engine.Status(), sound.clicks)
	}
}

func TestApp_DragFlingSettles(t *testing.T) {
	a, sound := newTestApp(t, 8)

	a.handleEvent(mouse(55, 12, true), tuiAt(0))
	a.handleEvent(mouse(48, 4, true), tuiAt(20))
	a.handleEvent(mouse(40, 2, true), tuiAt(40))
	a.handleEvent(mouse(40, 2, false), tuiAt(40))

	if a.engine.Status() != spinwheel.StatusDecelerating {
		t.Fatalf("expected fling to decelerate, got %v", a.engine.Status())
	}
	if !a.sched.Running() {
		t.Fatal("expected ticks requested")
	}

	settleFrames(t, a, 40)

	if a.engine.Status() != spinwheel.StatusIdle {
		t.Fatalf("expected idle, got %v", a.engine.Status())
	}
	if sound.clicks != 1 {
		t.Fatalf("expected one click after settling, got %d", sound.clicks)
	}
	if a.engine.SelectedIndex() != a.engine.WedgeAtAnchor() {
		t.Fatalf("selected %d but %d rests at the anchor", a.engine.SelectedIndex(), a.engine.WedgeAtAnchor())
	}
}

func TestApp_Keys(t *testing.T) {
	a, _ := newTestApp(t, 8)

	a.handleEvent(key(' '), tuiAt(0))
	if a.engine.Velocity() != a.engine.Config().MaxVelocity {
		t.Fatalf("space should spin at full strength, velocity %v", a.engine.Velocity())
	}
	a.handleEvent(key('c'), tuiAt(10))
	if a.engine.Status() != spinwheel.StatusIdle || a.sched.Running() {
		t.Fatal("c should cancel motion")
	}

	a.handleEvent(key('r'), tuiAt(20))
	if a.engine.Status() != spinwheel.StatusDecelerating {
		t.Fatalf("r should spin, got %v", a.engine.Status())
	}

	a.handleEvent(key('+'), tuiAt(30))
	if a.engine.WedgeCount() != 9 {
		t.Fatalf("wedges = %d, want 9", a.engine.WedgeCount())
	}

	for i := 0; i < 8; i++ {
		a.handleEvent(key('-'), tuiAt(40+i))
	}
	if a.engine.Configured() {
		t.Fatal("expected unconfigured after dropping below two wedges")
	}
	if a.message == "" {
		t.Fatal("expected the reload error to be shown")
	}

	a.handleEvent(key('+'), tuiAt(60))
	if a.engine.WedgeCount() != 2 {
		t.Fatalf("wedges = %d, want 2", a.engine.WedgeCount())
	}

	if a.handleEvent(key('q'), tuiAt(70)) {
		t.Fatal("q should quit")
	}
	if a.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), tuiAt(80)) {
		t.Fatal("escape should quit")
	}
}

func TestApp_StepRestartsWithScheduler(t *testing.T) {
	a, _ := newTestApp(t, 8)

	a.handleEvent(key(' '), tuiAt(1000))
	// The first frame one tick later must run exactly one tick, not replay
	// the time since the app started.
	before := a.engine.Velocity()
	a.frame(tuiAt(1000 + 17))
	after := a.engine.Velocity()
	if want := before * a.engine.Config().DecelerationMultiplier; after != want {
		t.Fatalf("velocity %v after one frame, want %v", after, want)
	}
}
