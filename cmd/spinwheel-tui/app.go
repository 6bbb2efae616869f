package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"spinwheel"
)

// frameInterval is the redraw cadence (~60 FPS). Physics runs on its own
// fixed step inside each frame.
const frameInterval = 16 * time.Millisecond

// maxTicksPerFrame caps catch-up after a stalled frame.
const maxTicksPerFrame = 4

const maxWedges = 24

// app hosts the engine in a terminal. Everything runs on the goroutine that
// calls run; the engine is never touched elsewhere.
type app struct {
	screen   tcell.Screen
	renderer Renderer
	sound    clicker
	logger   *slog.Logger

	engine *spinwheel.Engine
	sched  *spinwheel.ManualScheduler
	step   *spinwheel.FixedStep
	// seenStarts detects scheduler restarts so the step restarts with them.
	seenStarts int

	geometry *spinwheel.PlaneGeometry
	radius   float64

	// Mouse state. pressed follows the button; tracking is whether the
	// engine accepted the press as a touch.
	pressed   bool
	tracking  bool
	moved     bool
	pressCell [2]int

	message string
}

func newApp(screen tcell.Screen, cfg spinwheel.Config, wedges int, sound clicker, logger *slog.Logger) (*app, error) {
	if sound == nil {
		sound = silentClicker{}
	}
	a := &app{
		screen:   screen,
		renderer: newCellRenderer(screen),
		sound:    sound,
		logger:   logger,
		sched:    &spinwheel.ManualScheduler{},
		geometry: &spinwheel.PlaneGeometry{},
	}

	cfg.DeadZoneRadius = hubRadius
	engine, err := spinwheel.New(cfg,
		spinwheel.WithGeometry(a.geometry),
		spinwheel.WithScheduler(a.sched),
		spinwheel.WithSink(a.onEvent),
		spinwheel.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	a.engine = engine
	a.step = spinwheel.NewFixedStep(engine.Config().TickRateHz, maxTicksPerFrame)

	a.layout()
	if err := a.engine.Reload(wedges); err != nil {
		a.message = err.Error()
	}
	return a, nil
}

// layout centres the wheel in the screen above the status line.
func (a *app) layout() {
	w, h := a.screen.Size()
	rows := h - 1
	if rows < 1 {
		rows = 1
	}
	a.geometry.Origin = spinwheel.Point{X: float64(w) / 2, Y: float64(rows) / 2 * cellAspect}
	// Leave room for the pointer outside the rim.
	a.radius = math.Max(math.Min(float64(w)/2, float64(rows)/2*cellAspect)-3, hubRadius+1)
}

func (a *app) onEvent(ev spinwheel.Event) {
	switch e := ev.(type) {
	case spinwheel.SelectionChanged:
		a.sound.Click()
		a.logger.Info("selection changed", "index", e.Index)
	case spinwheel.WedgeTapped:
		a.message = fmt.Sprintf("tapped %d", e.Index)
	case spinwheel.DecelerationEnded:
		a.message = ""
	}
}

// handleEvent applies one terminal event. It returns false to quit.
func (a *app) handleEvent(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if !a.handleKey(ev) {
			return false
		}

	case *tcell.EventMouse:
		a.handleMouse(ev, now)

	case *tcell.EventResize:
		a.screen.Sync()
		a.layout()
	}

	a.syncStep(now)
	return true
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 'r':
		a.engine.RandomSpin()
	case ' ':
		a.engine.Spin(1)
	case 'c':
		a.engine.Cancel()
	case '+', '=':
		a.reload(a.engine.WedgeCount() + 1)
	case '-':
		a.reload(a.engine.WedgeCount() - 1)
	}
	return true
}

func (a *app) reload(n int) {
	if n < 0 {
		n = 0
	}
	// Coming back from unconfigured goes straight to the smallest wheel.
	if n == 1 && !a.engine.Configured() {
		n = 2
	}
	if n > maxWedges {
		n = maxWedges
	}
	a.message = ""
	if err := a.engine.Reload(n); err != nil {
		a.message = err.Error()
	}
}

// handleMouse turns primary-button drags into touches. A press and release
// in the same cell is a single tap.
func (a *app) handleMouse(ev *tcell.EventMouse, now time.Time) {
	x, y := ev.Position()
	down := ev.Buttons()&tcell.Button1 != 0
	p := cellToPlane(x, y)

	switch {
	case down && !a.pressed:
		a.pressed = true
		a.moved = false
		a.pressCell = [2]int{x, y}
		a.tracking = a.engine.TouchBegin(p, now)

	case down && a.tracking:
		if [2]int{x, y} != a.pressCell {
			a.moved = true
		}
		if a.moved {
			a.engine.TouchMove(p, now)
		}

	case !down && a.pressed:
		if a.tracking {
			taps := 0
			if !a.moved {
				taps = 1
			}
			a.engine.TouchEnd(taps, now)
		}
		a.pressed, a.tracking = false, false
	}
}

// syncStep restarts the fixed step whenever the engine (re)starts ticking.
func (a *app) syncStep(now time.Time) {
	if s := a.sched.Starts(); s != a.seenStarts {
		a.seenStarts = s
		a.step.Reset(now)
	}
}

// frame advances the physics to now and redraws.
func (a *app) frame(now time.Time) {
	if a.sched.Running() {
		n := a.step.Advance(now)
		for i := 0; i < n && a.sched.Running(); i++ {
			a.engine.Tick(now)
		}
		a.syncStep(now)
	}
	a.draw()
}

func (a *app) view() WheelView {
	return WheelView{
		WedgeCount: a.engine.WedgeCount(),
		Configured: a.engine.Configured(),
		Geometry:   a.geometry,
		Radius:     a.radius,
		Rotation:   a.engine.Rotation(),
		Anchor:     a.engine.Config().Anchor,
		Selected:   a.engine.SelectedIndex(),
		Status:     a.engine.Status(),
		Message:    a.message,
	}
}

func (a *app) draw() {
	a.renderer.Draw(a.view())
	a.screen.Show()
}

func (a *app) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				// Screen finalized.
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	a.draw()
	for {
		select {
		case ev, ok := <-eventChan:
			if !ok || !a.handleEvent(ev, time.Now()) {
				return
			}

		case now := <-ticker.C:
			a.frame(now)
		}
	}
}
