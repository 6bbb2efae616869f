package spinwheel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// ============================================================================
// Rotation Engine
// ============================================================================
//
// The engine is a finite-state machine over a continuous rotation angle:
//
//   Idle --TouchBegin--> Tracking --TouchEnd--> Decelerating --> Snapping --> Idle
//                               \--tap--> Idle (selection committed)
//
// Design rules:
//   - Single-owner: the engine is not reentrant and never blocks. Every method
//     must be called from the goroutine that owns it.
//   - Exactly one phase is active. Phase-specific state lives only inside the
//     phase value, so there is nothing stale to read once a phase ends.
//   - The tick source is injected. Starting one always stops the previous one,
//     and cancellation is synchronous: after Cancel/TouchBegin returns the
//     engine is Idle and no ticks are wanted.
//   - SelectedIndex changes only when a snap completes or a tap is confirmed.
//
// ============================================================================

var (
	// ErrInvalidWedgeCount is returned by Reload for counts below two. The
	// engine is left unconfigured.
	ErrInvalidWedgeCount = errors.New("wedge count must be at least 2")

	// ErrUnconfigured is returned by Apply for touches and spins before a
	// successful Reload.
	ErrUnconfigured = errors.New("wheel is not configured")

	// ErrTouchRejected is returned by Apply when a TouchBegan lands inside the
	// dead zone.
	ErrTouchRejected = errors.New("touch rejected")
)

// Status is the externally visible state of the wheel. An active drag is
// reported as StatusIdle; use Engine.Tracking to tell it apart.
type Status int

const (
	StatusIdle Status = iota
	StatusDecelerating
	StatusSnapping
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDecelerating:
		return "decelerating"
	case StatusSnapping:
		return "snapping"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "decelerating":
		*s = StatusDecelerating
	case "snapping":
		*s = StatusSnapping
	default:
		return fmt.Errorf("invalid status: %q", string(b))
	}
	return nil
}

// ==============================
// Phases
// ==============================

type phase interface {
	status() Status
}

type idlePhase struct{}

func (idlePhase) status() Status { return StatusIdle }

type trackingPhase struct {
	session *trackingSession
}

func (*trackingPhase) status() Status { return StatusIdle }

type deceleratingPhase struct {
	velocity float64
}

func (*deceleratingPhase) status() Status { return StatusDecelerating }

type snappingPhase struct {
	plan snapPlan
}

func (*snappingPhase) status() Status { return StatusSnapping }

// ==============================
// Engine
// ==============================

// Engine owns the rotation, the phase machine and the selected wedge.
type Engine struct {
	cfg       Config
	geometry  Geometry
	scheduler Scheduler
	sink      Sink
	logger    *slog.Logger
	rng       *rand.Rand

	wedgeCount      int
	radiansPerWedge float64

	rotation float64
	selected int
	phase    phase
	ticking  bool
	lastTick time.Time
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithGeometry sets the host geometry used to interpret touch points.
func WithGeometry(g Geometry) Option {
	return func(e *Engine) { e.geometry = g }
}

// WithScheduler injects the tick source.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithSink sets the event receiver.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand sets the random source used by RandomSpin.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// New creates an unconfigured engine. Call Reload with a wedge count before
// feeding it input.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:   cfg,
		phase: idlePhase{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.geometry == nil {
		e.geometry = PlaneGeometry{}
	}
	if e.scheduler == nil {
		e.scheduler = nopScheduler{}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e, nil
}

// Configure replaces the physics configuration. Any motion in flight is
// cancelled; rotation, wedge count and selection are kept.
func (e *Engine) Configure(cfg Config) error {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	e.cancelMotion()
	e.cfg = cfg
	return nil
}

// Config returns the active configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reload (re)configures the wheel for wedgeCount wedges.
//
// Counts below two leave the engine unconfigured: touches are rejected and
// spins are ignored until a valid reload. The rotation is kept either way.
func (e *Engine) Reload(wedgeCount int) error {
	e.cancelMotion()

	if wedgeCount < minWedgeCount {
		e.wedgeCount = 0
		e.radiansPerWedge = 0
		e.selected = 0
		e.logger.Warn("wheel reload rejected", "wedge_count", wedgeCount)
		return fmt.Errorf("%w: got %d", ErrInvalidWedgeCount, wedgeCount)
	}

	e.wedgeCount = wedgeCount
	e.radiansPerWedge = RadiansPerWedge(wedgeCount)
	if e.selected >= wedgeCount {
		e.selected = 0
	}
	e.logger.Debug("wheel reloaded", "wedge_count", wedgeCount, "radians_per_wedge", e.radiansPerWedge)
	return nil
}

// Reset cancels any motion and returns the wheel to rotation 0 with wedge 0
// selected. This is the only operation besides construction that moves the
// wheel discontinuously.
func (e *Engine) Reset() {
	e.cancelMotion()
	e.rotation = 0
	e.selected = 0
}

// ==============================
// Touch tracking
// ==============================

// TouchBegin starts tracking a drag at p.
//
// Any deceleration or snapping is cancelled first, so the engine is Idle when
// the touch is evaluated. The touch is rejected (false) if the engine is
// unconfigured or p lies inside the dead zone around the centre.
func (e *Engine) TouchBegin(p Point, now time.Time) bool {
	interrupted := e.cancelMotion()

	if !e.Configured() {
		return false
	}
	if distanceFromCenter(e.geometry, p) < e.cfg.DeadZoneRadius {
		e.logger.Debug("touch rejected (dead zone)", "x", p.X, "y", p.Y)
		return false
	}

	s := newTrackingSession(e.geometry.AngleOf(p), now)
	e.setPhase(&trackingPhase{session: s})
	e.logger.Debug("tracking started", "radians", s.startRadians, "interrupted", interrupted)
	return true
}

// TouchMove rotates the wheel by the angular movement of the drag.
// Samples inside the dead zone and moves without an active drag are ignored.
func (e *Engine) TouchMove(p Point, now time.Time) {
	t, ok := e.phase.(*trackingPhase)
	if !ok {
		return
	}
	if distanceFromCenter(e.geometry, p) < e.cfg.DeadZoneRadius {
		return
	}

	delta := t.session.sample(e.geometry.AngleOf(p), now)
	e.rotate(delta)
}

// TouchEnd finishes the drag. A touch that never moved and was recognised as
// a tap (tapCount > 0) selects the wedge under the finger, including one that
// caught a moving wheel. Anything else hands the release velocity to
// deceleration.
func (e *Engine) TouchEnd(tapCount int, now time.Time) {
	t, ok := e.phase.(*trackingPhase)
	if !ok {
		return
	}
	s := t.session

	if s.isTap(tapCount) {
		idx := WedgeIndexForAngle(s.currentRadians-e.rotation, e.wedgeCount, e.radiansPerWedge, e.cfg.Anchor)
		e.selected = idx
		e.setPhase(idlePhase{})
		e.logger.Debug("wedge tapped", "index", idx)
		e.emit(WedgeTapped{Index: idx})
		e.emit(SelectionChanged{Index: idx})
		return
	}

	v := s.velocity(e.cfg)
	e.logger.Debug("tracking ended", "velocity", v, "held", now.Sub(s.startAt))
	e.enterDeceleration(v)
}

// TouchCancel abandons the drag (for example when the host loses the
// pointer) and snaps the wheel onto the nearest wedge.
func (e *Engine) TouchCancel() {
	if _, ok := e.phase.(*trackingPhase); !ok {
		return
	}
	e.enterSnapping()
}

// ==============================
// Programmatic spin
// ==============================

// Spin decelerates the wheel from multiplier * MaxVelocity, bypassing touch
// tracking. multiplier is clamped to [0, 1]; zero snaps immediately.
func (e *Engine) Spin(multiplier float64) {
	if !e.Configured() {
		e.logger.Debug("spin ignored (unconfigured)")
		return
	}
	if math.IsNaN(multiplier) || multiplier < 0 {
		multiplier = 0
	}
	if multiplier > 1 {
		multiplier = 1
	}

	e.cancelMotion()
	e.enterDeceleration(e.cfg.MaxVelocity * multiplier)
}

// RandomSpin spins with a multiplier drawn uniformly from the configured range.
func (e *Engine) RandomSpin() {
	var r float64
	if e.rng != nil {
		r = e.rng.Float64()
	} else {
		r = rand.Float64()
	}
	m := e.cfg.RandomSpinMin + r*(e.cfg.RandomSpinMax-e.cfg.RandomSpinMin)
	e.Spin(m)
}

// Cancel halts any drag, deceleration or snap. The engine is Idle on return
// and no ticks are wanted.
func (e *Engine) Cancel() {
	e.cancelMotion()
}

// ==============================
// Simulation tick
// ==============================

// Tick advances deceleration or snapping by one logical tick. Ticks that
// arrive while the engine does not want them (stale ticks after a cancel) are
// ignored.
func (e *Engine) Tick(now time.Time) {
	switch p := e.phase.(type) {
	case *deceleratingPhase:
		e.lastTick = now
		next, rotate, done := stepDeceleration(p.velocity, e.cfg)
		if done {
			e.logger.Debug("deceleration ended", "velocity", p.velocity)
			e.emit(DecelerationEnded{})
			e.enterSnapping()
			return
		}
		p.velocity = next
		e.rotate(rotate)

	case *snappingPhase:
		e.lastTick = now
		rotate, done := stepSnap(e.rotation, p.plan, e.cfg.SnapProximity)
		if done {
			e.finishSnap()
			return
		}
		e.rotate(rotate)
	}
}

// ==============================
// Dispatch
// ==============================

// Apply dispatches an Input to the matching method, stamped with now.
func (e *Engine) Apply(in Input, now time.Time) error {
	switch in := in.(type) {
	case TouchBegan:
		if !e.TouchBegin(Point{X: in.X, Y: in.Y}, now) {
			if !e.Configured() {
				return ErrUnconfigured
			}
			return ErrTouchRejected
		}
	case TouchMoved:
		e.TouchMove(Point{X: in.X, Y: in.Y}, now)
	case TouchEnded:
		e.TouchEnd(in.TapCount, now)
	case TouchCancelled:
		e.TouchCancel()
	case SpinRequested:
		if !e.Configured() {
			return ErrUnconfigured
		}
		e.Spin(in.Multiplier)
	case RandomSpinRequested:
		if !e.Configured() {
			return ErrUnconfigured
		}
		e.RandomSpin()
	case ReloadRequested:
		return e.Reload(in.WedgeCount)
	case CancelRequested:
		e.Cancel()
	default:
		return errUnknownInput{in: in}
	}
	return nil
}

type errUnknownInput struct {
	in Input
}

func (e errUnknownInput) Error() string { return fmt.Sprintf("unknown input: %T", e.in) }

// ==============================
// Queries
// ==============================

// SelectedIndex returns the committed selection.
func (e *Engine) SelectedIndex() int { return e.selected }

// Status returns the current status.
func (e *Engine) Status() Status { return e.phase.status() }

// Tracking reports whether a drag is in progress.
func (e *Engine) Tracking() bool {
	_, ok := e.phase.(*trackingPhase)
	return ok
}

// Rotation returns the live, unbounded rotation of the wheel face.
func (e *Engine) Rotation() float64 { return e.rotation }

// WedgeCount returns the configured wedge count, or 0 when unconfigured.
func (e *Engine) WedgeCount() int { return e.wedgeCount }

// Configured reports whether a valid Reload has happened.
func (e *Engine) Configured() bool { return e.wedgeCount >= minWedgeCount }

// Velocity returns the deceleration velocity, or 0 outside deceleration.
func (e *Engine) Velocity() float64 {
	if p, ok := e.phase.(*deceleratingPhase); ok {
		return p.velocity
	}
	return 0
}

// WedgeAtAnchor returns the wedge currently resting at the anchor. Unlike
// SelectedIndex it follows the wheel while it moves.
func (e *Engine) WedgeAtAnchor() int {
	return indexAtRotation(e.rotation, e.wedgeCount, e.radiansPerWedge, e.cfg.Anchor)
}

// Snapshot is a coherent copy of the engine's observable state.
type Snapshot struct {
	WedgeCount    int       `json:"wedge_count"`
	Configured    bool      `json:"configured"`
	Rotation      float64   `json:"rotation"`
	Status        Status    `json:"status"`
	Tracking      bool      `json:"tracking"`
	SelectedIndex int       `json:"selected_index"`
	WedgeAtAnchor int       `json:"wedge_at_anchor"`
	Velocity      float64   `json:"velocity"`
	LastTick      time.Time `json:"last_tick,omitzero"`
}

// Snapshot returns the current observable state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		WedgeCount:    e.wedgeCount,
		Configured:    e.Configured(),
		Rotation:      e.rotation,
		Status:        e.Status(),
		Tracking:      e.Tracking(),
		SelectedIndex: e.selected,
		WedgeAtAnchor: e.WedgeAtAnchor(),
		Velocity:      e.Velocity(),
		LastTick:      e.lastTick,
	}
}

// ==============================
// Internals
// ==============================

func (e *Engine) enterDeceleration(velocity float64) {
	if velocity == 0 {
		e.enterSnapping()
		return
	}
	e.setPhase(&deceleratingPhase{velocity: velocity})
	e.startTicking()
}

func (e *Engine) enterSnapping() {
	plan := planSnap(e.rotation, e.wedgeCount, e.radiansPerWedge, e.cfg)
	e.setPhase(&snappingPhase{plan: plan})
	e.logger.Debug("snapping", "wedge", plan.wedge, "destination", plan.destination, "increment", plan.increment)
	e.startTicking()
}

func (e *Engine) finishSnap() {
	e.stopTicking()
	e.selected = indexAtRotation(e.rotation, e.wedgeCount, e.radiansPerWedge, e.cfg.Anchor)
	e.setPhase(idlePhase{})
	e.emit(SelectionChanged{Index: e.selected})
}

// cancelMotion stops ticking and drops any drag, deceleration or snap.
// It reports whether deceleration or snapping was interrupted.
func (e *Engine) cancelMotion() bool {
	e.stopTicking()
	interrupted := e.phase.status() != StatusIdle
	if _, idle := e.phase.(idlePhase); !idle {
		e.setPhase(idlePhase{})
	}
	return interrupted
}

func (e *Engine) startTicking() {
	// A new tick source always replaces the previous one.
	e.scheduler.Stop()
	e.scheduler.Start(e.cfg.TickRateHz)
	e.ticking = true
}

func (e *Engine) stopTicking() {
	if !e.ticking {
		return
	}
	e.scheduler.Stop()
	e.ticking = false
}

func (e *Engine) setPhase(p phase) {
	from := e.phase.status()
	e.phase = p
	if to := p.status(); to != from {
		e.logger.Debug("status changed", "from", from, "to", to)
		e.emit(StatusChanged{From: from, To: to})
	}
}

func (e *Engine) rotate(delta float64) {
	e.rotation += delta
	e.emit(RotationDelta{Radians: delta})
}

func (e *Engine) emit(ev Event) {
	if e.sink != nil {
		e.sink(ev)
	}
}
