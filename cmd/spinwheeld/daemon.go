package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spinwheel"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// Design rules enforced here:
//   - One goroutine owns the engine. Every other goroutine talks to it through
//     Messages and receives engine events through the out channel.
//   - The engine never blocks and never calls back into I/O: its sink only
//     appends to a queue, and the queue is flushed after each message or tick.
//   - Ticks only flow while the engine asked for them (loopScheduler).
//
// ============================================================================

type daemon struct {
	engine   *spinwheel.Engine
	sched    *loopScheduler
	geometry *spinwheel.PlaneGeometry

	rotary    *rotaryState
	rotaryCfg RotaryConfig

	// pending holds engine events awaiting fan-out.
	pending []spinwheel.Event
	out     chan<- spinwheel.Event

	now    func() time.Time
	logger *slog.Logger
}

// newDaemon builds the engine from cfg and reloads it with the configured
// wedge count. A wedge count below two is logged and leaves the wheel
// unconfigured until a reload arrives.
func newDaemon(cfg Config, out chan<- spinwheel.Event, now func() time.Time, logger *slog.Logger) (*daemon, error) {
	if now == nil {
		now = time.Now
	}

	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return nil, err
	}

	geom := cfg.Geometry()
	d := &daemon{
		sched:     newLoopScheduler(now),
		geometry:  &geom,
		rotary:    newRotaryState(),
		rotaryCfg: cfg.Input.Rotary,
		out:       out,
		now:       now,
		logger:    logger,
	}

	d.engine, err = spinwheel.New(engineCfg,
		spinwheel.WithGeometry(d.geometry),
		spinwheel.WithScheduler(d.sched),
		spinwheel.WithSink(d.enqueue),
		spinwheel.WithLogger(logger.With("component", "engine")),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	if err := d.engine.Reload(cfg.Wheel.WedgeCount); err != nil {
		logger.Warn("wheel starts unconfigured", "error", err)
	}
	d.flush()

	return d, nil
}

// run processes messages and ticks until ctx is canceled or msgs is closed.
func (d *daemon) run(ctx context.Context, msgs <-chan Message) {
	defer d.sched.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping (context canceled)")
			return

		case msg, ok := <-msgs:
			if !ok {
				d.logger.Info("daemon stopping (messages channel closed)")
				return
			}
			d.handle(msg, d.now())
			d.flush()

		case now := <-d.sched.C():
			d.tick(now)
			d.flush()
		}
	}
}

// handle applies a single message to the engine.
func (d *daemon) handle(msg Message, now time.Time) {
	switch m := msg.(type) {
	case InputReceived:
		err := d.engine.Apply(m.Input, now)
		if err != nil {
			d.logger.Warn("input rejected", "origin", m.Origin, "input", fmt.Sprintf("%T", m.Input), "error", err)
		}
		if m.Reply != nil {
			select {
			case m.Reply <- err:
			default:
				d.logger.Warn("input reply channel not ready; dropping result", "origin", m.Origin)
			}
		}

	case RotaryTurn:
		d.handleRotary(m, now)

	case RequestSnapshot:
		if m.Reply == nil {
			d.logger.Warn("state snapshot requested with nil reply channel")
			return
		}
		select {
		case m.Reply <- d.snapshot(now):
		default:
			d.logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	case ConfigReloaded:
		d.reconfigure(m.Config)

	default:
		d.logger.Warn("unknown message type", "type", fmt.Sprintf("%T", msg))
	}
}

// handleRotary turns encoder detents into a spin whose strength follows how
// fast the knob is being turned.
func (d *daemon) handleRotary(m RotaryTurn, now time.Time) {
	if m.Steps == 0 {
		return
	}
	if !d.engine.Configured() {
		d.logger.Debug("rotary turn ignored (wheel unconfigured)")
		return
	}

	direction, steps := 1, m.Steps
	if steps < 0 {
		direction, steps = -1, -steps
	}

	window := time.Duration(d.rotaryCfg.VelocityWindowMS) * time.Millisecond
	count := 0
	for i := 0; i < steps; i++ {
		count = d.rotary.addStep(direction, now, window)
	}

	mult := spinMultiplier(count, d.rotaryCfg)
	d.logger.Debug("rotary spin", "steps", m.Steps, "in_window", count, "multiplier", mult)
	d.engine.Spin(mult)
}

// tick runs every logical tick that is due. A tick can end the motion (or
// restart the tick source when deceleration hands over to snapping), so the
// scheduler is rechecked before each one.
func (d *daemon) tick(now time.Time) {
	n := d.sched.Due(now)
	for i := 0; i < n && d.sched.Running(); i++ {
		d.engine.Tick(now)
	}
}

func (d *daemon) reconfigure(cfg Config) {
	engineCfg, err := cfg.ToEngineConfig()
	if err == nil {
		err = d.engine.Configure(engineCfg)
	}
	if err != nil {
		d.logger.Error("config reload rejected", "error", err)
		return
	}

	*d.geometry = cfg.Geometry()
	d.rotaryCfg = cfg.Input.Rotary

	if cfg.Wheel.WedgeCount != d.engine.WedgeCount() {
		if err := d.engine.Reload(cfg.Wheel.WedgeCount); err != nil {
			d.logger.Warn("wheel reload after config change", "error", err)
		}
	}
	d.logger.Info("config reloaded", "wedge_count", d.engine.WedgeCount(), "anchor", cfg.Wheel.Anchor)
}

func (d *daemon) snapshot(now time.Time) StateSnapshot {
	return StateSnapshot{Snapshot: d.engine.Snapshot(), At: now}
}

// enqueue is the engine's sink. It must not block.
func (d *daemon) enqueue(ev spinwheel.Event) {
	d.pending = append(d.pending, ev)
}

// flush fans queued events out. A full out channel drops the event rather
// than stalling the physics.
func (d *daemon) flush() {
	for _, ev := range d.pending {
		if d.out == nil {
			break
		}
		select {
		case d.out <- ev:
		default:
			d.logger.Warn("event queue full, dropping event", "event", fmt.Sprintf("%T", ev))
		}
	}
	clear(d.pending)
	d.pending = d.pending[:0]
}
