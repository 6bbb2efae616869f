package main

import (
	"time"

	"spinwheel"
)

// ============================================================================
// Daemon Messages
// ============================================================================
// Messages carry intent from the daemon's producers (IPC, WebSocket clients,
// input devices, signal handling) to the single goroutine that owns the
// engine. Producers never touch the engine directly.
// ============================================================================

// Message is a marker interface for everything the daemon loop consumes.
type Message interface {
	messageMarker()
}

// InputReceived forwards an engine input. The daemon stamps it on arrival.
//
// If Reply is non-nil the daemon sends the Apply result on it without
// blocking; callers should give it a buffer of one.
type InputReceived struct {
	Input  spinwheel.Input
	Origin string // "ipc", "ws", "evdev"
	Reply  chan<- error
}

func (InputReceived) messageMarker() {}

// RotaryTurn is a raw rotary encoder movement in detents.
// The daemon owns the policy that turns detents into spin strength.
type RotaryTurn struct {
	Steps int
}

func (RotaryTurn) messageMarker() {}

// RequestSnapshot asks the daemon for its current state.
type RequestSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestSnapshot) messageMarker() {}

// ConfigReloaded carries a re-read, validated configuration (SIGHUP).
type ConfigReloaded struct {
	Config Config
}

func (ConfigReloaded) messageMarker() {}

// StateSnapshot is a coherent copy of the daemon's observable state.
type StateSnapshot struct {
	spinwheel.Snapshot

	At time.Time `json:"at"`
}
