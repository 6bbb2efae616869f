package spinwheel

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Inputs - host intent delivered to the engine
// ============================================================================
// Inputs mirror the engine's methods as values so they can cross a wire
// (IPC, websocket) or a channel and be dispatched with Engine.Apply.
// Timestamps are not part of the payload; the goroutine that owns the engine
// stamps inputs on arrival.
// ============================================================================

// Input is a marker interface for everything Engine.Apply accepts.
type Input interface {
	inputMarker()
}

// TouchBegan starts a drag at a host-space point.
type TouchBegan struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (TouchBegan) inputMarker() {}

// TouchMoved continues a drag.
type TouchMoved struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (TouchMoved) inputMarker() {}

// TouchEnded finishes a drag. TapCount is the number of taps the host
// recognised for this touch (0 for a plain drag).
type TouchEnded struct {
	TapCount int `json:"tap_count"`
}

func (TouchEnded) inputMarker() {}

// TouchCancelled aborts a drag without tap handling.
type TouchCancelled struct{}

func (TouchCancelled) inputMarker() {}

// SpinRequested spins the wheel at Multiplier * MaxVelocity.
type SpinRequested struct {
	Multiplier float64 `json:"multiplier"`
}

func (SpinRequested) inputMarker() {}

// RandomSpinRequested spins the wheel at a random velocity.
type RandomSpinRequested struct{}

func (RandomSpinRequested) inputMarker() {}

// ReloadRequested reconfigures the wheel with a new wedge count.
type ReloadRequested struct {
	WedgeCount int `json:"wedge_count"`
}

func (ReloadRequested) inputMarker() {}

// CancelRequested halts any drag, deceleration or snap.
type CancelRequested struct{}

func (CancelRequested) inputMarker() {}

// MarshalInput serializes an Input into a JSON envelope with type discriminator
func MarshalInput(in Input) ([]byte, error) {
	var env Envelope

	switch in := in.(type) {
	case TouchBegan:
		env.Type = "touch_began"
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal TouchBegan: %w", err)
		}
		env.Data = data

	case TouchMoved:
		env.Type = "touch_moved"
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal TouchMoved: %w", err)
		}
		env.Data = data

	case TouchEnded:
		env.Type = "touch_ended"
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal TouchEnded: %w", err)
		}
		env.Data = data

	case TouchCancelled:
		env.Type = "touch_cancelled"

	case SpinRequested:
		env.Type = "spin"
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal SpinRequested: %w", err)
		}
		env.Data = data

	case RandomSpinRequested:
		env.Type = "random_spin"

	case ReloadRequested:
		env.Type = "reload"
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal ReloadRequested: %w", err)
		}
		env.Data = data

	case CancelRequested:
		env.Type = "cancel"

	default:
		return nil, fmt.Errorf("unsupported input type: %T", in)
	}

	return json.Marshal(env)
}

// UnmarshalInput deserializes a JSON input envelope into a concrete Input
func UnmarshalInput(data []byte) (Input, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "touch_began":
		var in TouchBegan
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return nil, fmt.Errorf("unmarshal TouchBegan: %w", err)
		}
		return in, nil

	case "touch_moved":
		var in TouchMoved
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return nil, fmt.Errorf("unmarshal TouchMoved: %w", err)
		}
		return in, nil

	case "touch_ended":
		var in TouchEnded
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &in); err != nil {
				return nil, fmt.Errorf("unmarshal TouchEnded: %w", err)
			}
		}
		return in, nil

	case "touch_cancelled":
		return TouchCancelled{}, nil

	case "spin":
		var in SpinRequested
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return nil, fmt.Errorf("unmarshal SpinRequested: %w", err)
		}
		return in, nil

	case "random_spin":
		return RandomSpinRequested{}, nil

	case "reload":
		var in ReloadRequested
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return nil, fmt.Errorf("unmarshal ReloadRequested: %w", err)
		}
		return in, nil

	case "cancel":
		return CancelRequested{}, nil

	default:
		return nil, fmt.Errorf("unknown input type: %q", env.Type)
	}
}
