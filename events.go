package spinwheel

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Engine Events - emitted to the host
// ============================================================================
// The engine never calls back into host code other than through a Sink.
// Events are plain values; hosts fan them out however they like (channels,
// websockets, a renderer).
// ============================================================================

// Event is anything the engine emits.
type Event interface {
	eventMarker()
}

// Sink receives events synchronously, on the goroutine driving the engine.
type Sink func(Event)

// RotationDelta is emitted for every drag sample and physics tick that moves
// the wheel. Radians is the movement since the previous RotationDelta.
type RotationDelta struct {
	Radians float64 `json:"radians"`
}

func (RotationDelta) eventMarker() {}

// SelectionChanged is emitted once per completed snap or confirmed tap.
type SelectionChanged struct {
	Index int `json:"index"`
}

func (SelectionChanged) eventMarker() {}

// WedgeTapped is emitted when a touch ends as a tap on a wedge, just before
// the matching SelectionChanged.
type WedgeTapped struct {
	Index int `json:"index"`
}

func (WedgeTapped) eventMarker() {}

// DecelerationEnded is emitted when friction has slowed the wheel enough to
// hand over to snapping.
type DecelerationEnded struct{}

func (DecelerationEnded) eventMarker() {}

// StatusChanged is emitted on every status transition.
type StatusChanged struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

func (StatusChanged) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// Envelope wraps an event or input with a type discriminator for JSON marshaling.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env Envelope

	switch e := e.(type) {
	case RotationDelta:
		env.Type = "rotation_delta"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal RotationDelta: %w", err)
		}
		env.Data = data

	case SelectionChanged:
		env.Type = "selection_changed"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal SelectionChanged: %w", err)
		}
		env.Data = data

	case WedgeTapped:
		env.Type = "wedge_tapped"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal WedgeTapped: %w", err)
		}
		env.Data = data

	case DecelerationEnded:
		env.Type = "deceleration_ended"

	case StatusChanged:
		env.Type = "status_changed"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal StatusChanged: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "rotation_delta":
		var e RotationDelta
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal RotationDelta: %w", err)
		}
		return e, nil

	case "selection_changed":
		var e SelectionChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal SelectionChanged: %w", err)
		}
		return e, nil

	case "wedge_tapped":
		var e WedgeTapped
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal WedgeTapped: %w", err)
		}
		return e, nil

	case "deceleration_ended":
		return DecelerationEnded{}, nil

	case "status_changed":
		var e StatusChanged
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal StatusChanged: %w", err)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}
