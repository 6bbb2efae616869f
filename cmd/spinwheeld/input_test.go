package main

import (
	"testing"

	"spinwheel"
)

func TestTranslateInputEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   inputEvent
		want Message
	}{
		{"dial clockwise", inputEvent{Type: EV_REL, Code: REL_DIAL, Value: 2}, RotaryTurn{Steps: 2}},
		{"wheel counter-clockwise", inputEvent{Type: EV_REL, Code: REL_WHEEL, Value: -1}, RotaryTurn{Steps: -1}},
		{"enter press", inputEvent{Type: EV_KEY, Code: KEY_ENTER, Value: evValuePress}, InputReceived{Input: spinwheel.RandomSpinRequested{}, Origin: "evdev"}},
		{"space press", inputEvent{Type: EV_KEY, Code: KEY_SPACE, Value: evValuePress}, InputReceived{Input: spinwheel.RandomSpinRequested{}, Origin: "evdev"}},
		{"button press", inputEvent{Type: EV_KEY, Code: BTN_LEFT, Value: evValuePress}, InputReceived{Input: spinwheel.RandomSpinRequested{}, Origin: "evdev"}},
		{"escape press", inputEvent{Type: EV_KEY, Code: KEY_ESC, Value: evValuePress}, InputReceived{Input: spinwheel.CancelRequested{}, Origin: "evdev"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateInputEvent(tt.ev)
			if !ok {
				t.Fatalf("expected event to translate")
			}
			if got != tt.want {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTranslateInputEvent_Ignored(t *testing.T) {
	ignored := []inputEvent{
		{Type: EV_SYN},
		{Type: EV_REL, Code: REL_DIAL, Value: 0},
		{Type: EV_REL, Code: 0x00, Value: 5}, // REL_X
		{Type: EV_KEY, Code: KEY_ENTER, Value: evValueRelease},
		{Type: EV_KEY, Code: KEY_ENTER, Value: evValueRepeat},
		{Type: EV_KEY, Code: 30, Value: evValuePress}, // KEY_A
	}
	for _, ev := range ignored {
		if msg, ok := translateInputEvent(ev); ok {
			t.Errorf("event %+v should be ignored, got %#v", ev, msg)
		}
	}
}
