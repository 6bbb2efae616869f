package main

import (
	"spinwheel"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// translateInputEvent maps a raw evdev event onto a daemon message.
//
//   - REL_DIAL / REL_WHEEL detents become RotaryTurn (spin strength is
//     decided by the daemon from how fast the knob turns)
//   - KEY_ENTER, KEY_SPACE and BTN_LEFT presses request a random spin
//   - KEY_ESC cancels any motion
//
// Everything else, including key repeats and releases, is ignored.
func translateInputEvent(ev inputEvent) (Message, bool) {
	switch ev.Type {
	case EV_REL:
		if ev.Code != REL_DIAL && ev.Code != REL_WHEEL {
			return nil, false
		}
		if ev.Value == 0 {
			return nil, false
		}
		return RotaryTurn{Steps: int(ev.Value)}, true

	case EV_KEY:
		if ev.Value != evValuePress {
			return nil, false
		}
		switch ev.Code {
		case KEY_ENTER, KEY_SPACE, BTN_LEFT:
			return InputReceived{Input: spinwheel.RandomSpinRequested{}, Origin: "evdev"}, true
		case KEY_ESC:
			return InputReceived{Input: spinwheel.CancelRequested{}, Origin: "evdev"}, true
		}
	}
	return nil, false
}
