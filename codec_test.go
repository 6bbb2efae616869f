package spinwheel

import (
	"strings"
	"testing"
)

func TestEventCodec(t *testing.T) {
	events := []Event{
		RotationDelta{Radians: -0.25},
		SelectionChanged{Index: 3},
		WedgeTapped{Index: 1},
		DecelerationEnded{},
		StatusChanged{From: StatusDecelerating, To: StatusSnapping},
	}
	for _, ev := range events {
		data, err := MarshalEvent(ev)
		if err != nil {
			t.Fatalf("MarshalEvent(%T): %v", ev, err)
		}
		got, err := UnmarshalEvent(data)
		if err != nil {
			t.Fatalf("UnmarshalEvent(%s): %v", data, err)
		}
		if got != ev {
			t.Fatalf("round trip mismatch: %#v -> %s -> %#v", ev, data, got)
		}
	}
}

func TestEventCodec_StatusIsText(t *testing.T) {
	data, err := MarshalEvent(StatusChanged{From: StatusIdle, To: StatusDecelerating})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"to":"decelerating"`) {
		t.Fatalf("expected textual status in %s", data)
	}
}

func TestUnmarshalInput(t *testing.T) {
	cases := []struct {
		raw  string
		want Input
	}{
		{`{"type":"touch_began","data":{"x":1.5,"y":-2}}`, TouchBegan{X: 1.5, Y: -2}},
		{`{"type":"touch_moved","data":{"x":3,"y":4}}`, TouchMoved{X: 3, Y: 4}},
		{`{"type":"touch_ended"}`, TouchEnded{}},
		{`{"type":"touch_ended","data":{"tap_count":2}}`, TouchEnded{TapCount: 2}},
		{`{"type":"touch_cancelled"}`, TouchCancelled{}},
		{`{"type":"spin","data":{"multiplier":0.5}}`, SpinRequested{Multiplier: 0.5}},
		{`{"type":"random_spin"}`, RandomSpinRequested{}},
		{`{"type":"reload","data":{"wedge_count":12}}`, ReloadRequested{WedgeCount: 12}},
		{`{"type":"cancel"}`, CancelRequested{}},
	}
	for _, tc := range cases {
		got, err := UnmarshalInput([]byte(tc.raw))
		if err != nil {
			t.Fatalf("UnmarshalInput(%s): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("UnmarshalInput(%s) = %#v, want %#v", tc.raw, got, tc.want)
		}

		// Marshalling back must decode to the same value.
		data, err := MarshalInput(got)
		if err != nil {
			t.Fatalf("MarshalInput(%#v): %v", got, err)
		}
		again, err := UnmarshalInput(data)
		if err != nil || again != tc.want {
			t.Fatalf("re-decode of %s gave %#v, %v", data, again, err)
		}
	}
}

func TestUnmarshalInput_Errors(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"type":"warp"}`,
		`{"type":"spin","data":{"multiplier":"fast"}}`,
	} {
		if _, err := UnmarshalInput([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusIdle, StatusDecelerating, StatusSnapping} {
		b, _ := s.MarshalText()
		var got Status
		if err := got.UnmarshalText(b); err != nil || got != s {
			t.Fatalf("status %v round trip gave %v, %v", s, got, err)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("spinning")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
