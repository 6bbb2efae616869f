package main

import (
	"testing"
	"time"
)

func TestRenderClick(t *testing.T) {
	buf, err := renderClick()
	if err != nil {
		t.Fatalf("renderClick: %v", err)
	}
	if want := clickRate.N(clickDuration); buf.Len() != want {
		t.Fatalf("click is %d samples, want %d", buf.Len(), want)
	}
	if buf.Format().SampleRate.D(buf.Len()) > clickDuration+time.Millisecond {
		t.Fatalf("click lasts %v", buf.Format().SampleRate.D(buf.Len()))
	}
}
