package main

import (
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	clickRate     = beep.SampleRate(44100)
	clickFreq     = 880
	clickDuration = 40 * time.Millisecond
)

// clicker plays the selection click.
type clicker interface {
	Click()
	Close()
}

// beepClicker holds the click pre-rendered so Click never fails.
type beepClicker struct {
	click *beep.Buffer
}

// newBeepClicker renders the click and opens the audio device. Callers fall
// back to silence on error; the wheel works without sound.
func newBeepClicker() (*beepClicker, error) {
	click, err := renderClick()
	if err != nil {
		return nil, err
	}
	if err := speaker.Init(clickRate, clickRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &beepClicker{click: click}, nil
}

// renderClick buffers a short sine tone.
func renderClick() (*beep.Buffer, error) {
	sine, err := generators.SineTone(clickRate, clickFreq)
	if err != nil {
		return nil, fmt.Errorf("generate click tone: %w", err)
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: clickRate, NumChannels: 2, Precision: 2})
	buf.Append(beep.Take(clickRate.N(clickDuration), sine))
	return buf, nil
}

func (c *beepClicker) Click() {
	speaker.Play(c.click.Streamer(0, c.click.Len()))
}

func (c *beepClicker) Close() {
	speaker.Close()
}

type silentClicker struct{}

func (silentClicker) Click() {}
func (silentClicker) Close() {}
