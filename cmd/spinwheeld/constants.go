package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02

	KEY_ESC   = 1
	KEY_ENTER = 28
	KEY_SPACE = 57
	BTN_LEFT  = 0x110

	// Rotary encoder relative axis codes
	REL_DIAL  = 0x07
	REL_WHEEL = 0x08
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Daemon defaults
const (
	defaultWedgeCount = 8
	defaultAnchor     = "up"

	defaultIPCSocket = "/tmp/spinwheeld.sock"
	defaultWSAddr    = "127.0.0.1:8390"
	defaultWSPath    = "/ws"

	// Queue sizes between goroutines and the daemon loop.
	defaultMessageBuf = 64
	defaultEventBuf   = 256

	// FixedStep never replays more than this many ticks after a stall.
	maxTicksPerWake = 4
)

// Rotary encoder defaults
const (
	defaultRotaryVelocityWindowMS = 200 // Time window for velocity detection (ms)
	defaultRotaryFullSpinSteps    = 6   // Steps in window that map to a full-strength spin
	defaultRotaryMinMultiplier    = 0.2 // Spin strength for a single detent
)
