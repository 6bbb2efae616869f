//go:build !linux

package main

import (
	"errors"
	"os"
)

// readInputEventsEpoll is Linux-only; elsewhere hardware input reports an
// error straight away and the daemon keeps running on IPC and WebSocket.
func readInputEventsEpoll(files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	readErr <- errors.New("evdev input is only supported on linux")
}
