package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"spinwheel"
)

func main() {
	var (
		wedges  = flag.Int("wedges", 8, "Number of wedges on the wheel")
		anchor  = flag.String("anchor", "up", "Where wedge zero rests: up, down, left, right")
		mute    = flag.Bool("mute", false, "Disable the selection click")
		logFile = flag.String("log-file", "", "Write debug logs to this file (the terminal is busy)")
	)
	flag.Parse()

	orientation, err := spinwheel.ParseSnapOrientation(*anchor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.DiscardHandler)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)

	var sound clicker = silentClicker{}
	if !*mute {
		if c, err := newBeepClicker(); err != nil {
			// Non-fatal, the wheel works without sound
			logger.Warn("audio initialization failed", "error", err)
		} else {
			sound = c
		}
	}

	cfg := spinwheel.DefaultConfig()
	cfg.Anchor = orientation.Radians()

	a, err := newApp(screen, cfg, *wedges, sound, logger)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	a.run()

	sound.Close()
	screen.Fini()
}
