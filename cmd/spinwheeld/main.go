package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spinwheel"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("spinwheeld v%s\n", version)
	fmt.Println("Rotary spin-wheel selector daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  spinwheeld [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Runs the spin-wheel physics engine. Touch and spin inputs arrive over a")
	fmt.Println("  Unix socket, WebSocket clients, or Linux input devices (rotary encoder,")
	fmt.Println("  buttons). Rotation, status and selection events are streamed to")
	fmt.Println("  WebSocket clients.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  SPINWHEEL_* variables override the config file (e.g. SPINWHEEL_WEDGE_COUNT=12).")
	fmt.Println("  Flags override both.")
	fmt.Println()
	fmt.Println("SIGNALS:")
	fmt.Println("  SIGHUP reloads the config file; motion in flight is cancelled.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  spinwheeld -config ~/.config/spinwheel/config.yaml")
	fmt.Println("  spinwheeld -wedges 12 -input-device /dev/input/event3")
	fmt.Println()
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	configPath string
	overrides  FlagOverrides
}

func parseFlags(args []string) (cliFlags, bool, error) {
	fs := flag.CommandLine
	var (
		configPath  = fs.String("config", "", "Path to YAML config file")
		wedges      = fs.Int("wedges", defaultWedgeCount, "Number of wedges on the wheel")
		anchor      = fs.String("anchor", defaultAnchor, "Where wedge zero rests: up, down, left, right")
		inputDevice = fs.String("input-device", "", "Linux input event device (rotary encoder / buttons)")
		ipcSocket   = fs.String("ipc-socket", defaultIPCSocket, "Unix domain socket path for IPC")
		wsAddr      = fs.String("ws-addr", defaultWSAddr, "WebSocket listen address")
		wsEnabled   = fs.Bool("ws", true, "Enable the WebSocket event stream")
		logLevel    = fs.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = fs.Bool("version", false, "Print version and exit")
		showHelp    = fs.Bool("help", false, "Print help message")
	)
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, false, err
	}

	if *showHelp {
		printUsage()
		return cliFlags{}, true, nil
	}
	if *showVersion {
		printVersion()
		return cliFlags{}, true, nil
	}

	// Only flags the user actually set override the file and env.
	var ov FlagOverrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wedges":
			ov.WedgeCount = wedges
		case "anchor":
			ov.Anchor = anchor
		case "input-device":
			ov.InputDevice = inputDevice
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocket
		case "ws-addr":
			ov.WSAddr = wsAddr
		case "ws":
			ov.WSEnabled = wsEnabled
		case "log-level":
			ov.LogLevel = logLevel
		}
	})

	return cliFlags{configPath: *configPath, overrides: ov}, false, nil
}

// loadConfig layers defaults, file, env and flags, then validates.
func loadConfig(cli cliFlags) (Config, error) {
	cfg := DefaultConfig()
	if cli.configPath != "" {
		var err error
		cfg, err = LoadConfigFile(cli.configPath)
		if err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cli.overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	cli, done, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	if done {
		return
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, _ := parseLogLevel(cfg.Logging.Level)
	logger, levelVar := setupLogger(os.Stdout, level, cfg.Logging.Format)

	if err := run(cli, cfg, logger, levelVar); err != nil {
		logger.Error("spinwheeld failed", "error", err)
		os.Exit(1)
	}
}

func run(cli cliFlags, cfg Config, logger *slog.Logger, levelVar *slog.LevelVar) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Central message bus into the daemon loop, and engine events out of it.
	msgs := make(chan Message, defaultMessageBuf)
	events := make(chan spinwheel.Event, defaultEventBuf)

	d, err := newDaemon(cfg, events, time.Now, logger)
	if err != nil {
		return err
	}
	go d.run(ctx, msgs)

	ipcErr := make(chan error, 1)
	go func() {
		ipcErr <- runIPCServer(ctx, cfg.IPC.SocketPath, msgs, logger)
	}()

	var httpServer *http.Server
	if cfg.WebSocket.Enabled {
		srv := NewServer(logger, msgs, ServerConfig{})
		mux := http.NewServeMux()
		srv.Register(mux, cfg.WebSocket.Path)

		go srv.Hub().Run(ctx)
		go RunBroadcaster(ctx, srv.Hub(), events, logger)

		httpServer = &http.Server{
			Addr:              cfg.WebSocket.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("WebSocket listening", "addr", cfg.WebSocket.Addr, "path", cfg.WebSocket.Path)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("websocket server error", "error", err)
			}
		}()
	} else {
		// Nobody consumes events; drain them so the daemon never drops.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-events:
				}
			}
		}()
	}

	// Hardware input is optional.
	inputEvents := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	var deviceFiles []*os.File
	for _, path := range cfg.Input.Devices {
		f, err := os.Open(ExpandPath(path))
		if err != nil {
			logger.Error("failed to open input device", "device", path, "error", err, "tip", "run as root or add user to 'input' group")
			continue
		}
		defer f.Close()
		deviceFiles = append(deviceFiles, f)
	}
	if len(deviceFiles) > 0 {
		go readInputEventsEpoll(deviceFiles, inputEvents, readErr)
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	logger.Info("listening",
		"version", version,
		"wedges", cfg.Wheel.WedgeCount,
		"anchor", cfg.Wheel.Anchor,
		"ipc", cfg.IPC.SocketPath,
		"ws_enabled", cfg.WebSocket.Enabled,
		"input_devices", len(deviceFiles))

	// ========================================================================
	// Main loop - signal handling and input translation only.
	// The daemon goroutine owns the engine.
	// ========================================================================
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			if httpServer != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_ = httpServer.Shutdown(shutdownCtx)
				cancel()
			}
			return nil

		case err := <-ipcErr:
			if err != nil {
				return fmt.Errorf("ipc server: %w", err)
			}

		case <-sighup:
			newCfg, err := loadConfig(cli)
			if err != nil {
				logger.Error("config reload failed", "error", err)
				continue
			}
			lvl, _ := parseLogLevel(newCfg.Logging.Level)
			levelVar.Set(lvl.slogLevel())
			select {
			case msgs <- ConfigReloaded{Config: newCfg}:
			case <-ctx.Done():
			}

		case err := <-readErr:
			// IPC and WebSocket keep working without hardware input.
			logger.Error("input reader stopped", "error", err)

		case ev := <-inputEvents:
			msg, ok := translateInputEvent(ev)
			if !ok {
				continue
			}
			select {
			case msgs <- msg:
			default:
				logger.Warn("message queue full, dropping input event", "type", ev.Type, "code", ev.Code)
			}
		}
	}
}
