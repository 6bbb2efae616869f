package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"spinwheel"
)

// Config is the top-level YAML configuration for the spinwheeld daemon.
//
// Precedence, lowest first: DefaultConfig, the YAML file, SPINWHEEL_*
// environment variables, then command-line flags.
type Config struct {
	Wheel     WheelConfig     `yaml:"wheel"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Input     InputConfig     `yaml:"input"`
	IPC       IPCConfig       `yaml:"ipc"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WheelConfig struct {
	WedgeCount int `yaml:"wedge_count" env:"SPINWHEEL_WEDGE_COUNT"`

	// Anchor is where wedge zero rests: up, down, left or right.
	Anchor string `yaml:"anchor" env:"SPINWHEEL_ANCHOR"`

	// Center and dead zone are in the same units as IPC touch coordinates.
	CenterX        float64 `yaml:"center_x" env:"SPINWHEEL_CENTER_X"`
	CenterY        float64 `yaml:"center_y" env:"SPINWHEEL_CENTER_Y"`
	DeadZoneRadius float64 `yaml:"dead_zone_radius" env:"SPINWHEEL_DEAD_ZONE_RADIUS"`
}

// PhysicsConfig maps 1:1 to spinwheel.Config, minus the geometry.
type PhysicsConfig struct {
	TickRateHz             float64 `yaml:"tick_rate_hz" env:"SPINWHEEL_TICK_RATE_HZ"`
	MaxVelocity            float64 `yaml:"max_velocity" env:"SPINWHEEL_MAX_VELOCITY"`
	MinRadiansForSpin      float64 `yaml:"min_radians_for_spin" env:"SPINWHEEL_MIN_RADIANS_FOR_SPIN"`
	DecelerationMultiplier float64 `yaml:"deceleration_multiplier" env:"SPINWHEEL_DECELERATION_MULTIPLIER"`
	SpeedToSnap            float64 `yaml:"speed_to_snap" env:"SPINWHEEL_SPEED_TO_SNAP"`
	SnapSteps              int     `yaml:"snap_steps" env:"SPINWHEEL_SNAP_STEPS"`
	SnapProximity          float64 `yaml:"snap_proximity" env:"SPINWHEEL_SNAP_PROXIMITY"`
	RandomSpinMin          float64 `yaml:"random_spin_min" env:"SPINWHEEL_RANDOM_SPIN_MIN"`
	RandomSpinMax          float64 `yaml:"random_spin_max" env:"SPINWHEEL_RANDOM_SPIN_MAX"`
}

type InputConfig struct {
	// Devices lists Linux evdev nodes to read (rotary encoders, buttons).
	// Empty disables hardware input.
	Devices []string `yaml:"devices,omitempty" env:"SPINWHEEL_INPUT_DEVICES" envSeparator:","`

	Rotary RotaryConfig `yaml:"rotary"`
}

// RotaryConfig controls how encoder detents become spins.
type RotaryConfig struct {
	VelocityWindowMS int     `yaml:"velocity_window_ms" env:"SPINWHEEL_ROTARY_VELOCITY_WINDOW_MS"`
	FullSpinSteps    int     `yaml:"full_spin_steps" env:"SPINWHEEL_ROTARY_FULL_SPIN_STEPS"`
	MinMultiplier    float64 `yaml:"min_multiplier" env:"SPINWHEEL_ROTARY_MIN_MULTIPLIER"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" env:"SPINWHEEL_IPC_SOCKET"`
}

type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled" env:"SPINWHEEL_WS_ENABLED"`
	Addr    string `yaml:"addr" env:"SPINWHEEL_WS_ADDR"`
	Path    string `yaml:"path" env:"SPINWHEEL_WS_PATH"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"SPINWHEEL_LOG_LEVEL"`
	Format string `yaml:"format" env:"SPINWHEEL_LOG_FORMAT"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	physics := spinwheel.DefaultConfig()
	return Config{
		Wheel: WheelConfig{
			WedgeCount:     defaultWedgeCount,
			Anchor:         defaultAnchor,
			DeadZoneRadius: physics.DeadZoneRadius,
		},
		Physics: PhysicsConfig{
			TickRateHz:             physics.TickRateHz,
			MaxVelocity:            physics.MaxVelocity,
			MinRadiansForSpin:      physics.MinRadiansForSpin,
			DecelerationMultiplier: physics.DecelerationMultiplier,
			SpeedToSnap:            physics.SpeedToSnap,
			SnapSteps:              physics.SnapSteps,
			SnapProximity:          physics.SnapProximity,
			RandomSpinMin:          physics.RandomSpinMin,
			RandomSpinMax:          physics.RandomSpinMax,
		},
		Input: InputConfig{
			Rotary: RotaryConfig{
				VelocityWindowMS: defaultRotaryVelocityWindowMS,
				FullSpinSteps:    defaultRotaryFullSpinSteps,
				MinMultiplier:    defaultRotaryMinMultiplier,
			},
		},
		IPC: IPCConfig{
			SocketPath: defaultIPCSocket,
		},
		WebSocket: WebSocketConfig{
			Enabled: true,
			Addr:    defaultWSAddr,
			Path:    defaultWSPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: defaults.
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	} else if !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays SPINWHEEL_* environment variables. Unset variables leave
// the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FlagOverrides holds pointers for flags the user actually set.
// Each override is only applied if its pointer is non-nil, even for zero values.
type FlagOverrides struct {
	WedgeCount *int
	Anchor     *string

	InputDevice *string

	IPCSocketPath *string
	WSAddr        *string
	WSEnabled     *bool

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.WedgeCount != nil {
		cfg.Wheel.WedgeCount = *o.WedgeCount
	}
	if o.Anchor != nil {
		cfg.Wheel.Anchor = *o.Anchor
	}
	if o.InputDevice != nil {
		if *o.InputDevice == "" {
			cfg.Input.Devices = nil
		} else {
			cfg.Input.Devices = []string{*o.InputDevice}
		}
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.WSAddr != nil {
		cfg.WebSocket.Addr = *o.WSAddr
	}
	if o.WSEnabled != nil {
		cfg.WebSocket.Enabled = *o.WSEnabled
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults, file, env and flags are applied.
func (c *Config) Validate() error {
	// Wheel. A count below two is allowed and leaves the wheel unconfigured
	// until a reload arrives over IPC; negative counts are typos.
	if c.Wheel.WedgeCount < 0 {
		return errors.New("wheel.wedge_count must be >= 0")
	}
	if _, err := spinwheel.ParseSnapOrientation(c.Wheel.Anchor); err != nil {
		return fmt.Errorf("wheel.anchor: %w", err)
	}

	engineCfg, err := c.ToEngineConfig()
	if err != nil {
		return err
	}
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}

	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if c.Input.Rotary.VelocityWindowMS <= 0 {
		return errors.New("input.rotary.velocity_window_ms must be > 0")
	}
	if c.Input.Rotary.FullSpinSteps <= 0 {
		return errors.New("input.rotary.full_spin_steps must be > 0")
	}
	if c.Input.Rotary.MinMultiplier < 0 || c.Input.Rotary.MinMultiplier > 1 {
		return errors.New("input.rotary.min_multiplier must be between 0 and 1")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// WebSocket
	if c.WebSocket.Enabled {
		if c.WebSocket.Addr == "" {
			return errors.New("websocket.addr must not be empty when enabled")
		}
		if c.WebSocket.Path == "" || c.WebSocket.Path[0] != '/' {
			return errors.New("websocket.path must start with /")
		}
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return errors.New("logging.format must be text or json")
	}

	return nil
}

// ToEngineConfig converts file config into the engine's physics config.
func (c *Config) ToEngineConfig() (spinwheel.Config, error) {
	anchor, err := spinwheel.ParseSnapOrientation(c.Wheel.Anchor)
	if err != nil {
		return spinwheel.Config{}, fmt.Errorf("wheel.anchor: %w", err)
	}
	return spinwheel.Config{
		Anchor:                 anchor.Radians(),
		TickRateHz:             c.Physics.TickRateHz,
		MaxVelocity:            c.Physics.MaxVelocity,
		MinRadiansForSpin:      c.Physics.MinRadiansForSpin,
		DecelerationMultiplier: c.Physics.DecelerationMultiplier,
		SpeedToSnap:            c.Physics.SpeedToSnap,
		SnapSteps:              c.Physics.SnapSteps,
		SnapProximity:          c.Physics.SnapProximity,
		DeadZoneRadius:         c.Wheel.DeadZoneRadius,
		RandomSpinMin:          c.Physics.RandomSpinMin,
		RandomSpinMax:          c.Physics.RandomSpinMax,
	}, nil
}

// Geometry returns the plane the IPC touch coordinates live in.
func (c *Config) Geometry() spinwheel.PlaneGeometry {
	return spinwheel.PlaneGeometry{Origin: spinwheel.Point{X: c.Wheel.CenterX, Y: c.Wheel.CenterY}}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
