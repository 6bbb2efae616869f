package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spinwheel"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		t.Fatal(err)
	}
	if engineCfg.Anchor != spinwheel.SnapUp.Radians() {
		t.Fatalf("default anchor = %v, want up", engineCfg.Anchor)
	}
}

func TestLoadConfigFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
wheel:
  wedge_count: 12
  anchor: right
  center_x: 160
  center_y: 120
physics:
  snap_steps: 20
input:
  devices: [/dev/input/event3]
websocket:
  enabled: false
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.Wheel.WedgeCount != 12 || cfg.Wheel.Anchor != "right" {
		t.Fatalf("wheel not loaded: %+v", cfg.Wheel)
	}
	if cfg.Physics.SnapSteps != 20 {
		t.Fatalf("snap_steps = %d, want 20", cfg.Physics.SnapSteps)
	}
	// Untouched fields keep their defaults.
	if cfg.Physics.MaxVelocity != spinwheel.DefaultMaxVelocity {
		t.Fatalf("max_velocity = %v, want default", cfg.Physics.MaxVelocity)
	}
	if cfg.IPC.SocketPath != defaultIPCSocket {
		t.Fatalf("socket path = %q, want default", cfg.IPC.SocketPath)
	}
	if len(cfg.Input.Devices) != 1 || cfg.Input.Devices[0] != "/dev/input/event3" {
		t.Fatalf("devices = %v", cfg.Input.Devices)
	}
	if cfg.WebSocket.Enabled {
		t.Fatal("websocket should be disabled")
	}

	geom := cfg.Geometry()
	if geom.Origin != (spinwheel.Point{X: 160, Y: 120}) {
		t.Fatalf("geometry origin = %+v", geom.Origin)
	}
}

func TestLoadConfigFile_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "wheel:\n  wedge_cuont: 3\n", "wedge_cuont"},
		{"trailing document", "wheel:\n  wedge_count: 3\n---\nwheel:\n  wedge_count: 4\n", "trailing document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := LoadConfigFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SPINWHEEL_WEDGE_COUNT", "5")
	t.Setenv("SPINWHEEL_ANCHOR", "left")
	t.Setenv("SPINWHEEL_INPUT_DEVICES", "/dev/input/event1,/dev/input/event2")
	t.Setenv("SPINWHEEL_WS_ENABLED", "false")
	t.Setenv("SPINWHEEL_DECELERATION_MULTIPLIER", "0.9")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.Wheel.WedgeCount != 5 || cfg.Wheel.Anchor != "left" {
		t.Fatalf("wheel env not applied: %+v", cfg.Wheel)
	}
	if len(cfg.Input.Devices) != 2 || cfg.Input.Devices[1] != "/dev/input/event2" {
		t.Fatalf("devices = %v", cfg.Input.Devices)
	}
	if cfg.WebSocket.Enabled {
		t.Fatal("SPINWHEEL_WS_ENABLED=false not applied")
	}
	if cfg.Physics.DecelerationMultiplier != 0.9 {
		t.Fatalf("deceleration multiplier = %v", cfg.Physics.DecelerationMultiplier)
	}
	// Unset variables leave values alone.
	if cfg.WebSocket.Addr != defaultWSAddr {
		t.Fatalf("ws addr = %q, want default", cfg.WebSocket.Addr)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("SPINWHEEL_WEDGE_COUNT", "lots")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	wedges := 0
	device := ""
	ws := false
	level := "debug"

	cfg := DefaultConfig()
	cfg.Input.Devices = []string{"/dev/input/event9"}
	FlagOverrides{
		WedgeCount:  &wedges,
		InputDevice: &device,
		WSEnabled:   &ws,
		LogLevel:    &level,
	}.Apply(&cfg)

	// Zero values still override when the flag was set.
	if cfg.Wheel.WedgeCount != 0 {
		t.Fatalf("wedge count = %d, want 0", cfg.Wheel.WedgeCount)
	}
	if cfg.Input.Devices != nil {
		t.Fatalf("empty -input-device should clear devices, got %v", cfg.Input.Devices)
	}
	if cfg.WebSocket.Enabled || cfg.Logging.Level != "debug" {
		t.Fatalf("overrides not applied: ws=%v level=%q", cfg.WebSocket.Enabled, cfg.Logging.Level)
	}
	// Nil pointers leave the rest alone.
	if cfg.Wheel.Anchor != defaultAnchor || cfg.IPC.SocketPath != defaultIPCSocket {
		t.Fatalf("unset overrides changed config: %+v", cfg)
	}

	FlagOverrides{}.Apply(nil)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative wedges", func(c *Config) { c.Wheel.WedgeCount = -1 }, "wedge_count"},
		{"bad anchor", func(c *Config) { c.Wheel.Anchor = "north" }, "anchor"},
		{"bad physics", func(c *Config) { c.Physics.SnapSteps = 0 }, "physics"},
		{"empty device", func(c *Config) { c.Input.Devices = []string{""} }, "input.devices[0]"},
		{"rotary window", func(c *Config) { c.Input.Rotary.VelocityWindowMS = 0 }, "velocity_window_ms"},
		{"rotary min", func(c *Config) { c.Input.Rotary.MinMultiplier = 2 }, "min_multiplier"},
		{"no socket", func(c *Config) { c.IPC.SocketPath = "" }, "socket_path"},
		{"ws path", func(c *Config) { c.WebSocket.Path = "ws" }, "websocket.path"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	// A wheel that starts unconfigured is allowed.
	cfg := DefaultConfig()
	cfg.Wheel.WedgeCount = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("wedge_count 1 should validate: %v", err)
	}

	// A disabled websocket does not need an address.
	cfg = DefaultConfig()
	cfg.WebSocket.Enabled = false
	cfg.WebSocket.Addr = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled websocket should validate: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"":             "",
		"/abs/path":    "/abs/path",
		"~":            home,
		"~/spin.yaml":  filepath.Join(home, "spin.yaml"),
		"~other/x":     "~other/x",
		"relative/dir": "relative/dir",
	}
	for in, want := range tests {
		if got := ExpandPath(in); got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"error", "WARN", "warning", "info", "Debug"} {
		if _, err := parseLogLevel(s); err != nil {
			t.Errorf("parseLogLevel(%q) failed: %v", s, err)
		}
	}
	if _, err := parseLogLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}
