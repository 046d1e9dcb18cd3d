package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendHeadless = "headless"
	BackendX11      = "x11"
	BackendEvdev    = "evdev"
)

// Binding actions understood by the compositor.
const (
	ActionCycleFocus = "cycle-focus"
	ActionEndGrab    = "end-grab"
	ActionCloseFocus = "close-focus"
)

const (
	DefaultCursorSize = 24
	DefaultSeatName   = "seat0"
	DefaultViewLimit  = 1 << 16
)

// LoggingConfig controls the daemon's slog handler.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level"`
}

// DesktopConfig holds desktop-wide policy.
type DesktopConfig struct {
	// AutoMaximize forces every toplevel to fill a single output and
	// refuses interactive move and resize.
	AutoMaximize bool   `yaml:"auto_maximize"`
	CursorTheme  string `yaml:"cursor_theme"`
	CursorSize   int    `yaml:"cursor_size"`
	FocusOnMap   bool   `yaml:"focus_on_map"`
	ViewLimit    int    `yaml:"view_limit"`
}

// OutputConfig places one output in the layout.
type OutputConfig struct {
	Name             string  `yaml:"name"`
	BuiltIn          bool    `yaml:"builtin"`
	X                int     `yaml:"x"`
	Y                int     `yaml:"y"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	Scale            float64 `yaml:"scale"`
	Enabled          bool    `yaml:"enabled"`
	ForceShellReveal bool    `yaml:"force_shell_reveal"`
}

// SeatConfig describes a seat and the devices it claims.
type SeatConfig struct {
	Name          string `yaml:"name"`
	DefaultCursor string `yaml:"default_cursor"`
	// MetaModifier is the modifier that turns pointer buttons into move
	// and resize grabs: logo, alt, ctrl or shift.
	MetaModifier string   `yaml:"meta_modifier"`
	Devices      []string `yaml:"devices"`
}

// Binding maps a key combination to a compositor action.
type Binding struct {
	Keys   string `yaml:"keys"`
	Action string `yaml:"action"`
}

// IPCConfig configures the control socket.
type IPCConfig struct {
	// Socket overrides $XDG_RUNTIME_DIR/palmwm.sock.
	Socket string `yaml:"socket"`
}

// BackendConfig selects and configures the input/output source.
type BackendConfig struct {
	Kind string `yaml:"kind"`
	// Display is the X display for the x11 backend; empty uses $DISPLAY.
	Display string `yaml:"display"`
	// Width and Height size the nested x11 window; zero uses the first
	// host monitor.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Grab takes exclusive access to evdev devices.
	Grab bool `yaml:"grab"`
	// Mirror exposes host X11 windows as views and docks as layer surfaces.
	Mirror bool `yaml:"mirror"`
}

// Config is the effective configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Desktop  DesktopConfig  `yaml:"desktop"`
	Outputs  []OutputConfig `yaml:"outputs"`
	Seats    []SeatConfig   `yaml:"seats"`
	Bindings []Binding      `yaml:"bindings"`
	IPC      IPCConfig      `yaml:"ipc"`
	Backend  BackendConfig  `yaml:"backend"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Desktop: DesktopConfig{
			CursorSize: DefaultCursorSize,
			FocusOnMap: true,
			ViewLimit:  DefaultViewLimit,
		},
		Outputs: []OutputConfig{{
			Name:    "DSI-1",
			BuiltIn: true,
			Width:   720,
			Height:  1440,
			Scale:   2,
			Enabled: true,
		}},
		Seats: []SeatConfig{{
			Name:          DefaultSeatName,
			DefaultCursor: "left_ptr",
			MetaModifier:  "logo",
			Devices:       []string{"*"},
		}},
		Bindings: []Binding{
			{Keys: "Mod1-Tab", Action: ActionCycleFocus},
			{Keys: "Escape", Action: ActionEndGrab},
		},
		Backend: BackendConfig{Kind: BackendHeadless},
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "palmwm", "config.yaml"), nil
}

// SlogLevel maps logging.level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Output returns the named output config, if present.
func (c *Config) Output(name string) (OutputConfig, bool) {
	for _, o := range c.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return OutputConfig{}, false
}

// Seat returns the named seat config, if present.
func (c *Config) Seat(name string) (SeatConfig, bool) {
	for _, s := range c.Seats {
		if s.Name == name {
			return s, true
		}
	}
	return SeatConfig{}, false
}

// Marshal renders the effective config as YAML.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Desktop.CursorSize <= 0 {
		return &ValidationError{Path: "desktop.cursor_size", Err: fmt.Errorf("cursor_size must be > 0")}
	}
	if c.Desktop.ViewLimit <= 0 {
		return &ValidationError{Path: "desktop.view_limit", Err: fmt.Errorf("view_limit must be > 0")}
	}

	if len(c.Outputs) == 0 {
		return &ValidationError{Path: "outputs", Err: fmt.Errorf("outputs must not be empty")}
	}
	names := make(map[string]struct{}, len(c.Outputs))
	builtin := 0
	for i, o := range c.Outputs {
		path := fmt.Sprintf("outputs.%d", i)
		if strings.TrimSpace(o.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("name is required")}
		}
		if _, dup := names[o.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate output %q", o.Name)}
		}
		names[o.Name] = struct{}{}
		if o.Width <= 0 || o.Height <= 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("width and height must be > 0")}
		}
		if o.Scale <= 0 {
			return &ValidationError{Path: path + ".scale", Err: fmt.Errorf("scale must be > 0")}
		}
		if o.BuiltIn {
			builtin++
		}
	}
	if builtin > 1 {
		return &ValidationError{Path: "outputs", Err: fmt.Errorf("at most one output may be builtin, found %d", builtin)}
	}

	if len(c.Seats) == 0 {
		return &ValidationError{Path: "seats", Err: fmt.Errorf("seats must not be empty")}
	}
	seats := make(map[string]struct{}, len(c.Seats))
	for i, s := range c.Seats {
		path := fmt.Sprintf("seats.%d", i)
		if strings.TrimSpace(s.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("name is required")}
		}
		if _, dup := seats[s.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate seat %q", s.Name)}
		}
		seats[s.Name] = struct{}{}
		switch s.MetaModifier {
		case "", "logo", "alt", "ctrl", "shift":
		default:
			return &ValidationError{Path: path + ".meta_modifier", Err: fmt.Errorf("meta_modifier must be one of: logo, alt, ctrl, shift")}
		}
		for _, g := range s.Devices {
			if _, err := filepath.Match(g, ""); err != nil {
				return &ValidationError{Path: path + ".devices", Err: fmt.Errorf("bad pattern %q: %w", g, err)}
			}
		}
	}

	for i, b := range c.Bindings {
		path := fmt.Sprintf("bindings.%d", i)
		if strings.TrimSpace(b.Keys) == "" {
			return &ValidationError{Path: path + ".keys", Err: fmt.Errorf("keys is required")}
		}
		switch b.Action {
		case ActionCycleFocus, ActionEndGrab, ActionCloseFocus:
		default:
			return &ValidationError{Path: path + ".action", Err: fmt.Errorf("action must be one of: %s, %s, %s", ActionCycleFocus, ActionEndGrab, ActionCloseFocus)}
		}
	}

	switch c.Backend.Kind {
	case BackendHeadless, BackendX11, BackendEvdev:
	default:
		return &ValidationError{Path: "backend.kind", Err: fmt.Errorf("kind must be one of: %s, %s, %s", BackendHeadless, BackendX11, BackendEvdev)}
	}
	if c.Backend.Width < 0 || c.Backend.Height < 0 {
		return &ValidationError{Path: "backend", Err: fmt.Errorf("width and height must be >= 0")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	var warnings []string
	enabled := 0
	for _, o := range c.Outputs {
		if o.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		warnings = append(warnings, "no output is enabled; touch and pointer input will be dropped")
	}
	if c.Desktop.AutoMaximize && len(c.Outputs) > 1 {
		warnings = append(warnings, "desktop.auto_maximize only hides background views with a single output")
	}
	return warnings
}
