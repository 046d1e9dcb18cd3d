package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_ValidWithBuiltinOutputAndCatchAllSeat(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	out, ok := cfg.Output("DSI-1")
	if !ok || !out.BuiltIn || !out.Enabled {
		t.Fatalf("expected enabled builtin DSI-1, got %+v (ok=%v)", out, ok)
	}
	seat, ok := cfg.Seat(DefaultSeatName)
	if !ok {
		t.Fatalf("expected %q seat", DefaultSeatName)
	}
	if len(seat.Devices) != 1 || seat.Devices[0] != "*" {
		t.Fatalf("expected seat0 to claim every device, got %v", seat.Devices)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend.Kind != BackendHeadless {
		t.Fatalf("expected backend %q, got %q", BackendHeadless, res.Config.Backend.Kind)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected one loaded file, got %v", res.Files)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
	if res.Config.Desktop.CursorSize != DefaultCursorSize {
		t.Fatalf("expected default cursor size, got %d", res.Config.Desktop.CursorSize)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "desktop:\n  gap_size: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "gap_size") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, filepath.Join(configD, "10-base.yaml"), "desktop:\n  cursor_size: 16\n  cursor_theme: base\n")
	writeConfig(t, filepath.Join(configD, "20-override.yaml"), "desktop:\n  cursor_size: 32\n  cursor_theme: override\n")

	path := filepath.Join(dir, "config.yaml")
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"desktop:",
		"  cursor_size: 48",
		"",
	}, "\n")
	writeConfig(t, path, main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Desktop.CursorSize != 48 {
		t.Fatalf("expected cursor_size 48, got %d", res.Config.Desktop.CursorSize)
	}
	if res.Config.Desktop.CursorTheme != "override" {
		t.Fatalf("expected cursor_theme from the later include, got %q", res.Config.Desktop.CursorTheme)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected three loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeConfig(t, a, "include: b.yaml\n")
	writeConfig(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_OutputListReplacesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"outputs:",
		"  - name: HDMI-A-1",
		"    width: 1920",
		"    height: 1080",
		"",
	}, "\n")
	writeConfig(t, path, data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Outputs) != 1 {
		t.Fatalf("expected the file's outputs to replace the defaults, got %+v", res.Config.Outputs)
	}
	out := res.Config.Outputs[0]
	if out.Scale != 1 || !out.Enabled || out.BuiltIn {
		t.Fatalf("expected scale 1, enabled, not builtin; got %+v", out)
	}
}

func TestLoadFromPath_SeatDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"seats:",
		"  - meta_modifier: alt",
		"  - devices: [\"*tablet*\"]",
		"",
	}, "\n")
	writeConfig(t, path, data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	seats := res.Config.Seats
	if len(seats) != 2 {
		t.Fatalf("expected two seats, got %+v", seats)
	}
	if seats[0].Name != DefaultSeatName || seats[0].MetaModifier != "alt" {
		t.Fatalf("unexpected first seat %+v", seats[0])
	}
	if len(seats[0].Devices) != 1 || seats[0].Devices[0] != "*" {
		t.Fatalf("expected first seat to default to every device, got %v", seats[0].Devices)
	}
	if seats[1].Name != "seat1" || seats[1].DefaultCursor != "left_ptr" {
		t.Fatalf("unexpected second seat %+v", seats[1])
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"outputs:",
		"  - name: DSI-1",
		"    width: 720",
		"    height: 1440",
		"    scale: 0",
		"",
	}, "\n")
	writeConfig(t, path, data)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "outputs.0.scale" {
		t.Fatalf("expected path outputs.0.scale, got %q", verr.Path)
	}
	if verr.Source.Line != 5 {
		t.Fatalf("expected line 5, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), path+":5:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorFallsBackToEnclosingKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"outputs:",
		"  - name: DSI-1",
		"    width: 720",
		"",
	}, "\n")
	writeConfig(t, path, data)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "outputs.0" || verr.Source.Line != 2 {
		t.Fatalf("expected outputs.0 at line 2, got %q %+v", verr.Path, verr.Source)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"action", func(c *Config) { c.Bindings = []Binding{{Keys: "Mod4-q", Action: "quit"}} }, "bindings.0.action"},
		{"binding keys", func(c *Config) { c.Bindings = []Binding{{Action: ActionEndGrab}} }, "bindings.0.keys"},
		{"backend", func(c *Config) { c.Backend.Kind = "wayland" }, "backend.kind"},
		{"duplicate seat", func(c *Config) { c.Seats = append(c.Seats, c.Seats[0]) }, "seats.1.name"},
		{"meta modifier", func(c *Config) { c.Seats[0].MetaModifier = "hyper" }, "seats.0.meta_modifier"},
		{"device glob", func(c *Config) { c.Seats[0].Devices = []string{"["} }, "seats.0.devices"},
		{"two builtins", func(c *Config) {
			c.Outputs = append(c.Outputs, OutputConfig{Name: "DSI-2", BuiltIn: true, Width: 1, Height: 1, Scale: 1})
		}, "outputs"},
		{"no outputs", func(c *Config) { c.Outputs = nil }, "outputs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q (%v)", tt.path, verr.Path, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := DefaultConfig()
		cfg.Logging.Level = level
		if got := cfg.SlogLevel(); got != want {
			t.Fatalf("level %q: expected %v, got %v", level, want, got)
		}
	}
}

func TestExplain_FileAndDefaultSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"desktop:",
		"  cursor_size: 32",
		"seats:",
		"  - name: main",
		"",
	}, "\n")
	writeConfig(t, path, data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "desktop.cursor_size")
	if err != nil {
		t.Fatalf("explain cursor_size: %v", err)
	}
	if val != 32 {
		t.Fatalf("expected 32, got %#v", val)
	}
	if src.Kind != SourceFile || src.File != path || src.Line != 2 {
		t.Fatalf("expected file source at line 2, got %+v", src)
	}

	val, src, err = Explain(res, "seats.0.name")
	if err != nil {
		t.Fatalf("explain seat name: %v", err)
	}
	if val != "main" || src.Kind != SourceFile {
		t.Fatalf("expected main from file, got %#v %+v", val, src)
	}

	val, src, err = Explain(res, "backend.kind")
	if err != nil {
		t.Fatalf("explain backend.kind: %v", err)
	}
	if val != BackendHeadless || src.Kind != SourceDefault {
		t.Fatalf("expected default headless, got %#v %+v", val, src)
	}

	for _, bad := range []string{"desktop.gap", "seats.3.name", "logging.level.x"} {
		if _, _, err := Explain(res, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLoadFromPath_BackendOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "backend:\n  kind: x11\n  width: 800\n  mirror: true\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b := res.Config.Backend
	if b.Kind != BackendX11 || b.Width != 800 || !b.Mirror || b.Grab {
		t.Fatalf("unexpected backend config %+v", b)
	}
}
