package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLoggingConfig struct {
	Level *string `yaml:"level"`
}

type RawDesktopConfig struct {
	AutoMaximize *bool   `yaml:"auto_maximize"`
	CursorTheme  *string `yaml:"cursor_theme"`
	CursorSize   *int    `yaml:"cursor_size"`
	FocusOnMap   *bool   `yaml:"focus_on_map"`
	ViewLimit    *int    `yaml:"view_limit"`
}

type RawOutput struct {
	Name             *string  `yaml:"name"`
	BuiltIn          *bool    `yaml:"builtin"`
	X                *int     `yaml:"x"`
	Y                *int     `yaml:"y"`
	Width            *int     `yaml:"width"`
	Height           *int     `yaml:"height"`
	Scale            *float64 `yaml:"scale"`
	Enabled          *bool    `yaml:"enabled"`
	ForceShellReveal *bool    `yaml:"force_shell_reveal"`
}

type RawSeat struct {
	Name          *string  `yaml:"name"`
	DefaultCursor *string  `yaml:"default_cursor"`
	MetaModifier  *string  `yaml:"meta_modifier"`
	Devices       []string `yaml:"devices"`
}

type RawIPCConfig struct {
	Socket *string `yaml:"socket"`
}

type RawBackendConfig struct {
	Kind    *string `yaml:"kind"`
	Display *string `yaml:"display"`
	Width   *int    `yaml:"width"`
	Height  *int    `yaml:"height"`
	Grab    *bool   `yaml:"grab"`
	Mirror  *bool   `yaml:"mirror"`
}

// RawConfig mirrors the YAML file. Unset scalars stay nil so includes and
// the main file can be layered before defaults are applied. Lists replace
// wholesale.
type RawConfig struct {
	Include  IncludeList       `yaml:"include"`
	Logging  *RawLoggingConfig `yaml:"logging"`
	Desktop  *RawDesktopConfig `yaml:"desktop"`
	Outputs  []RawOutput       `yaml:"outputs"`
	Seats    []RawSeat         `yaml:"seats"`
	Bindings []Binding         `yaml:"bindings"`
	IPC      *RawIPCConfig     `yaml:"ipc"`
	Backend  *RawBackendConfig `yaml:"backend"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Logging != nil {
		merged := RawLoggingConfig{}
		if out.Logging != nil {
			merged = *out.Logging
		}
		if overlay.Logging.Level != nil {
			merged.Level = overlay.Logging.Level
		}
		out.Logging = &merged
	}
	if overlay.Desktop != nil {
		merged := RawDesktopConfig{}
		if out.Desktop != nil {
			merged = *out.Desktop
		}
		merged = mergeRawDesktop(merged, *overlay.Desktop)
		out.Desktop = &merged
	}
	if overlay.Outputs != nil {
		out.Outputs = append([]RawOutput(nil), overlay.Outputs...)
	}
	if overlay.Seats != nil {
		out.Seats = append([]RawSeat(nil), overlay.Seats...)
	}
	if overlay.Bindings != nil {
		out.Bindings = append([]Binding(nil), overlay.Bindings...)
	}
	if overlay.IPC != nil {
		merged := RawIPCConfig{}
		if out.IPC != nil {
			merged = *out.IPC
		}
		if overlay.IPC.Socket != nil {
			merged.Socket = overlay.IPC.Socket
		}
		out.IPC = &merged
	}
	if overlay.Backend != nil {
		merged := RawBackendConfig{}
		if out.Backend != nil {
			merged = *out.Backend
		}
		merged = mergeRawBackend(merged, *overlay.Backend)
		out.Backend = &merged
	}
	return out
}

func mergeRawDesktop(base RawDesktopConfig, overlay RawDesktopConfig) RawDesktopConfig {
	out := base
	if overlay.AutoMaximize != nil {
		out.AutoMaximize = overlay.AutoMaximize
	}
	if overlay.CursorTheme != nil {
		out.CursorTheme = overlay.CursorTheme
	}
	if overlay.CursorSize != nil {
		out.CursorSize = overlay.CursorSize
	}
	if overlay.FocusOnMap != nil {
		out.FocusOnMap = overlay.FocusOnMap
	}
	if overlay.ViewLimit != nil {
		out.ViewLimit = overlay.ViewLimit
	}
	return out
}

func mergeRawBackend(base RawBackendConfig, overlay RawBackendConfig) RawBackendConfig {
	out := base
	if overlay.Kind != nil {
		out.Kind = overlay.Kind
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.Grab != nil {
		out.Grab = overlay.Grab
	}
	if overlay.Mirror != nil {
		out.Mirror = overlay.Mirror
	}
	return out
}
