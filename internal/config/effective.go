package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Logging != nil && raw.Logging.Level != nil {
		cfg.Logging.Level = *raw.Logging.Level
	}
	if d := raw.Desktop; d != nil {
		if d.AutoMaximize != nil {
			cfg.Desktop.AutoMaximize = *d.AutoMaximize
		}
		if d.CursorTheme != nil {
			cfg.Desktop.CursorTheme = *d.CursorTheme
		}
		if d.CursorSize != nil {
			cfg.Desktop.CursorSize = *d.CursorSize
		}
		if d.FocusOnMap != nil {
			cfg.Desktop.FocusOnMap = *d.FocusOnMap
		}
		if d.ViewLimit != nil {
			cfg.Desktop.ViewLimit = *d.ViewLimit
		}
	}

	if raw.Outputs != nil {
		cfg.Outputs = make([]OutputConfig, 0, len(raw.Outputs))
		for _, ro := range raw.Outputs {
			cfg.Outputs = append(cfg.Outputs, OutputConfig{
				Name:             derefString(ro.Name, ""),
				BuiltIn:          derefBool(ro.BuiltIn, false),
				X:                derefInt(ro.X, 0),
				Y:                derefInt(ro.Y, 0),
				Width:            derefInt(ro.Width, 0),
				Height:           derefInt(ro.Height, 0),
				Scale:            derefFloat(ro.Scale, 1),
				Enabled:          derefBool(ro.Enabled, true),
				ForceShellReveal: derefBool(ro.ForceShellReveal, false),
			})
		}
	}

	if raw.Seats != nil {
		cfg.Seats = make([]SeatConfig, 0, len(raw.Seats))
		for i, rs := range raw.Seats {
			name := DefaultSeatName
			if i > 0 {
				name = fmt.Sprintf("seat%d", i)
			}
			devices := rs.Devices
			if devices == nil && i == 0 {
				devices = []string{"*"}
			}
			cfg.Seats = append(cfg.Seats, SeatConfig{
				Name:          derefString(rs.Name, name),
				DefaultCursor: derefString(rs.DefaultCursor, "left_ptr"),
				MetaModifier:  derefString(rs.MetaModifier, "logo"),
				Devices:       devices,
			})
		}
	}

	if raw.Bindings != nil {
		cfg.Bindings = append([]Binding(nil), raw.Bindings...)
	}
	if raw.IPC != nil && raw.IPC.Socket != nil {
		cfg.IPC.Socket = *raw.IPC.Socket
	}
	if b := raw.Backend; b != nil {
		cfg.Backend.Kind = derefString(b.Kind, cfg.Backend.Kind)
		cfg.Backend.Display = derefString(b.Display, cfg.Backend.Display)
		cfg.Backend.Width = derefInt(b.Width, cfg.Backend.Width)
		cfg.Backend.Height = derefInt(b.Height, cfg.Backend.Height)
		cfg.Backend.Grab = derefBool(b.Grab, cfg.Backend.Grab)
		cfg.Backend.Mirror = derefBool(b.Mirror, cfg.Backend.Mirror)
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func derefFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
