package mcp

import "github.com/1broseidon/palmwm/internal/compositor"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Backend        string `json:"backend"`
	Views          int    `json:"views"`
	Mapped         int    `json:"mapped"`
	Outputs        int    `json:"outputs"`
	Seats          int    `json:"seats"`
	AutoMaximize   bool   `json:"auto_maximize"`
	LastActiveSeat string `json:"last_active_seat,omitempty"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

// ListViewsInput is the input for the list_views tool.
type ListViewsInput struct {
	AppID       string `json:"app_id,omitempty" jsonschema:"Only list views with this application id"`
	VisibleOnly bool   `json:"visible_only,omitempty" jsonschema:"Only list views visible on an enabled output"`
}

// ListViewsOutput is the output for the list_views tool.
type ListViewsOutput struct {
	Views []compositor.ViewInfo `json:"views"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []compositor.OutputInfo `json:"outputs"`
}

// ListSeatsInput is the input for the list_seats tool.
type ListSeatsInput struct{}

// ListSeatsOutput is the output for the list_seats tool.
type ListSeatsOutput struct {
	Seats []compositor.SeatInfo `json:"seats"`
}

// ResolvePointInput is the input for the resolve_point tool.
type ResolvePointInput struct {
	X float64 `json:"x" jsonschema:"Layout x coordinate"`
	Y float64 `json:"y" jsonschema:"Layout y coordinate"`
}

// ResolvePointOutput is the output for the resolve_point tool.
type ResolvePointOutput struct {
	Found      bool    `json:"found"`
	View       string  `json:"view,omitempty"`
	Layer      string  `json:"layer,omitempty"`
	Surface    uint32  `json:"surface,omitempty"`
	LocalX     float64 `json:"local_x"`
	LocalY     float64 `json:"local_y"`
	Decoration bool    `json:"decoration,omitempty"`
}

// FocusViewInput is the input for the focus_view tool.
type FocusViewInput struct {
	View string `json:"view" jsonschema:"View id as reported by list_views"`
	Seat string `json:"seat,omitempty" jsonschema:"Seat name (default: the seat that saw input last)"`
}

// FocusViewOutput is the output for the focus_view tool.
type FocusViewOutput struct {
	Seat    string `json:"seat,omitempty"`
	View    string `json:"view"`
	Focused bool   `json:"focused"`
}

// CycleFocusInput is the input for the cycle_focus tool.
type CycleFocusInput struct {
	Seat string `json:"seat,omitempty" jsonschema:"Seat name (default: the seat that saw input last)"`
}

// CycleFocusOutput is the output for the cycle_focus tool.
type CycleFocusOutput struct {
	Seat  string `json:"seat,omitempty"`
	Focus string `json:"focus,omitempty"`
}
