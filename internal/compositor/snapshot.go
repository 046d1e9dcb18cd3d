package compositor

import (
	"context"
	"fmt"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
	"github.com/1broseidon/palmwm/internal/seat"
)

// Snapshots are deep copies made on the dispatch goroutine. They hold no
// pointers into live state and are safe to hand to other goroutines.

// Rect is a box in layout coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func rectOf(b geom.Box) Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// ViewInfo describes one view of the stack.
type ViewInfo struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title,omitempty"`
	AppID      string   `json:"app_id,omitempty"`
	Client     uint32   `json:"client"`
	Parent     string   `json:"parent,omitempty"`
	Box        Rect     `json:"box"`
	Mapped     bool     `json:"mapped"`
	Visible    bool     `json:"visible"`
	Activated  bool     `json:"activated"`
	Maximized  bool     `json:"maximized"`
	Fullscreen bool     `json:"fullscreen"`
	FocusedBy  []string `json:"focused_by,omitempty"`
}

// OutputInfo describes one output.
type OutputInfo struct {
	Name             string         `json:"name"`
	Box              Rect           `json:"box"`
	Usable           Rect           `json:"usable"`
	Scale            float64        `json:"scale"`
	Enabled          bool           `json:"enabled"`
	BuiltIn          bool           `json:"builtin"`
	ForceShellReveal bool           `json:"force_shell_reveal"`
	Fullscreen       string         `json:"fullscreen,omitempty"`
	Layers           map[string]int `json:"layers,omitempty"`
}

// DeviceInfo describes one attached input device.
type DeviceInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Group string `json:"group,omitempty"`
}

// CursorInfo describes a seat's cursor.
type CursorInfo struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Mode     string  `json:"mode"`
	Image    string  `json:"image,omitempty"`
	GrabView string  `json:"grab_view,omitempty"`
}

// SeatInfo describes one seat.
type SeatInfo struct {
	Name             string       `json:"name"`
	Capabilities     string       `json:"capabilities"`
	Focus            string       `json:"focus,omitempty"`
	FocusedLayer     string       `json:"focused_layer,omitempty"`
	Views            []string     `json:"views"`
	Cursor           CursorInfo   `json:"cursor"`
	Devices          []DeviceInfo `json:"devices"`
	ExclusiveClient  uint32       `json:"exclusive_client,omitempty"`
	Constraint       string       `json:"constraint,omitempty"`
	Dragging         bool         `json:"dragging"`
	Selection        string       `json:"selection,omitempty"`
	PrimarySelection string       `json:"primary_selection,omitempty"`
}

// Resolution is the result of resolving a layout point.
type Resolution struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Found      bool    `json:"found"`
	View       string  `json:"view,omitempty"`
	Layer      string  `json:"layer,omitempty"`
	Surface    uint32  `json:"surface,omitempty"`
	LocalX     float64 `json:"local_x"`
	LocalY     float64 `json:"local_y"`
	Decoration bool    `json:"decoration,omitempty"`
}

// Status summarises the compositor.
type Status struct {
	Views          int    `json:"views"`
	Mapped         int    `json:"mapped"`
	Outputs        int    `json:"outputs"`
	Seats          int    `json:"seats"`
	AutoMaximize   bool   `json:"auto_maximize"`
	LastActiveSeat string `json:"last_active_seat,omitempty"`
}

// StackSnapshot lists the mapped views, topmost first.
func (c *Compositor) StackSnapshot(ctx context.Context) ([]ViewInfo, error) {
	var out []ViewInfo
	err := c.Do(ctx, func() error {
		out = c.stackInfo()
		return nil
	})
	return out, err
}

// OutputSnapshot lists the outputs in layout order.
func (c *Compositor) OutputSnapshot(ctx context.Context) ([]OutputInfo, error) {
	var out []OutputInfo
	err := c.Do(ctx, func() error {
		out = c.outputInfo()
		return nil
	})
	return out, err
}

// SeatSnapshot lists the seats in creation order.
func (c *Compositor) SeatSnapshot(ctx context.Context) ([]SeatInfo, error) {
	var out []SeatInfo
	err := c.Do(ctx, func() error {
		out = c.seatInfo()
		return nil
	})
	return out, err
}

// Status returns summary counters.
func (c *Compositor) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.Do(ctx, func() error {
		st = Status{
			Views:        c.desktop.ViewCount(),
			Mapped:       len(c.desktop.Stack()),
			Outputs:      len(c.desktop.Outputs()),
			Seats:        len(c.input.Seats()),
			AutoMaximize: c.desktop.AutoMaximize(),
		}
		if s := c.input.LastActiveSeat(); s != nil {
			st.LastActiveSeat = s.Name()
		}
		return nil
	})
	return st, err
}

// Resolve finds what is under a layout point.
func (c *Compositor) Resolve(ctx context.Context, x, y float64) (Resolution, error) {
	res := Resolution{X: x, Y: y}
	err := c.Do(ctx, func() error {
		hit, ok := c.desktop.Resolve(geom.Point{X: x, Y: y})
		if !ok {
			return nil
		}
		res.Found = true
		res.LocalX, res.LocalY = hit.Local.X, hit.Local.Y
		if hit.View != 0 {
			res.View = hit.View.String()
		}
		if hit.Layer != nil {
			res.Layer = hit.Layer.Namespace()
		}
		if hit.Surface != nil {
			res.Surface = uint32(hit.Surface.ID())
		} else {
			res.Decoration = hit.Deco != desktop.DecoNone
		}
		return nil
	})
	return res, err
}

// Focus gives keyboard focus on the named seat to a view. An empty seat
// name means the last active seat.
func (c *Compositor) Focus(ctx context.Context, seatName, view string) error {
	id, err := desktop.ParseViewID(view)
	if err != nil {
		return err
	}
	return c.Do(ctx, func() error {
		s, err := c.seat(seatName)
		if err != nil {
			return err
		}
		return s.SetFocus(id)
	})
}

// CycleFocus moves focus on the named seat to the next view and returns
// the newly focused view.
func (c *Compositor) CycleFocus(ctx context.Context, seatName string) (string, error) {
	var focus string
	err := c.Do(ctx, func() error {
		s, err := c.seat(seatName)
		if err != nil {
			return err
		}
		if err := s.CycleFocus(); err != nil {
			return err
		}
		if id := s.Focus(); id != 0 {
			focus = id.String()
		}
		return nil
	})
	return focus, err
}

func (c *Compositor) seat(name string) (*seat.Seat, error) {
	if name == "" {
		if s := c.input.LastActiveSeat(); s != nil {
			return s, nil
		}
		return nil, seat.ErrUnknownSeat
	}
	if s := c.input.Seat(name); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("seat %q: %w", name, seat.ErrUnknownSeat)
}

func (c *Compositor) stackInfo() []ViewInfo {
	focused := make(map[desktop.ViewID][]string)
	for _, s := range c.input.Seats() {
		if id := s.Focus(); id != 0 {
			focused[id] = append(focused[id], s.Name())
		}
	}

	stack := c.desktop.Stack()
	out := make([]ViewInfo, 0, len(stack))
	for _, id := range stack {
		v := c.desktop.View(id)
		if v == nil {
			continue
		}
		info := ViewInfo{
			ID:         id.String(),
			Kind:       v.Kind().String(),
			Title:      v.Title(),
			AppID:      v.AppID(),
			Client:     uint32(v.Client()),
			Box:        rectOf(v.Box()),
			Mapped:     v.Mapped(),
			Visible:    c.desktop.ViewIsVisible(v),
			Activated:  v.Activated(),
			Maximized:  v.Maximized(),
			Fullscreen: v.Fullscreen(),
			FocusedBy:  focused[id],
		}
		if p := v.Parent(); p != 0 {
			info.Parent = p.String()
		}
		out = append(out, info)
	}
	return out
}

func (c *Compositor) outputInfo() []OutputInfo {
	outputs := c.desktop.Outputs()
	out := make([]OutputInfo, 0, len(outputs))
	for _, o := range outputs {
		usable := o.UsableBox()
		info := OutputInfo{
			Name:             o.Name(),
			Box:              rectOf(o.Box()),
			Usable:           rectOf(usable),
			Scale:            o.Scale(),
			Enabled:          o.Enabled(),
			BuiltIn:          o.BuiltIn(),
			ForceShellReveal: o.ForceShellReveal(),
		}
		if fv := o.FullscreenView(); fv != 0 {
			info.Fullscreen = fv.String()
		}
		for _, l := range []desktop.Layer{desktop.LayerBackground, desktop.LayerBottom, desktop.LayerTop, desktop.LayerOverlay} {
			if n := len(o.Layer(l)); n > 0 {
				if info.Layers == nil {
					info.Layers = make(map[string]int)
				}
				info.Layers[l.String()] = n
			}
		}
		out = append(out, info)
	}
	return out
}

func (c *Compositor) seatInfo() []SeatInfo {
	seats := c.input.Seats()
	out := make([]SeatInfo, 0, len(seats))
	for _, s := range seats {
		cur := s.Cursor()
		info := SeatInfo{
			Name:            s.Name(),
			Capabilities:    s.Capabilities().String(),
			Views:           make([]string, 0, len(s.Views())),
			Devices:         []DeviceInfo{},
			ExclusiveClient: uint32(s.ExclusiveClient()),
			Dragging:        s.DragIcon() != nil,
			Cursor: CursorInfo{
				X:     cur.X,
				Y:     cur.Y,
				Mode:  cur.Mode.String(),
				Image: cur.Image,
			},
		}
		info.Selection, info.PrimarySelection = s.Selection()
		if cur.GrabView != 0 {
			info.Cursor.GrabView = cur.GrabView.String()
		}
		if id := s.Focus(); id != 0 {
			info.Focus = id.String()
		}
		if ls := s.FocusedLayer(); ls != nil {
			info.FocusedLayer = ls.Namespace()
		}
		for _, id := range s.Views() {
			info.Views = append(info.Views, id.String())
		}
		for _, d := range s.Devices() {
			info.Devices = append(info.Devices, DeviceInfo{Name: d.Name, Type: d.Type.String(), Group: d.Group})
		}
		if con := s.ActiveConstraint(); con != nil {
			info.Constraint = con.Kind().String()
		}
		out = append(out, info)
	}
	return out
}
