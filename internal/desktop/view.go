package desktop

import (
	"fmt"
	"strconv"

	"github.com/1broseidon/palmwm/internal/event"
	"github.com/1broseidon/palmwm/internal/geom"
)

// ViewID is a stable handle into the view arena. The low 32 bits are the
// slot index and the high 32 bits the slot generation, so a handle to a
// destroyed view never resolves to its slot's next occupant. Zero is never
// a valid handle.
type ViewID uint64

func makeViewID(index, gen uint32) ViewID {
	return ViewID(uint64(gen)<<32 | uint64(index))
}

func (id ViewID) index() uint32 { return uint32(id) }
func (id ViewID) gen() uint32   { return uint32(id >> 32) }

func (id ViewID) String() string {
	return fmt.Sprintf("%d", uint64(id))
}

// ParseViewID parses the form produced by ViewID.String.
func ParseViewID(s string) (ViewID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse view id %q: %w", s, err)
	}
	return ViewID(n), nil
}

// Kind is the closed set of view variants.
type Kind int

const (
	KindToplevel Kind = iota
	KindXWayland
)

func (k Kind) String() string {
	switch k {
	case KindToplevel:
		return "toplevel"
	case KindXWayland:
		return "xwayland"
	default:
		return "unknown"
	}
}

// ViewEventKind enumerates per-view notifications.
type ViewEventKind int

const (
	ViewActivated ViewEventKind = iota
	ViewDeactivated
	ViewConfigured
	ViewMaximizeChanged
	ViewFullscreenChanged
	ViewCloseRequested
)

// ViewEvent is emitted on a view's bus.
type ViewEvent struct {
	Kind ViewEventKind
	View ViewID
}

// DecoPart is a bitmask describing which part of server-side decoration a
// point falls on.
type DecoPart uint32

const (
	DecoNone     DecoPart = 0
	DecoTitlebar DecoPart = 1 << iota
	DecoLeft
	DecoRight
	DecoTop
	DecoBottom
)

// Decoration describes server-side decoration sizes in surface-local units.
type Decoration struct {
	Titlebar int
	Border   int
}

// ViewOptions describes a new view.
type ViewOptions struct {
	Kind             Kind
	Surface          *Surface
	Box              geom.Box
	Geometry         geom.Box
	Scale            float64
	Rotation         float64
	Parent           ViewID
	Decoration       *Decoration
	OverrideRedirect bool
	Title            string
	AppID            string
}

// View is a toplevel or transient client window.
type View struct {
	id      ViewID
	desktop *Desktop
	kind    Kind
	surface *Surface

	title string
	appID string

	box      geom.Box
	geometry geom.Box // content geometry in surface-local units
	scale    float64
	rotation float64

	maximized  bool
	tiled      bool
	fullscreen *Output
	saved      geom.Box

	deco             *Decoration
	overrideRedirect bool

	parent ViewID
	// children stacked above this view; index 0 is the topmost child.
	children []ViewID

	mapped    bool
	activated bool
	events    event.Bus[ViewEvent]
}

// NewView allocates a view. It is not part of the stack until mapped.
func (d *Desktop) NewView(opts ViewOptions) (*View, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	v := &View{
		desktop:          d,
		kind:             opts.Kind,
		surface:          opts.Surface,
		title:            opts.Title,
		appID:            opts.AppID,
		box:              opts.Box,
		geometry:         opts.Geometry,
		scale:            opts.Scale,
		rotation:         opts.Rotation,
		deco:             opts.Decoration,
		overrideRedirect: opts.OverrideRedirect,
	}
	id, err := d.views.alloc(v)
	if err != nil {
		d.logger.Warn("dropping new view", "error", err)
		return nil, fmt.Errorf("create view: %w", err)
	}
	v.id = id
	if opts.Parent != 0 {
		if err := d.SetParent(id, opts.Parent); err != nil {
			d.views.release(id)
			return nil, fmt.Errorf("create view: %w", err)
		}
	}
	return v, nil
}

// View resolves a handle. It returns nil for stale or zero handles.
func (d *Desktop) View(id ViewID) *View {
	return d.views.get(id)
}

func (v *View) ID() ViewID                        { return v.id }
func (v *View) Kind() Kind                        { return v.kind }
func (v *View) Surface() *Surface                 { return v.surface }
func (v *View) Title() string                     { return v.title }
func (v *View) AppID() string                     { return v.appID }
func (v *View) Box() geom.Box                     { return v.box }
func (v *View) Scale() float64                    { return v.scale }
func (v *View) Rotation() float64                 { return v.rotation }
func (v *View) Maximized() bool                   { return v.maximized }
func (v *View) Tiled() bool                       { return v.tiled }
func (v *View) Fullscreen() bool                  { return v.fullscreen != nil }
func (v *View) SavedBox() geom.Box                { return v.saved }
func (v *View) Parent() ViewID                    { return v.parent }
func (v *View) Mapped() bool                      { return v.mapped }
func (v *View) Activated() bool                   { return v.activated }
func (v *View) OverrideRedirect() bool            { return v.overrideRedirect }
func (v *View) Events() *event.Bus[ViewEvent]     { return &v.events }
func (v *View) Children() []ViewID                { return append([]ViewID(nil), v.children...) }
func (v *View) SetTitle(title string)             { v.title = title }
func (v *View) SetRotation(rad float64)           { v.damageWhole(); v.rotation = rad; v.damageWhole() }
func (v *View) SetDecoration(deco *Decoration)    { v.damageWhole(); v.deco = deco; v.damageWhole() }
func (v *View) SetOverrideRedirect(override bool) { v.overrideRedirect = override }

// Client returns the client owning the view's surface.
func (v *View) Client() ClientID {
	if v.surface == nil {
		return 0
	}
	return v.surface.client
}

// Geometry returns the content geometry in layout coordinates.
func (v *View) Geometry() geom.Box {
	if v.geometry.Empty() {
		return v.box
	}
	return geom.Box{
		X:      v.box.X + int(float64(v.geometry.X)*v.scale),
		Y:      v.box.Y + int(float64(v.geometry.Y)*v.scale),
		Width:  int(float64(v.geometry.Width) * v.scale),
		Height: int(float64(v.geometry.Height) * v.scale),
	}
}

// SetGeometry updates the content geometry in surface-local units.
func (v *View) SetGeometry(g geom.Box) {
	v.geometry = g
}

// Activate sets the client-visible activated state. Notifications are only
// emitted on change.
func (v *View) Activate(on bool) {
	if v.activated == on {
		return
	}
	v.activated = on
	kind := ViewDeactivated
	if on {
		kind = ViewActivated
	}
	v.events.Emit(ViewEvent{Kind: kind, View: v.id})
}

// RequestClose asks the owning client to close the view.
func (v *View) RequestClose() {
	v.events.Emit(ViewEvent{Kind: ViewCloseRequested, View: v.id})
}

func (v *View) damageWhole() {
	if v.desktop == nil || !v.mapped {
		return
	}
	v.desktop.damageBox(v.box)
}

func (v *View) configured() {
	v.events.Emit(ViewEvent{Kind: ViewConfigured, View: v.id})
}

// Move places the view's box origin at (x, y).
func (v *View) Move(x, y int) {
	if v.box.X == x && v.box.Y == y {
		return
	}
	v.damageWhole()
	v.box.X, v.box.Y = x, y
	v.damageWhole()
	v.configured()
}

// Resize changes the view size keeping its origin.
func (v *View) Resize(width, height int) {
	v.MoveResize(v.box.X, v.box.Y, width, height)
}

// MoveResize replaces the view box.
func (v *View) MoveResize(x, y, width, height int) {
	nb := geom.Box{X: x, Y: y, Width: width, Height: height}
	if nb == v.box {
		return
	}
	v.damageWhole()
	v.box = nb
	v.damageWhole()
	v.configured()
}

// Output returns the enabled output containing the view center, or the
// first enabled output.
func (v *View) Output() *Output {
	if v.desktop == nil {
		return nil
	}
	c := v.box.Center()
	if o := v.desktop.OutputAt(c.X, c.Y); o != nil {
		return o
	}
	return v.desktop.firstEnabledOutput()
}

func (v *View) saveBox() {
	if !v.maximized && !v.tiled && v.fullscreen == nil {
		v.saved = v.box
	}
}

// SetMaximized maximizes the view onto the usable area of its output, or
// restores the saved box.
func (v *View) SetMaximized(on bool) {
	if v.maximized == on {
		return
	}
	if !on {
		v.maximized = false
		v.tiled = false
		v.MoveResize(v.saved.X, v.saved.Y, v.saved.Width, v.saved.Height)
		v.events.Emit(ViewEvent{Kind: ViewMaximizeChanged, View: v.id})
		return
	}
	o := v.Output()
	v.saveBox()
	v.maximized = true
	v.tiled = false
	if o != nil {
		area := o.UsableBox()
		v.MoveResize(area.X, area.Y, area.Width, area.Height)
	}
	v.events.Emit(ViewEvent{Kind: ViewMaximizeChanged, View: v.id})
}

// SetSavedPosition moves the box that Restore returns to.
func (v *View) SetSavedPosition(x, y int) {
	v.saved.X, v.saved.Y = x, y
}

// SetTiled tiles the view to the left or right half of its output. EdgeNone
// restores the saved box.
func (v *View) SetTiled(edge geom.Edges) {
	if edge == geom.EdgeNone {
		v.Restore()
		return
	}
	o := v.Output()
	if o == nil {
		return
	}
	v.saveBox()
	v.maximized = false
	v.tiled = true
	area := o.UsableBox()
	half := area.Width / 2
	x := area.X
	if edge&geom.EdgeRight != 0 {
		x += half
	}
	v.MoveResize(x, area.Y, half, area.Height)
}

// Restore undoes maximize and tiling. It reports whether anything changed.
func (v *View) Restore() bool {
	if !v.maximized && !v.tiled {
		return false
	}
	wasMax := v.maximized
	v.maximized = false
	v.tiled = false
	v.MoveResize(v.saved.X, v.saved.Y, v.saved.Width, v.saved.Height)
	if wasMax {
		v.events.Emit(ViewEvent{Kind: ViewMaximizeChanged, View: v.id})
	}
	return true
}

// SetFullscreen makes the view cover output, or the output containing it
// when output is nil. Any other fullscreen view on that output is
// unfullscreened first.
func (v *View) SetFullscreen(on bool, output *Output) {
	if !on {
		if v.fullscreen == nil {
			return
		}
		o := v.fullscreen
		if o.fullscreen == v.id {
			o.fullscreen = 0
		}
		v.fullscreen = nil
		if v.maximized {
			area := o.UsableBox()
			v.MoveResize(area.X, area.Y, area.Width, area.Height)
		} else {
			v.tiled = false
			v.MoveResize(v.saved.X, v.saved.Y, v.saved.Width, v.saved.Height)
		}
		v.events.Emit(ViewEvent{Kind: ViewFullscreenChanged, View: v.id})
		return
	}
	if output == nil {
		output = v.Output()
	}
	if output == nil || v.fullscreen == output {
		return
	}
	if v.fullscreen != nil {
		v.SetFullscreen(false, nil)
	}
	if prev := v.desktop.View(output.fullscreen); prev != nil && prev != v {
		prev.SetFullscreen(false, nil)
	}
	v.saveBox()
	v.fullscreen = output
	output.fullscreen = v.id
	v.MoveResize(output.box.X, output.box.Y, output.box.Width, output.box.Height)
	v.events.Emit(ViewEvent{Kind: ViewFullscreenChanged, View: v.id})
}

// FullscreenOutput returns the output the view covers, if any.
func (v *View) FullscreenOutput() *Output { return v.fullscreen }

// DecorationAt classifies a surface-local point against the view's
// server-side decoration.
func (v *View) DecorationAt(sx, sy float64) DecoPart {
	if v.deco == nil || v.surface == nil {
		return DecoNone
	}
	sw, sh := float64(v.surface.width), float64(v.surface.height)
	bw, th := float64(v.deco.Border), float64(v.deco.Titlebar)

	if sx > 0 && sx < sw && sy < 0 && sy > -th {
		return DecoTitlebar
	}
	parts := DecoNone
	if sy >= -(th+bw) && sy <= sh+bw {
		if sx < 0 && sx > -bw {
			parts |= DecoLeft
		} else if sx > sw && sx < sw+bw {
			parts |= DecoRight
		}
	}
	if sx >= -bw && sx <= sw+bw {
		if sy > sh && sy <= sh+bw {
			parts |= DecoBottom
		} else if sy >= -(th+bw) && sy < 0 {
			parts |= DecoTop
		}
	}
	return parts
}

// viewArena stores views in generation-checked slots.
type viewArena struct {
	slots []arenaSlot
	free  []uint32
	live  int
	limit int
}

type arenaSlot struct {
	gen  uint32
	view *View
}

func (a *viewArena) alloc(v *View) (ViewID, error) {
	if a.live >= a.limit {
		return 0, ErrArenaFull
	}
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot{gen: 1})
	}
	a.slots[idx].view = v
	a.live++
	return makeViewID(idx, a.slots[idx].gen), nil
}

func (a *viewArena) get(id ViewID) *View {
	if id == 0 {
		return nil
	}
	idx := id.index()
	if int(idx) >= len(a.slots) {
		return nil
	}
	s := a.slots[idx]
	if s.gen != id.gen() {
		return nil
	}
	return s.view
}

func (a *viewArena) release(id ViewID) {
	if a.get(id) == nil {
		return
	}
	idx := id.index()
	a.slots[idx].view = nil
	a.slots[idx].gen++
	a.free = append(a.free, idx)
	a.live--
}

func (a *viewArena) len() int { return a.live }
