package seat

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

// Mode is the cursor state machine state.
type Mode int

const (
	ModePassthrough Mode = iota
	ModeMove
	ModeResize
)

func (m Mode) String() string {
	switch m {
	case ModePassthrough:
		return "passthrough"
	case ModeMove:
		return "move"
	case ModeResize:
		return "resize"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Cursor is the seat's virtual pointer.
type Cursor struct {
	x, y         float64
	mode         Mode
	image        string
	defaultImage string

	pointerSurface *desktop.Surface
	pointerView    desktop.ViewID
	pointerLocal   geom.Point
	buttons        []uint32
	buttonSerial   uint32

	grab grabState

	touchPoints map[int32]*touchPoint
	// touchID is the touch point emulating the pointer button, or -1.
	touchID        int32
	touchX, touchY float64

	constraint *Constraint
}

// grabState is the snapshot taken when a move or resize grab starts.
type grabState struct {
	view          desktop.ViewID
	offsX, offsY  float64
	viewX, viewY  float64
	width, height int
	edges         geom.Edges
	// touchID is the touch point driving the grab, or -1 for the pointer.
	touchID int32
	pending geom.Box
}

type touchPoint struct {
	id      int32
	device  string
	surface *desktop.Surface
	view    desktop.ViewID
	x, y    float64
	serial  uint32
}

// CursorState is a copy of the cursor's observable state.
type CursorState struct {
	X, Y     float64
	Mode     Mode
	Image    string
	GrabView desktop.ViewID
	Pending  geom.Box
	Surface  *desktop.Surface
}

// Cursor returns the current cursor state.
func (s *Seat) Cursor() CursorState {
	c := &s.cursor
	st := CursorState{X: c.x, Y: c.y, Mode: c.mode, Image: c.image, Surface: c.pointerSurface}
	if c.mode != ModePassthrough {
		st.GrabView = c.grab.view
		st.Pending = c.grab.pending
	}
	return st
}

// Position returns the cursor position in layout coordinates.
func (s *Seat) Position() geom.Point {
	return geom.Point{X: s.cursor.x, Y: s.cursor.y}
}

// Warp moves the cursor without generating motion from a device.
func (s *Seat) Warp(x, y float64) {
	p := s.desktop.ClosestPoint(geom.Point{X: x, Y: y})
	s.cursor.x, s.cursor.y = p.X, p.Y
}

// PointerMotion applies a relative motion from a pointing device.
func (s *Seat) PointerMotion(dev string, dx, dy float64, time uint32) {
	s.notifyActivity()
	s.moveCursor(s.cursor.x+dx, s.cursor.y+dy, dx, dy, time)
}

// PointerMotionAbsolute applies a motion in [0,1] layout coordinates.
func (s *Seat) PointerMotionAbsolute(dev string, nx, ny float64, time uint32) {
	s.notifyActivity()
	b := s.desktop.LayoutBox()
	x := float64(b.X) + nx*float64(b.Width)
	y := float64(b.Y) + ny*float64(b.Height)
	s.moveCursor(x, y, x-s.cursor.x, y-s.cursor.y, time)
}

func (s *Seat) moveCursor(x, y, dx, dy float64, time uint32) {
	if c := s.cursor.constraint; c != nil && s.cursor.mode == ModePassthrough {
		if !c.allows(s, geom.Point{X: x, Y: y}) {
			s.emit(Event{Kind: PointerMotion, Surface: s.cursor.pointerSurface, Local: s.cursor.pointerLocal, Dx: dx, Dy: dy, Time: time})
			return
		}
	}
	p := s.desktop.ClosestPoint(geom.Point{X: x, Y: y})
	s.cursor.x, s.cursor.y = p.X, p.Y
	s.updatePosition(time)
}

// updatePosition routes the current cursor position according to the
// cursor mode.
func (s *Seat) updatePosition(time uint32) {
	c := &s.cursor
	switch c.mode {
	case ModePassthrough:
		s.passthrough(time, true)
	case ModeMove, ModeResize:
		x, y := c.x, c.y
		if c.grab.touchID >= 0 {
			x, y = c.touchX, c.touchY
		}
		s.updateGrab(x, y)
	default:
		panic(fmt.Sprintf("seat %s: unknown cursor mode %d", s.name, int(c.mode)))
	}
	if s.dragIcon != nil {
		s.dragIcon.updatePosition()
	}
}

// passthrough hit-tests the cursor and moves pointer focus.
func (s *Seat) passthrough(time uint32, motion bool) {
	c := &s.cursor
	h, ok := s.desktop.Resolve(geom.Point{X: c.x, Y: c.y})
	surface := h.Surface
	if surface != nil && !s.AllowInput(surface.Client()) {
		surface = nil
	}
	if !ok || surface == nil {
		if h.Deco != desktop.DecoNone && h.Deco != desktop.DecoTitlebar {
			s.setCursorImage(decoEdges(h.Deco).ResizeCursorName())
		} else if c.pointerSurface != nil || c.image == "" {
			s.setCursorImage(c.defaultImage)
		}
		s.setPointerFocus(nil, 0, geom.Point{}, time)
		if s.caps&CapPointer == 0 {
			s.setCursorImage("")
		}
		return
	}
	if surface != c.pointerSurface {
		s.setPointerFocus(surface, h.View, h.Local, time)
		return
	}
	c.pointerLocal = h.Local
	if motion {
		s.emit(Event{Kind: PointerMotion, Surface: surface, View: h.View, Local: h.Local, Time: time})
	}
}

func (s *Seat) setPointerFocus(surface *desktop.Surface, view desktop.ViewID, local geom.Point, time uint32) {
	c := &s.cursor
	if surface == c.pointerSurface {
		return
	}
	if c.pointerSurface != nil {
		s.emit(Event{Kind: PointerLeave, Surface: c.pointerSurface, View: c.pointerView, Time: time})
	}
	c.pointerSurface, c.pointerView, c.pointerLocal = surface, view, local
	if surface != nil {
		s.emit(Event{Kind: PointerEnter, Surface: surface, View: view, Local: local, Serial: s.nextSerial(), Time: time})
	}
	if ac := c.constraint; ac != nil && ac.surface != surface {
		s.deactivateConstraint(ac)
		s.dropConstraint(ac)
	}
}

// updateFocus re-resolves pointer focus without a motion event.
func (s *Seat) updateFocus() {
	if s.cursor.mode != ModePassthrough {
		return
	}
	s.passthrough(0, false)
}

func decoEdges(part desktop.DecoPart) geom.Edges {
	var e geom.Edges
	if part&desktop.DecoTop != 0 {
		e |= geom.EdgeTop
	}
	if part&desktop.DecoBottom != 0 {
		e |= geom.EdgeBottom
	}
	if part&desktop.DecoLeft != 0 {
		e |= geom.EdgeLeft
	}
	if part&desktop.DecoRight != 0 {
		e |= geom.EdgeRight
	}
	return e
}

// PointerButton handles a button from a pointing device.
func (s *Seat) PointerButton(dev string, button uint32, pressed bool, time uint32) {
	s.notifyActivity()
	c := &s.cursor
	var serial uint32
	if pressed {
		if len(c.buttons) == 0 {
			c.buttonSerial = s.nextSerial()
		}
		c.buttons = append(c.buttons, button)
		serial = c.buttonSerial
	} else {
		for i, b := range c.buttons {
			if b == button {
				c.buttons = append(c.buttons[:i], c.buttons[i+1:]...)
				break
			}
		}
	}
	s.clickAt(button, pressed, c.x, c.y)
	s.emit(Event{Kind: PointerButton, Device: dev, Surface: c.pointerSurface, Button: button, Pressed: pressed, Serial: serial, Time: time})
	if !pressed && len(c.buttons) == 0 && s.dragIcon != nil && s.dragIcon.grab == DragGrabPointer {
		s.endDrag()
	}
}

// clickAt applies click-to-focus and grab shortcuts for a button at a
// layout position. Pointer buttons and the first touch point share it.
func (s *Seat) clickAt(button uint32, pressed bool, x, y float64) {
	c := &s.cursor
	h, _ := s.desktop.Resolve(geom.Point{X: x, Y: y})
	view := s.desktop.View(h.View)

	if pressed && view != nil && s.HasMetaPressed() {
		_ = s.SetFocus(view.ID())
		switch button {
		case BtnLeft:
			_ = s.BeginMove(view.ID())
		case BtnRight:
			b := view.Box()
			var edges geom.Edges
			if x < float64(b.X)+float64(b.Width)/2 {
				edges |= geom.EdgeLeft
			} else {
				edges |= geom.EdgeRight
			}
			if y < float64(b.Y)+float64(b.Height)/2 {
				edges |= geom.EdgeTop
			} else {
				edges |= geom.EdgeBottom
			}
			_ = s.BeginResize(view.ID(), edges)
		}
		return
	}

	if view != nil && h.Surface == nil && h.Deco != desktop.DecoNone && pressed {
		_ = s.SetFocus(view.ID())
		if h.Deco == desktop.DecoTitlebar {
			_ = s.BeginMove(view.ID())
		} else {
			_ = s.BeginResize(view.ID(), decoEdges(h.Deco))
		}
		return
	}

	if !pressed && c.mode != ModePassthrough && c.grab.touchID < 0 {
		s.EndGrab()
		return
	}
	if pressed {
		if view != nil {
			_ = s.SetFocus(view.ID())
		}
		if h.Layer != nil && h.Layer.KeyboardInteractive() {
			s.SetFocusLayer(h.Layer)
		}
	}
}

// PointerAxis forwards scrolling to the pointer focus.
func (s *Seat) PointerAxis(dev string, axis Axis, delta float64, time uint32) {
	s.notifyActivity()
	s.emit(Event{Kind: PointerAxis, Device: dev, Surface: s.cursor.pointerSurface, Axis: axis, Value: delta, Time: time})
}

// PointerFrame closes a group of pointer events.
func (s *Seat) PointerFrame(dev string) {
	s.emit(Event{Kind: PointerFrame, Device: dev, Surface: s.cursor.pointerSurface})
}

// BeginMove starts an interactive move of the view. It is refused in
// forced-maximize mode. A maximized or tiled view is restored first so it
// stays under the cursor at the same relative position.
func (s *Seat) BeginMove(id desktop.ViewID) error {
	v := s.desktop.View(id)
	if v == nil {
		return ErrUnknownView
	}
	if s.desktop.AutoMaximize() {
		return fmt.Errorf("move %s: %w", id, ErrGrabRefused)
	}
	s.startGrab(v, ModeMove, geom.EdgeNone)
	s.setCursorImage("grabbing")
	return nil
}

// BeginResize starts an interactive resize along edges. It is refused in
// forced-maximize mode and for fullscreen views.
func (s *Seat) BeginResize(id desktop.ViewID, edges geom.Edges) error {
	v := s.desktop.View(id)
	if v == nil {
		return ErrUnknownView
	}
	if s.desktop.AutoMaximize() || v.Fullscreen() {
		return fmt.Errorf("resize %s: %w", id, ErrGrabRefused)
	}
	s.startGrab(v, ModeResize, edges)
	s.setCursorImage(edges.ResizeCursorName())
	return nil
}

func (s *Seat) startGrab(v *desktop.View, mode Mode, edges geom.Edges) {
	c := &s.cursor
	c.grab = grabState{view: v.ID(), edges: edges, touchID: -1}
	if c.touchID >= 0 {
		if _, ok := c.touchPoints[c.touchID]; ok {
			c.grab.touchID = c.touchID
			c.x, c.y = c.touchX, c.touchY
		}
	}
	c.mode = mode
	c.grab.offsX, c.grab.offsY = c.x, c.y

	b := v.Box()
	if v.Maximized() || v.Tiled() {
		saved := v.SavedBox()
		nx := (c.x - float64(b.X)) / float64(b.Width)
		ny := (c.y - float64(b.Y)) / float64(b.Height)
		c.grab.viewX = c.x - nx*float64(saved.Width)
		c.grab.viewY = c.y - ny*float64(saved.Height)
		v.SetSavedPosition(int(c.grab.viewX), int(c.grab.viewY))
		v.Restore()
		b = v.Box()
	} else {
		c.grab.viewX, c.grab.viewY = float64(b.X), float64(b.Y)
	}
	c.grab.width, c.grab.height = b.Width, b.Height
	c.grab.pending = b
	s.logger.Debug("grab started", "mode", mode.String(), "view", v.ID(), "touch", c.grab.touchID)
}

// updateGrab recomputes the pending geometry from a cursor position.
func (s *Seat) updateGrab(x, y float64) {
	g := &s.cursor.grab
	dx, dy := x-g.offsX, y-g.offsY
	switch s.cursor.mode {
	case ModeMove:
		g.pending = geom.Box{X: int(g.viewX + dx), Y: int(g.viewY + dy), Width: g.width, Height: g.height}
	case ModeResize:
		bx, by := g.viewX, g.viewY
		w, h := float64(g.width), float64(g.height)
		if g.edges&geom.EdgeTop != 0 {
			by = g.viewY + dy
			h -= dy
			if h < 1 {
				by += h
			}
		} else if g.edges&geom.EdgeBottom != 0 {
			h += dy
		}
		if g.edges&geom.EdgeLeft != 0 {
			bx = g.viewX + dx
			w -= dx
			if w < 1 {
				bx += w
			}
		} else if g.edges&geom.EdgeRight != 0 {
			w += dx
		}
		g.pending = geom.Box{X: int(bx), Y: int(by), Width: int(max(w, 1)), Height: int(max(h, 1))}
	}
}

// EndGrab commits the pending geometry of a move or resize and returns to
// passthrough. A touch-driven grab ends at the last touch position.
func (s *Seat) EndGrab() {
	c := &s.cursor
	switch c.mode {
	case ModePassthrough:
	case ModeMove, ModeResize:
		x, y := c.x, c.y
		if c.grab.touchID >= 0 {
			x, y = c.touchX, c.touchY
		}
		s.updateGrab(x, y)
		if v := s.desktop.View(c.grab.view); v != nil {
			p := c.grab.pending
			if c.mode == ModeMove {
				v.Move(p.X, p.Y)
			} else {
				v.MoveResize(p.X, p.Y, p.Width, p.Height)
			}
		}
	default:
		panic(fmt.Sprintf("seat %s: unknown cursor mode %d", s.name, int(c.mode)))
	}
	s.resetGrab()
}

// cancelGrab drops an active grab without committing it.
func (s *Seat) cancelGrab(reason string) {
	if s.cursor.mode == ModePassthrough {
		return
	}
	s.logger.Debug("grab cancelled", "reason", reason, "view", s.cursor.grab.view)
	s.resetGrab()
}

// resetGrab is the single way back to passthrough.
func (s *Seat) resetGrab() {
	c := &s.cursor
	c.mode = ModePassthrough
	c.grab = grabState{touchID: -1}
	s.setCursorImage(c.defaultImage)
	s.updateFocus()
	if s.caps&CapPointer == 0 {
		s.setCursorImage("")
	}
}

// RequestMove handles a client move request, which must carry the serial of
// a live pointer or touch grab on the view's surface.
func (s *Seat) RequestMove(id desktop.ViewID, serial uint32) error {
	v := s.desktop.View(id)
	if v == nil {
		return ErrUnknownView
	}
	if !s.validateGrabSerial(v.Surface(), serial) {
		return fmt.Errorf("move %s: %w", id, ErrInvalidSerial)
	}
	return s.BeginMove(id)
}

// RequestResize handles a client resize request.
func (s *Seat) RequestResize(id desktop.ViewID, serial uint32, edges geom.Edges) error {
	v := s.desktop.View(id)
	if v == nil {
		return ErrUnknownView
	}
	if !s.validateGrabSerial(v.Surface(), serial) {
		return fmt.Errorf("resize %s: %w", id, ErrInvalidSerial)
	}
	return s.BeginResize(id, edges)
}

// RequestSetCursor lets the client with pointer focus pick the image.
func (s *Seat) RequestSetCursor(client desktop.ClientID, name string) error {
	c := &s.cursor
	if c.mode != ModePassthrough || c.pointerSurface == nil || c.pointerSurface.Client() != client {
		return ErrInputNotAllowed
	}
	s.setCursorImage(name)
	return nil
}

func (s *Seat) validatePointerSerial(origin *desktop.Surface, serial uint32) bool {
	c := &s.cursor
	return serial != 0 && len(c.buttons) > 0 && c.buttonSerial == serial &&
		origin != nil && c.pointerSurface != nil && c.pointerSurface.Client() == origin.Client()
}

func (s *Seat) validateTouchSerial(origin *desktop.Surface, serial uint32) (*touchPoint, bool) {
	if serial == 0 || origin == nil {
		return nil, false
	}
	for _, tp := range s.cursor.touchPoints {
		if tp.serial == serial && tp.surface != nil && tp.surface.Client() == origin.Client() {
			return tp, true
		}
	}
	return nil, false
}

func (s *Seat) validateGrabSerial(origin *desktop.Surface, serial uint32) bool {
	if s.validatePointerSerial(origin, serial) {
		return true
	}
	_, ok := s.validateTouchSerial(origin, serial)
	return ok
}

// Gesture forwards a swipe or pinch step to the pointer focus.
func (s *Seat) Gesture(kind EventKind, dev string, fingers int, dx, dy, scale float64, cancelled bool, time uint32) {
	switch kind {
	case GestureSwipeBegin, GestureSwipeUpdate, GestureSwipeEnd,
		GesturePinchBegin, GesturePinchUpdate, GesturePinchEnd:
	default:
		return
	}
	s.notifyActivity()
	s.emit(Event{
		Kind:    kind,
		Device:  dev,
		Surface: s.cursor.pointerSurface,
		Fingers: fingers,
		Dx:      dx,
		Dy:      dy,
		Scale:   scale,
		Cancel:  cancelled,
		Time:    time,
	})
}
