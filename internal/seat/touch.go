package seat

import (
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

// touchPosition maps a normalized touch coordinate onto the device's output,
// or the whole layout when the device is unmapped.
func (s *Seat) touchPosition(t *Touch, nx, ny float64) (geom.Point, *desktop.Output) {
	var box geom.Box
	var out *desktop.Output
	if t != nil && t.output != nil {
		out = t.output
		box = out.Box()
	} else {
		box = s.desktop.LayoutBox()
	}
	p := geom.Point{X: float64(box.X) + nx*float64(box.Width), Y: float64(box.Y) + ny*float64(box.Height)}
	if out == nil {
		out = s.desktop.OutputAt(p.X, p.Y)
	}
	return p, out
}

// TouchDown starts a touch point. Touches on a disabled output are ignored.
// The first touch point also acts as a left button press.
func (s *Seat) TouchDown(dev string, id int32, nx, ny float64, time uint32) {
	t := s.touchByName(dev)
	p, out := s.touchPosition(t, nx, ny)
	if out != nil && !out.Enabled() {
		s.logger.Debug("touch event ignored since output is disabled", "output", out.Name(), "device", dev)
		return
	}
	s.notifyActivity()

	tp := &touchPoint{id: id, device: dev, x: p.X, y: p.Y}
	h, ok := s.desktop.Resolve(p)
	if ok && h.Surface != nil && s.AllowInput(h.Surface.Client()) {
		tp.surface, tp.view = h.Surface, h.View
		tp.serial = s.nextSerial()
		s.emit(Event{Kind: TouchDown, Device: dev, TouchID: id, Surface: h.Surface, View: h.View, Local: h.Local, Serial: tp.serial, Time: time})
	}
	s.cursor.touchPoints[id] = tp

	if tp.serial != 0 && len(s.cursor.touchPoints) == 1 {
		s.cursor.touchID = id
		s.cursor.touchX, s.cursor.touchY = p.X, p.Y
		s.clickAt(BtnLeft, true, p.X, p.Y)
	}
}

// TouchUp ends a touch point. It is delivered even when the output has been
// disabled since the point went down.
func (s *Seat) TouchUp(dev string, id int32, time uint32) {
	c := &s.cursor
	tp, ok := c.touchPoints[id]
	if !ok {
		return
	}
	if s.touchOnEnabledOutput(dev, tp.x, tp.y) {
		s.notifyActivity()
	}
	if id == c.touchID {
		s.clickAt(BtnLeft, false, c.touchX, c.touchY)
	}
	if c.mode != ModePassthrough && c.grab.touchID == id {
		s.EndGrab()
	}
	delete(c.touchPoints, id)
	if id == c.touchID {
		c.touchID = -1
	}
	if tp.surface != nil {
		s.emit(Event{Kind: TouchUp, Device: dev, TouchID: id, Surface: tp.surface, View: tp.view, Time: time})
	}
	if s.dragIcon != nil && s.dragIcon.grab == DragGrabTouch && s.dragIcon.touchID == id {
		s.endDrag()
	}
}

// TouchMotion moves a touch point. Like TouchUp it is delivered even on a
// disabled output; only the activity notification is skipped.
func (s *Seat) TouchMotion(dev string, id int32, nx, ny float64, time uint32) {
	c := &s.cursor
	tp, ok := c.touchPoints[id]
	if !ok {
		return
	}
	p, out := s.touchPosition(s.touchByName(dev), nx, ny)
	if out == nil || out.Enabled() {
		s.notifyActivity()
	} else {
		s.logger.Debug("touch motion on disabled output", "output", out.Name(), "device", dev)
	}
	tp.x, tp.y = p.X, p.Y

	if tp.surface != nil {
		local := p
		if v := s.desktop.View(tp.view); v != nil && v.Surface() == tp.surface {
			local = geom.Apply(geom.LayoutToLocal(v.Box(), v.Scale(), v.Rotation()), p)
		} else if h, ok := s.desktop.Resolve(p); ok && h.Surface == tp.surface {
			local = h.Local
		}
		s.emit(Event{Kind: TouchMotion, Device: dev, TouchID: id, Surface: tp.surface, View: tp.view, Local: local, Time: time})
	}

	if id == c.touchID {
		c.touchX, c.touchY = p.X, p.Y
		if c.mode != ModePassthrough {
			c.x, c.y = p.X, p.Y
			s.updatePosition(time)
		} else if s.dragIcon != nil {
			s.dragIcon.updatePosition()
		}
	}
}

func (s *Seat) touchOnEnabledOutput(dev string, x, y float64) bool {
	if t := s.touchByName(dev); t != nil && t.output != nil {
		return t.output.Enabled()
	}
	return s.desktop.OutputAt(x, y) != nil
}

// TouchPosition returns the last position of the pointer-emulating touch
// point, if one is down.
func (s *Seat) TouchPosition() (geom.Point, bool) {
	if s.cursor.touchID < 0 {
		return geom.Point{}, false
	}
	return geom.Point{X: s.cursor.touchX, Y: s.cursor.touchY}, true
}

// clearTouchFocus drops the surface of touch points not owned by client.
func (s *Seat) clearTouchFocus(client desktop.ClientID) {
	for _, tp := range s.cursor.touchPoints {
		if tp.surface != nil && tp.surface.Client() != client {
			tp.surface, tp.view = nil, 0
		}
	}
}
