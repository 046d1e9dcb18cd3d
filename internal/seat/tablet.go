package seat

import (
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

// ToolAxes carries one tablet tool axis update. X and Y are normalized to
// the tablet's mapped area; Dx and Dy are used by relative tools.
type ToolAxes struct {
	HasX, HasY bool
	X, Y       float64
	Dx, Dy     float64
	Pressure   float64
}

func (s *Seat) tool(t *Tablet, id uint64, relative bool) *Tool {
	tool, ok := t.tools[id]
	if !ok {
		tool = &Tool{ID: id, Relative: relative}
		t.tools[id] = tool
		s.logger.Debug("tablet tool attached", "tablet", t.Name, "tool", id)
	}
	return tool
}

func (s *Seat) tabletArea(t *Tablet) geom.Box {
	if t.output != nil {
		return t.output.Box()
	}
	return s.desktop.LayoutBox()
}

// moveTool positions the cursor for a tool and notifies the surface under
// it. It returns the surface hit, if any.
func (s *Seat) moveTool(t *Tablet, tool *Tool, axes ToolAxes, time uint32) *desktop.Surface {
	c := &s.cursor
	if tool.Relative {
		s.Warp(c.x+axes.Dx, c.y+axes.Dy)
	} else {
		area := s.tabletArea(t)
		x, y := c.x, c.y
		if axes.HasX {
			x = float64(area.X) + axes.X*float64(area.Width)
		}
		if axes.HasY {
			y = float64(area.Y) + axes.Y*float64(area.Height)
		}
		s.Warp(x, y)
	}

	h, ok := s.desktop.Resolve(geom.Point{X: c.x, Y: c.y})
	var surface *desktop.Surface
	if ok && h.Surface != nil && s.AllowInput(h.Surface.Client()) {
		surface = h.Surface
	}
	if surface != tool.surface {
		if tool.surface != nil && tool.inProximity {
			s.emit(Event{Kind: TabletProximityOut, Device: t.Name, Tool: tool.ID, Surface: tool.surface, Time: time})
		}
		tool.surface = surface
		if surface != nil && tool.inProximity {
			s.emit(Event{Kind: TabletProximityIn, Device: t.Name, Tool: tool.ID, Surface: surface, View: h.View, Local: h.Local, Time: time})
			for _, p := range t.pads {
				s.emit(Event{Kind: PadEnter, Device: p.Name, Surface: surface})
			}
		}
	}
	if surface != nil {
		s.emit(Event{Kind: TabletMotion, Device: t.Name, Tool: tool.ID, Surface: surface, View: h.View, Local: h.Local, Value: axes.Pressure, Time: time})
	}
	if s.dragIcon != nil {
		s.dragIcon.updatePosition()
	}
	return surface
}

// TabletToolProximity handles a tool entering or leaving the tablet. The
// tool is attached to the seat on its first proximity event.
func (s *Seat) TabletToolProximity(dev string, id uint64, relative, in bool, axes ToolAxes, time uint32) {
	t := s.Tablet(dev)
	if t == nil {
		return
	}
	s.notifyActivity()
	tool := s.tool(t, id, relative)
	if !in {
		if tool.surface != nil {
			s.emit(Event{Kind: TabletProximityOut, Device: dev, Tool: id, Surface: tool.surface, Time: time})
		}
		tool.inProximity = false
		tool.surface = nil
		return
	}
	tool.inProximity = true
	tool.surface = nil
	s.moveTool(t, tool, axes, time)
}

// TabletToolAxis handles tool motion and pressure.
func (s *Seat) TabletToolAxis(dev string, id uint64, axes ToolAxes, time uint32) {
	t := s.Tablet(dev)
	if t == nil {
		return
	}
	s.notifyActivity()
	tool := s.tool(t, id, false)
	if !tool.inProximity {
		tool.inProximity = true
	}
	s.moveTool(t, tool, axes, time)
}

// TabletToolTip handles the tool touching the tablet. A tip down focuses
// the view under the tool.
func (s *Seat) TabletToolTip(dev string, id uint64, down bool, time uint32) {
	t := s.Tablet(dev)
	if t == nil {
		return
	}
	s.notifyActivity()
	tool := s.tool(t, id, false)
	if down {
		if h, ok := s.desktop.Resolve(s.Position()); ok && h.View != 0 {
			_ = s.SetFocus(h.View)
		}
	}
	if tool.surface != nil {
		s.emit(Event{Kind: TabletTip, Device: dev, Tool: id, Surface: tool.surface, Pressed: down, Time: time})
	}
}

// TabletToolButton forwards a tool button to the surface under the tool.
func (s *Seat) TabletToolButton(dev string, id uint64, button uint32, pressed bool, time uint32) {
	t := s.Tablet(dev)
	if t == nil {
		return
	}
	s.notifyActivity()
	tool := s.tool(t, id, false)
	if tool.surface != nil {
		s.emit(Event{Kind: TabletButton, Device: dev, Tool: id, Surface: tool.surface, Button: button, Pressed: pressed, Time: time})
	}
}

// padSurface is the surface a pad's events go to: the keyboard focus.
func (s *Seat) padSurface(p *Pad) *desktop.Surface {
	if p.tablet == nil {
		return nil
	}
	if v := s.desktop.View(s.Focus()); v != nil {
		return v.Surface()
	}
	return nil
}

// PadButton forwards a pad button.
func (s *Seat) PadButton(dev string, button uint32, pressed bool, time uint32) {
	p := s.Pad(dev)
	if p == nil {
		return
	}
	s.notifyActivity()
	s.emit(Event{Kind: PadButton, Device: dev, Surface: s.padSurface(p), Button: button, Pressed: pressed, Time: time})
}

// PadRing forwards a ring position.
func (s *Seat) PadRing(dev string, ring uint32, position float64, time uint32) {
	p := s.Pad(dev)
	if p == nil {
		return
	}
	s.notifyActivity()
	s.emit(Event{Kind: PadRing, Device: dev, Surface: s.padSurface(p), Button: ring, Value: position, Time: time})
}

// PadStrip forwards a strip position.
func (s *Seat) PadStrip(dev string, strip uint32, position float64, time uint32) {
	p := s.Pad(dev)
	if p == nil {
		return
	}
	s.notifyActivity()
	s.emit(Event{Kind: PadStrip, Device: dev, Surface: s.padSurface(p), Button: strip, Value: position, Time: time})
}

// enterPads re-enters every bound pad into surface.
func (s *Seat) enterPads(surface *desktop.Surface) {
	for _, p := range s.pads {
		if p.tablet != nil {
			s.emit(Event{Kind: PadEnter, Device: p.Name, Surface: surface})
		}
	}
}

// SwitchToggle forwards a lid or tablet-mode switch change.
func (s *Seat) SwitchToggle(dev string, on bool, time uint32) {
	sw := s.switchByName(dev)
	if sw == nil {
		return
	}
	s.notifyActivity()
	sw.on = on
	s.emit(Event{Kind: SwitchToggle, Device: dev, Pressed: on, Time: time})
}
