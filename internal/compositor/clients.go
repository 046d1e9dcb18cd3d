package compositor

import (
	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
	"github.com/1broseidon/palmwm/internal/seat"
)

// clientTable maps backend handles to the objects they created.
type clientTable struct {
	views       map[uint64]desktop.ViewID
	layers      map[uint64]*desktop.LayerSurface
	constraints map[uint64]boundConstraint
	icons       map[uint64]*desktop.Surface
}

type boundConstraint struct {
	seat   *seat.Seat
	target uint64
	c      *seat.Constraint
}

func newClientTable() clientTable {
	return clientTable{
		views:       make(map[uint64]desktop.ViewID),
		layers:      make(map[uint64]*desktop.LayerSurface),
		constraints: make(map[uint64]boundConstraint),
		icons:       make(map[uint64]*desktop.Surface),
	}
}

// handleClientEvent applies a client lifecycle event. It reports false for
// events of other kinds.
func (c *Compositor) handleClientEvent(ev backend.Event) bool {
	switch ev.Kind {
	case backend.ViewCreated:
		c.createView(ev)
	case backend.ViewMapped:
		if id, ok := c.viewFor(ev); ok {
			_ = c.desktop.MapView(id)
		}
	case backend.ViewUnmapped:
		if id, ok := c.viewFor(ev); ok {
			_ = c.desktop.UnmapView(id)
		}
	case backend.ViewConfigured:
		c.configureView(ev)
	case backend.ViewDestroyed:
		c.destroyView(ev)
	case backend.LayerCreated:
		c.createLayer(ev)
	case backend.LayerDestroyed:
		c.destroyLayer(ev.Handle)
	case backend.ConstraintCreated:
		c.createConstraint(ev)
	case backend.ConstraintDestroyed:
		c.destroyConstraint(ev.Handle)
	case backend.DragRequested:
		c.startDrag(ev)
	case backend.DragIconDestroyed:
		if icon, ok := c.clients.icons[ev.Handle]; ok {
			delete(c.clients.icons, ev.Handle)
			icon.Destroy()
		}
	case backend.ExclusiveClient:
		c.input.SetExclusiveClient(ev.Client)
	default:
		return false
	}
	return true
}

func (c *Compositor) viewFor(ev backend.Event) (desktop.ViewID, bool) {
	id, ok := c.clients.views[ev.Handle]
	if !ok {
		c.logger.Debug("event for unknown view handle", "kind", ev.Kind.String(), "handle", ev.Handle)
	}
	return id, ok
}

// surfaceFor returns the surface of the view or layer behind handle.
func (c *Compositor) surfaceFor(handle uint64) *desktop.Surface {
	if id, ok := c.clients.views[handle]; ok {
		if v := c.desktop.View(id); v != nil {
			return v.Surface()
		}
	}
	if ls, ok := c.clients.layers[handle]; ok {
		return ls.Surface()
	}
	return nil
}

// seatFor resolves a seat name; empty means the last active seat.
func (c *Compositor) seatFor(name string) *seat.Seat {
	if name == "" {
		return c.input.LastActiveSeat()
	}
	return c.input.Seat(name)
}

func (c *Compositor) createView(ev backend.Event) {
	if _, ok := c.clients.views[ev.Handle]; ok {
		c.logger.Warn("duplicate view handle", "handle", ev.Handle)
		return
	}
	var parent desktop.ViewID
	if ev.Parent != 0 {
		parent = c.clients.views[ev.Parent]
	}
	surface := c.desktop.NewSurface(ev.Client, ev.Box.Width, ev.Box.Height)
	if ev.Region != nil {
		surface.SetInputRegion(ev.Region)
	}
	v, err := c.desktop.NewView(desktop.ViewOptions{
		Kind:             ev.ViewKind,
		Surface:          surface,
		Box:              ev.Box,
		Geometry:         geom.Box{Width: ev.Box.Width, Height: ev.Box.Height},
		Parent:           parent,
		OverrideRedirect: ev.OverrideRedirect,
		Title:            ev.Title,
		AppID:            ev.AppID,
	})
	if err != nil {
		c.logger.Warn("dropping new view", "handle", ev.Handle, "app_id", ev.AppID, "error", err)
		return
	}
	c.clients.views[ev.Handle] = v.ID()
}

func (c *Compositor) configureView(ev backend.Event) {
	id, ok := c.viewFor(ev)
	if !ok {
		return
	}
	v := c.desktop.View(id)
	if v == nil {
		return
	}
	if ev.Title != "" {
		v.SetTitle(ev.Title)
	}
	if ev.Box.Width > 0 && ev.Box.Height > 0 {
		v.Surface().Commit(ev.Box.Width, ev.Box.Height)
		v.MoveResize(ev.Box.X, ev.Box.Y, ev.Box.Width, ev.Box.Height)
	}
}

func (c *Compositor) destroyView(ev backend.Event) {
	id, ok := c.viewFor(ev)
	if !ok {
		return
	}
	c.dropConstraintsOn(ev.Handle)
	delete(c.clients.views, ev.Handle)
	v := c.desktop.View(id)
	if v == nil {
		return
	}
	surface := v.Surface()
	if err := c.desktop.DestroyView(id); err != nil {
		c.logger.Warn("cannot destroy view", "view", id, "error", err)
	}
	if surface != nil {
		surface.Destroy()
	}
}

func (c *Compositor) createLayer(ev backend.Event) {
	if _, ok := c.clients.layers[ev.Handle]; ok {
		c.logger.Warn("duplicate layer handle", "handle", ev.Handle)
		return
	}
	surface := c.desktop.NewSurface(ev.Client, ev.Box.Width, ev.Box.Height)
	ls, err := c.desktop.AddLayerSurface(ev.Output.Name, desktop.LayerOptions{
		Surface:             surface,
		Layer:               ev.Layer,
		Geometry:            ev.Box,
		ExclusiveZone:       ev.ExclusiveZone,
		Anchor:              ev.Anchor,
		KeyboardInteractive: ev.Interactive,
		Namespace:           ev.Namespace,
	})
	if err != nil {
		c.logger.Warn("dropping layer surface", "handle", ev.Handle, "output", ev.Output.Name, "error", err)
		return
	}
	c.clients.layers[ev.Handle] = ls
}

func (c *Compositor) destroyLayer(handle uint64) {
	ls, ok := c.clients.layers[handle]
	if !ok {
		return
	}
	c.dropConstraintsOn(handle)
	delete(c.clients.layers, handle)
	c.desktop.RemoveLayerSurface(ls)
	if s := ls.Surface(); s != nil {
		s.Destroy()
	}
}

func (c *Compositor) createConstraint(ev backend.Event) {
	s := c.seatFor(ev.Seat)
	surface := c.surfaceFor(ev.Target)
	if s == nil || surface == nil {
		c.logger.Debug("ignoring pointer constraint", "seat", ev.Seat, "target", ev.Target)
		return
	}
	if old, ok := c.clients.constraints[ev.Handle]; ok {
		old.seat.DestroyConstraint(old.c)
	}
	kind := seat.ConstraintConfine
	if ev.Lock {
		kind = seat.ConstraintLock
	}
	c.clients.constraints[ev.Handle] = boundConstraint{
		seat:   s,
		target: ev.Target,
		c:      s.NewConstraint(surface, kind, ev.Region),
	}
}

func (c *Compositor) destroyConstraint(handle uint64) {
	bc, ok := c.clients.constraints[handle]
	if !ok {
		return
	}
	delete(c.clients.constraints, handle)
	bc.seat.DestroyConstraint(bc.c)
}

func (c *Compositor) dropConstraintsOn(target uint64) {
	for handle, bc := range c.clients.constraints {
		if bc.target == target {
			c.destroyConstraint(handle)
		}
	}
}

func (c *Compositor) startDrag(ev backend.Event) {
	s := c.seatFor(ev.Seat)
	origin := c.surfaceFor(ev.Target)
	if s == nil || origin == nil {
		c.logger.Debug("ignoring drag request", "seat", ev.Seat, "target", ev.Target)
		return
	}
	var icon *desktop.Surface
	if ev.Handle != 0 && ev.Box.Width > 0 && ev.Box.Height > 0 {
		icon = c.desktop.NewSurface(origin.Client(), ev.Box.Width, ev.Box.Height)
	}
	if err := s.StartDrag(seat.DragRequest{Origin: origin, Icon: icon, Serial: ev.Serial}); err != nil {
		c.logger.Debug("drag refused", "seat", s.Name(), "serial", ev.Serial, "error", err)
		if icon != nil {
			icon.Destroy()
		}
		return
	}
	if icon != nil {
		c.clients.icons[ev.Handle] = icon
	}
}
