package seat

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/event"
	"github.com/1broseidon/palmwm/internal/geom"
)

// DragGrab is the kind of grab driving a drag.
type DragGrab int

const (
	DragGrabKeyboard DragGrab = iota
	DragGrabPointer
	DragGrabTouch
)

// DragRequest is a client's request to start a drag.
type DragRequest struct {
	Origin *desktop.Surface
	Icon   *desktop.Surface
	Serial uint32
}

// DragIcon follows the pointer or touch point driving a drag.
type DragIcon struct {
	seat    *Seat
	surface *desktop.Surface
	grab    DragGrab
	touchID int32
	x, y    float64
	token   event.Token
}

func (d *DragIcon) Surface() *desktop.Surface { return d.surface }
func (d *DragIcon) Position() geom.Point      { return geom.Point{X: d.x, Y: d.y} }
func (d *DragIcon) Grab() DragGrab            { return d.grab }

// StartDrag validates the request serial against the pointer grab, then
// the touch grabs. An unverifiable request is rejected with no state
// change.
func (s *Seat) StartDrag(req DragRequest) error {
	grab := DragGrabKeyboard
	var touchID int32 = -1
	if s.validatePointerSerial(req.Origin, req.Serial) {
		grab = DragGrabPointer
	} else if tp, ok := s.validateTouchSerial(req.Origin, req.Serial); ok {
		grab = DragGrabTouch
		touchID = tp.id
	} else {
		s.logger.Debug("ignoring start_drag request: could not validate pointer or touch serial", "serial", req.Serial)
		return fmt.Errorf("start drag: %w", ErrInvalidSerial)
	}
	if req.Icon != nil && s.dragIcon != nil {
		return fmt.Errorf("start drag: %w", ErrDragIconBusy)
	}
	if req.Icon != nil {
		s.newDragIcon(req.Icon, grab, touchID)
	}
	s.emit(Event{Kind: DragStarted, Surface: req.Origin, TouchID: touchID, Serial: req.Serial})
	return nil
}

func (s *Seat) newDragIcon(surface *desktop.Surface, grab DragGrab, touchID int32) {
	icon := &DragIcon{seat: s, surface: surface, grab: grab, touchID: touchID}
	icon.token = surface.Events().Subscribe(func(ev desktop.SurfaceEvent) {
		if ev.Kind == desktop.SurfaceDestroy {
			icon.destroy()
			return
		}
		icon.updatePosition()
	})
	s.dragIcon = icon
	icon.updatePosition()
}

// updatePosition moves the icon to the pointer or the drag's touch point
// and damages its old and new bounds.
func (d *DragIcon) updatePosition() {
	s := d.seat
	d.damage()
	switch d.grab {
	case DragGrabKeyboard:
		panic(fmt.Sprintf("seat %s: keyboard-driven drag has no icon position", s.name))
	case DragGrabPointer:
		d.x, d.y = s.cursor.x, s.cursor.y
	case DragGrabTouch:
		tp, ok := s.cursor.touchPoints[d.touchID]
		if !ok {
			return
		}
		d.x, d.y = tp.x, tp.y
	}
	d.damage()
}

func (d *DragIcon) damage() {
	w, h := d.surface.Size()
	d.seat.desktop.DamageBox(geom.Box{X: int(d.x), Y: int(d.y), Width: w, Height: h})
}

// destroy detaches from the icon surface and clears the seat's slot.
func (d *DragIcon) destroy() {
	s := d.seat
	d.damage()
	d.surface.Events().Unsubscribe(d.token)
	if s.dragIcon == d {
		s.dragIcon = nil
	}
}

func (s *Seat) endDrag() {
	if s.dragIcon == nil {
		return
	}
	s.dragIcon.destroy()
	s.emit(Event{Kind: DragEnded})
}
