package seat

import (
	"errors"
	"testing"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

func pointAt(s *Seat, x, y float64) {
	s.Warp(x, y)
	s.PointerMotion("mouse", 0, 0, 1)
}

func TestPointerFocusFollowsMotion(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	b := mapView(t, d, 2, geom.Box{X: 400, Width: 300, Height: 300}, 0)
	r := record(s)

	pointAt(s, 100, 120)
	if s.Cursor().Surface != a.Surface() {
		t.Fatalf("pointer focus not on a")
	}
	ev, ok := r.last(PointerEnter)
	if !ok || ev.Local != (geom.Point{X: 100, Y: 120}) {
		t.Fatalf("enter = %+v, %v", ev, ok)
	}

	s.PointerMotion("mouse", 350, 0, 2)
	if s.Cursor().Surface != b.Surface() {
		t.Fatalf("pointer focus not on b")
	}
	if r.count(PointerLeave) != 1 {
		t.Fatalf("leave count = %d, want 1", r.count(PointerLeave))
	}

	s.PointerMotion("mouse", 0, 500, 3)
	if s.Cursor().Surface != nil || s.Cursor().Image != DefaultCursor {
		t.Fatalf("empty space: surface %v image %q", s.Cursor().Surface, s.Cursor().Image)
	}
}

func TestClickFocusesView(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	mapView(t, d, 2, geom.Box{X: 400, Width: 300, Height: 300}, 0)

	pointAt(s, 10, 10)
	s.PointerButton("mouse", BtnLeft, true, 5)
	s.PointerButton("mouse", BtnLeft, false, 6)
	if s.Focus() != a.ID() {
		t.Fatalf("focus = %v, want %v", s.Focus(), a.ID())
	}
}

func TestBeginMoveRestoresMaximizedView(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{X: 100, Y: 100, Width: 200, Height: 100}, 0)
	v.SetMaximized(true)
	if v.Box() != (geom.Box{Width: 720, Height: 1440}) {
		t.Fatalf("maximized box = %+v", v.Box())
	}

	s.Warp(360, 720)
	if err := s.BeginMove(v.ID()); err != nil {
		t.Fatalf("BeginMove: %v", err)
	}
	if s.Cursor().Mode != ModeMove || s.Cursor().Image != "grabbing" {
		t.Fatalf("cursor = %+v", s.Cursor())
	}
	if v.Maximized() {
		t.Fatalf("view still maximized during move")
	}
	if want := (geom.Box{X: 260, Y: 670, Width: 200, Height: 100}); v.Box() != want {
		t.Fatalf("restored box = %+v, want %+v", v.Box(), want)
	}

	s.PointerMotion("mouse", 50, 30, 2)
	if want := (geom.Box{X: 310, Y: 700, Width: 200, Height: 100}); s.Cursor().Pending != want {
		t.Fatalf("pending = %+v, want %+v", s.Cursor().Pending, want)
	}
	s.EndGrab()
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("mode after EndGrab = %v", s.Cursor().Mode)
	}
	if v.Box().X != 310 || v.Box().Y != 700 {
		t.Fatalf("committed box = %+v", v.Box())
	}
}

func TestBeginMoveRefusedUnderAutoMaximize(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{AutoMaximize: true}, Config{})
	v := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	if err := s.BeginMove(v.ID()); !errors.Is(err, ErrGrabRefused) {
		t.Fatalf("BeginMove = %v, want ErrGrabRefused", err)
	}
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("mode = %v", s.Cursor().Mode)
	}
}

func TestResizeFromTopLeft(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{X: 100, Y: 100, Width: 200, Height: 200}, 0)

	s.Warp(100, 100)
	if err := s.BeginResize(v.ID(), geom.EdgeTop|geom.EdgeLeft); err != nil {
		t.Fatalf("BeginResize: %v", err)
	}
	if s.Cursor().Image != "nw-resize" {
		t.Fatalf("image = %q", s.Cursor().Image)
	}
	s.PointerMotion("mouse", -20, -40, 2)
	s.EndGrab()
	if want := (geom.Box{X: 80, Y: 60, Width: 220, Height: 240}); v.Box() != want {
		t.Fatalf("box = %+v, want %+v", v.Box(), want)
	}
}

func TestMetaDragMovesView(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	v := mapView(t, d, 1, geom.Box{X: 100, Y: 100, Width: 200, Height: 200}, 0)

	pointAt(s, 150, 150)
	s.Modifiers("kbd", ModLogo)
	s.PointerButton("mouse", BtnLeft, true, 2)
	if s.Cursor().Mode != ModeMove {
		t.Fatalf("meta+left did not start a move")
	}
	s.PointerMotion("mouse", 10, 20, 3)
	s.PointerButton("mouse", BtnLeft, false, 4)
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("release did not end the move")
	}
	if v.Box().X != 110 || v.Box().Y != 120 {
		t.Fatalf("box = %+v", v.Box())
	}
}

func TestUnmapCancelsGrab(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	v := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	if err := s.BeginMove(v.ID()); err != nil {
		t.Fatalf("BeginMove: %v", err)
	}
	if err := d.UnmapView(v.ID()); err != nil {
		t.Fatalf("UnmapView: %v", err)
	}
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("grab survived unmap")
	}
}

func TestRequestMoveNeedsSerial(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	r := record(s)

	if err := s.RequestMove(v.ID(), 42); !errors.Is(err, ErrInvalidSerial) {
		t.Fatalf("RequestMove without press = %v", err)
	}
	pointAt(s, 50, 50)
	s.PointerButton("mouse", BtnLeft, true, 2)
	ev, _ := r.last(PointerButton)
	if err := s.RequestMove(v.ID(), ev.Serial+1); !errors.Is(err, ErrInvalidSerial) {
		t.Fatalf("RequestMove with stale serial = %v", err)
	}
	if err := s.RequestMove(v.ID(), ev.Serial); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	if s.Cursor().Mode != ModeMove {
		t.Fatalf("mode = %v", s.Cursor().Mode)
	}
}

func TestTouchDrivenMove(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "ts", Type: DeviceTouch})
	v := mapView(t, d, 1, geom.Box{Width: 400, Height: 400}, 0)
	r := record(s)

	s.TouchDown("ts", 0, 0.25, 0.125, 1)
	down, ok := r.last(TouchDown)
	if !ok || down.Surface != v.Surface() || down.Serial == 0 {
		t.Fatalf("touch down = %+v, %v", down, ok)
	}
	if s.Focus() != v.ID() {
		t.Fatalf("first touch point did not focus the view")
	}
	if err := s.RequestMove(v.ID(), down.Serial); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}

	s.TouchMotion("ts", 0, 0.5, 0.25, 2)
	if want := (geom.Box{X: 180, Y: 180, Width: 400, Height: 400}); s.Cursor().Pending != want {
		t.Fatalf("pending = %+v, want %+v", s.Cursor().Pending, want)
	}
	s.TouchUp("ts", 0, 3)
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("touch up did not end the grab")
	}
	if v.Box().X != 180 || v.Box().Y != 180 {
		t.Fatalf("box = %+v", v.Box())
	}
	if _, ok := s.TouchPosition(); ok {
		t.Fatalf("touch point survived touch up")
	}
}

func TestTouchOnDisabledOutput(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "ts", Type: DeviceTouch})
	v := mapView(t, d, 1, geom.Box{Width: 720, Height: 1440}, 0)
	r := record(s)

	s.TouchDown("ts", 1, 0.5, 0.5, 1)
	if err := d.ConfigureOutput(desktop.OutputConfig{Name: "DSI-1", Box: geom.Box{Width: 720, Height: 1440}, BuiltIn: true}); err != nil {
		t.Fatalf("ConfigureOutput: %v", err)
	}

	s.TouchDown("ts", 2, 0.5, 0.5, 2)
	if r.count(TouchDown) != 1 {
		t.Fatalf("touch down on disabled output was delivered")
	}
	s.TouchMotion("ts", 1, 0.25, 0.25, 3)
	s.TouchUp("ts", 1, 4)
	if r.count(TouchMotion) != 1 || r.count(TouchUp) != 1 {
		t.Fatalf("motion %d up %d, want best-effort delivery of both", r.count(TouchMotion), r.count(TouchUp))
	}
	if ev, _ := r.last(TouchUp); ev.Surface != v.Surface() {
		t.Fatalf("touch up went to %v", ev.Surface)
	}
}

func TestConstraintActivatesOnlyUnderPointer(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	b := mapView(t, d, 2, geom.Box{X: 400, Width: 300, Height: 300}, 0)
	pointAt(s, 100, 100)

	inert := s.NewConstraint(b.Surface(), ConstraintConfine, nil)
	if inert.Active() || s.ActiveConstraint() != nil {
		t.Fatalf("constraint on a surface away from the pointer activated")
	}
	c := s.NewConstraint(a.Surface(), ConstraintConfine, nil)
	if !c.Active() || s.ActiveConstraint() != c {
		t.Fatalf("constraint under the pointer did not activate")
	}

	s.PointerMotion("mouse", 400, 0, 2)
	if p := s.Position(); p.X != 100 || p.Y != 100 {
		t.Fatalf("confined pointer escaped to %+v", p)
	}
	s.PointerMotion("mouse", 50, 0, 3)
	if p := s.Position(); p.X != 150 {
		t.Fatalf("confined pointer did not move inside the region: %+v", p)
	}
}

func TestDestroyLockWarpsToHint(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{X: 100, Y: 200, Width: 300, Height: 300}, 0)
	pointAt(s, 150, 250)
	r := record(s)

	c := s.NewConstraint(v.Surface(), ConstraintLock, nil)
	s.PointerMotion("mouse", 30, 30, 2)
	if p := s.Position(); p.X != 150 || p.Y != 250 {
		t.Fatalf("locked pointer moved to %+v", p)
	}
	if r.count(PointerMotion) != 1 {
		t.Fatalf("relative motion not reported while locked")
	}

	c.SetCursorHint(10, 20)
	s.DestroyConstraint(c)
	if s.ActiveConstraint() != nil {
		t.Fatalf("constraint still active")
	}
	if p := s.Position(); p.X != 110 || p.Y != 220 {
		t.Fatalf("pointer at %+v, want hint (110,220)", p)
	}
	if r.count(ConstraintDeactivated) != 1 {
		t.Fatalf("deactivation not reported")
	}
}

func TestStartDragValidatesSerial(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	icon := d.NewSurface(1, 32, 32)
	r := record(s)

	if err := s.StartDrag(DragRequest{Origin: v.Surface(), Icon: icon, Serial: 7}); !errors.Is(err, ErrInvalidSerial) {
		t.Fatalf("StartDrag without grab = %v", err)
	}
	if s.DragIcon() != nil {
		t.Fatalf("rejected drag left an icon")
	}

	pointAt(s, 40, 40)
	s.PointerButton("mouse", BtnLeft, true, 2)
	press, _ := r.last(PointerButton)
	if err := s.StartDrag(DragRequest{Origin: v.Surface(), Icon: icon, Serial: press.Serial}); err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	di := s.DragIcon()
	if di == nil || di.Grab() != DragGrabPointer {
		t.Fatalf("drag icon = %+v", di)
	}
	if err := s.StartDrag(DragRequest{Origin: v.Surface(), Icon: d.NewSurface(1, 8, 8), Serial: press.Serial}); !errors.Is(err, ErrDragIconBusy) {
		t.Fatalf("second drag = %v, want ErrDragIconBusy", err)
	}

	s.PointerMotion("mouse", 20, 10, 3)
	if p := di.Position(); p.X != 60 || p.Y != 50 {
		t.Fatalf("icon at %+v, want (60,50)", p)
	}
	s.PointerButton("mouse", BtnLeft, false, 4)
	if s.DragIcon() != nil || r.count(DragEnded) != 1 {
		t.Fatalf("release did not end the drag")
	}
}

func TestDragIconDestroyedWithSurface(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "ts", Type: DeviceTouch})
	v := mapView(t, d, 1, geom.Box{Width: 720, Height: 1440}, 0)
	icon := d.NewSurface(1, 16, 16)
	r := record(s)

	s.TouchDown("ts", 3, 0.5, 0.5, 1)
	down, _ := r.last(TouchDown)
	if err := s.StartDrag(DragRequest{Origin: v.Surface(), Icon: icon, Serial: down.Serial}); err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	if di := s.DragIcon(); di == nil || di.Grab() != DragGrabTouch {
		t.Fatalf("touch drag icon = %+v", di)
	}
	icon.Destroy()
	if s.DragIcon() != nil {
		t.Fatalf("icon slot not cleared on surface destroy")
	}
}

func TestGestureFollowsPointerFocus(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	pointAt(s, 10, 10)
	r := record(s)

	s.Gesture(GestureSwipeBegin, "mouse", 3, 0, 0, 1, false, 1)
	s.Gesture(KeyboardKey, "mouse", 3, 0, 0, 1, false, 2)
	if r.count(GestureSwipeBegin) != 1 || len(r.events) != 1 {
		t.Fatalf("events = %+v", r.events)
	}
	if r.events[0].Surface != v.Surface() || r.events[0].Fingers != 3 {
		t.Fatalf("gesture = %+v", r.events[0])
	}
}

func TestUnrelatedTouchUpKeepsPointerGrab(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	addDevice(t, s, Device{Name: "ts", Type: DeviceTouch})
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	r := record(s)

	pointAt(s, 10, 10)
	s.PointerButton("mouse", BtnLeft, true, 2)
	press, _ := r.last(PointerButton)
	if err := s.RequestMove(v.ID(), press.Serial); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}

	// Lands on empty space, so it never drives the pointer.
	s.TouchDown("ts", 3, 0.9, 0.9, 3)
	s.TouchUp("ts", 3, 4)
	if s.Cursor().Mode != ModeMove {
		t.Fatalf("touch up ended a pointer grab, mode = %v", s.Cursor().Mode)
	}

	s.PointerMotion("mouse", 20, 0, 5)
	s.PointerButton("mouse", BtnLeft, false, 6)
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("button release did not end the grab")
	}
	if v.Box().X != 20 {
		t.Fatalf("box = %+v, want moved by 20", v.Box())
	}
}
