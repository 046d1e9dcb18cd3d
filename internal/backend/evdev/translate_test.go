package evdev

import (
	"testing"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/seat"
)

type collector struct {
	events []backend.Event
}

func (c *collector) sink(ev backend.Event) { c.events = append(c.events, ev) }

func (c *collector) kinds() []backend.EventKind {
	out := make([]backend.EventKind, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Kind
	}
	return out
}

func feedAll(tr *translator, c *collector, evs ...evdev.InputEvent) {
	for _, ev := range evs {
		tr.feed(ev, c.sink)
	}
}

func in(typ, code uint16, value int32) evdev.InputEvent {
	return evdev.InputEvent{Type: typ, Code: code, Value: value}
}

func syn() evdev.InputEvent { return in(evdev.EV_SYN, evdev.SYN_REPORT, 0) }

func sameKinds(a, b []backend.EventKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPointerMotionIsAccumulatedPerFrame(t *testing.T) {
	tr := newTranslator(seat.Device{Name: "mouse", Type: seat.DevicePointer}, nil)
	c := &collector{}
	feedAll(tr, c,
		in(evdev.EV_REL, evdev.REL_X, 3),
		in(evdev.EV_REL, evdev.REL_X, 2),
		in(evdev.EV_REL, evdev.REL_Y, -1),
		syn(),
	)
	want := []backend.EventKind{backend.PointerMotion, backend.PointerFrame}
	if !sameKinds(c.kinds(), want) {
		t.Fatalf("expected %v, got %v", want, c.kinds())
	}
	if ev := c.events[0]; ev.Dx != 5 || ev.Dy != -1 || ev.Device.Name != "mouse" {
		t.Fatalf("unexpected motion %+v", ev)
	}

	c.events = nil
	feedAll(tr, c, syn())
	if len(c.events) != 0 {
		t.Fatalf("expected an empty frame to emit nothing, got %v", c.kinds())
	}
}

func TestPointerButtonsAndWheel(t *testing.T) {
	tr := newTranslator(seat.Device{Name: "mouse", Type: seat.DevicePointer}, nil)
	c := &collector{}
	feedAll(tr, c,
		in(evdev.EV_KEY, evdev.BTN_LEFT, 1),
		in(evdev.EV_REL, evdev.REL_WHEEL, 1),
		syn(),
	)
	want := []backend.EventKind{backend.PointerButton, backend.PointerAxis, backend.PointerFrame}
	if !sameKinds(c.kinds(), want) {
		t.Fatalf("expected %v, got %v", want, c.kinds())
	}
	if b := c.events[0]; b.Button != seat.BtnLeft || !b.Pressed {
		t.Fatalf("unexpected button %+v", b)
	}
	if a := c.events[1]; a.Axis != seat.AxisVertical || a.Value != -wheelStep {
		t.Fatalf("expected wheel up to scroll by %d, got %+v", -wheelStep, a)
	}
}

func TestKeyboardTracksModifiersAndDropsRepeat(t *testing.T) {
	tr := newTranslator(seat.Device{Name: "kbd", Type: seat.DeviceKeyboard}, nil)
	c := &collector{}
	feedAll(tr, c,
		in(evdev.EV_KEY, evdev.KEY_LEFTALT, 1),
		in(evdev.EV_KEY, evdev.KEY_TAB, 1),
		in(evdev.EV_KEY, evdev.KEY_TAB, 2),
		in(evdev.EV_KEY, evdev.KEY_TAB, 0),
		in(evdev.EV_KEY, evdev.KEY_LEFTALT, 0),
	)
	want := []backend.EventKind{
		backend.KeyboardKey, backend.KeyboardModifiers,
		backend.KeyboardKey,
		backend.KeyboardKey,
		backend.KeyboardKey, backend.KeyboardModifiers,
	}
	if !sameKinds(c.kinds(), want) {
		t.Fatalf("expected %v, got %v", want, c.kinds())
	}
	if m := c.events[1].Mods; m != seat.ModAlt {
		t.Fatalf("expected alt held, got %v", m)
	}
	if m := c.events[5].Mods; m != 0 {
		t.Fatalf("expected no modifiers after release, got %v", m)
	}
}

func TestMultitouchSlots(t *testing.T) {
	ranges := map[uint16]axisRange{
		evdev.ABS_MT_POSITION_X: {min: 0, max: 1000},
		evdev.ABS_MT_POSITION_Y: {min: 0, max: 2000},
	}
	tr := newTranslator(seat.Device{Name: "ts", Type: seat.DeviceTouch}, ranges)
	c := &collector{}
	feedAll(tr, c,
		in(evdev.EV_ABS, evdev.ABS_MT_SLOT, 0),
		in(evdev.EV_ABS, evdev.ABS_MT_TRACKING_ID, 7),
		in(evdev.EV_ABS, evdev.ABS_MT_POSITION_X, 250),
		in(evdev.EV_ABS, evdev.ABS_MT_POSITION_Y, 500),
		syn(),
	)
	if len(c.events) != 1 || c.events[0].Kind != backend.TouchDown {
		t.Fatalf("expected one touch down, got %v", c.kinds())
	}
	if d := c.events[0]; d.TouchID != 7 || d.X != 0.25 || d.Y != 0.25 {
		t.Fatalf("unexpected touch down %+v", d)
	}

	c.events = nil
	feedAll(tr, c,
		in(evdev.EV_ABS, evdev.ABS_MT_POSITION_X, 500),
		syn(),
		in(evdev.EV_ABS, evdev.ABS_MT_TRACKING_ID, -1),
		syn(),
	)
	want := []backend.EventKind{backend.TouchMotion, backend.TouchUp}
	if !sameKinds(c.kinds(), want) {
		t.Fatalf("expected %v, got %v", want, c.kinds())
	}
	if m := c.events[0]; m.X != 0.5 || m.Y != 0.25 {
		t.Fatalf("unexpected motion %+v", m)
	}
	if len(tr.slots) != 0 {
		t.Fatalf("expected the lifted slot to be released")
	}
}

func TestTabletToolProximityAxesAndTip(t *testing.T) {
	ranges := map[uint16]axisRange{
		evdev.ABS_X:        {min: 0, max: 100},
		evdev.ABS_Y:        {min: 0, max: 100},
		evdev.ABS_PRESSURE: {min: 0, max: 4096},
	}
	tr := newTranslator(seat.Device{Name: "pen", Type: seat.DeviceTabletTool}, ranges)
	c := &collector{}
	feedAll(tr, c,
		in(evdev.EV_KEY, evdev.BTN_TOOL_PEN, 1),
		in(evdev.EV_ABS, evdev.ABS_X, 50),
		in(evdev.EV_ABS, evdev.ABS_Y, 10),
		syn(),
		in(evdev.EV_KEY, evdev.BTN_TOUCH, 1),
		in(evdev.EV_ABS, evdev.ABS_PRESSURE, 2048),
		syn(),
	)
	want := []backend.EventKind{
		backend.TabletToolProximity, backend.TabletToolAxis,
		backend.TabletToolTip, backend.TabletToolAxis,
	}
	if !sameKinds(c.kinds(), want) {
		t.Fatalf("expected %v, got %v", want, c.kinds())
	}
	if p := c.events[0]; !p.In || p.Relative || p.Tool != evdev.BTN_TOOL_PEN {
		t.Fatalf("unexpected proximity %+v", p)
	}
	if a := c.events[1].Axes; !a.HasX || a.X != 0.5 || a.Y != 0.1 {
		t.Fatalf("unexpected axes %+v", a)
	}
	if a := c.events[3].Axes; a.Pressure != 0.5 {
		t.Fatalf("expected half pressure, got %+v", a)
	}
}

func TestSwitchToggle(t *testing.T) {
	tr := newTranslator(seat.Device{Name: "lid", Type: seat.DeviceSwitch}, nil)
	c := &collector{}
	feedAll(tr, c, in(evdev.EV_SW, evdev.SW_LID, 1))
	if len(c.events) != 1 || c.events[0].Kind != backend.SwitchToggle || !c.events[0].Pressed {
		t.Fatalf("expected lid closed toggle, got %+v", c.events)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		props map[string]string
		want  seat.DeviceType
		ok    bool
	}{
		{map[string]string{"ID_INPUT": "1", "ID_INPUT_KEYBOARD": "1"}, seat.DeviceKeyboard, true},
		{map[string]string{"ID_INPUT": "1", "ID_INPUT_TOUCHPAD": "1"}, seat.DevicePointer, true},
		{map[string]string{"ID_INPUT": "1", "ID_INPUT_TOUCHSCREEN": "1"}, seat.DeviceTouch, true},
		{map[string]string{"ID_INPUT": "1", "ID_INPUT_TABLET": "1"}, seat.DeviceTabletTool, true},
		{map[string]string{"ID_INPUT": "1", "ID_INPUT_TABLET": "1", "ID_INPUT_TABLET_PAD": "1"}, seat.DeviceTabletPad, true},
		{map[string]string{"ID_INPUT": "1", "ID_INPUT_SWITCH": "1"}, seat.DeviceSwitch, true},
		{map[string]string{"ID_INPUT": "1"}, 0, false},
	}
	for _, tt := range tests {
		got, ok := classify(tt.props)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("%v: expected %v/%v, got %v/%v", tt.props, tt.want, tt.ok, got, ok)
		}
	}
}

func TestAxisRangeNormalizeClamps(t *testing.T) {
	r := axisRange{min: 100, max: 200}
	for _, tt := range []struct {
		in   int32
		want float64
	}{{100, 0}, {150, 0.5}, {200, 1}, {50, 0}, {300, 1}} {
		if got := r.normalize(tt.in); got != tt.want {
			t.Fatalf("normalize(%d): expected %v, got %v", tt.in, tt.want, got)
		}
	}
	if got := (axisRange{}).normalize(5); got != 0 {
		t.Fatalf("expected a degenerate range to map to 0, got %v", got)
	}
}
