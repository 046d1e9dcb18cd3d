package evdev

import (
	"sort"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/seat"
)

// wheelStep is the scroll distance of one wheel detent.
const wheelStep = 15

// absCodes are the axes whose ranges are read when a device is opened.
var absCodes = []int{
	evdev.ABS_X,
	evdev.ABS_Y,
	evdev.ABS_PRESSURE,
	evdev.ABS_WHEEL,
	evdev.ABS_RX,
	evdev.ABS_MT_POSITION_X,
	evdev.ABS_MT_POSITION_Y,
}

type touchSlot struct {
	id     int32
	x, y   float64
	down   bool
	moved  bool
	lifted bool
}

// translator turns the raw event stream of one device node into backend
// events. Events are buffered until SYN_REPORT so that a frame is emitted
// as a unit.
type translator struct {
	dev    seat.Device
	ranges map[uint16]axisRange
	mods   seat.Modifiers

	dx, dy     float64
	x, y       float64
	absPending bool
	pointerOut bool

	slot  int32
	slots map[int32]*touchSlot

	tool     uint64
	toolAxes seat.ToolAxes
	axesDirt bool
}

func newTranslator(dev seat.Device, ranges map[uint16]axisRange) *translator {
	if ranges == nil {
		ranges = map[uint16]axisRange{}
	}
	return &translator{
		dev:    dev,
		ranges: ranges,
		slots:  make(map[int32]*touchSlot),
	}
}

func (t *translator) event(kind backend.EventKind, time uint32) backend.Event {
	return backend.Event{Kind: kind, Time: time, Device: seat.Device{Name: t.dev.Name}}
}

func (t *translator) norm(code uint16, v int32) float64 {
	return t.ranges[code].normalize(v)
}

func eventTime(ev evdev.InputEvent) uint32 {
	return uint32(int64(ev.Time.Sec)*1000 + int64(ev.Time.Usec)/1000)
}

// feed consumes one raw event.
func (t *translator) feed(ev evdev.InputEvent, emit backend.Sink) {
	time := eventTime(ev)
	switch ev.Type {
	case evdev.EV_KEY:
		t.key(ev, time, emit)
	case evdev.EV_REL:
		t.rel(ev, time, emit)
	case evdev.EV_ABS:
		t.abs(ev, time, emit)
	case evdev.EV_SW:
		if ev.Code == evdev.SW_LID || ev.Code == evdev.SW_TABLET_MODE {
			out := t.event(backend.SwitchToggle, time)
			out.Pressed = ev.Value != 0
			emit(out)
		}
	case evdev.EV_SYN:
		if ev.Code == evdev.SYN_REPORT {
			t.frame(time, emit)
		}
	}
}

func (t *translator) key(ev evdev.InputEvent, time uint32, emit backend.Sink) {
	code := uint32(ev.Code)
	pressed := ev.Value != 0
	switch t.dev.Type {
	case seat.DeviceKeyboard:
		if ev.Value == 2 {
			// autorepeat
			return
		}
		out := t.event(backend.KeyboardKey, time)
		out.Key, out.Pressed = code, pressed
		emit(out)
		if mod, ok := backend.ModifierKeys[code]; ok {
			if pressed {
				t.mods |= mod
			} else {
				t.mods &^= mod
			}
			out := t.event(backend.KeyboardModifiers, time)
			out.Mods = t.mods
			emit(out)
		}
	case seat.DevicePointer:
		if code >= evdev.BTN_LEFT && code <= evdev.BTN_TASK {
			out := t.event(backend.PointerButton, time)
			out.Button, out.Pressed = code, pressed
			emit(out)
			t.pointerOut = true
		}
	case seat.DeviceTabletTool:
		switch code {
		case evdev.BTN_TOOL_PEN, evdev.BTN_TOOL_RUBBER, evdev.BTN_TOOL_BRUSH,
			evdev.BTN_TOOL_PENCIL, evdev.BTN_TOOL_AIRBRUSH, evdev.BTN_TOOL_MOUSE, evdev.BTN_TOOL_LENS:
			t.tool = uint64(code)
			out := t.event(backend.TabletToolProximity, time)
			out.Tool = t.tool
			out.In = pressed
			out.Relative = code == evdev.BTN_TOOL_MOUSE || code == evdev.BTN_TOOL_LENS
			out.Axes = t.toolAxes
			emit(out)
		case evdev.BTN_TOUCH:
			out := t.event(backend.TabletToolTip, time)
			out.Tool, out.Pressed = t.tool, pressed
			emit(out)
		case evdev.BTN_STYLUS, evdev.BTN_STYLUS2:
			out := t.event(backend.TabletToolButton, time)
			out.Tool, out.Button, out.Pressed = t.tool, code, pressed
			emit(out)
		}
	case seat.DeviceTabletPad:
		out := t.event(backend.PadButton, time)
		out.Button, out.Pressed = code, pressed
		emit(out)
	}
}

func (t *translator) rel(ev evdev.InputEvent, time uint32, emit backend.Sink) {
	if t.dev.Type != seat.DevicePointer {
		return
	}
	switch ev.Code {
	case evdev.REL_X:
		t.dx += float64(ev.Value)
	case evdev.REL_Y:
		t.dy += float64(ev.Value)
	case evdev.REL_WHEEL:
		out := t.event(backend.PointerAxis, time)
		out.Axis, out.Value = seat.AxisVertical, -float64(ev.Value)*wheelStep
		emit(out)
		t.pointerOut = true
	case evdev.REL_HWHEEL:
		out := t.event(backend.PointerAxis, time)
		out.Axis, out.Value = seat.AxisHorizontal, float64(ev.Value)*wheelStep
		emit(out)
		t.pointerOut = true
	}
}

func (t *translator) abs(ev evdev.InputEvent, time uint32, emit backend.Sink) {
	switch t.dev.Type {
	case seat.DevicePointer:
		switch ev.Code {
		case evdev.ABS_X:
			t.x, t.absPending = t.norm(ev.Code, ev.Value), true
		case evdev.ABS_Y:
			t.y, t.absPending = t.norm(ev.Code, ev.Value), true
		}
	case seat.DeviceTouch:
		t.touchAbs(ev)
	case seat.DeviceTabletTool:
		switch ev.Code {
		case evdev.ABS_X:
			t.toolAxes.HasX, t.toolAxes.X = true, t.norm(ev.Code, ev.Value)
			t.axesDirt = true
		case evdev.ABS_Y:
			t.toolAxes.HasY, t.toolAxes.Y = true, t.norm(ev.Code, ev.Value)
			t.axesDirt = true
		case evdev.ABS_PRESSURE:
			t.toolAxes.Pressure = t.norm(ev.Code, ev.Value)
			t.axesDirt = true
		}
	case seat.DeviceTabletPad:
		switch ev.Code {
		case evdev.ABS_WHEEL:
			out := t.event(backend.PadRing, time)
			out.Value = t.norm(ev.Code, ev.Value) * 360
			emit(out)
		case evdev.ABS_RX:
			out := t.event(backend.PadStrip, time)
			out.Value = t.norm(ev.Code, ev.Value)
			emit(out)
		}
	}
}

func (t *translator) touchAbs(ev evdev.InputEvent) {
	if ev.Code == evdev.ABS_MT_SLOT {
		t.slot = ev.Value
		return
	}
	sl := t.slots[t.slot]
	if sl == nil {
		sl = &touchSlot{id: -1}
		t.slots[t.slot] = sl
	}
	switch ev.Code {
	case evdev.ABS_MT_TRACKING_ID:
		if ev.Value < 0 {
			sl.lifted = true
		} else {
			sl.id, sl.down, sl.lifted = ev.Value, true, false
		}
	case evdev.ABS_MT_POSITION_X:
		sl.x, sl.moved = t.norm(ev.Code, ev.Value), true
	case evdev.ABS_MT_POSITION_Y:
		sl.y, sl.moved = t.norm(ev.Code, ev.Value), true
	}
}

// frame flushes everything buffered since the previous SYN_REPORT.
func (t *translator) frame(time uint32, emit backend.Sink) {
	switch t.dev.Type {
	case seat.DevicePointer:
		if t.dx != 0 || t.dy != 0 {
			out := t.event(backend.PointerMotion, time)
			out.Dx, out.Dy = t.dx, t.dy
			emit(out)
			t.dx, t.dy = 0, 0
			t.pointerOut = true
		}
		if t.absPending {
			out := t.event(backend.PointerMotionAbsolute, time)
			out.X, out.Y = t.x, t.y
			emit(out)
			t.absPending = false
			t.pointerOut = true
		}
		if t.pointerOut {
			emit(t.event(backend.PointerFrame, time))
			t.pointerOut = false
		}
	case seat.DeviceTouch:
		t.flushTouch(time, emit)
	case seat.DeviceTabletTool:
		if t.axesDirt {
			out := t.event(backend.TabletToolAxis, time)
			out.Tool, out.Axes = t.tool, t.toolAxes
			emit(out)
			t.axesDirt = false
		}
	}
}

func (t *translator) flushTouch(time uint32, emit backend.Sink) {
	keys := make([]int32, 0, len(t.slots))
	for k := range t.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		sl := t.slots[k]
		switch {
		case sl.down:
			out := t.event(backend.TouchDown, time)
			out.TouchID, out.X, out.Y = sl.id, sl.x, sl.y
			emit(out)
		case sl.lifted:
			if sl.id >= 0 {
				out := t.event(backend.TouchUp, time)
				out.TouchID = sl.id
				emit(out)
			}
			delete(t.slots, k)
			continue
		case sl.moved && sl.id >= 0:
			out := t.event(backend.TouchMotion, time)
			out.TouchID, out.X, out.Y = sl.id, sl.x, sl.y
			emit(out)
		}
		sl.down, sl.moved = false, false
	}
}
