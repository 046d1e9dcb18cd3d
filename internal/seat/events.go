package seat

import (
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

// EventKind enumerates what a seat tells clients and observers.
type EventKind int

const (
	FocusChanged EventKind = iota
	KeyboardEnter
	KeyboardClear
	KeyboardKey
	KeyboardModifiers
	PointerEnter
	PointerLeave
	PointerMotion
	PointerButton
	PointerAxis
	PointerFrame
	TouchDown
	TouchUp
	TouchMotion
	TabletProximityIn
	TabletProximityOut
	TabletMotion
	TabletTip
	TabletButton
	PadEnter
	PadButton
	PadRing
	PadStrip
	GestureSwipeBegin
	GestureSwipeUpdate
	GestureSwipeEnd
	GesturePinchBegin
	GesturePinchUpdate
	GesturePinchEnd
	SwitchToggle
	SelectionSet
	PrimarySelectionSet
	CursorImage
	CapabilitiesChanged
	ConstraintActivated
	ConstraintDeactivated
	DragStarted
	DragEnded
)

var eventNames = [...]string{
	FocusChanged:          "focus-changed",
	KeyboardEnter:         "keyboard-enter",
	KeyboardClear:         "keyboard-clear",
	KeyboardKey:           "keyboard-key",
	KeyboardModifiers:     "keyboard-modifiers",
	PointerEnter:          "pointer-enter",
	PointerLeave:          "pointer-leave",
	PointerMotion:         "pointer-motion",
	PointerButton:         "pointer-button",
	PointerAxis:           "pointer-axis",
	PointerFrame:          "pointer-frame",
	TouchDown:             "touch-down",
	TouchUp:               "touch-up",
	TouchMotion:           "touch-motion",
	TabletProximityIn:     "tablet-proximity-in",
	TabletProximityOut:    "tablet-proximity-out",
	TabletMotion:          "tablet-motion",
	TabletTip:             "tablet-tip",
	TabletButton:          "tablet-button",
	PadEnter:              "pad-enter",
	PadButton:             "pad-button",
	PadRing:               "pad-ring",
	PadStrip:              "pad-strip",
	GestureSwipeBegin:     "swipe-begin",
	GestureSwipeUpdate:    "swipe-update",
	GestureSwipeEnd:       "swipe-end",
	GesturePinchBegin:     "pinch-begin",
	GesturePinchUpdate:    "pinch-update",
	GesturePinchEnd:       "pinch-end",
	SwitchToggle:          "switch-toggle",
	SelectionSet:          "selection",
	PrimarySelectionSet:   "primary-selection",
	CursorImage:           "cursor-image",
	CapabilitiesChanged:   "capabilities",
	ConstraintActivated:   "constraint-activated",
	ConstraintDeactivated: "constraint-deactivated",
	DragStarted:           "drag-started",
	DragEnded:             "drag-ended",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a seat notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Seat    string
	Device  string
	Time    uint32
	Serial  uint32
	Surface *desktop.Surface
	View    desktop.ViewID
	Client  desktop.ClientID
	Local   geom.Point

	Keys    []uint32
	Key     uint32
	Mods    Modifiers
	Button  uint32
	Pressed bool

	TouchID int32
	Tool    uint64
	Axis    Axis
	Value   float64
	Dx      float64
	Dy      float64
	Scale   float64
	Fingers int
	Cancel  bool

	Cursor string
	Caps   Capability
	Mime   string
}

// Axis is a scroll axis.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

// Linux input button codes used by the cursor engine.
const (
	BtnLeft   uint32 = 0x110
	BtnRight  uint32 = 0x111
	BtnMiddle uint32 = 0x112
)
