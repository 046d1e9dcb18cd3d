// Package backend defines the input and output events that drive the
// compositor, and the Source interface implemented by each way of
// producing them.
package backend

import (
	"context"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
	"github.com/1broseidon/palmwm/internal/seat"
)

// EventKind enumerates backend events.
type EventKind int

const (
	DeviceAdded EventKind = iota
	DeviceRemoved

	PointerMotion
	PointerMotionAbsolute
	PointerButton
	PointerAxis
	PointerFrame

	KeyboardKey
	KeyboardModifiers

	TouchDown
	TouchUp
	TouchMotion

	TabletToolProximity
	TabletToolAxis
	TabletToolTip
	TabletToolButton

	PadButton
	PadRing
	PadStrip

	SwitchToggle
	Gesture

	OutputAdded
	OutputRemoved
	OutputMode

	// Binding reports a key binding recognised by the backend itself.
	Binding

	// Client lifecycle. Handle is the backend's name for the client
	// object; it stays valid until the matching destroy event.
	ViewCreated
	ViewMapped
	ViewUnmapped
	ViewConfigured
	ViewDestroyed
	LayerCreated
	LayerDestroyed
	ConstraintCreated
	ConstraintDestroyed
	DragRequested
	DragIconDestroyed
	ExclusiveClient
)

var kindNames = [...]string{
	DeviceAdded:           "device-added",
	DeviceRemoved:         "device-removed",
	PointerMotion:         "pointer-motion",
	PointerMotionAbsolute: "pointer-motion-absolute",
	PointerButton:         "pointer-button",
	PointerAxis:           "pointer-axis",
	PointerFrame:          "pointer-frame",
	KeyboardKey:           "keyboard-key",
	KeyboardModifiers:     "keyboard-modifiers",
	TouchDown:             "touch-down",
	TouchUp:               "touch-up",
	TouchMotion:           "touch-motion",
	TabletToolProximity:   "tablet-tool-proximity",
	TabletToolAxis:        "tablet-tool-axis",
	TabletToolTip:         "tablet-tool-tip",
	TabletToolButton:      "tablet-tool-button",
	PadButton:             "pad-button",
	PadRing:               "pad-ring",
	PadStrip:              "pad-strip",
	SwitchToggle:          "switch-toggle",
	Gesture:               "gesture",
	OutputAdded:           "output-added",
	OutputRemoved:         "output-removed",
	OutputMode:            "output-mode",
	Binding:               "binding",
	ViewCreated:           "view-created",
	ViewMapped:            "view-mapped",
	ViewUnmapped:          "view-unmapped",
	ViewConfigured:        "view-configured",
	ViewDestroyed:         "view-destroyed",
	LayerCreated:          "layer-created",
	LayerDestroyed:        "layer-destroyed",
	ConstraintCreated:     "constraint-created",
	ConstraintDestroyed:   "constraint-destroyed",
	DragRequested:         "drag-requested",
	DragIconDestroyed:     "drag-icon-destroyed",
	ExclusiveClient:       "exclusive-client",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is one backend notification. Only the fields relevant to Kind are
// set. Device events name their device through Device.Name.
type Event struct {
	Kind   EventKind
	Time   uint32
	Device seat.Device

	// Relative motion deltas, gesture deltas.
	Dx, Dy float64
	// Normalized [0,1] coordinates for absolute pointers and touch.
	X, Y float64

	Button  uint32
	Key     uint32
	Pressed bool
	Mods    seat.Modifiers

	Axis  seat.Axis
	Value float64

	TouchID int32

	Tool     uint64
	Relative bool
	In       bool
	Axes     seat.ToolAxes

	// Gesture carries the seat gesture step, e.g. seat.GestureSwipeBegin.
	Gesture   seat.EventKind
	Fingers   int
	Scale     float64
	Cancelled bool

	// Output describes the output for OutputAdded and OutputMode; only
	// Name is set for OutputRemoved.
	Output desktop.OutputConfig

	Action string

	// Client lifecycle fields. Target names the view or layer a
	// constraint or drag refers to; Parent names a view's parent.
	Handle   uint64
	Target   uint64
	Parent   uint64
	Client   desktop.ClientID
	ViewKind desktop.Kind
	Title    string
	AppID    string
	// Box is the view box in layout coordinates, a layer's output-local
	// geometry, or the drag icon size.
	Box              geom.Box
	Region           []geom.Box
	OverrideRedirect bool
	Layer            desktop.Layer
	Anchor           geom.Edges
	ExclusiveZone    int
	Interactive      bool
	Namespace        string
	Lock             bool
	Seat             string
	Serial           uint32
}

// Sink receives backend events. It must not be called after Run returns.
type Sink func(Event)

// Source produces backend events until its context is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}
