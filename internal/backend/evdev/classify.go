package evdev

import (
	"github.com/1broseidon/palmwm/internal/seat"
)

// classify maps the udev input properties of a device node onto a seat
// device type. Nodes udev does not tag as input devices are skipped.
func classify(props map[string]string) (seat.DeviceType, bool) {
	set := func(key string) bool { return props[key] == "1" }
	switch {
	case set("ID_INPUT_TABLET_PAD"):
		return seat.DeviceTabletPad, true
	case set("ID_INPUT_TABLET"):
		return seat.DeviceTabletTool, true
	case set("ID_INPUT_TOUCHSCREEN"):
		return seat.DeviceTouch, true
	case set("ID_INPUT_SWITCH"):
		return seat.DeviceSwitch, true
	case set("ID_INPUT_MOUSE"), set("ID_INPUT_TOUCHPAD"), set("ID_INPUT_POINTINGSTICK"):
		return seat.DevicePointer, true
	case set("ID_INPUT_KEYBOARD"), set("ID_INPUT_KEY"):
		return seat.DeviceKeyboard, true
	}
	return 0, false
}

// deviceGroup is the hardware group udev assigns to the parts of one
// physical device, such as a tablet and its pad.
func deviceGroup(props map[string]string) string {
	return props["LIBINPUT_DEVICE_GROUP"]
}
