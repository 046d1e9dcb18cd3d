package backend

import (
	"fmt"
	"strings"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/1broseidon/palmwm/internal/seat"
)

// KeyCombo is a parsed binding such as "Mod1-Tab": a modifier mask and a
// Linux input key code.
type KeyCombo struct {
	Mods seat.Modifiers
	Key  uint32
}

// BindingMods is the set of modifiers that take part in binding matches.
const BindingMods = seat.ModShift | seat.ModCtrl | seat.ModAlt | seat.ModLogo

var modifierNames = map[string]seat.Modifiers{
	"shift":   seat.ModShift,
	"control": seat.ModCtrl,
	"ctrl":    seat.ModCtrl,
	"mod1":    seat.ModAlt,
	"alt":     seat.ModAlt,
	"mod4":    seat.ModLogo,
	"super":   seat.ModLogo,
	"logo":    seat.ModLogo,
}

var keyNames = map[string]uint32{
	"escape":    evdev.KEY_ESC,
	"tab":       evdev.KEY_TAB,
	"return":    evdev.KEY_ENTER,
	"space":     evdev.KEY_SPACE,
	"backspace": evdev.KEY_BACKSPACE,
	"delete":    evdev.KEY_DELETE,
	"left":      evdev.KEY_LEFT,
	"right":     evdev.KEY_RIGHT,
	"up":        evdev.KEY_UP,
	"down":      evdev.KEY_DOWN,
	"home":      evdev.KEY_HOME,
	"end":       evdev.KEY_END,
	"f1":        evdev.KEY_F1,
	"f2":        evdev.KEY_F2,
	"f3":        evdev.KEY_F3,
	"f4":        evdev.KEY_F4,
	"f5":        evdev.KEY_F5,
	"f6":        evdev.KEY_F6,
	"f7":        evdev.KEY_F7,
	"f8":        evdev.KEY_F8,
	"f9":        evdev.KEY_F9,
	"f10":       evdev.KEY_F10,
	"f11":       evdev.KEY_F11,
	"f12":       evdev.KEY_F12,
	"1":         evdev.KEY_1,
	"2":         evdev.KEY_2,
	"3":         evdev.KEY_3,
	"4":         evdev.KEY_4,
	"5":         evdev.KEY_5,
	"6":         evdev.KEY_6,
	"7":         evdev.KEY_7,
	"8":         evdev.KEY_8,
	"9":         evdev.KEY_9,
	"0":         evdev.KEY_0,
	"a":         evdev.KEY_A,
	"b":         evdev.KEY_B,
	"c":         evdev.KEY_C,
	"d":         evdev.KEY_D,
	"e":         evdev.KEY_E,
	"f":         evdev.KEY_F,
	"g":         evdev.KEY_G,
	"h":         evdev.KEY_H,
	"i":         evdev.KEY_I,
	"j":         evdev.KEY_J,
	"k":         evdev.KEY_K,
	"l":         evdev.KEY_L,
	"m":         evdev.KEY_M,
	"n":         evdev.KEY_N,
	"o":         evdev.KEY_O,
	"p":         evdev.KEY_P,
	"q":         evdev.KEY_Q,
	"r":         evdev.KEY_R,
	"s":         evdev.KEY_S,
	"t":         evdev.KEY_T,
	"u":         evdev.KEY_U,
	"v":         evdev.KEY_V,
	"w":         evdev.KEY_W,
	"x":         evdev.KEY_X,
	"y":         evdev.KEY_Y,
	"z":         evdev.KEY_Z,
}

// ModifierKeys maps modifier key codes to the mask they set.
var ModifierKeys = map[uint32]seat.Modifiers{
	evdev.KEY_LEFTSHIFT:  seat.ModShift,
	evdev.KEY_RIGHTSHIFT: seat.ModShift,
	evdev.KEY_LEFTCTRL:   seat.ModCtrl,
	evdev.KEY_RIGHTCTRL:  seat.ModCtrl,
	evdev.KEY_LEFTALT:    seat.ModAlt,
	evdev.KEY_RIGHTALT:   seat.ModAlt,
	evdev.KEY_LEFTMETA:   seat.ModLogo,
	evdev.KEY_RIGHTMETA:  seat.ModLogo,
}

// ParseKeys parses a binding in the "Mod-Mod-Key" form used by xgbutil's
// keybind package. Names are case-insensitive.
func ParseKeys(keys string) (KeyCombo, error) {
	parts := strings.Split(keys, "-")
	var combo KeyCombo
	for i, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return KeyCombo{}, fmt.Errorf("parse keys %q: empty component", keys)
		}
		if i < len(parts)-1 {
			mod, ok := modifierNames[name]
			if !ok {
				return KeyCombo{}, fmt.Errorf("parse keys %q: unknown modifier %q", keys, part)
			}
			combo.Mods |= mod
			continue
		}
		code, ok := keyNames[name]
		if !ok {
			return KeyCombo{}, fmt.Errorf("parse keys %q: unknown key %q", keys, part)
		}
		combo.Key = code
	}
	return combo, nil
}

// ParseModifier parses a single modifier name such as "logo" or "alt".
func ParseModifier(name string) (seat.Modifiers, error) {
	mod, ok := modifierNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown modifier %q", name)
	}
	return mod, nil
}

// Matches reports whether a key press with the given modifier state
// triggers the combo.
func (c KeyCombo) Matches(key uint32, mods seat.Modifiers) bool {
	return c.Key == key && c.Mods == mods&BindingMods
}
