package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// configureIgnoreMods makes key and button bindings match regardless of
// the lock modifiers.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = lockCombinations(base)
}

// lockCombinations returns 0 plus every non-empty OR of the masks in base.
func lockCombinations(base []uint16) []uint16 {
	out := []uint16{0}
	seen := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		if _, ok := seen[mask]; ok {
			continue
		}
		seen[mask] = struct{}{}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
