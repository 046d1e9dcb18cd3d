package seat

// Key handles a key press or release from a keyboard. The keyboard that
// sent it becomes the active one.
func (s *Seat) Key(dev string, keycode uint32, pressed bool, time uint32) {
	kb := s.keyboardByName(dev)
	if kb == nil {
		return
	}
	s.notifyActivity()
	s.activeKeyboard = kb
	if pressed {
		kb.pressed = append(kb.pressed, keycode)
	} else {
		for i, k := range kb.pressed {
			if k == keycode {
				kb.pressed = append(kb.pressed[:i], kb.pressed[i+1:]...)
				break
			}
		}
	}
	s.emit(Event{Kind: KeyboardKey, Device: dev, Surface: s.keyboardSurface(), Key: keycode, Pressed: pressed, Time: time})
}

// Modifiers updates a keyboard's modifier state.
func (s *Seat) Modifiers(dev string, mods Modifiers) {
	kb := s.keyboardByName(dev)
	if kb == nil {
		return
	}
	kb.mods = mods
	s.activeKeyboard = kb
	s.emit(Event{Kind: KeyboardModifiers, Device: dev, Surface: s.keyboardSurface(), Mods: mods})
}

// KeyboardModifiers returns the modifier state of the named keyboard.
func (s *Seat) KeyboardModifiers(dev string) Modifiers {
	if kb := s.keyboardByName(dev); kb != nil {
		return kb.mods
	}
	return 0
}
