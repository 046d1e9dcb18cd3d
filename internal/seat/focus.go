package seat

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/desktop"
)

// Focus returns the focused view, or zero.
func (s *Seat) Focus() desktop.ViewID {
	if !s.hasFocus || len(s.views) == 0 {
		return 0
	}
	return s.views[0]
}

// keyboardSurface is where key events go: the focused layer, else the
// focused view.
func (s *Seat) keyboardSurface() *desktop.Surface {
	if s.focusedLayer != nil {
		return s.focusedLayer.Surface()
	}
	if v := s.desktop.View(s.Focus()); v != nil {
		return v.Surface()
	}
	return nil
}

func (s *Seat) mruIndex(id desktop.ViewID) int {
	for i, v := range s.views {
		if v == id {
			return i
		}
	}
	return -1
}

// addView appends a newly mapped view to the tail of the MRU list.
func (s *Seat) addView(id desktop.ViewID) {
	if s.mruIndex(id) < 0 {
		s.views = append(s.views, id)
	}
}

func (s *Seat) mruFront(id desktop.ViewID) {
	i := s.mruIndex(id)
	if i < 0 {
		s.views = append(s.views, 0)
		i = len(s.views) - 1
	}
	copy(s.views[1:i+1], s.views[:i])
	s.views[0] = id
}

func (s *Seat) mruRemove(id desktop.ViewID) {
	if i := s.mruIndex(id); i >= 0 {
		s.views = append(s.views[:i], s.views[i+1:]...)
	}
}

// SetFocus moves keyboard focus to the view, or clears it when id is zero.
// Clearing always resets the keyboard and ends any grab, even on an
// unfocused seat.
// The view's family is raised even when it already has focus. While a layer
// at or above the top layer holds focus the view is raised and moved to the
// front of the MRU list but not activated.
func (s *Seat) SetFocus(id desktop.ViewID) error {
	var v *desktop.View
	if id != 0 {
		v = s.desktop.View(id)
		if v == nil {
			return fmt.Errorf("focus %s: %w", id, ErrUnknownView)
		}
		if !s.AllowInput(v.Client()) {
			return fmt.Errorf("focus %s: %w", id, ErrInputNotAllowed)
		}
		if err := s.desktop.RaiseView(id); err != nil {
			return fmt.Errorf("focus %s: %w", id, err)
		}
		if !v.OverrideRedirect() {
			s.desktop.UnfullscreenIntersecting(id, v.Box())
		}
	}

	prev := s.Focus()
	if v != nil && id == prev {
		return nil
	}
	if pv := s.desktop.View(prev); pv != nil && (s.input == nil || !s.input.viewFocusedElsewhere(s, prev)) {
		pv.Activate(false)
	}
	s.hasFocus = false

	if v == nil {
		s.clearFocus()
		return nil
	}

	s.mruFront(id)
	s.desktop.DamageBox(v.Box())
	if s.focusedLayer != nil {
		return nil
	}

	v.Activate(true)
	s.hasFocus = true
	s.enterKeyboard(v.Surface())
	s.enterPads(v.Surface())
	s.updateFocus()
	if s.imRelay != nil {
		s.imRelay.SetFocus(v.Surface())
	}
	s.logger.Debug("focus changed", "view", id, "app_id", v.AppID())
	s.emit(Event{Kind: FocusChanged, View: id, Surface: v.Surface()})
	return nil
}

func (s *Seat) clearFocus() {
	s.hasFocus = false
	s.cancelGrab("focus cleared")
	s.emit(Event{Kind: KeyboardClear})
	if s.imRelay != nil {
		s.imRelay.SetFocus(nil)
	}
	s.emit(Event{Kind: FocusChanged})
}

func (s *Seat) enterKeyboard(surface *desktop.Surface) {
	ev := Event{Kind: KeyboardEnter, Surface: surface, Serial: s.nextSerial()}
	if kb := s.activeKeyboard; kb != nil {
		ev.Device = kb.Name
		ev.Keys = kb.Pressed()
		ev.Mods = kb.mods
	}
	s.emit(ev)
}

// SetFocusLayer gives keyboard focus to a layer surface. Layers at or above
// the top layer become sticky and hold focus until cleared. Clearing
// refocuses the most recent view and rearranges layers everywhere.
func (s *Seat) SetFocusLayer(ls *desktop.LayerSurface) {
	if ls == nil {
		if s.focusedLayer == nil {
			return
		}
		s.focusedLayer = nil
		if len(s.views) > 0 {
			_ = s.SetFocus(s.views[0])
		} else {
			_ = s.SetFocus(0)
		}
		s.desktop.ArrangeAll()
		return
	}
	if !s.AllowInput(ls.Client()) {
		return
	}
	if s.hasFocus {
		if pv := s.desktop.View(s.Focus()); pv != nil {
			pv.Activate(false)
		}
	}
	s.hasFocus = false
	if ls.Layer() >= desktop.LayerTop {
		s.focusedLayer = ls
	}
	s.enterKeyboard(ls.Surface())
	if s.imRelay != nil {
		s.imRelay.SetFocus(ls.Surface())
	}
	s.emit(Event{Kind: FocusChanged, Surface: ls.Surface()})
}

// CycleFocus focuses the next view in MRU order and moves the previously
// first view to the tail. An unfocused seat focuses its first view.
func (s *Seat) CycleFocus() error {
	if len(s.views) == 0 {
		return nil
	}
	first := s.views[0]
	if !s.hasFocus {
		return s.SetFocus(first)
	}
	if len(s.views) < 2 {
		return nil
	}
	if err := s.SetFocus(s.views[1]); err != nil {
		return err
	}
	s.mruRemove(first)
	s.views = append(s.views, first)
	return nil
}

// SetExclusiveClient restricts the seat's input to one client. Focus held
// by any other client is dropped. Clearing the restriction rearranges
// layers so an inhibited overlay can claim focus again.
func (s *Seat) SetExclusiveClient(client desktop.ClientID) {
	if client == 0 {
		s.exclusiveClient = 0
		s.desktop.ArrangeAll()
		return
	}
	// Set first so layers rearranged below cannot hand focus back to
	// another client.
	s.exclusiveClient = client
	if s.focusedLayer != nil && s.focusedLayer.Client() != client {
		s.SetFocusLayer(nil)
	}
	if s.hasFocus {
		if v := s.desktop.View(s.Focus()); v != nil && v.Client() != client {
			_ = s.SetFocus(0)
		}
	}
	if ps := s.cursor.pointerSurface; ps != nil && ps.Client() != client {
		s.setPointerFocus(nil, 0, s.cursor.pointerLocal, 0)
	}
	s.clearTouchFocus(client)
}

// handleDesktopEvent keeps seat state consistent with the desktop.
func (s *Seat) handleDesktopEvent(ev desktop.Event) {
	switch ev.Kind {
	case desktop.ViewMapped:
		s.addView(ev.View)
	case desktop.ViewUnmapped, desktop.ViewDestroyed:
		s.viewGone(ev.View, ev.Parent)
	case desktop.LayersArranged:
		s.layersArranged(ev.Layer)
	case desktop.LayerUnmapped:
		if s.focusedLayer == ev.Layer {
			s.SetFocusLayer(nil)
		}
	case desktop.OutputAdded, desktop.OutputRemoved, desktop.LayoutChanged:
		s.configureMapping()
	}
}

// viewGone drops a view from the MRU list. A focused view hands focus to
// its parent, otherwise to the next view in MRU order. A grab on the view
// is cancelled.
func (s *Seat) viewGone(id, parent desktop.ViewID) {
	if s.cursor.mode != ModePassthrough && s.cursor.grab.view == id {
		s.cancelGrab("view gone")
	}
	if s.cursor.pointerView == id {
		s.cursor.pointerView = 0
		s.cursor.pointerSurface = nil
	}
	if s.mruIndex(id) < 0 {
		return
	}
	wasFocused := s.Focus() == id
	s.mruRemove(id)
	if !wasFocused {
		return
	}
	s.hasFocus = false
	if p := s.desktop.View(parent); p != nil && p.Mapped() {
		_ = s.SetFocus(parent)
		return
	}
	for _, next := range s.views {
		if v := s.desktop.View(next); v != nil && v.Mapped() {
			_ = s.SetFocus(next)
			return
		}
	}
	s.clearFocus()
}

// layersArranged gives focus to the topmost interactive layer, or drops a
// focused layer that stopped taking keyboard input.
func (s *Seat) layersArranged(top *desktop.LayerSurface) {
	if top != nil {
		if top != s.focusedLayer {
			s.SetFocusLayer(top)
		}
		return
	}
	if s.focusedLayer != nil && !s.focusedLayer.KeyboardInteractive() {
		s.SetFocusLayer(nil)
	}
}
