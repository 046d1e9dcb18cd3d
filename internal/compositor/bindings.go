package compositor

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/config"
	"github.com/1broseidon/palmwm/internal/seat"
)

type binding struct {
	keys   string
	combo  backend.KeyCombo
	action string
}

func parseBindings(list []config.Binding) ([]binding, error) {
	out := make([]binding, 0, len(list))
	for _, b := range list {
		combo, err := backend.ParseKeys(b.Keys)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", b.Keys, err)
		}
		out = append(out, binding{keys: b.Keys, combo: combo, action: b.Action})
	}
	return out, nil
}

// interceptKey runs the binding matching a key press and reports whether
// the key was consumed. The release of a consumed key is consumed too.
func (c *Compositor) interceptKey(s *seat.Seat, dev string, key uint32, pressed bool) bool {
	if !pressed {
		keys := c.swallowed[dev]
		if _, ok := keys[key]; ok {
			delete(keys, key)
			return true
		}
		return false
	}
	mods := s.KeyboardModifiers(dev)
	for _, b := range c.bindings {
		if !b.combo.Matches(key, mods) {
			continue
		}
		if c.swallowed[dev] == nil {
			c.swallowed[dev] = make(map[uint32]struct{})
		}
		c.swallowed[dev][key] = struct{}{}
		c.logger.Debug("binding triggered", "keys", b.keys, "action", b.action, "seat", s.Name())
		c.runActionOn(s, b.action)
		return true
	}
	return false
}

// runAction runs a binding action reported by the backend on the seat
// that saw input last.
func (c *Compositor) runAction(action string) {
	s := c.input.LastActiveSeat()
	if s == nil {
		c.logger.Debug("binding with no seat", "action", action)
		return
	}
	c.runActionOn(s, action)
}

func (c *Compositor) runActionOn(s *seat.Seat, action string) {
	switch action {
	case config.ActionCycleFocus:
		if err := s.CycleFocus(); err != nil {
			c.logger.Debug("cycle focus failed", "seat", s.Name(), "error", err)
		}
	case config.ActionEndGrab:
		s.EndGrab()
	case config.ActionCloseFocus:
		if v := c.desktop.View(s.Focus()); v != nil {
			v.RequestClose()
		}
	default:
		c.logger.Warn("unknown binding action", "action", action)
	}
}
