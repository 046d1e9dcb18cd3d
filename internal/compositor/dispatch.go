package compositor

import (
	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/desktop"
)

// handleEvent routes one backend event. It runs on the dispatch goroutine.
func (c *Compositor) handleEvent(ev backend.Event) {
	switch ev.Kind {
	case backend.DeviceAdded:
		s, err := c.input.AddDevice(ev.Device)
		if err != nil {
			c.logger.Warn("dropping input device", "device", ev.Device.Name, "error", err)
			return
		}
		c.logger.Info("input device attached", "device", ev.Device.Name, "type", ev.Device.Type.String(), "seat", s.Name())
		return
	case backend.DeviceRemoved:
		if err := c.input.RemoveDevice(ev.Device.Name); err != nil {
			c.logger.Debug("removing unknown device", "device", ev.Device.Name, "error", err)
		}
		delete(c.swallowed, ev.Device.Name)
		return
	case backend.OutputAdded, backend.OutputMode:
		c.outputChanged(ev.Output)
		return
	case backend.OutputRemoved:
		if err := c.desktop.RemoveOutput(ev.Output.Name); err != nil {
			c.logger.Debug("removing unknown output", "output", ev.Output.Name, "error", err)
		}
		return
	case backend.Binding:
		c.runAction(ev.Action)
		return
	}
	if c.handleClientEvent(ev) {
		return
	}

	s := c.input.DeviceSeat(ev.Device.Name)
	if s == nil {
		c.logger.Debug("event from unattached device", "device", ev.Device.Name, "kind", ev.Kind.String())
		return
	}
	dev := ev.Device.Name

	switch ev.Kind {
	case backend.PointerMotion:
		s.PointerMotion(dev, ev.Dx, ev.Dy, ev.Time)
	case backend.PointerMotionAbsolute:
		s.PointerMotionAbsolute(dev, ev.X, ev.Y, ev.Time)
	case backend.PointerButton:
		s.PointerButton(dev, ev.Button, ev.Pressed, ev.Time)
	case backend.PointerAxis:
		s.PointerAxis(dev, ev.Axis, ev.Value, ev.Time)
	case backend.PointerFrame:
		s.PointerFrame(dev)
	case backend.KeyboardKey:
		if c.interceptKey(s, dev, ev.Key, ev.Pressed) {
			return
		}
		s.Key(dev, ev.Key, ev.Pressed, ev.Time)
	case backend.KeyboardModifiers:
		s.Modifiers(dev, ev.Mods)
	case backend.TouchDown:
		s.TouchDown(dev, ev.TouchID, ev.X, ev.Y, ev.Time)
	case backend.TouchUp:
		s.TouchUp(dev, ev.TouchID, ev.Time)
	case backend.TouchMotion:
		s.TouchMotion(dev, ev.TouchID, ev.X, ev.Y, ev.Time)
	case backend.TabletToolProximity:
		s.TabletToolProximity(dev, ev.Tool, ev.Relative, ev.In, ev.Axes, ev.Time)
	case backend.TabletToolAxis:
		s.TabletToolAxis(dev, ev.Tool, ev.Axes, ev.Time)
	case backend.TabletToolTip:
		s.TabletToolTip(dev, ev.Tool, ev.Pressed, ev.Time)
	case backend.TabletToolButton:
		s.TabletToolButton(dev, ev.Tool, ev.Button, ev.Pressed, ev.Time)
	case backend.PadButton:
		s.PadButton(dev, ev.Button, ev.Pressed, ev.Time)
	case backend.PadRing:
		s.PadRing(dev, ev.Button, ev.Value, ev.Time)
	case backend.PadStrip:
		s.PadStrip(dev, ev.Button, ev.Value, ev.Time)
	case backend.SwitchToggle:
		s.SwitchToggle(dev, ev.Pressed, ev.Time)
	case backend.Gesture:
		s.Gesture(ev.Gesture, dev, ev.Fingers, ev.Dx, ev.Dy, ev.Scale, ev.Cancelled, ev.Time)
	default:
		c.logger.Debug("unhandled backend event", "kind", ev.Kind.String())
	}
}

// outputChanged adds or reconfigures an output reported by the backend.
// Placement and flags from a config entry of the same name win over the
// backend's defaults; the mode always comes from the backend.
func (c *Compositor) outputChanged(oc desktop.OutputConfig) {
	if fc, ok := c.cfg.Output(oc.Name); ok {
		from := outputFromConfig(fc)
		from.Box.Width = int(float64(oc.Box.Width) / from.Scale)
		from.Box.Height = int(float64(oc.Box.Height) / from.Scale)
		oc = from
	}
	if c.desktop.Output(oc.Name) == nil {
		if _, err := c.desktop.AddOutput(oc); err != nil {
			c.logger.Warn("cannot add output", "output", oc.Name, "error", err)
		}
		return
	}
	if err := c.desktop.ConfigureOutput(oc); err != nil {
		c.logger.Warn("cannot configure output", "output", oc.Name, "error", err)
	}
}
