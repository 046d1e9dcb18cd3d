package seat

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/desktop"
)

// DeviceType is the class of a physical input device.
type DeviceType int

const (
	DeviceKeyboard DeviceType = iota
	DevicePointer
	DeviceTouch
	DeviceTabletTool
	DeviceTabletPad
	DeviceSwitch
)

func (t DeviceType) String() string {
	switch t {
	case DeviceKeyboard:
		return "keyboard"
	case DevicePointer:
		return "pointer"
	case DeviceTouch:
		return "touch"
	case DeviceTabletTool:
		return "tablet-tool"
	case DeviceTabletPad:
		return "tablet-pad"
	case DeviceSwitch:
		return "switch"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
}

// Device describes a physical input device handed to a seat.
type Device struct {
	Name string
	Type DeviceType
	// Group is the hardware device group. Pads and tablets sharing a
	// non-empty group are bound together.
	Group string
	// Output names the output an absolute device maps to. Empty picks the
	// built-in panel.
	Output string
}

// Keyboard is an attached keyboard and its key state.
type Keyboard struct {
	Device
	pressed []uint32
	mods    Modifiers
}

// Pressed returns the keys currently held.
func (k *Keyboard) Pressed() []uint32 { return append([]uint32(nil), k.pressed...) }

// Modifiers returns the current modifier mask.
func (k *Keyboard) Modifiers() Modifiers { return k.mods }

// Pointer is a relative pointing device.
type Pointer struct {
	Device
}

// Touch is a touchscreen.
type Touch struct {
	Device
	output *desktop.Output
}

// Tablet is a drawing tablet. Tools are attached on their first proximity
// event.
type Tablet struct {
	Device
	output *desktop.Output
	pads   []*Pad
	tools  map[uint64]*Tool
}

// Pads returns the pads bound to the tablet.
func (t *Tablet) Pads() []*Pad { return append([]*Pad(nil), t.pads...) }

// Tool is a stylus, eraser or puck used on a tablet.
type Tool struct {
	ID uint64
	// Relative tools (mice, lenses) move the cursor by deltas.
	Relative    bool
	inProximity bool
	surface     *desktop.Surface
}

// Pad is the button/ring/strip part of a tablet.
type Pad struct {
	Device
	output *desktop.Output
	tablet *Tablet
}

// Tablet returns the tablet the pad is bound to, or nil.
func (p *Pad) Tablet() *Tablet { return p.tablet }

// Switch is a lid or tablet-mode switch.
type Switch struct {
	Device
	on bool
}

// AddDevice attaches a device to the seat. The capability bitmap and the
// default cursor are recomputed afterwards.
func (s *Seat) AddDevice(dev Device) error {
	if s.findDevice(dev.Name) != nil {
		return fmt.Errorf("add %s %q: %w", dev.Type, dev.Name, ErrDuplicateDevice)
	}
	if s.deviceCount() >= s.limit {
		s.logger.Warn("dropping input device", "device", dev.Name, "error", ErrDeviceLimit)
		return fmt.Errorf("add %s %q: %w", dev.Type, dev.Name, ErrDeviceLimit)
	}

	switch dev.Type {
	case DeviceKeyboard:
		kb := &Keyboard{Device: dev}
		s.keyboards = append(s.keyboards, kb)
		s.activeKeyboard = kb
	case DevicePointer:
		s.pointers = append(s.pointers, &Pointer{Device: dev})
	case DeviceTouch:
		s.touch = append(s.touch, &Touch{Device: dev})
	case DeviceTabletTool:
		t := &Tablet{Device: dev, tools: make(map[uint64]*Tool)}
		s.tablets = append(s.tablets, t)
		for _, p := range s.pads {
			if p.tablet == nil && sameGroup(p.Device, dev) {
				s.bindPad(p, t)
			}
		}
	case DeviceTabletPad:
		p := &Pad{Device: dev}
		s.pads = append(s.pads, p)
		for _, t := range s.tablets {
			if sameGroup(t.Device, dev) {
				s.bindPad(p, t)
				break
			}
		}
	case DeviceSwitch:
		s.switches = append(s.switches, &Switch{Device: dev})
	default:
		panic(fmt.Sprintf("seat %s: unknown device type %d for %q", s.name, int(dev.Type), dev.Name))
	}

	s.logger.Info("input device added", "device", dev.Name, "type", dev.Type.String(), "group", dev.Group)
	s.configureMapping()
	s.updateCapabilities()
	return nil
}

// RemoveDevice detaches a device. Grabs driven by pointing devices are
// cancelled.
func (s *Seat) RemoveDevice(name string) error {
	dev := s.findDevice(name)
	if dev == nil {
		return fmt.Errorf("remove %q: %w", name, ErrUnknownDevice)
	}

	switch dev.Type {
	case DeviceKeyboard:
		s.keyboards = removeDev(s.keyboards, name)
		if s.activeKeyboard != nil && s.activeKeyboard.Name == name {
			s.activeKeyboard = nil
			if n := len(s.keyboards); n > 0 {
				s.activeKeyboard = s.keyboards[n-1]
			}
		}
	case DevicePointer:
		s.pointers = removeDev(s.pointers, name)
		s.cancelGrab("pointer removed")
	case DeviceTouch:
		s.touch = removeDev(s.touch, name)
		for id, tp := range s.cursor.touchPoints {
			if tp.device == name {
				delete(s.cursor.touchPoints, id)
				if id == s.cursor.grab.touchID {
					s.cancelGrab("touch device removed")
				}
				if id == s.cursor.touchID {
					s.cursor.touchID = -1
				}
			}
		}
	case DeviceTabletTool:
		for _, t := range s.tablets {
			if t.Name != name {
				continue
			}
			for _, p := range t.pads {
				p.tablet = nil
			}
			t.pads = nil
		}
		s.tablets = removeDev(s.tablets, name)
		s.cancelGrab("tablet removed")
	case DeviceTabletPad:
		for _, p := range s.pads {
			if p.Name == name && p.tablet != nil {
				p.tablet.pads = removeDev(p.tablet.pads, name)
				p.tablet = nil
			}
		}
		s.pads = removeDev(s.pads, name)
	case DeviceSwitch:
		s.switches = removeDev(s.switches, name)
	default:
		panic(fmt.Sprintf("seat %s: unknown device type %d for %q", s.name, int(dev.Type), name))
	}

	s.logger.Info("input device removed", "device", name, "type", dev.Type.String())
	s.configureMapping()
	s.updateCapabilities()
	return nil
}

// Devices lists every attached device.
func (s *Seat) Devices() []Device {
	var out []Device
	for _, d := range s.keyboards {
		out = append(out, d.Device)
	}
	for _, d := range s.pointers {
		out = append(out, d.Device)
	}
	for _, d := range s.touch {
		out = append(out, d.Device)
	}
	for _, d := range s.tablets {
		out = append(out, d.Device)
	}
	for _, d := range s.pads {
		out = append(out, d.Device)
	}
	for _, d := range s.switches {
		out = append(out, d.Device)
	}
	return out
}

// Keyboard returns the active keyboard, or nil.
func (s *Seat) Keyboard() *Keyboard { return s.activeKeyboard }

// Tablet finds an attached tablet by device name.
func (s *Seat) Tablet(name string) *Tablet {
	for _, t := range s.tablets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Pad finds an attached pad by device name.
func (s *Seat) Pad(name string) *Pad {
	for _, p := range s.pads {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// MappedOutput returns the output an absolute device is mapped to, or nil
// when it spans the whole layout.
func (s *Seat) MappedOutput(name string) *desktop.Output {
	for _, t := range s.touch {
		if t.Name == name {
			return t.output
		}
	}
	for _, t := range s.tablets {
		if t.Name == name {
			return t.output
		}
	}
	for _, p := range s.pads {
		if p.Name == name {
			return p.output
		}
	}
	return nil
}

func (s *Seat) bindPad(p *Pad, t *Tablet) {
	p.tablet = t
	t.pads = append(t.pads, p)
	s.logger.Debug("bound tablet pad", "pad", p.Name, "tablet", t.Name, "group", t.Group)
}

// sameGroup reports whether two devices share a known hardware group. An
// unknown group never matches.
func sameGroup(a, b Device) bool {
	return a.Group != "" && a.Group == b.Group
}

// configureMapping maps absolute devices onto their configured output or
// the built-in panel. Relative devices always use the whole layout.
func (s *Seat) configureMapping() {
	for _, t := range s.touch {
		t.output = s.absoluteOutput(t.Device)
	}
	for _, t := range s.tablets {
		t.output = s.absoluteOutput(t.Device)
	}
	for _, p := range s.pads {
		p.output = s.absoluteOutput(p.Device)
	}
}

func (s *Seat) absoluteOutput(dev Device) *desktop.Output {
	if dev.Output != "" {
		return s.desktop.Output(dev.Output)
	}
	for _, o := range s.desktop.Outputs() {
		if o.BuiltIn() {
			return o
		}
	}
	return nil
}

func (s *Seat) deviceCount() int {
	return len(s.keyboards) + len(s.pointers) + len(s.touch) + len(s.tablets) + len(s.pads) + len(s.switches)
}

func (s *Seat) findDevice(name string) *Device {
	for _, d := range s.keyboards {
		if d.Name == name {
			return &d.Device
		}
	}
	for _, d := range s.pointers {
		if d.Name == name {
			return &d.Device
		}
	}
	for _, d := range s.touch {
		if d.Name == name {
			return &d.Device
		}
	}
	for _, d := range s.tablets {
		if d.Name == name {
			return &d.Device
		}
	}
	for _, d := range s.pads {
		if d.Name == name {
			return &d.Device
		}
	}
	for _, d := range s.switches {
		if d.Name == name {
			return &d.Device
		}
	}
	return nil
}

type named interface {
	deviceName() string
}

func (d Device) deviceName() string { return d.Name }

func removeDev[T named](list []T, name string) []T {
	out := list[:0]
	for _, d := range list {
		if d.deviceName() != name {
			out = append(out, d)
		}
	}
	return out
}

func (s *Seat) keyboardByName(name string) *Keyboard {
	for _, kb := range s.keyboards {
		if kb.Name == name {
			return kb
		}
	}
	return nil
}

func (s *Seat) touchByName(name string) *Touch {
	for _, t := range s.touch {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *Seat) switchByName(name string) *Switch {
	for _, sw := range s.switches {
		if sw.Name == name {
			return sw
		}
	}
	return nil
}
