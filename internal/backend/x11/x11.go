// Package x11 runs the compositor nested in a window on a host X server.
// The window is the compositor's single output; host pointer and key
// events on it become backend events. With mirroring on, host client
// windows appear as views and layer surfaces.
package x11

import (
	"context"
	"io"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
	"github.com/1broseidon/palmwm/internal/seat"
)

const (
	OutputName   = "X11-1"
	KeyboardName = "x11-keyboard"
	PointerName  = "x11-pointer"
)

// Linux button codes for the X side buttons.
const (
	btnSide  uint32 = 0x113
	btnExtra uint32 = 0x114
)

const scrollStep = 15

const windowEvents = xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion | xproto.EventMaskStructureNotify |
	xproto.EventMaskFocusChange

// Options configures the nested window.
type Options struct {
	// Display is the host display; empty uses $DISPLAY.
	Display string
	// Width and Height size the window. Zero takes half the host monitor.
	Width  int
	Height int
	// Grab registers the bindings on the host root window so they fire
	// even when the nested window is unfocused.
	Grab bool
	// Mirror reports host client windows as views, and docks and desktop
	// windows as layer surfaces.
	Mirror bool
	// Bindings maps xgbutil key strings such as "Mod1-Tab" to actions.
	Bindings map[string]string
	Logger   *slog.Logger
}

// Source is an X11 backend.Source.
type Source struct {
	opts   Options
	logger *slog.Logger

	xu            *xgbutil.XUtil
	win           *xwindow.Window
	width, height int
	mods          seat.Modifiers
	sink          backend.Sink
}

// New creates an X11 source. The display is not opened until Run.
func New(opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Source{opts: opts, logger: logger.With("component", "backend", "backend", "x11")}
}

func (s *Source) Name() string { return "x11" }

// Run opens the nested window and runs the X event loop until ctx is
// cancelled or the window is destroyed.
func (s *Source) Run(ctx context.Context, sink backend.Sink) error {
	conn, err := NewConnection(s.opts.Display)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.xu = conn.XUtil
	s.sink = sink
	configureIgnoreMods(s.xu)

	var host *Monitor
	if mon, err := conn.HostMonitor(); err == nil {
		host = &mon
	} else {
		s.logger.Warn("cannot query host monitors", "error", err)
	}
	s.width, s.height = nestedSize(host, s.opts.Width, s.opts.Height)

	s.win, err = xwindow.Generate(s.xu)
	if err != nil {
		return err
	}
	if err := s.win.CreateChecked(conn.Root, 0, 0, s.width, s.height,
		xproto.CwBackPixel|xproto.CwEventMask, 0, uint32(windowEvents)); err != nil {
		return err
	}
	if err := ewmh.WmNameSet(s.xu, s.win.Id, "palmwm"); err != nil {
		s.logger.Debug("cannot set window title", "error", err)
	}
	s.connect(conn.Root)
	s.win.Map()

	sink(backend.Event{Kind: backend.OutputAdded, Output: s.output()})
	sink(backend.Event{Kind: backend.DeviceAdded, Device: seat.Device{Name: KeyboardName, Type: seat.DeviceKeyboard}})
	sink(backend.Event{Kind: backend.DeviceAdded, Device: seat.Device{Name: PointerName, Type: seat.DevicePointer}})
	if s.opts.Mirror {
		newMirror(s, conn.Root, host).start()
	}
	s.logger.Info("x11 backend running", "width", s.width, "height", s.height, "mirror", s.opts.Mirror)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			xevent.Quit(s.xu)
			// Wake the event loop.
			s.win.Destroy()
		case <-done:
		}
	}()
	xevent.Main(s.xu)
	return nil
}

// nestedSize picks the window size: the configured size clamped to the
// host monitor, or half the monitor when unset.
func nestedSize(host *Monitor, width, height int) (int, int) {
	if host == nil {
		if width <= 0 {
			width = 1280
		}
		if height <= 0 {
			height = 720
		}
		return width, height
	}
	if width <= 0 {
		width = host.Width / 2
	}
	if height <= 0 {
		height = host.Height / 2
	}
	return min(width, host.Width), min(height, host.Height)
}

func (s *Source) output() desktop.OutputConfig {
	return desktop.OutputConfig{
		Name:    OutputName,
		Box:     geom.Box{Width: s.width, Height: s.height},
		Scale:   1,
		Enabled: true,
	}
}

func (s *Source) connect(root xproto.Window) {
	xevent.MotionNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		s.sink(backend.Event{
			Kind:   backend.PointerMotionAbsolute,
			Time:   uint32(ev.Time),
			Device: seat.Device{Name: PointerName},
			X:      float64(ev.EventX) / float64(s.width),
			Y:      float64(ev.EventY) / float64(s.height),
		})
		s.frame(uint32(ev.Time))
	}).Connect(s.xu, s.win.Id)

	xevent.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		s.button(ev.Detail, true, uint32(ev.Time))
	}).Connect(s.xu, s.win.Id)
	xevent.ButtonReleaseFun(func(xu *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		s.button(ev.Detail, false, uint32(ev.Time))
	}).Connect(s.xu, s.win.Id)

	for _, b := range []struct {
		button string
		axis   seat.Axis
		value  float64
	}{
		{"4", seat.AxisVertical, -scrollStep},
		{"5", seat.AxisVertical, scrollStep},
		{"6", seat.AxisHorizontal, -scrollStep},
		{"7", seat.AxisHorizontal, scrollStep},
	} {
		err := mousebind.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
			s.sink(backend.Event{
				Kind:   backend.PointerAxis,
				Time:   uint32(ev.Time),
				Device: seat.Device{Name: PointerName},
				Axis:   b.axis,
				Value:  b.value,
			})
			s.frame(uint32(ev.Time))
		}).Connect(s.xu, s.win.Id, b.button, false, false)
		if err != nil {
			s.logger.Warn("cannot bind scroll button", "button", b.button, "error", err)
		}
	}

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		s.key(ev.State, ev.Detail, true, uint32(ev.Time))
	}).Connect(s.xu, s.win.Id)
	xevent.KeyReleaseFun(func(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		s.key(ev.State, ev.Detail, false, uint32(ev.Time))
	}).Connect(s.xu, s.win.Id)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		w, h := int(ev.Width), int(ev.Height)
		if w == s.width && h == s.height {
			return
		}
		s.width, s.height = w, h
		s.sink(backend.Event{Kind: backend.OutputMode, Output: s.output()})
	}).Connect(s.xu, s.win.Id)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		xevent.Quit(xu)
	}).Connect(s.xu, s.win.Id)

	target := s.win.Id
	if s.opts.Grab {
		target = root
	}
	for keys, action := range s.opts.Bindings {
		err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
			s.sink(backend.Event{Kind: backend.Binding, Time: uint32(ev.Time), Action: action})
		}).Connect(s.xu, target, keys, true)
		if err != nil {
			s.logger.Warn("cannot register binding", "keys", keys, "action", action, "error", err)
		}
	}
}

func (s *Source) frame(time uint32) {
	s.sink(backend.Event{Kind: backend.PointerFrame, Time: time, Device: seat.Device{Name: PointerName}})
}

func (s *Source) button(detail xproto.Button, pressed bool, time uint32) {
	code, ok := buttonCode(detail)
	if !ok {
		return
	}
	s.sink(backend.Event{
		Kind:    backend.PointerButton,
		Time:    time,
		Device:  seat.Device{Name: PointerName},
		Button:  code,
		Pressed: pressed,
	})
	s.frame(time)
}

// buttonCode maps a core X button onto a Linux button code. Wheel buttons
// are handled as axis events and report false.
func buttonCode(detail xproto.Button) (uint32, bool) {
	switch detail {
	case 1:
		return seat.BtnLeft, true
	case 2:
		return seat.BtnMiddle, true
	case 3:
		return seat.BtnRight, true
	case 8:
		return btnSide, true
	case 9:
		return btnExtra, true
	}
	return 0, false
}

func (s *Source) key(state uint16, detail xproto.Keycode, pressed bool, time uint32) {
	for keys := range s.opts.Bindings {
		if pressed && keybind.KeyMatch(s.xu, keys, state, detail) {
			return
		}
	}
	if mods := stateModifiers(state); mods != s.mods {
		s.mods = mods
		s.sink(backend.Event{Kind: backend.KeyboardModifiers, Time: time, Device: seat.Device{Name: KeyboardName}, Mods: mods})
	}
	s.sink(backend.Event{
		Kind:    backend.KeyboardKey,
		Time:    time,
		Device:  seat.Device{Name: KeyboardName},
		Key:     evdevKeycode(detail),
		Pressed: pressed,
	})
}

// stateModifiers converts a core X modifier state. The seat modifier bits
// follow the X mask order.
func stateModifiers(state uint16) seat.Modifiers {
	return seat.Modifiers(state & 0xff)
}

// evdevKeycode converts an X keycode; X keycodes are offset by 8.
func evdevKeycode(detail xproto.Keycode) uint32 {
	if detail < 8 {
		return 0
	}
	return uint32(detail) - 8
}
