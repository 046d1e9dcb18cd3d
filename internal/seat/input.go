package seat

import (
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/event"
)

// Input owns every seat of a compositor. It subscribes to the desktop once
// and forwards view, layer and output notifications to each seat.
type Input struct {
	desktop    *desktop.Desktop
	logger     *slog.Logger
	seats      []*Seat
	globs      map[*Seat][]string
	lastActive *Seat
	token      event.Token
	// focusOnMap gives newly mapped views focus on the last active seat.
	focusOnMap bool
}

// NewInput creates an empty seat registry for d.
func NewInput(d *desktop.Desktop, logger *slog.Logger) *Input {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	in := &Input{
		desktop:    d,
		logger:     logger.With("component", "input"),
		globs:      make(map[*Seat][]string),
		focusOnMap: true,
	}
	in.token = d.Events().Subscribe(in.handleDesktopEvent)
	return in
}

// Close detaches the registry from the desktop.
func (in *Input) Close() {
	in.desktop.Events().Unsubscribe(in.token)
}

// SetFocusOnMap controls whether mapping a view focuses it.
func (in *Input) SetFocusOnMap(on bool) { in.focusOnMap = on }

// AddSeat creates a seat. Views already on the stack join its MRU list in
// stacking order.
func (in *Input) AddSeat(cfg Config) (*Seat, error) {
	if cfg.Name == "" {
		cfg.Name = "seat0"
	}
	if in.Seat(cfg.Name) != nil {
		return nil, fmt.Errorf("add seat %q: %w", cfg.Name, ErrDuplicateSeat)
	}
	for _, g := range cfg.Devices {
		if _, err := path.Match(g, ""); err != nil {
			return nil, fmt.Errorf("add seat %q: device pattern %q: %w", cfg.Name, g, err)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = in.logger
	}
	s := newSeat(in, cfg)
	for _, id := range in.desktop.Stack() {
		s.addView(id)
	}
	in.seats = append(in.seats, s)
	in.globs[s] = append([]string(nil), cfg.Devices...)
	in.logger.Info("seat added", "seat", cfg.Name, "devices", cfg.Devices)
	return s, nil
}

// RemoveSeat drops a seat and its devices.
func (in *Input) RemoveSeat(name string) error {
	for i, s := range in.seats {
		if s.name != name {
			continue
		}
		for _, dev := range s.Devices() {
			_ = s.RemoveDevice(dev.Name)
		}
		s.cancelGrab("seat removed")
		s.events.Clear()
		in.seats = append(in.seats[:i], in.seats[i+1:]...)
		delete(in.globs, s)
		if in.lastActive == s {
			in.lastActive = nil
		}
		return nil
	}
	return fmt.Errorf("remove seat %q: %w", name, ErrUnknownSeat)
}

// Seat returns the named seat, or nil.
func (in *Input) Seat(name string) *Seat {
	for _, s := range in.seats {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Seats returns every seat in creation order.
func (in *Input) Seats() []*Seat {
	return append([]*Seat(nil), in.seats...)
}

// SeatForDevice returns the first seat with a device pattern matching name.
// Devices matching no pattern go to the first seat.
func (in *Input) SeatForDevice(name string) *Seat {
	for _, s := range in.seats {
		for _, g := range in.globs[s] {
			if ok, _ := path.Match(g, name); ok {
				return s
			}
		}
	}
	if len(in.seats) == 0 {
		return nil
	}
	return in.seats[0]
}

// AddDevice attaches a device to the seat chosen by SeatForDevice.
func (in *Input) AddDevice(dev Device) (*Seat, error) {
	s := in.SeatForDevice(dev.Name)
	if s == nil {
		return nil, fmt.Errorf("add device %q: %w", dev.Name, ErrUnknownSeat)
	}
	if err := s.AddDevice(dev); err != nil {
		return nil, err
	}
	return s, nil
}

// RemoveDevice detaches a device from whichever seat holds it.
func (in *Input) RemoveDevice(name string) error {
	for _, s := range in.seats {
		if s.findDevice(name) != nil {
			return s.RemoveDevice(name)
		}
	}
	return fmt.Errorf("remove device %q: %w", name, ErrUnknownDevice)
}

// DeviceSeat returns the seat holding the named device, or nil.
func (in *Input) DeviceSeat(name string) *Seat {
	for _, s := range in.seats {
		if s.findDevice(name) != nil {
			return s
		}
	}
	return nil
}

// LastActiveSeat returns the seat that saw the most recent input, falling
// back to the first seat.
func (in *Input) LastActiveSeat() *Seat {
	if in.lastActive != nil {
		return in.lastActive
	}
	if len(in.seats) == 0 {
		return nil
	}
	return in.seats[0]
}

// ViewHasFocus reports whether any seat focuses the view.
func (in *Input) ViewHasFocus(id desktop.ViewID) bool {
	for _, s := range in.seats {
		if s.Focus() == id {
			return true
		}
	}
	return false
}

func (in *Input) viewFocusedElsewhere(self *Seat, id desktop.ViewID) bool {
	for _, s := range in.seats {
		if s != self && s.Focus() == id {
			return true
		}
	}
	return false
}

// SetExclusiveClient restricts every seat to one client. Zero lifts the
// restriction.
func (in *Input) SetExclusiveClient(client desktop.ClientID) {
	in.logger.Debug("exclusive client changed", "client", client)
	for _, s := range in.seats {
		s.SetExclusiveClient(client)
	}
}

func (in *Input) handleDesktopEvent(ev desktop.Event) {
	for _, s := range in.seats {
		s.handleDesktopEvent(ev)
	}
	if ev.Kind != desktop.ViewMapped || !in.focusOnMap {
		return
	}
	v := in.desktop.View(ev.View)
	if v == nil || v.OverrideRedirect() {
		return
	}
	if s := in.LastActiveSeat(); s != nil {
		if err := s.SetFocus(ev.View); err != nil {
			in.logger.Debug("not focusing mapped view", "view", ev.View, "error", err)
		}
	}
}
