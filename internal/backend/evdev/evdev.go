// Package evdev reads input devices directly from /dev/input. Devices are
// discovered and classified through udev, and hot-plugged devices are
// picked up from the udev netlink monitor.
package evdev

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/jochenvg/go-udev"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/seat"
)

// Options configures the evdev source.
type Options struct {
	// Grab takes exclusive access to every opened device.
	Grab   bool
	Logger *slog.Logger
}

type device struct {
	node string
	info seat.Device
	dev  *evdev.InputDevice
}

// Source is an evdev backend.Source.
type Source struct {
	logger *slog.Logger
	grab   bool
	events chan backend.Event

	mu      sync.Mutex
	devices map[string]*device
}

// New creates an evdev source. Nothing is opened until Run.
func New(opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Source{
		logger:  logger.With("component", "backend", "backend", "evdev"),
		grab:    opts.Grab,
		events:  make(chan backend.Event, 256),
		devices: make(map[string]*device),
	}
}

func (s *Source) Name() string { return "evdev" }

// Run opens every input device udev knows about and follows hot-plug
// events until ctx is cancelled.
func (s *Source) Run(ctx context.Context, sink backend.Sink) error {
	u := udev.Udev{}

	m := u.NewMonitorFromNetlink("udev")
	if err := m.FilterAddMatchSubsystem("input"); err != nil {
		return fmt.Errorf("udev monitor filter: %w", err)
	}
	hotplug, err := m.DeviceChan(ctx.Done())
	if err != nil {
		return fmt.Errorf("udev monitor: %w", err)
	}

	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return fmt.Errorf("udev enumerate: %w", err)
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return fmt.Errorf("udev enumerate: %w", err)
	}
	existing, err := e.Devices()
	if err != nil {
		return fmt.Errorf("udev enumerate: %w", err)
	}

	var wg sync.WaitGroup
	for _, d := range existing {
		s.open(ctx, &wg, d, sink)
	}
	s.mu.Lock()
	opened := len(s.devices)
	s.mu.Unlock()
	s.logger.Info("evdev backend running", "devices", opened)

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			wg.Wait()
			return nil
		case d, ok := <-hotplug:
			if !ok {
				hotplug = nil
				continue
			}
			switch d.Action() {
			case "add":
				s.open(ctx, &wg, d, sink)
			case "remove":
				s.remove(d.Devnode(), sink)
			}
		case ev := <-s.events:
			sink(ev)
		}
	}
}

func (s *Source) open(ctx context.Context, wg *sync.WaitGroup, d *udev.Device, sink backend.Sink) {
	node := d.Devnode()
	if !strings.HasPrefix(node, "/dev/input/event") {
		return
	}
	props := d.Properties()
	typ, ok := classify(props)
	if !ok {
		return
	}

	dev, err := evdev.Open(node)
	if err != nil {
		s.logger.Debug("cannot open input device", "node", node, "error", err)
		return
	}
	if s.grab {
		if err := dev.Grab(); err != nil {
			s.logger.Warn("cannot grab input device", "node", node, "error", err)
		}
	}

	name := dev.Name
	if name == "" {
		name = d.Sysname()
	}
	info := seat.Device{Name: name, Type: typ, Group: deviceGroup(props)}
	ranges := readRanges(dev.File.Fd(), absCodes)

	s.mu.Lock()
	if _, dup := s.devices[node]; dup {
		s.mu.Unlock()
		dev.File.Close()
		return
	}
	s.devices[node] = &device{node: node, info: info, dev: dev}
	s.mu.Unlock()

	s.logger.Info("input device added", "name", name, "type", typ.String(), "node", node)
	sink(backend.Event{Kind: backend.DeviceAdded, Device: info})

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.read(ctx, node, dev, newTranslator(info, ranges))
	}()
}

// read pumps one device until it fails or is closed.
func (s *Source) read(ctx context.Context, node string, dev *evdev.InputDevice, tr *translator) {
	post := func(ev backend.Event) {
		select {
		case s.events <- ev:
		case <-ctx.Done():
		}
	}
	for {
		raw, err := dev.Read()
		if err != nil {
			if d := s.forget(node); d != nil {
				s.logger.Info("input device lost", "name", d.info.Name, "error", err)
				dev.File.Close()
				post(backend.Event{Kind: backend.DeviceRemoved, Device: seat.Device{Name: d.info.Name}})
			}
			return
		}
		for _, ev := range raw {
			tr.feed(ev, post)
		}
	}
}

func (s *Source) forget(node string) *device {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[node]
	if !ok {
		return nil
	}
	delete(s.devices, node)
	return d
}

func (s *Source) remove(node string, sink backend.Sink) {
	d := s.forget(node)
	if d == nil {
		return
	}
	d.dev.File.Close()
	s.logger.Info("input device removed", "name", d.info.Name, "node", node)
	sink(backend.Event{Kind: backend.DeviceRemoved, Device: seat.Device{Name: d.info.Name}})
}

func (s *Source) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for node, d := range s.devices {
		d.dev.File.Close()
		delete(s.devices, node)
	}
}
