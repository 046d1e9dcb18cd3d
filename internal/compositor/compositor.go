// Package compositor ties the desktop and the seats together behind a
// single dispatch goroutine. Backend events and control requests are queued
// in arrival order and applied one at a time; nothing outside Run touches
// desktop or seat state.
package compositor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/config"
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
	"github.com/1broseidon/palmwm/internal/seat"
)

// queueSize bounds the number of pending events before senders block.
const queueSize = 1024

// Compositor is the explicit context shared by every input operation.
type Compositor struct {
	logger  *slog.Logger
	cfg     *config.Config
	desktop *desktop.Desktop
	input   *seat.Input

	bindings []binding
	// swallowed holds keys whose press triggered a binding, so their
	// release is not forwarded either.
	swallowed map[string]map[uint32]struct{}
	clients   clientTable

	queue chan func()
}

// New builds the desktop and the seats described by cfg. renderer receives
// damage; it may be nil.
func New(cfg *config.Config, renderer desktop.DamageSink, logger *slog.Logger) (*Compositor, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	d := desktop.New(desktop.Options{
		AutoMaximize: cfg.Desktop.AutoMaximize,
		Damage:       renderer,
		Logger:       logger,
		ViewLimit:    cfg.Desktop.ViewLimit,
	})
	c := &Compositor{
		logger:    logger.With("component", "compositor"),
		cfg:       cfg,
		desktop:   d,
		swallowed: make(map[string]map[uint32]struct{}),
		clients:   newClientTable(),
		queue:     make(chan func(), queueSize),
	}

	for _, oc := range cfg.Outputs {
		if _, err := d.AddOutput(outputFromConfig(oc)); err != nil {
			return nil, fmt.Errorf("compositor: %w", err)
		}
	}

	c.input = seat.NewInput(d, logger)
	c.input.SetFocusOnMap(cfg.Desktop.FocusOnMap)
	for _, sc := range cfg.Seats {
		scfg, err := seatFromConfig(sc, logger)
		if err != nil {
			return nil, fmt.Errorf("compositor: seat %q: %w", sc.Name, err)
		}
		if _, err := c.input.AddSeat(scfg); err != nil {
			return nil, fmt.Errorf("compositor: %w", err)
		}
	}

	bindings, err := parseBindings(cfg.Bindings)
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	c.bindings = bindings
	exportCursorTheme(cfg.Desktop)
	return c, nil
}

// Desktop returns the desktop. Only the dispatch goroutine may use it.
func (c *Compositor) Desktop() *desktop.Desktop { return c.desktop }

// Input returns the seat registry. Only the dispatch goroutine may use it.
func (c *Compositor) Input() *seat.Input { return c.input }

// Run applies queued work until ctx is cancelled. It may be called again
// after it returns.
func (c *Compositor) Run(ctx context.Context) error {
	c.logger.Info("dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("dispatch loop stopped")
			return nil
		case fn := <-c.queue:
			fn()
		}
	}
}

// Sink returns a backend sink that queues events until ctx is cancelled.
func (c *Compositor) Sink(ctx context.Context) backend.Sink {
	return func(ev backend.Event) {
		select {
		case c.queue <- func() { c.handleEvent(ev) }:
		case <-ctx.Done():
		}
	}
}

// Do runs fn on the dispatch goroutine and waits for its result.
func (c *Compositor) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case c.queue <- func() { errc <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func outputFromConfig(oc config.OutputConfig) desktop.OutputConfig {
	scale := oc.Scale
	if scale <= 0 {
		scale = 1
	}
	return desktop.OutputConfig{
		Name: oc.Name,
		Box: geom.Box{
			X:      oc.X,
			Y:      oc.Y,
			Width:  int(float64(oc.Width) / scale),
			Height: int(float64(oc.Height) / scale),
		},
		Scale:            scale,
		Enabled:          oc.Enabled,
		BuiltIn:          oc.BuiltIn,
		ForceShellReveal: oc.ForceShellReveal,
	}
}

func seatFromConfig(sc config.SeatConfig, logger *slog.Logger) (seat.Config, error) {
	out := seat.Config{
		Name:          sc.Name,
		DefaultCursor: sc.DefaultCursor,
		Devices:       sc.Devices,
		Logger:        logger,
	}
	if sc.MetaModifier != "" {
		mod, err := backend.ParseModifier(sc.MetaModifier)
		if err != nil {
			return seat.Config{}, err
		}
		out.MetaModifier = mod
	}
	return out, nil
}

// exportCursorTheme publishes the cursor theme to child processes.
func exportCursorTheme(dc config.DesktopConfig) {
	if dc.CursorTheme != "" {
		os.Setenv("XCURSOR_THEME", dc.CursorTheme)
	}
	if dc.CursorSize > 0 {
		os.Setenv("XCURSOR_SIZE", strconv.Itoa(dc.CursorSize))
	}
}
