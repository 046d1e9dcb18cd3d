// Package daemon runs the compositor, its input source and the control
// socket under one supervision tree.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/backend/evdev"
	"github.com/1broseidon/palmwm/internal/backend/x11"
	"github.com/1broseidon/palmwm/internal/compositor"
	"github.com/1broseidon/palmwm/internal/config"
	"github.com/1broseidon/palmwm/internal/ipc"
	"github.com/1broseidon/palmwm/internal/runtimepath"
)

// ErrUnknownBackend is returned for a backend kind with no source.
var ErrUnknownBackend = errors.New("unknown backend")

// Options configures a Daemon.
type Options struct {
	// ConfigPath is the config file; empty uses the default location.
	ConfigPath string
	// Backend overrides backend.kind from the config when non-empty.
	Backend string
	// PIDPath overrides the runtime pid file. Tests set it to avoid
	// touching the user's runtime dir.
	PIDPath string
	Logger  *slog.Logger
}

// Daemon owns the compositor and the services feeding it.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	cfgMu sync.Mutex
	cfg   *config.Config

	comp     *compositor.Compositor
	source   backend.Source
	server   *ipc.Server
	watchdog *Watchdog
}

// New loads the configuration and builds every component without starting
// any of them.
func New(opts Options) (*Daemon, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig builds a daemon around an already loaded configuration.
func NewWithConfig(cfg *config.Config, opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Backend != "" {
		cfg.Backend.Kind = opts.Backend
	}

	comp, err := compositor.New(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	source, err := NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		opts:   opts,
		logger: logger.With("component", "daemon"),
		cfg:    cfg,
		comp:   comp,
		source: source,
	}

	socketPath, err := runtimepath.SocketPath(cfg.IPC.Socket)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	d.server, err = ipc.NewServer(comp, ipc.Options{
		SocketPath: socketPath,
		Backend:    source.Name(),
		Reload:     d.Reload,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	d.watchdog = NewWatchdog(WatchdogConfig{Logger: logger}, comp)
	return d, nil
}

// NewSource builds the input source named by cfg.Backend.Kind.
func NewSource(cfg *config.Config, logger *slog.Logger) (backend.Source, error) {
	switch cfg.Backend.Kind {
	case config.BackendHeadless, "":
		return backend.NewHeadless(logger), nil
	case config.BackendX11:
		return x11.New(x11.Options{
			Display:  cfg.Backend.Display,
			Width:    cfg.Backend.Width,
			Height:   cfg.Backend.Height,
			Grab:     cfg.Backend.Grab,
			Mirror:   cfg.Backend.Mirror,
			Bindings: bindingMap(cfg.Bindings),
			Logger:   logger,
		}), nil
	case config.BackendEvdev:
		return evdev.New(evdev.Options{
			Grab:   cfg.Backend.Grab,
			Logger: logger,
		}), nil
	default:
		return nil, fmt.Errorf("backend %q: %w", cfg.Backend.Kind, ErrUnknownBackend)
	}
}

func bindingMap(list []config.Binding) map[string]string {
	out := make(map[string]string, len(list))
	for _, b := range list {
		out[b.Keys] = b.Action
	}
	return out
}

// Compositor returns the compositor driven by the daemon.
func (d *Daemon) Compositor() *compositor.Compositor { return d.comp }

// Config returns the configuration currently applied.
func (d *Daemon) Config() *config.Config {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	return d.cfg
}

// Run starts every service and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	pidPath := d.opts.PIDPath
	if pidPath == "" {
		var err error
		pidPath, err = runtimepath.PIDPath()
		if err != nil {
			return fmt.Errorf("failed to resolve pid file: %w", err)
		}
	}
	if err := writePIDFile(pidPath); err != nil {
		return err
	}
	defer os.Remove(pidPath)

	sup := suture.New("palmwm", suture.Spec{
		EventHook: d.supervisorEvent,
		Timeout:   5 * time.Second,
	})
	sup.Add(&dispatchService{comp: d.comp})
	sup.Add(d.server)
	sup.Add(&sourceService{source: d.source, comp: d.comp})
	sup.Add(&reloadService{daemon: d})
	sup.Add(d.watchdog)

	d.logger.Info("palmwm daemon started", "backend", d.source.Name(), "socket", d.server.SocketPath())
	err := sup.Serve(ctx)
	d.logger.Info("palmwm daemon stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Reload re-reads the config file and applies it to the running
// compositor. The backend kind cannot change without a restart.
func (d *Daemon) Reload(ctx context.Context) error {
	cfg, err := config.Load(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	current := d.Config()
	if d.opts.Backend != "" {
		cfg.Backend.Kind = d.opts.Backend
	}
	if cfg.Backend.Kind != current.Backend.Kind {
		d.logger.Warn("backend change needs a restart",
			"running", current.Backend.Kind,
			"configured", cfg.Backend.Kind)
		cfg.Backend = current.Backend
	}
	if err := d.comp.Reload(ctx, cfg); err != nil {
		return err
	}

	d.cfgMu.Lock()
	d.cfg = cfg
	d.cfgMu.Unlock()
	return nil
}

func (d *Daemon) supervisorEvent(ev suture.Event) {
	switch ev.Type() {
	case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
		d.logger.Error("service failed", "event", ev.String())
	case suture.EventTypeBackoff:
		d.logger.Warn("services restarting too often, backing off")
	case suture.EventTypeResume:
		d.logger.Info("service restarts resumed")
	default:
		d.logger.Debug("supervisor event", "event", ev.String())
	}
}

type dispatchService struct {
	comp *compositor.Compositor
}

func (s *dispatchService) String() string { return "dispatch" }

func (s *dispatchService) Serve(ctx context.Context) error {
	return s.comp.Run(ctx)
}

type sourceService struct {
	source backend.Source
	comp   *compositor.Compositor
}

func (s *sourceService) String() string { return "backend:" + s.source.Name() }

func (s *sourceService) Serve(ctx context.Context) error {
	return s.source.Run(ctx, s.comp.Sink(ctx))
}

// reloadService reloads the configuration on SIGHUP.
type reloadService struct {
	daemon *Daemon
}

func (s *reloadService) String() string { return "sighup" }

func (s *reloadService) Serve(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			s.daemon.logger.Info("received SIGHUP, reloading config")
			if err := s.daemon.Reload(ctx); err != nil {
				s.daemon.logger.Error("config reload failed", "error", err)
				continue
			}
			s.daemon.logger.Info("config reloaded")
		}
	}
}
