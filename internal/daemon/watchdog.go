package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Pinger runs a no-op on the dispatch goroutine.
type Pinger interface {
	Do(ctx context.Context, fn func() error) error
}

// WatchdogConfig holds configuration for the watchdog.
type WatchdogConfig struct {
	Interval time.Duration
	// Stall is how long a ping may wait before the loop counts as stalled.
	Stall  time.Duration
	Logger *slog.Logger
}

// Watchdog periodically checks that the dispatch loop still drains its
// queue and reports when it falls behind.
type Watchdog struct {
	interval time.Duration
	stall    time.Duration
	pinger   Pinger
	logger   *slog.Logger
	stalled  bool
}

// NewWatchdog creates a watchdog probing p.
func NewWatchdog(cfg WatchdogConfig, p Pinger) *Watchdog {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	stall := cfg.Stall
	if stall <= 0 {
		stall = 2 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Watchdog{
		interval: interval,
		stall:    stall,
		pinger:   p,
		logger:   logger.With("component", "watchdog"),
	}
}

func (w *Watchdog) String() string { return "watchdog" }

// Serve runs the ping loop. Blocks until ctx is cancelled.
func (w *Watchdog) Serve(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Debug("watchdog started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.CheckNow(ctx)
		}
	}
}

// CheckNow pings once and returns the round-trip latency. It reports
// false if the ping did not complete within the stall limit.
func (w *Watchdog) CheckNow(ctx context.Context) (time.Duration, bool) {
	pingCtx, cancel := context.WithTimeout(ctx, w.stall)
	defer cancel()

	start := time.Now()
	err := w.pinger.Do(pingCtx, func() error { return nil })
	latency := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return latency, false
		}
		if !w.stalled {
			w.logger.Warn("dispatch loop stalled", "waited", latency, "error", err)
		}
		w.stalled = true
		return latency, false
	}
	if w.stalled {
		w.logger.Info("dispatch loop recovered", "latency", latency)
		w.stalled = false
	}
	return latency, true
}
