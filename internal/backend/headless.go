package backend

import (
	"context"
	"io"
	"log/slog"

	"github.com/1broseidon/palmwm/internal/seat"
)

// Headless is a source with no hardware. It announces one virtual keyboard
// and pointer, then forwards whatever is injected until cancelled.
type Headless struct {
	logger *slog.Logger
	inject chan Event
}

// NewHeadless creates a headless source.
func NewHeadless(logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Headless{
		logger: logger.With("component", "backend", "backend", "headless"),
		inject: make(chan Event, 64),
	}
}

func (h *Headless) Name() string { return "headless" }

// Inject queues an event for delivery. It blocks while the queue is full.
func (h *Headless) Inject(ctx context.Context, ev Event) error {
	select {
	case h.inject <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run announces the virtual devices and forwards injected events.
func (h *Headless) Run(ctx context.Context, sink Sink) error {
	for _, dev := range []seat.Device{
		{Name: "headless-keyboard", Type: seat.DeviceKeyboard},
		{Name: "headless-pointer", Type: seat.DevicePointer},
	} {
		sink(Event{Kind: DeviceAdded, Device: dev})
	}
	h.logger.Info("headless backend running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-h.inject:
			sink(ev)
		}
	}
}
