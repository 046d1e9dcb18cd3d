// Package desktop owns the compositor-global window state: the view arena and
// view stack, the output layout with its per-output layer sets, and the
// hit-tester that resolves a layout point to the surface that owns it.
//
// Everything here is mutated from the dispatch goroutine only. Readers on
// other goroutines must go through compositor snapshots.
package desktop

import (
	"errors"
	"io"
	"log/slog"

	"github.com/1broseidon/palmwm/internal/event"
)

var (
	ErrUnknownView   = errors.New("unknown view")
	ErrUnknownOutput = errors.New("unknown output")
	ErrNotMapped     = errors.New("view not mapped")
	ErrReparentCycle = errors.New("reparent would create a cycle")
	ErrDuplicate     = errors.New("output already exists")
	ErrArenaFull     = errors.New("view limit reached")
)

// DefaultViewLimit bounds the number of live views.
const DefaultViewLimit = 1 << 16

// EventKind enumerates desktop-wide notifications.
type EventKind int

const (
	ViewMapped EventKind = iota
	ViewUnmapped
	ViewDestroyed
	OutputAdded
	OutputRemoved
	LayoutChanged
	LayersArranged
	LayerUnmapped
)

func (k EventKind) String() string {
	switch k {
	case ViewMapped:
		return "view-mapped"
	case ViewUnmapped:
		return "view-unmapped"
	case ViewDestroyed:
		return "view-destroyed"
	case OutputAdded:
		return "output-added"
	case OutputRemoved:
		return "output-removed"
	case LayoutChanged:
		return "layout-changed"
	case LayersArranged:
		return "layers-arranged"
	case LayerUnmapped:
		return "layer-unmapped"
	default:
		return "unknown"
	}
}

// Event is emitted on the desktop bus. For ViewUnmapped and ViewDestroyed,
// Parent holds the view's parent at the time of the event.
type Event struct {
	Kind   EventKind
	View   ViewID
	Parent ViewID
	Output *Output
	// Layer is the topmost keyboard-interactive layer surface at or above
	// the top layer for LayersArranged, or the affected layer surface for
	// LayerUnmapped.
	Layer *LayerSurface
}

// Options configures a Desktop.
type Options struct {
	// AutoMaximize forces every toplevel maximized and enables the
	// single-output visibility filter.
	AutoMaximize bool
	Damage       DamageSink
	Logger       *slog.Logger
	ViewLimit    int
}

// Desktop is the shared window state of one compositor instance.
type Desktop struct {
	logger       *slog.Logger
	damage       DamageSink
	autoMaximize bool

	views   viewArena
	stack   []ViewID // index 0 is the topmost view
	outputs []*Output

	nextSurface SurfaceID
	events      event.Bus[Event]
}

// New creates an empty desktop.
func New(opts Options) *Desktop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := opts.ViewLimit
	if limit <= 0 {
		limit = DefaultViewLimit
	}
	damage := opts.Damage
	if damage == nil {
		damage = nopDamage{}
	}
	return &Desktop{
		logger:       logger.With("component", "desktop"),
		damage:       damage,
		autoMaximize: opts.AutoMaximize,
		views:        viewArena{limit: limit},
	}
}

// Events returns the desktop notification bus.
func (d *Desktop) Events() *event.Bus[Event] { return &d.events }

// Logger returns the desktop logger.
func (d *Desktop) Logger() *slog.Logger { return d.logger }

// AutoMaximize reports whether forced-maximize mode is active.
func (d *Desktop) AutoMaximize() bool { return d.autoMaximize }

// SetAutoMaximize toggles forced-maximize mode. Enabling it maximizes every
// mapped toplevel.
func (d *Desktop) SetAutoMaximize(on bool) {
	if d.autoMaximize == on {
		return
	}
	d.autoMaximize = on
	d.logger.Info("auto-maximize changed", "enabled", on)
	if !on {
		return
	}
	for _, id := range d.stack {
		if v := d.views.get(id); v != nil && v.parent == 0 {
			v.SetMaximized(true)
		}
	}
}

// NewSurface allocates a surface for client.
func (d *Desktop) NewSurface(client ClientID, width, height int) *Surface {
	d.nextSurface++
	return &Surface{id: d.nextSurface, client: client, width: width, height: height}
}
