package desktop

import (
	"github.com/1broseidon/palmwm/internal/event"
	"github.com/1broseidon/palmwm/internal/geom"
)

// ClientID identifies the client connection that owns a surface.
type ClientID uint32

// SurfaceID is a compositor-assigned surface identifier.
type SurfaceID uint32

// SurfaceEventKind enumerates surface notifications.
type SurfaceEventKind int

const (
	SurfaceCommit SurfaceEventKind = iota
	SurfaceMap
	SurfaceUnmap
	SurfaceDestroy
)

func (k SurfaceEventKind) String() string {
	switch k {
	case SurfaceCommit:
		return "commit"
	case SurfaceMap:
		return "map"
	case SurfaceUnmap:
		return "unmap"
	case SurfaceDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// SurfaceEvent is emitted on a surface's bus.
type SurfaceEvent struct {
	Kind    SurfaceEventKind
	Surface *Surface
}

// SurfaceChild is a subsurface or popup placed at an offset from its parent.
type SurfaceChild struct {
	Surface *Surface
	X       int
	Y       int
}

// Surface is the compositor-side record of a client surface: its size, its
// input region and the child surfaces stacked above it.
type Surface struct {
	id     SurfaceID
	client ClientID
	width  int
	height int

	// input is the accepted input region in surface-local coordinates.
	// A nil region accepts the whole surface.
	input []geom.Box

	children  []SurfaceChild
	mapped    bool
	destroyed bool
	events    event.Bus[SurfaceEvent]
}

// ID returns the surface identifier.
func (s *Surface) ID() SurfaceID { return s.id }

// Client returns the owning client.
func (s *Surface) Client() ClientID { return s.client }

// Size returns the current surface size.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Mapped reports whether the surface has content on screen.
func (s *Surface) Mapped() bool { return s.mapped }

// Events returns the surface's notification bus.
func (s *Surface) Events() *event.Bus[SurfaceEvent] { return &s.events }

// SetInputRegion replaces the input region. Nil means the whole surface;
// an empty region accepts no input.
func (s *Surface) SetInputRegion(region []geom.Box) {
	if region == nil {
		s.input = nil
		return
	}
	s.input = make([]geom.Box, len(region))
	copy(s.input, region)
}

// AddChild stacks c above s and the existing children at (x, y).
func (s *Surface) AddChild(c *Surface, x, y int) {
	s.children = append(s.children, SurfaceChild{Surface: c, X: x, Y: y})
}

// RemoveChild unlinks c from s.
func (s *Surface) RemoveChild(c *Surface) {
	for i, ch := range s.children {
		if ch.Surface == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// Commit applies a new size and notifies subscribers.
func (s *Surface) Commit(width, height int) {
	s.width, s.height = width, height
	s.events.Emit(SurfaceEvent{Kind: SurfaceCommit, Surface: s})
}

// Map marks the surface as visible.
func (s *Surface) Map() {
	if s.mapped || s.destroyed {
		return
	}
	s.mapped = true
	s.events.Emit(SurfaceEvent{Kind: SurfaceMap, Surface: s})
}

// Unmap hides the surface.
func (s *Surface) Unmap() {
	if !s.mapped {
		return
	}
	s.mapped = false
	s.events.Emit(SurfaceEvent{Kind: SurfaceUnmap, Surface: s})
}

// Destroy unmaps the surface, notifies subscribers and drops them.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.Unmap()
	s.destroyed = true
	s.events.Emit(SurfaceEvent{Kind: SurfaceDestroy, Surface: s})
	s.events.Clear()
}

// AcceptsInput reports whether the surface-local point is inside the surface
// and its input region.
func (s *Surface) AcceptsInput(sx, sy float64) bool {
	if s.destroyed {
		return false
	}
	if !(geom.Box{Width: s.width, Height: s.height}).Contains(sx, sy) {
		return false
	}
	if s.input == nil {
		return true
	}
	for _, r := range s.input {
		if r.Contains(sx, sy) {
			return true
		}
	}
	return false
}

// SurfaceAt finds the topmost surface in the tree rooted at s that accepts
// input at the surface-local point, returning coordinates local to the hit.
func (s *Surface) SurfaceAt(sx, sy float64) (*Surface, geom.Point, bool) {
	for i := len(s.children) - 1; i >= 0; i-- {
		ch := s.children[i]
		if hit, p, ok := ch.Surface.SurfaceAt(sx-float64(ch.X), sy-float64(ch.Y)); ok {
			return hit, p, true
		}
	}
	if s.AcceptsInput(sx, sy) {
		return s, geom.Point{X: sx, Y: sy}, true
	}
	return nil, geom.Point{}, false
}
