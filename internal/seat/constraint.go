package seat

import (
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

// ConstraintKind selects how a constraint restricts the pointer.
type ConstraintKind int

const (
	ConstraintLock ConstraintKind = iota
	ConstraintConfine
)

func (k ConstraintKind) String() string {
	if k == ConstraintLock {
		return "lock"
	}
	return "confine"
}

// Constraint locks or confines the seat's pointer to a surface. It only
// becomes active if the pointer is over its surface when it is created.
type Constraint struct {
	kind    ConstraintKind
	surface *desktop.Surface
	// region is surface-local; nil means the whole surface.
	region []geom.Box
	hint   *geom.Point
	active bool
}

func (c *Constraint) Kind() ConstraintKind      { return c.kind }
func (c *Constraint) Surface() *desktop.Surface { return c.surface }
func (c *Constraint) Active() bool              { return c.active }

// SetCursorHint records where the client wants the cursor when the lock is
// released, in surface-local coordinates.
func (c *Constraint) SetCursorHint(x, y float64) {
	c.hint = &geom.Point{X: x, Y: y}
}

// ActiveConstraint returns the seat's active constraint, or nil.
func (s *Seat) ActiveConstraint() *Constraint { return s.cursor.constraint }

// NewConstraint registers a constraint for surface and activates it if the
// surface is the one currently under the pointer.
func (s *Seat) NewConstraint(surface *desktop.Surface, kind ConstraintKind, region []geom.Box) *Constraint {
	c := &Constraint{kind: kind, surface: surface, region: append([]geom.Box(nil), region...)}
	s.constraints = append(s.constraints, c)

	under, _ := s.desktop.SurfaceAt(s.Position())
	if under != nil && under == surface && s.cursor.constraint == nil {
		s.activateConstraint(c)
	}
	return c
}

// DestroyConstraint removes a constraint. Releasing an active lock warps
// the pointer to the cursor hint, if one was set.
func (s *Seat) DestroyConstraint(c *Constraint) {
	if s.cursor.constraint == c {
		s.deactivateConstraint(c)
		if c.hint != nil {
			if v := s.viewForSurface(c.surface); v != nil {
				p := geom.Apply(geom.LocalToLayout(v.Box(), v.Scale(), v.Rotation()), *c.hint)
				s.Warp(p.X, p.Y)
			}
		}
	}
	s.dropConstraint(c)
}

func (s *Seat) activateConstraint(c *Constraint) {
	c.active = true
	s.cursor.constraint = c
	s.logger.Debug("pointer constraint activated", "kind", c.kind.String())
	s.emit(Event{Kind: ConstraintActivated, Surface: c.surface})
}

func (s *Seat) deactivateConstraint(c *Constraint) {
	if !c.active {
		return
	}
	c.active = false
	if s.cursor.constraint == c {
		s.cursor.constraint = nil
	}
	s.emit(Event{Kind: ConstraintDeactivated, Surface: c.surface})
}

func (s *Seat) dropConstraint(c *Constraint) {
	for i, cur := range s.constraints {
		if cur == c {
			s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
			return
		}
	}
}

// allows reports whether the pointer may move to the layout point.
func (c *Constraint) allows(s *Seat, p geom.Point) bool {
	if c.kind == ConstraintLock {
		return false
	}
	v := s.viewForSurface(c.surface)
	if v == nil {
		return true
	}
	local := geom.Apply(geom.LayoutToLocal(v.Box(), v.Scale(), v.Rotation()), p)
	if c.region == nil {
		w, h := c.surface.Size()
		return (geom.Box{Width: w, Height: h}).Contains(local.X, local.Y)
	}
	for _, r := range c.region {
		if r.Contains(local.X, local.Y) {
			return true
		}
	}
	return false
}

func (s *Seat) viewForSurface(surface *desktop.Surface) *desktop.View {
	if surface == nil {
		return nil
	}
	for _, id := range s.desktop.Stack() {
		if v := s.desktop.View(id); v != nil && v.Surface() == surface {
			return v
		}
	}
	return nil
}
