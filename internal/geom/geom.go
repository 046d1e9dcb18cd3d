package geom

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

// Point is a position in layout, output or surface coordinates.
type Point struct {
	X float64
	Y float64
}

// Box is an integer rectangle. X and Y are the top-left corner.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (b Box) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", b.Width, b.Height, b.X, b.Y)
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Contains reports whether the point lies inside the box. The right and
// bottom edges are exclusive.
func (b Box) Contains(x, y float64) bool {
	if b.Empty() {
		return false
	}
	return x >= float64(b.X) && x < float64(b.X+b.Width) &&
		y >= float64(b.Y) && y < float64(b.Y+b.Height)
}

// Intersects reports whether the two boxes share any area.
func (b Box) Intersects(o Box) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.X < o.X+o.Width && o.X < b.X+b.Width &&
		b.Y < o.Y+o.Height && o.Y < b.Y+b.Height
}

// Translate returns the box moved by (dx, dy).
func (b Box) Translate(dx, dy int) Box {
	b.X += dx
	b.Y += dy
	return b
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Point{
		X: float64(b.X) + float64(b.Width)/2,
		Y: float64(b.Y) + float64(b.Height)/2,
	}
}

// Clamp returns p moved to the closest point inside the box.
func (b Box) Clamp(p Point) Point {
	if b.Empty() {
		return p
	}
	maxX := float64(b.X+b.Width) - 1
	maxY := float64(b.Y+b.Height) - 1
	p.X = math.Max(float64(b.X), math.Min(p.X, maxX))
	p.Y = math.Max(float64(b.Y), math.Min(p.Y, maxY))
	return p
}

// Apply transforms p by the affine matrix m.
func Apply(m f64.Aff3, p Point) Point {
	return Point{
		X: m[0]*p.X + m[1]*p.Y + m[2],
		Y: m[3]*p.X + m[4]*p.Y + m[5],
	}
}

func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func translate(dx, dy float64) f64.Aff3 {
	return f64.Aff3{1, 0, dx, 0, 1, dy}
}

func rotate(rad float64) f64.Aff3 {
	s, c := math.Sincos(rad)
	return f64.Aff3{c, -s, 0, s, c, 0}
}

func scale(s float64) f64.Aff3 {
	return f64.Aff3{s, 0, 0, 0, s, 0}
}

// LayoutToLocal returns the matrix mapping layout coordinates into the
// surface-local space of a view whose box is b. The rotation is undone
// around the box center, then the view scale is divided out.
func LayoutToLocal(b Box, viewScale, rotation float64) f64.Aff3 {
	if viewScale <= 0 {
		viewScale = 1
	}
	cx, cy := float64(b.Width)/2, float64(b.Height)/2
	m := translate(-float64(b.X), -float64(b.Y))
	if rotation != 0 {
		m = mul(translate(-cx, -cy), m)
		m = mul(rotate(-rotation), m)
		m = mul(translate(cx, cy), m)
	}
	return mul(scale(1/viewScale), m)
}

// LocalToLayout is the inverse of LayoutToLocal.
func LocalToLayout(b Box, viewScale, rotation float64) f64.Aff3 {
	if viewScale <= 0 {
		viewScale = 1
	}
	cx, cy := float64(b.Width)/2, float64(b.Height)/2
	m := scale(viewScale)
	if rotation != 0 {
		m = mul(translate(-cx, -cy), m)
		m = mul(rotate(rotation), m)
		m = mul(translate(cx, cy), m)
	}
	return mul(translate(float64(b.X), float64(b.Y)), m)
}

// Edges is a bitmask of box edges used by interactive resize.
type Edges uint32

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1
	EdgeBottom Edges = 2
	EdgeLeft   Edges = 4
	EdgeRight  Edges = 8
)

// ResizeCursorName returns the cursor image name for a resize along edges.
func (e Edges) ResizeCursorName() string {
	name := ""
	if e&EdgeTop != 0 {
		name += "n"
	} else if e&EdgeBottom != 0 {
		name += "s"
	}
	if e&EdgeLeft != 0 {
		name += "w"
	} else if e&EdgeRight != 0 {
		name += "e"
	}
	if name == "" {
		return ""
	}
	return name + "-resize"
}
