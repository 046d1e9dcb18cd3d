package desktop

import "github.com/1broseidon/palmwm/internal/geom"

// Hit is the result of resolving a layout point.
type Hit struct {
	// Surface is nil when the point landed on a view decoration.
	Surface *Surface
	// Local is the point in Surface-local coordinates, or view-local
	// coordinates for a decoration hit.
	Local geom.Point
	View  ViewID
	Layer *LayerSurface
	Deco  DecoPart
}

// Resolve finds the topmost interactive surface at the layout point. The
// scan order is the overlay layer, then either the fullscreen view (top
// layer first when shell reveal is forced) or the top layer, the view
// stack, then the bottom and background layers. A fullscreen output never
// falls through to the view stack.
func (d *Desktop) Resolve(p geom.Point) (Hit, bool) {
	o := d.OutputAt(p.X, p.Y)
	var op geom.Point
	if o != nil {
		op = geom.Point{X: p.X - float64(o.box.X), Y: p.Y - float64(o.box.Y)}
		if h, ok := layerAt(o.layers[LayerOverlay], op); ok {
			return h, true
		}
		if fv := d.views.get(o.fullscreen); fv != nil {
			if o.forceShellReveal {
				if h, ok := layerAt(o.layers[LayerTop], op); ok {
					return h, true
				}
			}
			return viewAt(fv, p)
		}
		if h, ok := layerAt(o.layers[LayerTop], op); ok {
			return h, true
		}
	}

	for _, id := range d.stack {
		v := d.views.get(id)
		if v == nil || !d.ViewIsVisible(v) {
			continue
		}
		if h, ok := viewAt(v, p); ok {
			return h, true
		}
	}

	if o != nil {
		if h, ok := layerAt(o.layers[LayerBottom], op); ok {
			return h, true
		}
		if h, ok := layerAt(o.layers[LayerBackground], op); ok {
			return h, true
		}
	}
	return Hit{}, false
}

// SurfaceAt is Resolve reduced to the surface and its local coordinates.
func (d *Desktop) SurfaceAt(p geom.Point) (*Surface, geom.Point) {
	h, ok := d.Resolve(p)
	if !ok {
		return nil, geom.Point{}
	}
	return h.Surface, h.Local
}

// viewAt tests the view's surface tree and then its decoration at a layout
// point.
func viewAt(v *View, p geom.Point) (Hit, bool) {
	if v.surface == nil {
		return Hit{}, false
	}
	local := geom.Apply(geom.LayoutToLocal(v.box, v.scale, v.rotation), p)
	if s, sp, ok := v.surface.SurfaceAt(local.X, local.Y); ok {
		return Hit{Surface: s, Local: sp, View: v.id}, true
	}
	if part := v.DecorationAt(local.X, local.Y); part != DecoNone {
		return Hit{Local: local, View: v.id, Deco: part}, true
	}
	return Hit{}, false
}

// layerAt scans one layer front to back, trying surfaces that reserve an
// exclusive zone before the rest. op is output-local.
func layerAt(list []*LayerSurface, op geom.Point) (Hit, bool) {
	for _, exclusive := range []bool{true, false} {
		for i := len(list) - 1; i >= 0; i-- {
			ls := list[i]
			if !ls.mapped || ls.surface == nil || (ls.exclusiveZone > 0) != exclusive {
				continue
			}
			if !ls.geo.Contains(op.X, op.Y) {
				continue
			}
			sx, sy := op.X-float64(ls.geo.X), op.Y-float64(ls.geo.Y)
			if s, sp, ok := ls.surface.SurfaceAt(sx, sy); ok {
				return Hit{Surface: s, Local: sp, Layer: ls}, true
			}
		}
	}
	return Hit{}, false
}
