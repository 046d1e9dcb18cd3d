package desktop

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/geom"
)

// Layer is a layer-shell priority band.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
	layerCount
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// LayerOptions describes a new layer surface.
type LayerOptions struct {
	Surface             *Surface
	Layer               Layer
	Geometry            geom.Box // output-local
	ExclusiveZone       int
	Anchor              geom.Edges
	KeyboardInteractive bool
	Namespace           string
}

// LayerSurface is a shell surface bound to one output and layer.
type LayerSurface struct {
	surface             *Surface
	output              *Output
	layer               Layer
	geo                 geom.Box
	exclusiveZone       int
	anchor              geom.Edges
	keyboardInteractive bool
	namespace           string
	mapped              bool
}

func (ls *LayerSurface) Surface() *Surface         { return ls.surface }
func (ls *LayerSurface) Output() *Output           { return ls.output }
func (ls *LayerSurface) Layer() Layer              { return ls.layer }
func (ls *LayerSurface) Geometry() geom.Box        { return ls.geo }
func (ls *LayerSurface) ExclusiveZone() int        { return ls.exclusiveZone }
func (ls *LayerSurface) KeyboardInteractive() bool { return ls.keyboardInteractive }
func (ls *LayerSurface) Namespace() string         { return ls.namespace }
func (ls *LayerSurface) Mapped() bool              { return ls.mapped }

// Client returns the client owning the layer surface.
func (ls *LayerSurface) Client() ClientID {
	if ls.surface == nil {
		return 0
	}
	return ls.surface.client
}

// AddLayerSurface creates a mapped layer surface at the front of its layer.
func (d *Desktop) AddLayerSurface(output string, opts LayerOptions) (*LayerSurface, error) {
	o := d.Output(output)
	if o == nil {
		return nil, fmt.Errorf("add layer surface: %w", ErrUnknownOutput)
	}
	if opts.Layer < 0 || opts.Layer >= layerCount {
		return nil, fmt.Errorf("add layer surface: invalid layer %d", opts.Layer)
	}
	ls := &LayerSurface{
		surface:             opts.Surface,
		output:              o,
		layer:               opts.Layer,
		geo:                 opts.Geometry,
		exclusiveZone:       opts.ExclusiveZone,
		anchor:              opts.Anchor,
		keyboardInteractive: opts.KeyboardInteractive,
		namespace:           opts.Namespace,
		mapped:              true,
	}
	if ls.surface != nil {
		ls.surface.Map()
	}
	o.layers[ls.layer] = append(o.layers[ls.layer], ls)
	d.damage.DamageBox(o.name, ls.geo)
	d.ArrangeLayers(o)
	return ls, nil
}

// RemoveLayerSurface unlinks the layer surface from its output.
func (d *Desktop) RemoveLayerSurface(ls *LayerSurface) {
	o := ls.output
	if o == nil {
		return
	}
	list := o.layers[ls.layer]
	for i, cur := range list {
		if cur == ls {
			o.layers[ls.layer] = append(list[:i], list[i+1:]...)
			break
		}
	}
	ls.mapped = false
	ls.output = nil
	d.damage.DamageBox(o.name, ls.geo)
	d.events.Emit(Event{Kind: LayerUnmapped, Output: o, Layer: ls})
	d.ArrangeLayers(o)
}

// SetLayerKeyboardInteractive updates interactivity and rearranges.
func (d *Desktop) SetLayerKeyboardInteractive(ls *LayerSurface, on bool) {
	ls.keyboardInteractive = on
	if ls.output != nil {
		d.ArrangeLayers(ls.output)
	}
}

// ArrangeLayers recomputes the output's usable area from anchored
// exclusive zones and announces the topmost keyboard-interactive layer
// surface at or above the top layer.
func (d *Desktop) ArrangeLayers(o *Output) {
	usable := geom.Box{Width: o.box.Width, Height: o.box.Height}
	for l := LayerOverlay; l >= LayerBackground; l-- {
		for i := len(o.layers[l]) - 1; i >= 0; i-- {
			ls := o.layers[l][i]
			if ls.mapped && ls.exclusiveZone > 0 {
				usable = applyExclusive(usable, ls.anchor, ls.exclusiveZone)
			}
		}
	}
	if usable != o.usable {
		o.usable = usable
		for _, id := range d.stack {
			if v := d.views.get(id); v != nil && v.maximized && v.fullscreen == nil && v.Output() == o {
				a := o.UsableBox()
				v.MoveResize(a.X, a.Y, a.Width, a.Height)
			}
		}
	}

	var top *LayerSurface
	for _, l := range []Layer{LayerOverlay, LayerTop} {
		list := o.layers[l]
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].mapped && list[i].keyboardInteractive {
				top = list[i]
				break
			}
		}
		if top != nil {
			break
		}
	}
	d.events.Emit(Event{Kind: LayersArranged, Output: o, Layer: top})
}

// ArrangeAll rearranges layers on every output.
func (d *Desktop) ArrangeAll() {
	for _, o := range d.outputs {
		d.ArrangeLayers(o)
	}
}

// applyExclusive shrinks area by zone along the single edge the anchor
// selects. Anchors spanning both opposite edges of an axis pick the edge of
// the other axis; ambiguous anchors reserve nothing.
func applyExclusive(area geom.Box, anchor geom.Edges, zone int) geom.Box {
	horiz := geom.EdgeLeft | geom.EdgeRight
	vert := geom.EdgeTop | geom.EdgeBottom
	switch {
	case anchor&vert == geom.EdgeTop && (anchor&horiz == horiz || anchor&horiz == 0):
		area.Y += zone
		area.Height -= zone
	case anchor&vert == geom.EdgeBottom && (anchor&horiz == horiz || anchor&horiz == 0):
		area.Height -= zone
	case anchor&horiz == geom.EdgeLeft && (anchor&vert == vert || anchor&vert == 0):
		area.X += zone
		area.Width -= zone
	case anchor&horiz == geom.EdgeRight && (anchor&vert == vert || anchor&vert == 0):
		area.Width -= zone
	}
	if area.Width < 0 {
		area.Width = 0
	}
	if area.Height < 0 {
		area.Height = 0
	}
	return area
}
