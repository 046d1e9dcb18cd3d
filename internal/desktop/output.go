package desktop

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/geom"
)

// OutputConfig describes an output added to the layout.
type OutputConfig struct {
	Name             string
	Box              geom.Box
	Scale            float64
	Enabled          bool
	BuiltIn          bool
	ForceShellReveal bool
}

// Output is one monitor placed in the layout. Its box is in layout
// coordinates using the logical (scaled) size.
type Output struct {
	name             string
	box              geom.Box
	scale            float64
	enabled          bool
	builtin          bool
	forceShellReveal bool

	fullscreen ViewID
	// layers holds one list per Layer; the last element is frontmost.
	layers [layerCount][]*LayerSurface
	usable geom.Box // output-local
}

func (o *Output) Name() string           { return o.name }
func (o *Output) Box() geom.Box          { return o.box }
func (o *Output) Scale() float64         { return o.scale }
func (o *Output) Enabled() bool          { return o.enabled }
func (o *Output) BuiltIn() bool          { return o.builtin }
func (o *Output) ForceShellReveal() bool { return o.forceShellReveal }
func (o *Output) FullscreenView() ViewID { return o.fullscreen }

// SetForceShellReveal lets the top layer show above a fullscreen view.
func (o *Output) SetForceShellReveal(b bool) { o.forceShellReveal = b }

// UsableBox returns the layout area left after layer exclusive zones.
func (o *Output) UsableBox() geom.Box {
	if o.usable.Empty() {
		return o.box
	}
	return o.usable.Translate(o.box.X, o.box.Y)
}

// Layer returns the layer surfaces of l, back to front.
func (o *Output) Layer(l Layer) []*LayerSurface {
	return append([]*LayerSurface(nil), o.layers[l]...)
}

// AddOutput places a new output in the layout.
func (d *Desktop) AddOutput(cfg OutputConfig) (*Output, error) {
	if d.Output(cfg.Name) != nil {
		return nil, fmt.Errorf("add output %q: %w", cfg.Name, ErrDuplicate)
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	o := &Output{
		name:             cfg.Name,
		box:              cfg.Box,
		scale:            cfg.Scale,
		enabled:          cfg.Enabled,
		builtin:          cfg.BuiltIn,
		forceShellReveal: cfg.ForceShellReveal,
	}
	d.outputs = append(d.outputs, o)
	d.logger.Info("output added", "output", o.name, "box", o.box.String(), "scale", o.scale, "builtin", o.builtin)
	d.events.Emit(Event{Kind: OutputAdded, Output: o})
	d.ArrangeLayers(o)
	d.layoutChanged()
	return o, nil
}

// RemoveOutput drops an output, its layer surfaces and any fullscreen state
// on it.
func (d *Desktop) RemoveOutput(name string) error {
	idx := -1
	for i, o := range d.outputs {
		if o.name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("remove output %q: %w", name, ErrUnknownOutput)
	}
	o := d.outputs[idx]
	if v := d.views.get(o.fullscreen); v != nil {
		v.SetFullscreen(false, nil)
	}
	var gone []*LayerSurface
	for l := range o.layers {
		for _, ls := range o.layers[l] {
			ls.output = nil
			ls.mapped = false
			gone = append(gone, ls)
		}
		o.layers[l] = nil
	}
	d.outputs = append(d.outputs[:idx], d.outputs[idx+1:]...)
	d.logger.Info("output removed", "output", name, "layers", len(gone))
	for _, ls := range gone {
		d.events.Emit(Event{Kind: LayerUnmapped, Output: o, Layer: ls})
	}
	d.events.Emit(Event{Kind: OutputRemoved, Output: o})
	d.ArrangeAll()
	d.layoutChanged()
	return nil
}

// ConfigureOutput updates the placement and flags of an existing output.
func (d *Desktop) ConfigureOutput(cfg OutputConfig) error {
	o := d.Output(cfg.Name)
	if o == nil {
		return fmt.Errorf("configure output %q: %w", cfg.Name, ErrUnknownOutput)
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	o.box = cfg.Box
	o.scale = cfg.Scale
	o.builtin = cfg.BuiltIn
	o.forceShellReveal = cfg.ForceShellReveal
	if o.enabled != cfg.Enabled {
		o.enabled = cfg.Enabled
		if !o.enabled {
			if v := d.views.get(o.fullscreen); v != nil {
				v.SetFullscreen(false, nil)
			}
		}
	}
	d.ArrangeLayers(o)
	d.damage.DamageWhole(o.name)
	d.layoutChanged()
	return nil
}

// Output finds an output by name.
func (d *Desktop) Output(name string) *Output {
	for _, o := range d.outputs {
		if o.name == name {
			return o
		}
	}
	return nil
}

// Outputs returns the outputs in layout order.
func (d *Desktop) Outputs() []*Output {
	return append([]*Output(nil), d.outputs...)
}

// OutputAt returns the enabled output containing the layout point.
func (d *Desktop) OutputAt(x, y float64) *Output {
	for _, o := range d.outputs {
		if o.enabled && o.box.Contains(x, y) {
			return o
		}
	}
	return nil
}

func (d *Desktop) firstEnabledOutput() *Output {
	for _, o := range d.outputs {
		if o.enabled {
			return o
		}
	}
	return nil
}

// LayoutBox returns the bounding box of all enabled outputs.
func (d *Desktop) LayoutBox() geom.Box {
	var b geom.Box
	first := true
	for _, o := range d.outputs {
		if !o.enabled {
			continue
		}
		if first {
			b = o.box
			first = false
			continue
		}
		x1, y1 := min(b.X, o.box.X), min(b.Y, o.box.Y)
		x2 := max(b.X+b.Width, o.box.X+o.box.Width)
		y2 := max(b.Y+b.Height, o.box.Y+o.box.Height)
		b = geom.Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	}
	return b
}

// ClosestPoint returns the point inside the layout nearest to p.
func (d *Desktop) ClosestPoint(p geom.Point) geom.Point {
	if d.OutputAt(p.X, p.Y) != nil {
		return p
	}
	best := p
	bestDist := -1.0
	for _, o := range d.outputs {
		if !o.enabled {
			continue
		}
		c := o.box.Clamp(p)
		dx, dy := c.X-p.X, c.Y-p.Y
		if dist := dx*dx + dy*dy; bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

// centerOutput returns the output containing the layout center, or the
// first enabled output.
func (d *Desktop) centerOutput() *Output {
	c := d.LayoutBox().Center()
	if o := d.OutputAt(c.X, c.Y); o != nil {
		return o
	}
	return d.firstEnabledOutput()
}

// layoutChanged recenters every mapped view that no longer intersects any
// enabled output onto the center output, and refits maximized and
// fullscreen views.
func (d *Desktop) layoutChanged() {
	center := d.centerOutput()
	for _, id := range d.stack {
		v := d.views.get(id)
		if v == nil {
			continue
		}
		switch {
		case v.fullscreen != nil:
			fb := v.fullscreen.box
			v.MoveResize(fb.X, fb.Y, fb.Width, fb.Height)
			continue
		case v.maximized:
			if o := v.Output(); o != nil {
				a := o.UsableBox()
				v.MoveResize(a.X, a.Y, a.Width, a.Height)
			}
			continue
		}
		onScreen := false
		for _, o := range d.outputs {
			if o.enabled && o.box.Intersects(v.box) {
				onScreen = true
				break
			}
		}
		if onScreen || center == nil {
			continue
		}
		cb := center.box
		v.Move(cb.X+(cb.Width-v.box.Width)/2, cb.Y+(cb.Height-v.box.Height)/2)
		d.logger.Debug("recentered view", "view", id, "output", center.name)
	}
	d.events.Emit(Event{Kind: LayoutChanged})
}
