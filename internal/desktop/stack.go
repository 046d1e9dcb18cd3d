package desktop

import (
	"fmt"

	"github.com/1broseidon/palmwm/internal/geom"
)

// Stack returns the mapped views front to back.
func (d *Desktop) Stack() []ViewID {
	return append([]ViewID(nil), d.stack...)
}

// TopView returns the topmost mapped view, or nil.
func (d *Desktop) TopView() *View {
	if len(d.stack) == 0 {
		return nil
	}
	return d.views.get(d.stack[0])
}

// ViewCount returns the number of live views, mapped or not.
func (d *Desktop) ViewCount() int { return d.views.len() }

func (d *Desktop) stackIndex(id ViewID) int {
	for i, s := range d.stack {
		if s == id {
			return i
		}
	}
	return -1
}

func (d *Desktop) unlinkStack(id ViewID) {
	if i := d.stackIndex(id); i >= 0 {
		d.stack = append(d.stack[:i], d.stack[i+1:]...)
	}
}

func (d *Desktop) pushFront(id ViewID) {
	d.unlinkStack(id)
	d.stack = append(d.stack, 0)
	copy(d.stack[1:], d.stack)
	d.stack[0] = id
}

// MapView inserts the view at the top of the stack. In auto-maximize mode
// toplevels without a parent are maximized.
func (d *Desktop) MapView(id ViewID) error {
	v := d.views.get(id)
	if v == nil {
		return ErrUnknownView
	}
	if v.mapped {
		return nil
	}
	v.mapped = true
	if v.surface != nil {
		v.surface.Map()
	}
	d.pushFront(id)
	if d.autoMaximize && v.parent == 0 && v.kind == KindToplevel {
		v.SetMaximized(true)
	}
	v.damageWhole()
	d.logger.Debug("view mapped", "view", id, "app_id", v.appID)
	d.events.Emit(Event{Kind: ViewMapped, View: id})
	return nil
}

// UnmapView removes the view from the stack.
func (d *Desktop) UnmapView(id ViewID) error {
	v := d.views.get(id)
	if v == nil {
		return ErrUnknownView
	}
	if !v.mapped {
		return nil
	}
	v.damageWhole()
	if v.fullscreen != nil {
		v.SetFullscreen(false, nil)
	}
	v.mapped = false
	d.unlinkStack(id)
	if v.surface != nil {
		v.surface.Unmap()
	}
	d.logger.Debug("view unmapped", "view", id)
	d.events.Emit(Event{Kind: ViewUnmapped, View: id, Parent: v.parent})
	return nil
}

// DestroyView unmaps the view, hands its children to its parent and frees
// its arena slot. Children are relinked before the slot is released so no
// handle ever points at a freed view.
func (d *Desktop) DestroyView(id ViewID) error {
	v := d.views.get(id)
	if v == nil {
		return ErrUnknownView
	}
	if err := d.UnmapView(id); err != nil {
		return err
	}
	parent := v.parent
	for i := len(v.children) - 1; i >= 0; i-- {
		child := d.views.get(v.children[i])
		if child == nil {
			continue
		}
		child.parent = 0
		if parent != 0 {
			if err := d.SetParent(child.id, parent); err != nil {
				return fmt.Errorf("reparent child %s: %w", child.id, err)
			}
		}
	}
	v.children = nil
	d.detachFromParent(v)
	d.events.Emit(Event{Kind: ViewDestroyed, View: id, Parent: parent})
	v.events.Clear()
	d.views.release(id)
	return nil
}

func (d *Desktop) detachFromParent(v *View) {
	if p := d.views.get(v.parent); p != nil {
		for i, c := range p.children {
			if c == v.id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	v.parent = 0
}

// SetParent makes child a transient of parent, stacked at the top of the
// parent's child stack. A zero parent detaches the child. Any existing
// membership is unlinked first, and a parent that would make child its own
// ancestor is refused.
func (d *Desktop) SetParent(child, parent ViewID) error {
	c := d.views.get(child)
	if c == nil {
		return ErrUnknownView
	}
	if parent == 0 {
		d.detachFromParent(c)
		return nil
	}
	p := d.views.get(parent)
	if p == nil {
		return ErrUnknownView
	}
	for a, steps := p, 0; a != nil; a, steps = d.views.get(a.parent), steps+1 {
		if a.id == child {
			return ErrReparentCycle
		}
		if steps > d.views.len() {
			panic("desktop: view ancestor chain does not terminate")
		}
	}
	d.detachFromParent(c)
	c.parent = parent
	p.children = append([]ViewID{child}, p.children...)
	return nil
}

func (v *View) raiseChild(id ViewID) {
	for i, c := range v.children {
		if c == id {
			copy(v.children[1:i+1], v.children[:i])
			v.children[0] = id
			return
		}
	}
}

// Ancestors returns the parent chain of id, nearest first.
func (d *Desktop) Ancestors(id ViewID) []ViewID {
	var out []ViewID
	v := d.views.get(id)
	for v != nil && v.parent != 0 {
		if len(out) > d.views.len() {
			panic("desktop: view ancestor chain does not terminate")
		}
		out = append(out, v.parent)
		v = d.views.get(v.parent)
	}
	return out
}

// RaiseView brings the view's whole family to the top of the stack. Each
// ancestor is moved to the front of its own parent's child stack, then the
// root and its descendants are raised so the topmost child ends up in
// front.
func (d *Desktop) RaiseView(id ViewID) error {
	v := d.views.get(id)
	if v == nil {
		return ErrUnknownView
	}
	root := v
	for steps := 0; root.parent != 0; steps++ {
		if steps > d.views.len() {
			panic("desktop: view ancestor chain does not terminate")
		}
		p := d.views.get(root.parent)
		if p == nil {
			break
		}
		p.raiseChild(root.id)
		root = p
	}
	d.raiseFamily(root)
	return nil
}

func (d *Desktop) raiseFamily(v *View) {
	if v.surface == nil {
		return
	}
	if v.mapped {
		d.pushFront(v.id)
		v.damageWhole()
	}
	for i := len(v.children) - 1; i >= 0; i-- {
		if c := d.views.get(v.children[i]); c != nil {
			d.raiseFamily(c)
		}
	}
}

// UnfullscreenIntersecting drops fullscreen from every view other than
// keep whose box intersects box.
func (d *Desktop) UnfullscreenIntersecting(keep ViewID, b geom.Box) {
	for _, o := range d.outputs {
		fv := d.views.get(o.fullscreen)
		if fv == nil || fv.id == keep {
			continue
		}
		if fv.box.Intersects(b) {
			fv.SetFullscreen(false, nil)
		}
	}
}
