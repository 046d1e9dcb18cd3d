package desktop

// ViewIsVisible reports whether the view should be composited and hit
// tested. Outside single-output auto-maximize mode every mapped view is
// visible. Inside it, only the topmost view and the ancestors reachable
// from it without crossing a maximized view are; two XWayland views are
// always mutually visible.
func (d *Desktop) ViewIsVisible(v *View) bool {
	if v == nil || v.surface == nil || !v.mapped {
		return false
	}
	if !d.autoMaximize || len(d.outputs) != 1 {
		return true
	}
	top := d.TopView()
	if top == nil {
		return false
	}
	if v.kind == KindXWayland && top.kind == KindXWayland {
		return true
	}
	if top == v {
		return true
	}
	for cur, steps := d.views.get(top.parent), 0; cur != nil; cur, steps = d.views.get(cur.parent), steps+1 {
		if steps > d.views.len() {
			panic("desktop: view ancestor chain does not terminate")
		}
		if cur == v {
			return true
		}
		if cur.maximized {
			return false
		}
	}
	return false
}

// VisibleViews returns the mapped views that pass ViewIsVisible, front to
// back.
func (d *Desktop) VisibleViews() []ViewID {
	var out []ViewID
	for _, id := range d.stack {
		if d.ViewIsVisible(d.views.get(id)) {
			out = append(out, id)
		}
	}
	return out
}
