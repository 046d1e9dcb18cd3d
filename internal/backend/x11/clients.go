package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/palmwm/internal/backend"
	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

// windowRole is how a host window is mirrored.
type windowRole int

const (
	roleView windowRole = iota
	roleDock
	roleDesktop
	roleNotification
	roleSkip
)

// roleForTypes classifies a window by its _NET_WM_WINDOW_TYPE list. An
// untyped window is a normal view.
func roleForTypes(types []string) windowRole {
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG",
			"_NET_WM_WINDOW_TYPE_UTILITY", "_NET_WM_WINDOW_TYPE_TOOLBAR":
			return roleView
		case "_NET_WM_WINDOW_TYPE_DOCK":
			return roleDock
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return roleDesktop
		case "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return roleNotification
		case "_NET_WM_WINDOW_TYPE_SPLASH":
			return roleSkip
		}
	}
	return roleView
}

// scaler maps host root coordinates into the nested output.
type scaler struct {
	host          geom.Box
	width, height int
}

func (sc scaler) box(b geom.Box) geom.Box {
	if sc.host.Width <= 0 || sc.host.Height <= 0 {
		return b
	}
	sx := float64(sc.width) / float64(sc.host.Width)
	sy := float64(sc.height) / float64(sc.host.Height)
	return geom.Box{
		X:      int(float64(b.X-sc.host.X) * sx),
		Y:      int(float64(b.Y-sc.host.Y) * sy),
		Width:  max(1, int(float64(b.Width)*sx)),
		Height: max(1, int(float64(b.Height)*sy)),
	}
}

// strutPlacement turns a dock's reserved edges into a layer anchor and
// exclusive zone in nested pixels. The widest reservation wins.
func strutPlacement(left, right, top, bottom uint, sc scaler) (geom.Edges, int) {
	sx, sy := 1.0, 1.0
	if sc.host.Width > 0 && sc.host.Height > 0 {
		sx = float64(sc.width) / float64(sc.host.Width)
		sy = float64(sc.height) / float64(sc.host.Height)
	}
	horiz := geom.EdgeLeft | geom.EdgeRight
	vert := geom.EdgeTop | geom.EdgeBottom
	var anchor geom.Edges
	var zone float64
	for _, c := range []struct {
		size   uint
		scale  float64
		anchor geom.Edges
	}{
		{top, sy, geom.EdgeTop | horiz},
		{bottom, sy, geom.EdgeBottom | horiz},
		{left, sx, geom.EdgeLeft | vert},
		{right, sx, geom.EdgeRight | vert},
	} {
		if z := float64(c.size) * c.scale; z > zone {
			zone, anchor = z, c.anchor
		}
	}
	return anchor, int(zone)
}

type mirrored struct {
	role windowRole
	box  geom.Box
}

// mirror follows the host _NET_CLIENT_LIST and reports each client window
// as a view or layer surface on the nested output.
type mirror struct {
	src   *Source
	root  xproto.Window
	sc    scaler
	known map[xproto.Window]*mirrored
}

func newMirror(src *Source, root xproto.Window, host *Monitor) *mirror {
	sc := scaler{width: src.width, height: src.height}
	if host != nil {
		sc.host = geom.Box{X: host.X, Y: host.Y, Width: host.Width, Height: host.Height}
	}
	return &mirror{src: src, root: root, sc: sc, known: make(map[xproto.Window]*mirrored)}
}

func (m *mirror) start() {
	xu := m.src.xu
	if err := xwindow.New(xu, m.root).Listen(xproto.EventMaskPropertyChange); err != nil {
		m.src.logger.Warn("cannot watch host client list", "error", err)
		return
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != "_NET_CLIENT_LIST" {
			return
		}
		m.sync()
	}).Connect(xu, m.root)
	m.sync()
}

// sync diffs the host client list against the mirrored windows.
func (m *mirror) sync() {
	clients, err := ewmh.ClientListGet(m.src.xu)
	if err != nil {
		m.src.logger.Debug("cannot read host client list", "error", err)
		return
	}
	seen := make(map[xproto.Window]bool, len(clients))
	for _, win := range clients {
		if win == m.src.win.Id {
			continue
		}
		seen[win] = true
		if _, ok := m.known[win]; !ok {
			m.add(win)
		}
	}
	for win := range m.known {
		if !seen[win] {
			m.remove(win)
		}
	}
}

func (m *mirror) add(win xproto.Window) {
	xu := m.src.xu
	types, _ := ewmh.WmWindowTypeGet(xu, win)
	role := roleForTypes(types)
	if role == roleSkip {
		return
	}
	rect, err := xwindow.New(xu, win).DecorGeometry()
	if err != nil {
		m.src.logger.Debug("skipping host window", "window", win, "error", err)
		return
	}
	box := m.sc.box(geom.Box{X: rect.X(), Y: rect.Y(), Width: rect.Width(), Height: rect.Height()})
	client := m.clientID(win)
	title, _ := ewmh.WmNameGet(xu, win)
	handle := uint64(win)
	m.known[win] = &mirrored{role: role, box: box}

	if role != roleView {
		ev := backend.Event{
			Kind:      backend.LayerCreated,
			Handle:    handle,
			Client:    client,
			Output:    m.src.output(),
			Box:       box,
			Namespace: title,
		}
		switch role {
		case roleDock:
			ev.Layer = desktop.LayerTop
			if strut, err := ewmh.WmStrutPartialGet(xu, win); err == nil {
				ev.Anchor, ev.ExclusiveZone = strutPlacement(strut.Left, strut.Right, strut.Top, strut.Bottom, m.sc)
			}
		case roleDesktop:
			ev.Layer = desktop.LayerBackground
		case roleNotification:
			ev.Layer = desktop.LayerOverlay
		}
		m.src.sink(ev)
		m.src.logger.Debug("mirroring host layer", "window", win, "layer", ev.Layer.String())
		return
	}

	var parent uint64
	if p, err := icccm.WmTransientForGet(xu, win); err == nil && p != 0 {
		parent = uint64(p)
	}
	var appID string
	if class, err := icccm.WmClassGet(xu, win); err == nil {
		appID = class.Class
	}
	m.src.sink(backend.Event{
		Kind:     backend.ViewCreated,
		Handle:   handle,
		Parent:   parent,
		Client:   client,
		ViewKind: desktop.KindXWayland,
		Title:    title,
		AppID:    appID,
		Box:      box,
	})
	m.src.sink(backend.Event{Kind: backend.ViewMapped, Handle: handle})
	m.src.logger.Debug("mirroring host window", "window", win, "app_id", appID)

	if err := xwindow.New(xu, win).Listen(xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange); err != nil {
		return
	}
	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		m.configured(win)
	}).Connect(xu, win)
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if name, err := xprop.AtomName(xu, ev.Atom); err == nil && name == "_NET_WM_NAME" {
			if title, err := ewmh.WmNameGet(xu, win); err == nil {
				m.src.sink(backend.Event{Kind: backend.ViewConfigured, Handle: uint64(win), Title: title})
			}
		}
	}).Connect(xu, win)
}

func (m *mirror) configured(win xproto.Window) {
	w, ok := m.known[win]
	if !ok {
		return
	}
	rect, err := xwindow.New(m.src.xu, win).DecorGeometry()
	if err != nil {
		return
	}
	box := m.sc.box(geom.Box{X: rect.X(), Y: rect.Y(), Width: rect.Width(), Height: rect.Height()})
	if box == w.box {
		return
	}
	w.box = box
	m.src.sink(backend.Event{Kind: backend.ViewConfigured, Handle: uint64(win), Box: box})
}

func (m *mirror) remove(win xproto.Window) {
	w := m.known[win]
	delete(m.known, win)
	xevent.Detach(m.src.xu, win)
	kind := backend.ViewDestroyed
	if w.role != roleView {
		kind = backend.LayerDestroyed
	}
	m.src.sink(backend.Event{Kind: kind, Handle: uint64(win)})
}

// clientID names the owning process, falling back to the window itself.
func (m *mirror) clientID(win xproto.Window) desktop.ClientID {
	if pid, err := ewmh.WmPidGet(m.src.xu, win); err == nil && pid != 0 {
		return desktop.ClientID(pid)
	}
	return desktop.ClientID(win)
}
