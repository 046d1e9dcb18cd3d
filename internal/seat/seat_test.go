package seat

import (
	"errors"
	"testing"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/geom"
)

type recorder struct {
	events []Event
}

func record(s *Seat) *recorder {
	r := &recorder{}
	s.Events().Subscribe(func(ev Event) { r.events = append(r.events, ev) })
	return r
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type fakeRelay struct {
	focus *desktop.Surface
	calls int
}

func (f *fakeRelay) SetFocus(s *desktop.Surface) {
	f.focus = s
	f.calls++
}

func newTestInput(t *testing.T, opts desktop.Options, cfg Config) (*desktop.Desktop, *Input, *Seat) {
	t.Helper()
	d := desktop.New(opts)
	if _, err := d.AddOutput(desktop.OutputConfig{
		Name:    "DSI-1",
		Box:     geom.Box{Width: 720, Height: 1440},
		Enabled: true,
		BuiltIn: true,
	}); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}
	in := NewInput(d, nil)
	if cfg.Name == "" {
		cfg.Name = "seat0"
	}
	s, err := in.AddSeat(cfg)
	if err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	return d, in, s
}

func mapView(t *testing.T, d *desktop.Desktop, client desktop.ClientID, box geom.Box, parent desktop.ViewID) *desktop.View {
	t.Helper()
	v, err := d.NewView(desktop.ViewOptions{
		Surface: d.NewSurface(client, box.Width, box.Height),
		Box:     box,
		Parent:  parent,
	})
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	if err := d.MapView(v.ID()); err != nil {
		t.Fatalf("MapView: %v", err)
	}
	return v
}

func addDevice(t *testing.T, s *Seat, dev Device) {
	t.Helper()
	if err := s.AddDevice(dev); err != nil {
		t.Fatalf("AddDevice(%s): %v", dev.Name, err)
	}
}

func TestFocusMovesActivationAndStack(t *testing.T) {
	relay := &fakeRelay{}
	d, _, s := newTestInput(t, desktop.Options{}, Config{IMRelay: relay})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	b := mapView(t, d, 2, geom.Box{X: 100, Y: 100, Width: 300, Height: 300}, 0)

	if s.Focus() != b.ID() || !b.Activated() || a.Activated() {
		t.Fatalf("after mapping, focus = %v (a active %v, b active %v)", s.Focus(), a.Activated(), b.Activated())
	}

	r := record(s)
	if err := s.SetFocus(a.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if !a.Activated() || b.Activated() {
		t.Fatalf("activation a=%v b=%v, want a only", a.Activated(), b.Activated())
	}
	if top := d.TopView(); top == nil || top.ID() != a.ID() {
		t.Fatalf("top of stack is not a")
	}
	if got := s.Views(); len(got) != 2 || got[0] != a.ID() || got[1] != b.ID() {
		t.Fatalf("MRU = %v, want [a b]", got)
	}
	if relay.focus != a.Surface() {
		t.Fatalf("input method relay not moved to a")
	}
	ev, ok := r.last(KeyboardEnter)
	if !ok || ev.Surface != a.Surface() || ev.Serial == 0 {
		t.Fatalf("keyboard enter = %+v, %v", ev, ok)
	}
}

func TestSetFocusIsIdempotent(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	b := mapView(t, d, 2, geom.Box{Width: 300, Height: 300}, 0)

	activations := 0
	a.Events().Subscribe(func(ev desktop.ViewEvent) {
		if ev.Kind == desktop.ViewActivated {
			activations++
		}
	})
	r := record(s)
	for i := 0; i < 3; i++ {
		if err := s.SetFocus(a.ID()); err != nil {
			t.Fatalf("SetFocus: %v", err)
		}
	}
	if activations != 1 {
		t.Fatalf("activated %d times, want 1", activations)
	}
	if n := r.count(FocusChanged); n != 1 {
		t.Fatalf("focus changed %d times, want 1", n)
	}
	if b.Activated() {
		t.Fatalf("b still activated")
	}
}

func TestCycleFocusRoundTrip(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	var views []*desktop.View
	for i := 0; i < 4; i++ {
		views = append(views, mapView(t, d, desktop.ClientID(i+1), geom.Box{Width: 200, Height: 200}, 0))
	}
	start := s.Views()
	want := []desktop.ViewID{views[2].ID(), views[1].ID(), views[0].ID(), views[3].ID()}
	for i, w := range want {
		if err := s.CycleFocus(); err != nil {
			t.Fatalf("CycleFocus: %v", err)
		}
		if s.Focus() != w {
			t.Fatalf("cycle %d focused %v, want %v", i, s.Focus(), w)
		}
	}
	end := s.Views()
	for i := range start {
		if start[i] != end[i] {
			t.Fatalf("MRU after full cycle = %v, want %v", end, start)
		}
	}
}

func TestCycleFocusFocusesFirstWhenUnfocused(t *testing.T) {
	d, in, s := newTestInput(t, desktop.Options{}, Config{})
	in.SetFocusOnMap(false)
	a := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	mapView(t, d, 2, geom.Box{Width: 200, Height: 200}, 0)

	if s.Focus() != 0 {
		t.Fatalf("focus = %v, want none", s.Focus())
	}
	if err := s.CycleFocus(); err != nil {
		t.Fatalf("CycleFocus: %v", err)
	}
	if s.Focus() != a.ID() {
		t.Fatalf("focus = %v, want first view %v", s.Focus(), a.ID())
	}
}

func TestUnmapHandsFocusToParentThenMRU(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	other := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	parent := mapView(t, d, 2, geom.Box{Width: 400, Height: 400}, 0)
	dialog := mapView(t, d, 2, geom.Box{X: 50, Y: 50, Width: 100, Height: 100}, parent.ID())

	if s.Focus() != dialog.ID() {
		t.Fatalf("dialog not focused after map")
	}
	if err := d.UnmapView(dialog.ID()); err != nil {
		t.Fatalf("UnmapView: %v", err)
	}
	if s.Focus() != parent.ID() {
		t.Fatalf("focus = %v, want parent %v", s.Focus(), parent.ID())
	}
	if err := d.DestroyView(parent.ID()); err != nil {
		t.Fatalf("DestroyView: %v", err)
	}
	if s.Focus() != other.ID() || !other.Activated() {
		t.Fatalf("focus = %v, want %v", s.Focus(), other.ID())
	}
	for _, id := range s.Views() {
		if id == parent.ID() || id == dialog.ID() {
			t.Fatalf("MRU still holds %v", id)
		}
	}
}

func TestUnmapLastViewClearsKeyboard(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	v := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	r := record(s)
	if err := d.UnmapView(v.ID()); err != nil {
		t.Fatalf("UnmapView: %v", err)
	}
	if s.Focus() != 0 {
		t.Fatalf("focus = %v, want none", s.Focus())
	}
	if r.count(KeyboardClear) != 1 {
		t.Fatalf("keyboard clear not sent")
	}
}

func TestMultiSeatKeepsSharedViewActivated(t *testing.T) {
	d, in, s0 := newTestInput(t, desktop.Options{}, Config{})
	a := mapView(t, d, 1, geom.Box{Width: 200, Height: 200}, 0)
	b := mapView(t, d, 2, geom.Box{Width: 200, Height: 200}, 0)
	s1, err := in.AddSeat(Config{Name: "seat1"})
	if err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	if got := s1.Views(); len(got) != 2 {
		t.Fatalf("new seat MRU = %v, want both views", got)
	}

	if err := s1.SetFocus(a.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if err := s0.SetFocus(a.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if err := s0.SetFocus(b.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if !a.Activated() {
		t.Fatalf("a deactivated while seat1 still focuses it")
	}
	if !in.ViewHasFocus(a.ID()) || !in.ViewHasFocus(b.ID()) {
		t.Fatalf("ViewHasFocus disagrees with seat focus")
	}
}

func TestExclusiveClientRestrictsFocus(t *testing.T) {
	d, in, s := newTestInput(t, desktop.Options{}, Config{})
	locker := mapView(t, d, 1, geom.Box{Width: 720, Height: 1440}, 0)
	app := mapView(t, d, 2, geom.Box{Width: 300, Height: 300}, 0)

	in.SetExclusiveClient(locker.Client())
	if s.Focus() != 0 {
		t.Fatalf("focus on %v survived exclusive client", s.Focus())
	}
	if err := s.SetFocus(app.ID()); !errors.Is(err, ErrInputNotAllowed) {
		t.Fatalf("SetFocus(app) = %v, want ErrInputNotAllowed", err)
	}
	if err := s.SetFocus(locker.ID()); err != nil {
		t.Fatalf("SetFocus(locker): %v", err)
	}

	in.SetExclusiveClient(0)
	if err := s.SetFocus(app.ID()); err != nil {
		t.Fatalf("SetFocus(app) after release: %v", err)
	}
}

func TestLayerFocusIsSticky(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	w := mapView(t, d, 2, geom.Box{Width: 300, Height: 300}, 0)

	ls, err := d.AddLayerSurface("DSI-1", desktop.LayerOptions{
		Surface:             d.NewSurface(9, 720, 400),
		Layer:               desktop.LayerOverlay,
		Geometry:            geom.Box{Width: 720, Height: 400},
		KeyboardInteractive: true,
	})
	if err != nil {
		t.Fatalf("AddLayerSurface: %v", err)
	}
	if s.FocusedLayer() != ls {
		t.Fatalf("interactive overlay did not take focus")
	}
	if w.Activated() {
		t.Fatalf("view still activated under focused layer")
	}

	if err := s.SetFocus(v.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if v.Activated() || s.FocusedLayer() != ls {
		t.Fatalf("view took focus from sticky layer")
	}
	if s.Views()[0] != v.ID() {
		t.Fatalf("MRU front = %v, want %v", s.Views()[0], v.ID())
	}

	d.RemoveLayerSurface(ls)
	if s.FocusedLayer() != nil {
		t.Fatalf("removed layer still focused")
	}
	if s.Focus() != v.ID() || !v.Activated() {
		t.Fatalf("focus after layer removal = %v, want %v", s.Focus(), v.ID())
	}
}

func TestKeyboardHotRemove(t *testing.T) {
	_, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "kbd-a", Type: DeviceKeyboard})
	addDevice(t, s, Device{Name: "kbd-b", Type: DeviceKeyboard})
	if kb := s.Keyboard(); kb == nil || kb.Name != "kbd-b" {
		t.Fatalf("active keyboard = %v, want kbd-b", kb)
	}
	if err := s.RemoveDevice("kbd-b"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if kb := s.Keyboard(); kb == nil || kb.Name != "kbd-a" {
		t.Fatalf("active keyboard = %v, want kbd-a", kb)
	}
	if err := s.RemoveDevice("kbd-a"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if s.Keyboard() != nil || s.Capabilities()&CapKeyboard != 0 {
		t.Fatalf("keyboard capability survived removal of every keyboard")
	}
	if err := s.RemoveDevice("kbd-a"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("second RemoveDevice = %v, want ErrUnknownDevice", err)
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name  string
		types []DeviceType
		want  Capability
		image string
	}{
		{"none", nil, 0, ""},
		{"keyboard", []DeviceType{DeviceKeyboard}, CapKeyboard, ""},
		{"pointer", []DeviceType{DevicePointer}, CapPointer, DefaultCursor},
		{"tablet", []DeviceType{DeviceTabletTool}, CapPointer, DefaultCursor},
		{"touch", []DeviceType{DeviceTouch}, CapTouch, ""},
		{"switch", []DeviceType{DeviceSwitch}, 0, ""},
		{"all", []DeviceType{DeviceKeyboard, DevicePointer, DeviceTouch}, CapKeyboard | CapPointer | CapTouch, DefaultCursor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, s := newTestInput(t, desktop.Options{}, Config{})
			for i, typ := range tt.types {
				addDevice(t, s, Device{Name: tt.name + string(rune('0'+i)), Type: typ})
			}
			if s.Capabilities() != tt.want {
				t.Fatalf("caps = %v, want %v", s.Capabilities(), tt.want)
			}
			if img := s.Cursor().Image; img != tt.image {
				t.Fatalf("cursor image = %q, want %q", img, tt.image)
			}
		})
	}
}

func TestDeviceLimitAndDuplicates(t *testing.T) {
	_, _, s := newTestInput(t, desktop.Options{}, Config{DeviceLimit: 1})
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	if err := s.AddDevice(Device{Name: "kbd", Type: DeviceKeyboard}); !errors.Is(err, ErrDuplicateDevice) {
		t.Fatalf("duplicate AddDevice = %v", err)
	}
	if err := s.AddDevice(Device{Name: "mouse", Type: DevicePointer}); !errors.Is(err, ErrDeviceLimit) {
		t.Fatalf("AddDevice over limit = %v", err)
	}
	if len(s.Devices()) != 1 {
		t.Fatalf("devices = %v", s.Devices())
	}
}

func TestPadsBindToTabletInSameGroup(t *testing.T) {
	_, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "pad", Type: DeviceTabletPad, Group: "wacom-1"})
	addDevice(t, s, Device{Name: "stray-pad", Type: DeviceTabletPad})
	addDevice(t, s, Device{Name: "pen", Type: DeviceTabletTool, Group: "wacom-1"})

	pen := s.Tablet("pen")
	if got := s.Pad("pad").Tablet(); got != pen {
		t.Fatalf("pad bound to %v, want pen", got)
	}
	if s.Pad("stray-pad").Tablet() != nil {
		t.Fatalf("pad without a group was bound")
	}
	if err := s.RemoveDevice("pen"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if s.Pad("pad").Tablet() != nil {
		t.Fatalf("pad still bound to removed tablet")
	}
}

func TestAbsoluteDevicesMapToBuiltinOutput(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	if _, err := d.AddOutput(desktop.OutputConfig{Name: "HDMI-1", Box: geom.Box{X: 720, Width: 1920, Height: 1080}, Enabled: true}); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}
	addDevice(t, s, Device{Name: "ts", Type: DeviceTouch})
	addDevice(t, s, Device{Name: "pen", Type: DeviceTabletTool, Output: "HDMI-1"})
	if o := s.MappedOutput("ts"); o == nil || o.Name() != "DSI-1" {
		t.Fatalf("touchscreen mapped to %v, want DSI-1", o)
	}
	if o := s.MappedOutput("pen"); o == nil || o.Name() != "HDMI-1" {
		t.Fatalf("tablet mapped to %v, want HDMI-1", o)
	}
}

func TestInputRoutesDevicesBySeatPattern(t *testing.T) {
	_, in, s0 := newTestInput(t, desktop.Options{}, Config{})
	pen, err := in.AddSeat(Config{Name: "pen", Devices: []string{"Wacom*"}})
	if err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	if got, err := in.AddDevice(Device{Name: "Wacom Intuos Pen", Type: DeviceTabletTool}); err != nil || got != pen {
		t.Fatalf("wacom device went to %v (%v)", got, err)
	}
	if got, err := in.AddDevice(Device{Name: "AT keyboard", Type: DeviceKeyboard}); err != nil || got != s0 {
		t.Fatalf("keyboard went to %v (%v)", got, err)
	}
	if in.DeviceSeat("AT keyboard") != s0 {
		t.Fatalf("DeviceSeat disagrees with routing")
	}
	if _, err := in.AddSeat(Config{Name: "pen"}); !errors.Is(err, ErrDuplicateSeat) {
		t.Fatalf("duplicate seat = %v", err)
	}
	if _, err := in.AddSeat(Config{Name: "bad", Devices: []string{"["}}); err == nil {
		t.Fatalf("malformed device pattern accepted")
	}
	if err := in.RemoveDevice("Wacom Intuos Pen"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if len(pen.Devices()) != 0 {
		t.Fatalf("pen seat still has devices")
	}
}

func TestLastActiveSeatFollowsInput(t *testing.T) {
	_, in, s0 := newTestInput(t, desktop.Options{}, Config{})
	s1, _ := in.AddSeat(Config{Name: "seat1"})
	addDevice(t, s1, Device{Name: "mouse", Type: DevicePointer})

	if in.LastActiveSeat() != s0 {
		t.Fatalf("default last active seat is not the first seat")
	}
	s1.PointerMotion("mouse", 1, 1, 10)
	if in.LastActiveSeat() != s1 {
		t.Fatalf("last active seat = %v, want seat1", in.LastActiveSeat().Name())
	}
}

func TestHasMetaPressed(t *testing.T) {
	_, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	s.Modifiers("kbd", ModLogo|ModShift)
	if s.HasMetaPressed() {
		t.Fatalf("meta+shift counted as meta")
	}
	s.Modifiers("kbd", ModLogo)
	if !s.HasMetaPressed() {
		t.Fatalf("meta not detected")
	}
}

func TestExclusiveClientDropsForeignLayerFocus(t *testing.T) {
	d, in, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	locker := mapView(t, d, 5, geom.Box{Width: 720, Height: 1440}, 0)
	ls, err := d.AddLayerSurface("DSI-1", desktop.LayerOptions{
		Surface:             d.NewSurface(9, 720, 400),
		Layer:               desktop.LayerOverlay,
		Geometry:            geom.Box{Width: 720, Height: 400},
		KeyboardInteractive: true,
	})
	if err != nil {
		t.Fatalf("AddLayerSurface: %v", err)
	}
	if s.FocusedLayer() != ls {
		t.Fatalf("overlay did not take focus")
	}

	r := record(s)
	in.SetExclusiveClient(5)
	if s.FocusedLayer() != nil {
		t.Fatalf("layer of client 9 kept focus under exclusive client 5")
	}
	s.Key("kbd", 30, true, 1)
	ev, ok := r.last(KeyboardKey)
	if !ok {
		t.Fatalf("key not emitted")
	}
	if ev.Surface == ls.Surface() || (ev.Surface != nil && ev.Surface.Client() != 5) {
		t.Fatalf("key delivered to client %d, want client 5 or nobody", ev.Surface.Client())
	}
	if s.Focus() != locker.ID() {
		t.Fatalf("focus = %v, want locker %v", s.Focus(), locker.ID())
	}

	in.SetExclusiveClient(0)
	if s.FocusedLayer() != ls {
		t.Fatalf("overlay did not reclaim focus after the restriction lifted")
	}
}

func TestOutputRemovalReleasesFocusedLayer(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	if _, err := d.AddOutput(desktop.OutputConfig{Name: "HDMI-1", Box: geom.Box{X: 720, Width: 1920, Height: 1080}, Enabled: true}); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	ls, err := d.AddLayerSurface("HDMI-1", desktop.LayerOptions{
		Surface:             d.NewSurface(9, 1920, 1080),
		Layer:               desktop.LayerOverlay,
		Geometry:            geom.Box{Width: 1920, Height: 1080},
		KeyboardInteractive: true,
	})
	if err != nil {
		t.Fatalf("AddLayerSurface: %v", err)
	}
	if s.FocusedLayer() != ls || v.Activated() {
		t.Fatalf("overlay on HDMI-1 did not take focus")
	}

	if err := d.RemoveOutput("HDMI-1"); err != nil {
		t.Fatalf("RemoveOutput: %v", err)
	}
	if s.FocusedLayer() != nil {
		t.Fatalf("layer of removed output still focused")
	}
	if err := s.SetFocus(v.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if !v.Activated() || s.Focus() != v.ID() {
		t.Fatalf("view not focused after output removal")
	}
}

func TestClearFocusOnUnfocusedSeatResetsKeyboardAndGrab(t *testing.T) {
	d, in, s := newTestInput(t, desktop.Options{}, Config{})
	in.SetFocusOnMap(false)
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	if err := s.BeginMove(v.ID()); err != nil {
		t.Fatalf("BeginMove: %v", err)
	}
	if s.Focus() != 0 || s.Cursor().Mode != ModeMove {
		t.Fatalf("setup: focus %v mode %v", s.Focus(), s.Cursor().Mode)
	}

	r := record(s)
	if err := s.SetFocus(0); err != nil {
		t.Fatalf("SetFocus(0): %v", err)
	}
	if r.count(KeyboardClear) != 1 {
		t.Fatalf("keyboard clear count = %d, want 1", r.count(KeyboardClear))
	}
	if s.Cursor().Mode != ModePassthrough {
		t.Fatalf("grab survived clearing focus")
	}
}

func TestResolveUnaffectedByDevicesAndUnrelatedFocus(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	b := mapView(t, d, 2, geom.Box{X: 200, Y: 200, Width: 300, Height: 300}, 0)
	far := mapView(t, d, 3, geom.Box{Y: 1000, Width: 300, Height: 300}, 0)

	p := geom.Point{X: 250, Y: 250}
	before, ok := d.Resolve(p)
	if !ok || before.View != b.ID() {
		t.Fatalf("resolve = %+v, want %v", before, b.ID())
	}
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	if err := s.SetFocus(far.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	after, ok := d.Resolve(p)
	if !ok || after != before {
		t.Fatalf("resolve changed from %+v to %+v", before, after)
	}
	if got, _ := d.Resolve(geom.Point{X: 10, Y: 10}); got.View != a.ID() {
		t.Fatalf("resolve = %v, want %v", got.View, a.ID())
	}
}

func TestFocusedFamilyWinsResolve(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	parent := mapView(t, d, 1, geom.Box{Width: 400, Height: 400}, 0)
	child := mapView(t, d, 1, geom.Box{X: 50, Y: 50, Width: 100, Height: 100}, parent.ID())
	sibling := mapView(t, d, 2, geom.Box{Width: 400, Height: 400}, 0)

	if h, _ := d.Resolve(geom.Point{X: 300, Y: 300}); h.View != sibling.ID() {
		t.Fatalf("setup: sibling not on top")
	}
	if err := s.SetFocus(parent.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	family := map[desktop.ViewID]bool{parent.ID(): true, child.ID(): true}
	for _, p := range []geom.Point{{X: 300, Y: 300}, {X: 60, Y: 60}, {X: 10, Y: 390}} {
		h, ok := d.Resolve(p)
		if !ok || !family[h.View] {
			t.Fatalf("resolve %v = %v, want the focused family", p, h.View)
		}
	}
	if h, _ := d.Resolve(geom.Point{X: 60, Y: 60}); h.View != child.ID() {
		t.Fatalf("child not above its parent: %v", h.View)
	}
}

func TestFocusResolveAndCycleScenario(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	a := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	b := mapView(t, d, 2, geom.Box{X: 400, Width: 300, Height: 300}, 0)

	inB := geom.Point{X: 500, Y: 100}
	if h, _ := d.Resolve(inB); h.View != b.ID() {
		t.Fatalf("resolve over B = %v", h.View)
	}
	if err := s.SetFocus(a.ID()); err != nil {
		t.Fatalf("SetFocus: %v", err)
	}
	if h, _ := d.Resolve(inB); h.View != b.ID() {
		t.Fatalf("resolve over B after focusing A = %v", h.View)
	}
	if top := d.TopView(); top == nil || top.ID() != a.ID() {
		t.Fatalf("stack head is not A")
	}
	if err := s.CycleFocus(); err != nil {
		t.Fatalf("CycleFocus: %v", err)
	}
	if s.Focus() != b.ID() {
		t.Fatalf("focus = %v, want B", s.Focus())
	}
	if mru := s.Views(); mru[len(mru)-1] != a.ID() {
		t.Fatalf("MRU = %v, want A at the tail", mru)
	}
}

func TestKeyboardRemovalWithFocusKeepsOtherCapabilities(t *testing.T) {
	d, _, s := newTestInput(t, desktop.Options{}, Config{})
	addDevice(t, s, Device{Name: "kbd", Type: DeviceKeyboard})
	addDevice(t, s, Device{Name: "mouse", Type: DevicePointer})
	addDevice(t, s, Device{Name: "ts", Type: DeviceTouch})
	v := mapView(t, d, 1, geom.Box{Width: 300, Height: 300}, 0)
	if s.Focus() != v.ID() {
		t.Fatalf("setup: view not focused")
	}

	if err := s.RemoveDevice("kbd"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	caps := s.Capabilities()
	if caps&CapKeyboard != 0 || caps&CapPointer == 0 || caps&CapTouch == 0 {
		t.Fatalf("capabilities = %v, want pointer and touch only", caps)
	}
	s.Key("kbd", 30, true, 1)
	if s.Focus() != v.ID() {
		t.Fatalf("focus lost with the keyboard")
	}
}
