// Package seat implements per-seat input routing: the device multiplexer,
// the cursor state machine, focus management, pointer constraints and the
// drag icon tracker. An Input owns every seat of a compositor and fans
// desktop notifications out to them.
package seat

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/1broseidon/palmwm/internal/desktop"
	"github.com/1broseidon/palmwm/internal/event"
	"github.com/1broseidon/palmwm/internal/geom"
)

var (
	ErrInvalidSerial   = errors.New("invalid input serial")
	ErrInputNotAllowed = errors.New("input not allowed for client")
	ErrGrabRefused     = errors.New("grab refused")
	ErrUnknownView     = errors.New("unknown view")
	ErrDragIconBusy    = errors.New("seat already has a drag icon")
	ErrUnknownDevice   = errors.New("unknown device")
	ErrDuplicateDevice = errors.New("device already attached")
	ErrDeviceLimit     = errors.New("device limit reached")
	ErrDuplicateSeat   = errors.New("seat already exists")
	ErrUnknownSeat     = errors.New("unknown seat")
)

// DefaultCursor is the cursor image shown when nothing else asks for one.
const DefaultCursor = "left_ptr"

// DefaultDeviceLimit bounds the number of devices attached to one seat.
const DefaultDeviceLimit = 256

// Capability is the advertised seat capability bitmap.
type Capability uint32

const (
	CapPointer Capability = 1 << iota
	CapKeyboard
	CapTouch
)

func (c Capability) String() string {
	var parts []string
	if c&CapPointer != 0 {
		parts = append(parts, "pointer")
	}
	if c&CapKeyboard != 0 {
		parts = append(parts, "keyboard")
	}
	if c&CapTouch != 0 {
		parts = append(parts, "touch")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Modifiers is a keyboard modifier mask.
type Modifiers uint32

const (
	ModShift Modifiers = 1 << iota
	ModCaps
	ModCtrl
	ModAlt
	ModMod2
	ModMod3
	ModLogo
	ModMod5
)

// IMRelay is the input-method bridge. It is told which surface holds
// keyboard focus.
type IMRelay interface {
	SetFocus(surface *desktop.Surface)
}

// Config describes a seat.
type Config struct {
	Name          string
	DefaultCursor string
	// MetaModifier is the modifier that turns pointer buttons into
	// move and resize grabs. Defaults to ModLogo.
	MetaModifier Modifiers
	IMRelay      IMRelay
	DeviceLimit  int
	// Devices are glob patterns matched against device names when the
	// Input registry picks a seat for a new device.
	Devices []string
	Logger  *slog.Logger
}

// Seat is one logical set of input devices with its own cursor and focus.
type Seat struct {
	name    string
	desktop *desktop.Desktop
	input   *Input
	logger  *slog.Logger
	imRelay IMRelay
	metaMod Modifiers
	limit   int

	keyboards      []*Keyboard
	pointers       []*Pointer
	touch          []*Touch
	tablets        []*Tablet
	pads           []*Pad
	switches       []*Switch
	activeKeyboard *Keyboard
	caps           Capability

	cursor Cursor

	// views is the seat's MRU list; index 0 is the most recently focused.
	views           []desktop.ViewID
	hasFocus        bool
	focusedLayer    *desktop.LayerSurface
	exclusiveClient desktop.ClientID

	constraints []*Constraint
	dragIcon    *DragIcon

	serial           uint32
	selection        string
	primarySelection string

	events event.Bus[Event]
}

func newSeat(in *Input, cfg Config) *Seat {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.DefaultCursor == "" {
		cfg.DefaultCursor = DefaultCursor
	}
	if cfg.MetaModifier == 0 {
		cfg.MetaModifier = ModLogo
	}
	if cfg.DeviceLimit <= 0 {
		cfg.DeviceLimit = DefaultDeviceLimit
	}
	s := &Seat{
		name:    cfg.Name,
		desktop: in.desktop,
		input:   in,
		logger:  logger.With("component", "seat", "seat", cfg.Name),
		imRelay: cfg.IMRelay,
		metaMod: cfg.MetaModifier,
		limit:   cfg.DeviceLimit,
	}
	s.cursor.defaultImage = cfg.DefaultCursor
	s.cursor.grab.touchID = -1
	s.cursor.touchID = -1
	s.cursor.touchPoints = make(map[int32]*touchPoint)
	if c := in.desktop.LayoutBox().Center(); c != (geom.Point{}) {
		s.cursor.x, s.cursor.y = c.X, c.Y
	}
	return s
}

func (s *Seat) Name() string                        { return s.name }
func (s *Seat) Capabilities() Capability            { return s.caps }
func (s *Seat) Events() *event.Bus[Event]           { return &s.events }
func (s *Seat) FocusedLayer() *desktop.LayerSurface { return s.focusedLayer }
func (s *Seat) ExclusiveClient() desktop.ClientID   { return s.exclusiveClient }
func (s *Seat) DragIcon() *DragIcon                 { return s.dragIcon }
func (s *Seat) Selection() (string, string)         { return s.selection, s.primarySelection }

// SetDefaultCursor changes the image shown when no client sets one.
func (s *Seat) SetDefaultCursor(name string) {
	if name == "" {
		name = DefaultCursor
	}
	s.cursor.defaultImage = name
	s.maybeSetCursor()
}

// Views returns the seat's MRU view list, most recent first.
func (s *Seat) Views() []desktop.ViewID {
	return append([]desktop.ViewID(nil), s.views...)
}

func (s *Seat) nextSerial() uint32 {
	s.serial++
	if s.serial == 0 {
		s.serial++
	}
	return s.serial
}

func (s *Seat) emit(ev Event) {
	ev.Seat = s.name
	s.events.Emit(ev)
}

func (s *Seat) notifyActivity() {
	if s.input != nil {
		s.input.lastActive = s
	}
}

// AllowInput reports whether client may receive input from this seat.
func (s *Seat) AllowInput(client desktop.ClientID) bool {
	return s.exclusiveClient == 0 || s.exclusiveClient == client
}

// HasMetaPressed reports whether some keyboard holds exactly the meta
// modifier.
func (s *Seat) HasMetaPressed() bool {
	for _, kb := range s.keyboards {
		if kb.mods == s.metaMod {
			return true
		}
	}
	return false
}

func (s *Seat) updateCapabilities() {
	var caps Capability
	if len(s.keyboards) > 0 {
		caps |= CapKeyboard
	}
	if len(s.pointers) > 0 || len(s.tablets) > 0 {
		caps |= CapPointer
	}
	if len(s.touch) > 0 {
		caps |= CapTouch
	}
	if caps != s.caps {
		s.caps = caps
		s.logger.Debug("capabilities changed", "caps", caps.String())
		s.emit(Event{Kind: CapabilitiesChanged, Caps: caps})
	}
	s.maybeSetCursor()
}

// maybeSetCursor shows the default image when the seat can point and no
// grab owns the image, and hides the cursor otherwise.
func (s *Seat) maybeSetCursor() {
	if s.caps&CapPointer == 0 {
		s.setCursorImage("")
		return
	}
	if s.cursor.mode == ModePassthrough && (s.cursor.image == "" || s.cursor.pointerSurface == nil) {
		s.setCursorImage(s.cursor.defaultImage)
	}
}

func (s *Seat) setCursorImage(name string) {
	if s.cursor.image == name {
		return
	}
	s.cursor.image = name
	s.emit(Event{Kind: CursorImage, Cursor: name})
}

// SetSelection records a clipboard offer.
func (s *Seat) SetSelection(client desktop.ClientID, mime string, serial uint32) error {
	if !s.AllowInput(client) {
		return ErrInputNotAllowed
	}
	s.selection = mime
	s.emit(Event{Kind: SelectionSet, Client: client, Mime: mime, Serial: serial})
	return nil
}

// SetPrimarySelection records a primary selection offer.
func (s *Seat) SetPrimarySelection(client desktop.ClientID, mime string, serial uint32) error {
	if !s.AllowInput(client) {
		return ErrInputNotAllowed
	}
	s.primarySelection = mime
	s.emit(Event{Kind: PrimarySelectionSet, Client: client, Mime: mime, Serial: serial})
	return nil
}
