package desktop

import "github.com/1broseidon/palmwm/internal/geom"

// DamageSink is the rendering side's per-output damage accumulator. Boxes
// are in output-local coordinates.
type DamageSink interface {
	DamageBox(output string, box geom.Box)
	DamageWhole(output string)
}

type nopDamage struct{}

func (nopDamage) DamageBox(string, geom.Box) {}
func (nopDamage) DamageWhole(string)         {}

// DamageLog records damage per output. It backs the headless renderer and
// tests.
type DamageLog struct {
	boxes map[string][]geom.Box
	whole map[string]int
}

// NewDamageLog returns an empty recorder.
func NewDamageLog() *DamageLog {
	return &DamageLog{boxes: make(map[string][]geom.Box), whole: make(map[string]int)}
}

func (l *DamageLog) DamageBox(output string, box geom.Box) {
	l.boxes[output] = append(l.boxes[output], box)
}

func (l *DamageLog) DamageWhole(output string) {
	l.whole[output]++
}

// Drain returns and clears the boxes recorded for output.
func (l *DamageLog) Drain(output string) []geom.Box {
	b := l.boxes[output]
	delete(l.boxes, output)
	return b
}

// WholeCount returns how many full-output damages were recorded.
func (l *DamageLog) WholeCount(output string) int {
	return l.whole[output]
}

// damageBox damages a layout-space box on every output it touches.
func (d *Desktop) damageBox(box geom.Box) {
	for _, o := range d.outputs {
		if !o.enabled || !o.box.Intersects(box) {
			continue
		}
		d.damage.DamageBox(o.name, box.Translate(-o.box.X, -o.box.Y))
	}
}

// DamageBox damages the layout-space box on every output it overlaps.
func (d *Desktop) DamageBox(box geom.Box) {
	d.damageBox(box)
}
