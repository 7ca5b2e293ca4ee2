package tool

import (
	"math"

	"github.com/verdant/verdant/editor-go/internal/geom"
)

// Measure reports distances and rectangular areas. It never mutates the scene.
type Measure struct {
	ctx       Context
	measuring bool
	reading   *Measurement
}

func NewMeasure(ctx Context) *Measure {
	return &Measure{ctx: ctx}
}

func (t *Measure) ID() ID         { return IDMeasure }
func (t *Measure) Name() string   { return "Measure" }
func (t *Measure) Icon() string   { return "ruler" }
func (t *Measure) Cursor() Cursor { return CursorCell }

func (t *Measure) Activate()   { t.reset() }
func (t *Measure) Deactivate() { t.reset() }

func (t *Measure) reset() {
	t.measuring = false
	t.reading = nil
}

// Reading returns the current measurement, or nil before the first press.
func (t *Measure) Reading() *Measurement {
	if t.reading == nil {
		return nil
	}
	r := *t.reading
	return &r
}

func (t *Measure) OnPointerDown(e PointerEvent) {
	if e.Button != 0 {
		return
	}
	p := snap(t.ctx, e.World())
	t.measuring = true
	t.reading = t.measure(p, p)
}

func (t *Measure) OnPointerMove(e PointerEvent) {
	if t.measuring {
		t.reading = t.measure(t.reading.From, snap(t.ctx, e.World()))
	}
}

func (t *Measure) OnPointerUp(e PointerEvent) {
	if !t.measuring {
		return
	}
	t.reading = t.measure(t.reading.From, snap(t.ctx, e.World()))
	t.reading.Frozen = true
	t.measuring = false
}

func (t *Measure) measure(from, to geom.Point) *Measurement {
	units := t.ctx.Units()
	dx, dy := math.Abs(to.X-from.X), math.Abs(to.Y-from.Y)
	m := &Measurement{From: from, To: to, Length: from.Dist(to)}
	m.Label = units.FormatLength(m.Length)
	if dx > 0 && dy > 0 {
		m.Area = dx * dy
		m.Label += " · " + units.FormatArea(m.Area)
	}
	return m
}

func (t *Measure) OnKeyDown(e KeyEvent) bool {
	if e.Key == "Escape" && t.reading != nil {
		t.reset()
		return true
	}
	return false
}

func (t *Measure) OnKeyUp(KeyEvent) bool { return false }

func (t *Measure) Preview() *Preview {
	r := t.Reading()
	if r == nil {
		return nil
	}
	return &Preview{Tool: IDMeasure, Measurement: r}
}
