package tool

import (
	"math"
	"strconv"
	"strings"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
)

const (
	// MinSegmentLength rejects near-duplicate clicks.
	MinSegmentLength = 6.0
	// ControlOffsetRatio places a curve's control point this fraction of the
	// segment length off the segment midpoint.
	ControlOffsetRatio = 0.2
	// DefaultCurvedBedWidth is the physical width of a newly drawn curved bed.
	DefaultCurvedBedWidth = 24.0

	curveSamples = 8
)

// DrawCurvedBed draws free-form beds as a centerline of clicked points. Holding
// Alt while placing a point bends the segment that ends there.
type DrawCurvedBed struct {
	ctx      Context
	points   []document.CurvePoint
	cursor   geom.Point
	hovering bool

	BedWidth float64
}

func NewDrawCurvedBed(ctx Context) *DrawCurvedBed {
	return &DrawCurvedBed{ctx: ctx, BedWidth: DefaultCurvedBedWidth}
}

func (t *DrawCurvedBed) ID() ID         { return IDDrawCurvedBed }
func (t *DrawCurvedBed) Name() string   { return "Draw Curved Bed" }
func (t *DrawCurvedBed) Icon() string   { return "curve" }
func (t *DrawCurvedBed) Cursor() Cursor { return CursorCrosshair }

func (t *DrawCurvedBed) Activate()   { t.reset() }
func (t *DrawCurvedBed) Deactivate() { t.reset() }

func (t *DrawCurvedBed) reset() {
	t.points = nil
	t.hovering = false
}

// Points returns the placed centerline points in world coordinates.
func (t *DrawCurvedBed) Points() []document.CurvePoint {
	return append([]document.CurvePoint(nil), t.points...)
}

func (t *DrawCurvedBed) OnPointerDown(e PointerEvent) {
	if e.Button != 0 {
		return
	}
	p := e.World()
	if n := len(t.points); n > 0 {
		last := geom.Point{X: t.points[n-1].X, Y: t.points[n-1].Y}
		if last.Dist(p) < MinSegmentLength {
			return
		}
		cp := document.CurvePoint{X: p.X, Y: p.Y}
		if e.Alt {
			c := controlPoint(last, p)
			cp.Control = &c
		}
		t.points = append(t.points, cp)
		return
	}
	t.points = []document.CurvePoint{{X: p.X, Y: p.Y}}
}

func (t *DrawCurvedBed) OnPointerMove(e PointerEvent) {
	t.cursor = e.World()
	t.hovering = true
}

func (t *DrawCurvedBed) OnPointerUp(PointerEvent) {}

func (t *DrawCurvedBed) OnDoubleClick(PointerEvent) {
	t.Finalize()
}

func (t *DrawCurvedBed) OnKeyDown(e KeyEvent) bool {
	switch e.Key {
	case "Enter":
		if len(t.points) == 0 {
			return false
		}
		t.Finalize()
		return true
	case "Backspace":
		if len(t.points) == 0 {
			return false
		}
		t.points = t.points[:len(t.points)-1]
		return true
	case "Escape":
		if len(t.points) == 0 {
			return false
		}
		t.reset()
		return true
	}
	return false
}

func (t *DrawCurvedBed) OnKeyUp(KeyEvent) bool { return false }

// Finalize turns the centerline into a bed and commits it. Fewer than two
// points are discarded. Returns whether a bed was added.
func (t *DrawCurvedBed) Finalize() bool {
	defer t.reset()
	if len(t.points) < 2 {
		return false
	}
	n, ok := curvedBed(t.points, t.BedWidth)
	if !ok {
		return false
	}
	return commitDraft(t.ctx, n)
}

func (t *DrawCurvedBed) Preview() *Preview {
	if len(t.points) == 0 {
		return nil
	}
	pts := t.points
	if t.hovering {
		pts = append(t.Points(), document.CurvePoint{X: t.cursor.X, Y: t.cursor.Y})
	}
	line := sampleCenterline(pts)
	left, right := offsetOutline(line, t.BedWidth/2)
	return &Preview{Tool: IDDrawCurvedBed, Centerline: line, OutlineLeft: left, OutlineRight: right}
}

// controlPoint returns the quadratic control point for segment a→b: the
// midpoint pushed along the left normal by ControlOffsetRatio of the length.
func controlPoint(a, b geom.Point) geom.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	mid := geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	if l == 0 {
		return mid
	}
	off := ControlOffsetRatio * l
	return geom.Point{X: mid.X - dy/l*off, Y: mid.Y + dx/l*off}
}

// sampleCenterline flattens the curve into a polyline.
func sampleCenterline(pts []document.CurvePoint) []geom.Point {
	if len(pts) == 0 {
		return nil
	}
	out := []geom.Point{{X: pts[0].X, Y: pts[0].Y}}
	for i := 1; i < len(pts); i++ {
		a := geom.Point{X: pts[i-1].X, Y: pts[i-1].Y}
		b := geom.Point{X: pts[i].X, Y: pts[i].Y}
		if pts[i].Control == nil {
			out = append(out, b)
			continue
		}
		c := *pts[i].Control
		for s := 1; s <= curveSamples; s++ {
			u := float64(s) / curveSamples
			v := 1 - u
			out = append(out, geom.Point{
				X: v*v*a.X + 2*v*u*c.X + u*u*b.X,
				Y: v*v*a.Y + 2*v*u*c.Y + u*u*b.Y,
			})
		}
	}
	return out
}

// offsetOutline returns the polyline shifted by d to each side, using the
// averaged normal of the adjacent segments at every vertex.
func offsetOutline(line []geom.Point, d float64) (left, right []geom.Point) {
	if len(line) < 2 {
		return nil, nil
	}
	normal := func(a, b geom.Point) geom.Point {
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			return geom.Point{}
		}
		return geom.Point{X: -dy / l, Y: dx / l}
	}
	for i, p := range line {
		var n geom.Point
		switch i {
		case 0:
			n = normal(line[0], line[1])
		case len(line) - 1:
			n = normal(line[i-1], line[i])
		default:
			a, b := normal(line[i-1], line[i]), normal(line[i], line[i+1])
			n = geom.Point{X: a.X + b.X, Y: a.Y + b.Y}
			if l := math.Hypot(n.X, n.Y); l > 0 {
				n = geom.Point{X: n.X / l, Y: n.Y / l}
			}
		}
		left = append(left, geom.Point{X: p.X + n.X*d, Y: p.Y + n.Y*d})
		right = append(right, geom.Point{X: p.X - n.X*d, Y: p.Y - n.Y*d})
	}
	return left, right
}

// curvedBed builds a sized bed whose bounds are the sampled centerline grown
// by half the bed width. Edit points and the render path are stored relative
// to the bed center.
func curvedBed(pts []document.CurvePoint, width float64) (document.Node, bool) {
	line := sampleCenterline(pts)
	box, ok := geom.BoundsOf(line)
	if !ok {
		return document.Node{}, false
	}
	box = box.Expand(width / 2)
	cx, cy := box.Center()

	rel := make([]document.CurvePoint, len(pts))
	for i, p := range pts {
		rel[i] = document.CurvePoint{X: p.X - cx, Y: p.Y - cy}
		if p.Control != nil {
			c := geom.Point{X: p.Control.X - cx, Y: p.Control.Y - cy}
			rel[i].Control = &c
		}
	}

	n := document.NewBed(cx, cy, box.Width(), box.Height())
	n.Bed.Orientation = document.OrientationCustom
	n.Bed.Curve = &document.CurveData{
		Path:       renderPath(rel),
		EditPoints: rel,
		BedWidth:   width,
	}
	return n, true
}

// renderPath encodes the centerline as SVG path data.
func renderPath(pts []document.CurvePoint) string {
	var b strings.Builder
	num := func(v float64) string {
		return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	}
	for i, p := range pts {
		switch {
		case i == 0:
			b.WriteString("M " + num(p.X) + " " + num(p.Y))
		case p.Control != nil:
			b.WriteString(" Q " + num(p.Control.X) + " " + num(p.Control.Y) + " " + num(p.X) + " " + num(p.Y))
		default:
			b.WriteString(" L " + num(p.X) + " " + num(p.Y))
		}
	}
	return b.String()
}
