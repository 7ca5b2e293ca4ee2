package tool

import (
	"math"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
)

// MinDraftExtent is the smallest side a drawn bed or path may have.
const MinDraftExtent = 6.0

// rectDraft tracks a two-corner drawing gesture in world coordinates.
type rectDraft struct {
	active bool
	start  geom.Point
	end    geom.Point
	node   document.Node
}

// extent returns the signed corner deltas with the minimum size enforced.
func (d *rectDraft) extent() (w, h, sx, sy float64) {
	dx, dy := d.end.X-d.start.X, d.end.Y-d.start.Y
	sx, sy = 1, 1
	if dx < 0 {
		sx = -1
	}
	if dy < 0 {
		sy = -1
	}
	return max(math.Abs(dx), MinDraftExtent), max(math.Abs(dy), MinDraftExtent), sx, sy
}

// degenerate reports a click with no drag.
func (d *rectDraft) degenerate() bool {
	return d.start == d.end
}

// place centers the draft between the start corner and the far corner of a
// w×h box extending in the drag direction.
func (d *rectDraft) place(w, h, sx, sy float64) {
	d.node.Width = w
	d.node.Height = h
	d.node.Transform.X = d.start.X + sx*w/2
	d.node.Transform.Y = d.start.Y + sy*h/2
}

// commit validates the draft and adds it to the active layer, selecting it.
// A draft that fails validation is dropped.
func commitDraft(ctx Context, n document.Node) bool {
	res := constraint.ValidateNode(n, ctx.Constraints(), ctx.Scene())
	if !res.OK {
		codes := make([]string, len(res.Violations))
		for i, v := range res.Violations {
			codes[i] = string(v.Code)
		}
		ctx.Logger().Debug("draft rejected", "kind", n.Kind, "violations", codes)
		return false
	}
	if err := ctx.AddNode(ctx.ActiveLayerID(), n); err != nil {
		ctx.Logger().Warn("add draft", "kind", n.Kind, "error", err)
		return false
	}
	ctx.SetSelection(selectionOf(n.ID))
	ctx.Logger().Debug("draft committed", "kind", n.Kind, "id", n.ID, "width", n.Width, "height", n.Height)
	return true
}

// DrawBed draws rectangular raised beds corner to corner.
type DrawBed struct {
	ctx   Context
	draft rectDraft
}

func NewDrawBed(ctx Context) *DrawBed {
	return &DrawBed{ctx: ctx}
}

func (t *DrawBed) ID() ID         { return IDDrawBed }
func (t *DrawBed) Name() string   { return "Draw Bed" }
func (t *DrawBed) Icon() string   { return "bed" }
func (t *DrawBed) Cursor() Cursor { return CursorCrosshair }

func (t *DrawBed) Activate()   { t.draft = rectDraft{} }
func (t *DrawBed) Deactivate() { t.draft = rectDraft{} }

func (t *DrawBed) OnPointerDown(e PointerEvent) {
	if e.Button != 0 {
		return
	}
	p := snap(t.ctx, e.World())
	t.draft = rectDraft{active: true, start: p, end: p, node: document.NewBed(p.X, p.Y, 0, 0)}
}

func (t *DrawBed) update(e PointerEvent) {
	t.draft.end = snap(t.ctx, e.World())
	w, h, sx, sy := t.draft.extent()
	if e.Shift {
		side := max(w, h)
		w, h = side, side
	}
	t.draft.place(w, h, sx, sy)
	if w > h {
		t.draft.node.Bed.Orientation = document.OrientationEW
	} else {
		t.draft.node.Bed.Orientation = document.OrientationNS
	}
}

func (t *DrawBed) OnPointerMove(e PointerEvent) {
	if t.draft.active {
		t.update(e)
	}
}

func (t *DrawBed) OnPointerUp(e PointerEvent) {
	if !t.draft.active {
		return
	}
	t.update(e)
	if !t.draft.degenerate() {
		commitDraft(t.ctx, t.draft.node)
	}
	t.draft = rectDraft{}
}

func (t *DrawBed) OnKeyDown(e KeyEvent) bool {
	if e.Key == "Escape" && t.draft.active {
		t.draft = rectDraft{}
		return true
	}
	return false
}

func (t *DrawBed) OnKeyUp(KeyEvent) bool { return false }

func (t *DrawBed) Preview() *Preview {
	if !t.draft.active || t.draft.degenerate() {
		return nil
	}
	n := t.draft.node.Clone()
	return &Preview{Tool: IDDrawBed, Draft: &n}
}

// DrawPath draws straight paths. The long axis follows the drag; the short
// axis is always the minimum path width in force.
type DrawPath struct {
	ctx     Context
	draft   rectDraft
	Surface document.Surface
}

func NewDrawPath(ctx Context) *DrawPath {
	return &DrawPath{ctx: ctx, Surface: document.SurfaceMulch}
}

func (t *DrawPath) ID() ID         { return IDDrawPath }
func (t *DrawPath) Name() string   { return "Draw Path" }
func (t *DrawPath) Icon() string   { return "path" }
func (t *DrawPath) Cursor() Cursor { return CursorCrosshair }

func (t *DrawPath) Activate()   { t.draft = rectDraft{} }
func (t *DrawPath) Deactivate() { t.draft = rectDraft{} }

func (t *DrawPath) OnPointerDown(e PointerEvent) {
	if e.Button != 0 {
		return
	}
	p := snap(t.ctx, e.World())
	t.draft = rectDraft{active: true, start: p, end: p, node: document.NewPath(p.X, p.Y, 0, 0, t.Surface)}
}

func (t *DrawPath) update(e PointerEvent) {
	t.draft.end = snap(t.ctx, e.World())
	w, h, sx, sy := t.draft.extent()
	width := t.ctx.Constraints().EffectiveMinPathWidth()
	dx, dy := math.Abs(t.draft.end.X-t.draft.start.X), math.Abs(t.draft.end.Y-t.draft.start.Y)
	if dx >= dy {
		h = width
	} else {
		w = width
	}
	t.draft.place(w, h, sx, sy)
}

func (t *DrawPath) OnPointerMove(e PointerEvent) {
	if t.draft.active {
		t.update(e)
	}
}

func (t *DrawPath) OnPointerUp(e PointerEvent) {
	if !t.draft.active {
		return
	}
	t.update(e)
	if !t.draft.degenerate() {
		commitDraft(t.ctx, t.draft.node)
	}
	t.draft = rectDraft{}
}

func (t *DrawPath) OnKeyDown(e KeyEvent) bool {
	if e.Key == "Escape" && t.draft.active {
		t.draft = rectDraft{}
		return true
	}
	return false
}

func (t *DrawPath) OnKeyUp(KeyEvent) bool { return false }

func (t *DrawPath) Preview() *Preview {
	if !t.draft.active || t.draft.degenerate() {
		return nil
	}
	n := t.draft.node.Clone()
	return &Preview{Tool: IDDrawPath, Draft: &n}
}
