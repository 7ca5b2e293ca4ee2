package tool

import (
	"slices"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
	"github.com/verdant/verdant/editor-go/internal/history"
	"github.com/verdant/verdant/editor-go/internal/layout"
)

type selectState int

const (
	selectIdle selectState = iota
	selectDragging
	selectMarquee
)

// Select picks, drags, marquee-selects and deletes nodes.
type Select struct {
	ctx   Context
	state selectState

	start geom.Point
	// drag
	originals []document.Node
	key       string
	applied   geom.Point
	moved     bool
	// marquee
	marquee geom.Rect
	base    []string
}

func NewSelect(ctx Context) *Select {
	return &Select{ctx: ctx}
}

func (t *Select) ID() ID         { return IDSelect }
func (t *Select) Name() string   { return "Select" }
func (t *Select) Icon() string   { return "pointer" }
func (t *Select) Cursor() Cursor { return CursorDefault }

func (t *Select) Activate()   { t.reset() }
func (t *Select) Deactivate() { t.reset() }

func (t *Select) reset() {
	t.state = selectIdle
	t.originals = nil
	t.key = ""
	t.applied = geom.Point{}
	t.moved = false
	t.base = nil
}

func (t *Select) OnPointerDown(e PointerEvent) {
	if e.Button != 0 {
		return
	}
	t.start = e.World()
	sel := t.ctx.Selection()

	id := layout.HitTest(t.ctx.Scene(), e.X, e.Y)
	if id == "" {
		t.state = selectMarquee
		t.marquee = geom.Rect{MinX: e.X, MinY: e.Y, MaxX: e.X, MaxY: e.Y}
		if e.Shift {
			t.base = sel.Slice()
		} else {
			t.base = nil
			t.ctx.SetSelection(document.Selection{})
		}
		return
	}

	if e.Shift {
		sel.Toggle(id)
		t.ctx.SetSelection(sel)
		return
	}
	// Pressing on a member of a multi-selection drags the whole group.
	if !sel.Contains(id) {
		sel = selectionOf(id)
	} else {
		sel.Primary = id
	}
	t.ctx.SetSelection(sel)
	t.beginDrag(sel.IDs)
}

func (t *Select) beginDrag(ids []string) {
	t.originals = t.originals[:0]
	editable := t.ctx.Scene().EditableNodes()
	for _, n := range editable {
		if slices.Contains(ids, n.ID) && n.Draggable() {
			t.originals = append(t.originals, n.Clone())
		}
	}
	if len(t.originals) == 0 {
		return
	}
	t.state = selectDragging
	t.key = history.NewGestureKey()
	t.applied = geom.Point{}
}

// dragDelta is the pointer delta with the soft grid assist applied per axis.
func (t *Select) dragDelta(p geom.Point) geom.Point {
	d := geom.Point{X: p.X - t.start.X, Y: p.Y - t.start.Y}
	g := t.ctx.Grid()
	if !g.Enabled || g.Spacing <= 0 {
		return d
	}
	tol := t.ctx.Constraints().SnapTolerance
	return geom.Point{
		X: geom.SnapToGrid(d.X, g.Spacing, tol),
		Y: geom.SnapToGrid(d.Y, g.Spacing, tol),
	}
}

func (t *Select) moveTo(d geom.Point) {
	if d == t.applied {
		return
	}
	moved := make([]document.Node, len(t.originals))
	for i, n := range t.originals {
		moved[i] = layout.Translate(n, d.X, d.Y)
	}
	if err := t.ctx.UpdateNodes(moved, t.key); err != nil {
		t.ctx.Logger().Debug("drag update rejected", "error", err)
		return
	}
	t.applied = d
	t.moved = true
}

func (t *Select) OnPointerMove(e PointerEvent) {
	switch t.state {
	case selectDragging:
		t.moveTo(t.dragDelta(e.World()))
	case selectMarquee:
		t.marquee = geom.RectFromCorners(t.start, e.World())
		t.ctx.SetSelection(selectionOf(t.marqueeIDs()...))
	}
}

func (t *Select) marqueeIDs() []string {
	var candidates []document.Node
	for _, n := range t.ctx.Scene().EditableNodes() {
		if n.Selectable() {
			candidates = append(candidates, n)
		}
	}
	ids := slices.Clone(t.base)
	for _, id := range layout.FindNodesInRect(t.marquee, candidates, layout.RectContain) {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *Select) OnPointerUp(e PointerEvent) {
	switch t.state {
	case selectDragging:
		t.moveTo(t.dragDelta(e.World()))
		if t.applied != (geom.Point{}) {
			t.ctx.Logger().Debug("nodes moved", "count", len(t.originals), "dx", t.applied.X, "dy", t.applied.Y)
		}
	case selectMarquee:
		t.marquee = geom.RectFromCorners(t.start, e.World())
		t.ctx.SetSelection(selectionOf(t.marqueeIDs()...))
	}
	t.reset()
}

func (t *Select) OnKeyDown(e KeyEvent) bool {
	switch {
	case e.Key == "Delete" || e.Key == "Backspace":
		sel := t.ctx.Selection()
		if sel.Empty() {
			return false
		}
		if err := t.ctx.RemoveNodes(sel.Slice()); err != nil {
			t.ctx.Logger().Warn("delete selection", "error", err)
		}
		t.reset()
		return true

	case e.Mod() && (e.Key == "a" || e.Key == "A"):
		var ids []string
		for _, n := range t.ctx.Scene().EditableNodes() {
			if n.Selectable() {
				ids = append(ids, n.ID)
			}
		}
		t.ctx.SetSelection(selectionOf(ids...))
		return true

	case e.Key == "Escape":
		if t.state == selectDragging && t.moved {
			if err := t.ctx.CancelGesture(t.key); err != nil {
				t.ctx.Logger().Warn("cancel drag", "error", err)
			}
		}
		t.reset()
		t.ctx.SetSelection(document.Selection{})
		return true
	}
	return false
}

func (t *Select) OnKeyUp(KeyEvent) bool { return false }

func (t *Select) Preview() *Preview {
	if t.state != selectMarquee {
		return nil
	}
	r := t.marquee
	return &Preview{Tool: IDSelect, Marquee: &r}
}
