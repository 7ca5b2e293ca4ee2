package engine

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/history"
	"github.com/verdant/verdant/editor-go/internal/input"
	"github.com/verdant/verdant/editor-go/internal/layout"
	"github.com/verdant/verdant/editor-go/internal/tool"
)

func newTestEngine(t *testing.T, hooks Hooks) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Hooks = hooks
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(opts)
}

func loadSample(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.LoadSamplePlan(); err != nil {
		t.Fatalf("LoadSamplePlan: %v", err)
	}
}

func at(x, y float64) input.RawPointer {
	return input.RawPointer{ScreenX: x, ScreenY: y, Buttons: 1}
}

func key(k string, mods tool.Modifiers) input.RawKey {
	return input.RawKey{Key: k, Modifiers: mods}
}

var cmd = tool.Modifiers{Meta: true}

// sceneJSON is a stable fingerprint of the scene content.
func sceneJSON(t *testing.T, s *document.Scene) string {
	t.Helper()
	data, err := json.Marshal(s.Layers)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestDrawBedUndoRedo(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	if err := e.SetTool(tool.IDDrawBed); err != nil {
		t.Fatal(err)
	}
	if e.Cursor() != tool.CursorCrosshair {
		t.Errorf("cursor = %s, want crosshair", e.Cursor())
	}

	e.PointerDown(at(0, 0))
	e.PointerMove(at(24, 12))
	e.PointerUp(at(48, 24))

	if got := e.Scene().NodeCount(); got != 1 {
		t.Fatalf("nodes = %d, want 1", got)
	}
	bed := e.Scene().Nodes()[0]
	if e.Selection().Primary != bed.ID {
		t.Errorf("new bed not selected: %+v", e.Selection())
	}
	if e.UndoLabel() != "Add bed" {
		t.Errorf("undo label = %q", e.UndoLabel())
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Scene().NodeCount() != 0 {
		t.Error("undo left the bed behind")
	}
	if !e.Selection().Empty() {
		t.Errorf("selection not pruned after undo: %+v", e.Selection())
	}

	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if n, ok := e.Scene().Node(bed.ID); !ok || n.Width != 48 || n.Height != 24 {
		t.Errorf("redo = %+v, %v", n, ok)
	}
	if err := e.Redo(); !errors.Is(err, history.ErrNothingToRedo) {
		t.Errorf("second redo err = %v", err)
	}
}

func TestDeleteSelectionPrunesAndRestores(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	before := sceneJSON(t, e.Scene())
	ground := e.Scene().Layers[0]
	e.Select([]string{ground.Nodes[0].ID, ground.Nodes[2].ID})

	if !e.KeyDown(key("Delete", tool.Modifiers{})) {
		t.Fatal("delete not handled")
	}
	if e.Scene().Has(ground.Nodes[0].ID) || e.Scene().Has(ground.Nodes[2].ID) {
		t.Error("selected nodes not removed")
	}
	if !e.Selection().Empty() {
		t.Errorf("selection = %+v, want empty", e.Selection())
	}

	if !e.KeyDown(key("z", cmd)) {
		t.Fatal("undo shortcut not handled")
	}
	if got := sceneJSON(t, e.Scene()); got != before {
		t.Errorf("undo did not restore nodes in place\n got %s\nwant %s", got, before)
	}
}

func TestDuplicateThenDeleteIsIdentity(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	before := sceneJSON(t, e.Scene())
	src := e.Scene().Layers[0].Nodes[0]
	e.Select([]string{src.ID})

	if err := e.DuplicateSelection(24, 24); err != nil {
		t.Fatal(err)
	}
	sel := e.Selection()
	if sel.Len() != 1 || sel.Primary == src.ID {
		t.Fatalf("copy not selected: %+v", sel)
	}
	cp, _ := e.Scene().Node(sel.Primary)
	if cp.Transform.X != src.Transform.X+24 || cp.Transform.Y != src.Transform.Y+24 {
		t.Errorf("copy at (%v, %v)", cp.Transform.X, cp.Transform.Y)
	}
	if ref, _ := e.Scene().Find(cp.ID); ref.LayerID != e.Scene().Layers[0].ID {
		t.Errorf("copy landed on layer %s", ref.LayerID)
	}

	if err := e.DeleteSelection(); err != nil {
		t.Fatal(err)
	}
	if got := sceneJSON(t, e.Scene()); got != before {
		t.Error("duplicate then delete changed the scene")
	}
}

func TestDragIsOneUndoStep(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	bed := e.Scene().Layers[0].Nodes[0]

	e.PointerDown(at(72, 96))
	for _, p := range [][2]float64{{78, 100}, {84, 108}, {90, 114}, {96, 120}} {
		e.PointerMove(at(p[0], p[1]))
	}
	e.PointerUp(at(96, 120))

	moved, _ := e.Scene().Node(bed.ID)
	if moved.Transform.X != 96 || moved.Transform.Y != 120 {
		t.Fatalf("bed at (%v, %v), want (96, 120)", moved.Transform.X, moved.Transform.Y)
	}
	if undo, _ := e.history.Len(); undo != 1 {
		t.Errorf("undo entries = %d, want 1", undo)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	back, _ := e.Scene().Node(bed.ID)
	if back.Transform != bed.Transform {
		t.Errorf("undo = %+v, want %+v", back.Transform, bed.Transform)
	}
	if e.CanUndo() {
		t.Error("drag left more than one undo entry")
	}
}

func TestEscapeDuringDragLeavesHistoryAlone(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	bed := e.Scene().Layers[0].Nodes[0]

	// A redo entry that a clean cancel must keep.
	if err := e.UpdateNodes([]document.Node{layout.Translate(bed, 0, 12)}, ""); err != nil {
		t.Fatal(err)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	canUndo, canRedo := e.CanUndo(), e.CanRedo()
	before := sceneJSON(t, e.Scene())

	e.PointerDown(at(72, 96))
	e.PointerMove(at(84, 108))
	e.PointerMove(at(96, 120))
	if !e.KeyDown(key("Escape", tool.Modifiers{})) {
		t.Fatal("escape not handled")
	}
	e.PointerUp(at(96, 120))

	if got := sceneJSON(t, e.Scene()); got != before {
		t.Errorf("cancelled drag changed the scene\n got %s\nwant %s", got, before)
	}
	if e.CanUndo() != canUndo || e.CanRedo() != canRedo {
		t.Errorf("CanUndo/CanRedo = %v/%v, want %v/%v", e.CanUndo(), e.CanRedo(), canUndo, canRedo)
	}
	if label := e.UndoLabel(); label == "Move" {
		t.Errorf("cancelled drag left a %q undo step", label)
	}
}

func TestAccessiblePathIsCommitted(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	s := e.Constraints()
	s.Accessibility = true
	e.SetConstraints(s)
	if err := e.SetTool(tool.IDDrawPath); err != nil {
		t.Fatal(err)
	}

	e.PointerDown(at(24, 24))
	e.PointerMove(at(96, 24))
	e.PointerMove(at(144, 24))
	e.PointerUp(at(144, 24))

	nodes := e.Scene().Nodes()
	if len(nodes) != 1 || nodes[0].Kind != document.KindPath {
		t.Fatalf("nodes = %+v, want one path", nodes)
	}
	if w := constraint.PathWidth(nodes[0]); w != 36 {
		t.Errorf("path width = %v, want 36", w)
	}
	if !e.Validate().OK {
		t.Errorf("validation = %+v", e.Validate())
	}
}

func TestShortcuts(t *testing.T) {
	var saved *document.Plan
	opened := false
	e := newTestEngine(t, Hooks{
		Save: func(p *document.Plan) { saved = p },
		Open: func() { opened = true },
	})
	loadSample(t, e)

	t.Run("tool keys", func(t *testing.T) {
		for k, id := range toolKeys {
			if !e.KeyDown(key(k, tool.Modifiers{})) {
				t.Fatalf("%s not handled", k)
			}
			if e.ActiveTool() != id {
				t.Errorf("%s switched to %s, want %s", k, e.ActiveTool(), id)
			}
		}
		e.KeyDown(key("v", tool.Modifiers{}))
	})

	t.Run("save and open", func(t *testing.T) {
		e.KeyDown(key("s", cmd))
		if saved == nil || saved.ID != e.PlanID() {
			t.Errorf("save hook got %+v", saved)
		}
		e.KeyDown(key("o", tool.Modifiers{Ctrl: true}))
		if !opened {
			t.Error("open hook not called")
		}
	})

	t.Run("zoom", func(t *testing.T) {
		e.SetScreenSize(800, 600)
		e.KeyDown(key("=", cmd))
		if z := e.Viewport().Zoom; z != KeyZoomStep {
			t.Errorf("zoom = %v, want %v", z, KeyZoomStep)
		}
		e.KeyDown(key("-", cmd))
		e.KeyDown(key("-", cmd))
		if z := e.Viewport().Zoom; z >= 1 {
			t.Errorf("zoom out = %v", z)
		}
		e.KeyDown(key("0", cmd))
		if v := e.Viewport(); v.Zoom != 1 || v.PanX != 0 || v.PanY != 0 {
			t.Errorf("reset view = %+v", v)
		}
	})

	t.Run("zoom in with shift held", func(t *testing.T) {
		// Shift turns "=" into "+" on US layouts.
		if !e.KeyDown(key("+", tool.Modifiers{Meta: true, Shift: true})) {
			t.Fatal("Mod+Shift++ not handled")
		}
		if z := e.Viewport().Zoom; z != KeyZoomStep {
			t.Errorf("zoom = %v, want %v", z, KeyZoomStep)
		}
		e.ResetView()
	})

	t.Run("duplicate and redo", func(t *testing.T) {
		src := e.Scene().Layers[0].Nodes[3]
		e.Select([]string{src.ID})
		count := e.Scene().NodeCount()
		e.KeyDown(key("d", cmd))
		if e.Scene().NodeCount() != count+1 {
			t.Fatalf("Mod+D did not duplicate")
		}
		e.KeyDown(key("z", cmd))
		e.KeyDown(key("Z", tool.Modifiers{Meta: true, Shift: true}))
		if e.Scene().NodeCount() != count+1 {
			t.Error("Mod+Shift+Z did not redo")
		}
		e.KeyDown(key("z", cmd))
		e.KeyDown(key("y", tool.Modifiers{Ctrl: true}))
		if e.Scene().NodeCount() != count+1 {
			t.Error("Mod+Y did not redo")
		}
	})
}

func TestWheelZoomKeepsAnchor(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	wx, wy := e.ScreenToWorld(200, 150)
	e.Wheel(input.RawWheel{ScreenX: 200, ScreenY: 150, DeltaY: -200})
	if e.Viewport().Zoom <= 1 {
		t.Fatalf("zoom = %v, want > 1", e.Viewport().Zoom)
	}
	gx, gy := e.ScreenToWorld(200, 150)
	if !approx(gx, wx) || !approx(gy, wy) {
		t.Errorf("anchor moved: (%v, %v) -> (%v, %v)", wx, wy, gx, gy)
	}

	for range 100 {
		e.Wheel(input.RawWheel{DeltaY: -1000})
	}
	if e.Viewport().Zoom != document.MaxZoom {
		t.Errorf("zoom = %v, want clamp at %v", e.Viewport().Zoom, document.MaxZoom)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	data, err := e.PlanJSON()
	if err != nil {
		t.Fatal(err)
	}

	other := newTestEngine(t, Hooks{})
	if err := other.LoadPlanJSON(data); err != nil {
		t.Fatal(err)
	}
	if other.PlanID() != e.PlanID() {
		t.Errorf("plan id = %s, want %s", other.PlanID(), e.PlanID())
	}
	if sceneJSON(t, other.Scene()) != sceneJSON(t, e.Scene()) {
		t.Error("scene changed across round trip")
	}

	bad := []byte(`{"version":"plan.v0","scene":{"layers":[]}}`)
	if err := other.LoadPlanJSON(bad); !errors.Is(err, document.ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
	if other.Scene().NodeCount() != e.Scene().NodeCount() {
		t.Error("failed load changed the open plan")
	}
}

func TestPlanConstraintOverrides(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	p := document.NewSamplePlan()
	narrow := 24.0
	p.Meta.Constraints = &document.ConstraintOverrides{MaxBedWidth: &narrow}
	if err := e.LoadPlan(p); err != nil {
		t.Fatal(err)
	}
	if got := e.ConstraintLimits().BedWidth.Max; got != 24 {
		t.Errorf("bed width max = %v, want 24", got)
	}
	if got := e.Validate().Count(constraint.CodeBedWidthExceedsMax); got != 3 {
		t.Errorf("bed width violations = %d, want 3", got)
	}

	if err := e.AutoFixSelection(); err != nil {
		t.Fatal(err)
	}
	if res := e.Validate(); !res.OK {
		t.Errorf("violations after auto-fix: %+v", res.Violations)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Validate().Count(constraint.CodeBedWidthExceedsMax); got != 3 {
		t.Errorf("auto-fix not undone: %d violations", got)
	}

	if e.Plan().Meta.Constraints == nil || *e.Plan().Meta.Constraints.MaxBedWidth != 24 {
		t.Error("overrides not written back to the plan")
	}
}

func TestPlaceNode(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	beds := e.Scene().Layers[0].Nodes
	first, second := beds[0], beds[1]

	tests := []struct {
		name string
		x, y float64
		ok   bool
	}{
		{"free space", 400, 96, true},
		{"off canvas", 470, 96, false},
		{"onto another bed", second.Transform.X, second.Transform.Y, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.PlaceNode(first.ID, tt.x, tt.y)
			if tt.ok && err != nil {
				t.Fatalf("PlaceNode: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPosition) {
				t.Fatalf("err = %v, want ErrInvalidPosition", err)
			}
		})
	}
	n, _ := e.Scene().Node(first.ID)
	if n.Transform.X != 400 || n.Transform.Y != 96 {
		t.Errorf("bed at (%v, %v), want (400, 96)", n.Transform.X, n.Transform.Y)
	}
	if err := e.PlaceNode("bed_missing", 0, 0); !errors.Is(err, document.ErrNodeNotFound) {
		t.Errorf("missing id err = %v", err)
	}
}

func TestSelectionEdits(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	loadSample(t, e)
	beds := e.Scene().Layers[0].Nodes[:3]
	e.Select([]string{beds[0].ID, beds[1].ID, beds[2].ID})

	if err := e.AlignSelection(layout.EdgeTop); err != nil {
		t.Fatal(err)
	}
	if err := e.FlipSelection(layout.AxisX); err != nil {
		t.Fatal(err)
	}
	a, _ := e.Scene().Node(beds[0].ID)
	c, _ := e.Scene().Node(beds[2].ID)
	if a.Transform.X != beds[2].Transform.X || c.Transform.X != beds[0].Transform.X {
		t.Errorf("flip: first at %v, last at %v", a.Transform.X, c.Transform.X)
	}

	if err := e.ArrangeSelection(1, 12); err != nil {
		t.Fatal(err)
	}
	a, _ = e.Scene().Node(beds[0].ID)
	b, _ := e.Scene().Node(beds[1].ID)
	if a.Transform.X != b.Transform.X || b.Transform.Y-a.Transform.Y != 96+12 {
		t.Errorf("arrange: a=%+v b=%+v", a.Transform, b.Transform)
	}
	if undo, _ := e.history.Len(); undo != 3 {
		t.Errorf("undo entries = %d, want 3", undo)
	}
}

func TestLayers(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	id, err := e.AddLayer("Irrigation")
	if err != nil {
		t.Fatal(err)
	}
	if e.ActiveLayerID() != id {
		t.Errorf("active layer = %s, want %s", e.ActiveLayerID(), id)
	}
	if err := e.SetLayerLocked(id, true); err != nil {
		t.Fatal(err)
	}
	if err := e.AddNode(id, document.NewBed(100, 100, 24, 24)); !errors.Is(err, document.ErrLayerLocked) {
		t.Errorf("add to locked layer err = %v", err)
	}
	if err := e.RemoveLayer(id); err != nil {
		t.Fatal(err)
	}
	if e.ActiveLayerID() == id {
		t.Error("active layer points at a removed layer")
	}
	if err := e.RemoveLayer(e.ActiveLayerID()); !errors.Is(err, document.ErrLastLayer) {
		t.Errorf("remove last layer err = %v", err)
	}
	if err := e.SetActiveLayer("layer_missing"); !errors.Is(err, document.ErrLayerNotFound) {
		t.Errorf("SetActiveLayer err = %v", err)
	}

	id, err = e.AddLayer("")
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := e.Scene().Layer(id); !ok || l.Name != "Layer 2" {
		t.Errorf("unnamed layer = %+v", l)
	}
}

func TestRenderStateCarriesPreview(t *testing.T) {
	e := newTestEngine(t, Hooks{})
	if err := e.SetTool(tool.IDMeasure); err != nil {
		t.Fatal(err)
	}
	e.PointerDown(at(0, 0))
	e.PointerMove(at(36, 0))

	rs := e.RenderState()
	if rs.Tool != tool.IDMeasure || rs.Preview == nil || rs.Preview.Measurement == nil {
		t.Fatalf("render state = %+v", rs)
	}
	if rs.Preview.Measurement.Length != 36 {
		t.Errorf("length = %v", rs.Preview.Measurement.Length)
	}
	var found bool
	for _, c := range rs.Commands {
		if c.Layer == LayerPreview && c.Op == "text" && c.Text == rs.Preview.Measurement.Label {
			found = true
		}
	}
	if !found {
		t.Error("measurement label missing from draw list")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(e.RenderStateJSON()), &decoded); err != nil {
		t.Fatalf("render state json: %v", err)
	}
}
