// Package engine owns the editor state for one open plan: the scene, the
// viewport, the selection, the constraint settings in force, the undo history
// and the input pipeline. Hosts drive it through commands and read it back
// through queries; tools reach it through the tool.Context it implements.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
	"github.com/verdant/verdant/editor-go/internal/history"
	"github.com/verdant/verdant/editor-go/internal/input"
	"github.com/verdant/verdant/editor-go/internal/layout"
	"github.com/verdant/verdant/editor-go/internal/tool"
	"github.com/verdant/verdant/editor-go/internal/typeid"
)

var ErrInvalidPosition = errors.New("invalid position")

// Hooks let a host react to editor events. Every hook is optional.
type Hooks struct {
	Save   func(*document.Plan)
	Open   func()
	Export func(*document.Plan)
	Cursor func(tool.Cursor)
	// Change runs after every committed scene change, undo and redo.
	Change func(revision uint64)
}

// Options configure a new Engine.
type Options struct {
	Constraints     constraint.Settings
	Units           document.Units
	HistoryCapacity int
	GridSpacing     float64
	CanvasWidth     float64
	CanvasHeight    float64
	Hooks           Hooks
	Logger          *slog.Logger
}

// DefaultOptions returns options for a 40×30 ft imperial canvas.
func DefaultOptions() Options {
	return Options{
		Constraints:     constraint.Default(),
		Units:           document.UnitsImperial,
		HistoryCapacity: history.DefaultCapacity,
		GridSpacing:     12,
		CanvasWidth:     480,
		CanvasHeight:    360,
	}
}

// Engine is the editor state for one plan. It is not safe for concurrent use;
// hosts serialize calls.
type Engine struct {
	// Document state
	planID      string
	createdAt   time.Time
	units       document.Units
	hardSurface bool
	scene       *document.Scene
	activeLayer string

	// View state, never persisted with the scene
	viewport  document.Viewport
	screenW   float64
	screenH   float64
	selection document.Selection
	cursor    tool.Cursor

	// Constraint settings: process defaults plus the plan's overrides
	defaults  constraint.Settings
	settings  constraint.Settings
	overrides *document.ConstraintOverrides

	history *history.History
	input   *input.Manager
	opts    Options
	logger  *slog.Logger

	// Revision counts committed scene changes
	revision uint64
}

// New creates an engine holding an empty plan.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Units == "" {
		opts.Units = def.Units
	}
	if opts.GridSpacing <= 0 {
		opts.GridSpacing = def.GridSpacing
	}
	if opts.CanvasWidth <= 0 || opts.CanvasHeight <= 0 {
		opts.CanvasWidth, opts.CanvasHeight = def.CanvasWidth, def.CanvasHeight
	}
	if opts.Constraints == (constraint.Settings{}) {
		opts.Constraints = def.Constraints
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		defaults: opts.Constraints,
		settings: opts.Constraints,
		opts:     opts,
		logger:   logger,
		history:  history.New(opts.HistoryCapacity, logger),
	}
	e.input = input.NewManager(input.Options{
		ScreenToWorld: e.ScreenToWorld,
		OnZoom:        e.ZoomAt,
		OnCursor:      e.setCursor,
		Logger:        logger,
	})
	e.reset(document.NewPlan(document.NewScene("Untitled", opts.CanvasWidth, opts.CanvasHeight), opts.Units))
	e.input.Register(tool.All(e)...)
	e.registerShortcuts()
	return e
}

func (e *Engine) defaultViewport() document.Viewport {
	v := document.DefaultViewport()
	v.Grid.Spacing = e.opts.GridSpacing
	return v
}

// reset installs a checked plan and drops all transient state.
func (e *Engine) reset(p *document.Plan) {
	e.planID = p.ID
	if e.planID == "" {
		e.planID = typeid.NewPlanID()
	}
	e.createdAt = p.CreatedAt
	e.units = p.Meta.Units
	e.hardSurface = p.Meta.HardSurface
	e.scene = p.Scene.Clone()
	e.viewport = e.defaultViewport()
	if p.Viewport != nil {
		e.viewport = *p.Viewport
	}
	e.overrides = p.Meta.Constraints
	e.settings = e.defaults.WithOverrides(p.Meta.Constraints)
	e.selection = document.Selection{}
	e.activeLayer = ""
	e.ensureActiveLayer()
	e.history.Clear()
	e.input.Cancel()
	e.revision++
}

// --- Commands (host → engine) ---

// LoadPlan replaces the open plan. The plan is checked first; on error the
// engine is left untouched.
func (e *Engine) LoadPlan(p *document.Plan) error {
	if p == nil {
		return errors.New("nil plan")
	}
	if err := p.Check(); err != nil {
		return err
	}
	e.reset(p)
	e.logger.Info("plan loaded", "plan", e.planID, "layers", len(e.scene.Layers), "nodes", e.scene.NodeCount())
	e.changed()
	return nil
}

// LoadPlanJSON decodes a plan.v1 document and loads it.
func (e *Engine) LoadPlanJSON(data []byte) error {
	p, err := document.ParsePlan(data)
	if err != nil {
		return err
	}
	return e.LoadPlan(p)
}

// LoadSamplePlan opens the built-in sample garden.
func (e *Engine) LoadSamplePlan() error {
	return e.LoadPlan(document.NewSamplePlan())
}

// Plan snapshots the open plan as a plan.v1 document.
func (e *Engine) Plan() *document.Plan {
	vp := e.viewport
	return &document.Plan{
		Version:   document.PlanVersion,
		ID:        e.planID,
		Scene:     e.scene.Clone(),
		Viewport:  &vp,
		CreatedAt: e.createdAt,
		UpdatedAt: time.Now().UTC(),
		Meta: document.PlanMeta{
			Units:       e.units,
			HardSurface: e.hardSurface,
			Constraints: e.overrides,
		},
	}
}

// PlanJSON encodes the open plan.
func (e *Engine) PlanJSON() ([]byte, error) {
	data, err := json.Marshal(e.Plan())
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	return data, nil
}

// PlanID returns the id of the open plan.
func (e *Engine) PlanID() string { return e.planID }

// Revision counts committed scene changes since the engine was created.
func (e *Engine) Revision() uint64 { return e.revision }

// SetConstraints replaces the settings in force and records them as the
// plan's overrides.
func (e *Engine) SetConstraints(s constraint.Settings) {
	e.settings = s
	e.overrides = s.Overrides()
	e.logger.Debug("constraints changed", "maxBedWidth", s.MaxBedWidth, "minPathWidth", s.MinPathWidth, "accessibility", s.Accessibility)
	e.changed()
}

// SetUnits switches the display units of the plan.
func (e *Engine) SetUnits(u document.Units) {
	e.units = u
	e.changed()
}

// Select replaces the selection with the existing ids among ids.
func (e *Engine) Select(ids []string) {
	var sel document.Selection
	sel.Set(ids)
	e.SetSelection(sel)
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selection.Clear()
}

// --- Input ---

func (e *Engine) PointerDown(raw input.RawPointer) { e.input.PointerDown(raw) }
func (e *Engine) PointerMove(raw input.RawPointer) { e.input.PointerMove(raw) }
func (e *Engine) PointerUp(raw input.RawPointer)   { e.input.PointerUp(raw) }
func (e *Engine) DoubleClick(raw input.RawPointer) { e.input.DoubleClick(raw) }
func (e *Engine) KeyDown(raw input.RawKey) bool    { return e.input.KeyDown(raw) }
func (e *Engine) KeyUp(raw input.RawKey) bool      { return e.input.KeyUp(raw) }
func (e *Engine) Wheel(raw input.RawWheel)         { e.input.Wheel(raw) }

// SetTool swaps the active tool, abandoning any gesture in flight.
func (e *Engine) SetTool(id tool.ID) error { return e.input.SetTool(id) }

// ActiveTool returns the id of the active tool.
func (e *Engine) ActiveTool() tool.ID { return e.input.ActiveID() }

// Tools lists the registered tools.
func (e *Engine) Tools() []tool.Tool { return e.input.Tools() }

// Cursor returns the cursor the active tool asked for.
func (e *Engine) Cursor() tool.Cursor { return e.cursor }

func (e *Engine) setCursor(c tool.Cursor) {
	e.cursor = c
	if e.opts.Hooks.Cursor != nil {
		e.opts.Hooks.Cursor(c)
	}
}

// --- Mutations (all through history) ---

func (e *Engine) execute(cmd history.Command) error {
	next, err := e.history.Execute(e.scene, cmd)
	if err != nil {
		return err
	}
	e.commit(next)
	return nil
}

// commit installs a new scene and repairs state that points into it.
func (e *Engine) commit(scene *document.Scene) {
	e.scene = scene
	e.selection.Prune(scene)
	e.ensureActiveLayer()
	e.revision++
	e.changed()
}

func (e *Engine) changed() {
	if e.opts.Hooks.Change != nil {
		e.opts.Hooks.Change(e.revision)
	}
}

// ensureActiveLayer keeps the active layer pointing at an existing layer,
// preferring the topmost one.
func (e *Engine) ensureActiveLayer() {
	if _, ok := e.scene.Layer(e.activeLayer); ok {
		return
	}
	order := e.scene.OrderedLayers()
	if len(order) > 0 {
		e.activeLayer = e.scene.Layers[order[len(order)-1]].ID
	}
}

// AddNode appends n to a layer as one undo step.
func (e *Engine) AddNode(layerID string, n document.Node) error {
	return e.execute(history.NewAddNode(layerID, n))
}

// UpdateNodes replaces nodes by id. Updates sharing a non-empty key merge
// into one undo step.
func (e *Engine) UpdateNodes(nodes []document.Node, key string) error {
	if len(nodes) == 0 {
		return nil
	}
	label := "Edit"
	if key != "" {
		label = "Move"
	}
	return e.execute(&history.UpdateNodes{Label: label, Key: key, Nodes: nodes})
}

// CancelGesture reverts an unfinished drag recorded under key. The redo
// entries it cleared are restored.
func (e *Engine) CancelGesture(key string) error {
	prev, ok, err := e.history.Rollback(e.scene, key)
	if err != nil || !ok {
		return err
	}
	e.commit(prev)
	return nil
}

// RemoveNodes deletes nodes by id. A missing id fails the whole removal with
// document.ErrNodeNotFound.
func (e *Engine) RemoveNodes(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return e.execute(&history.RemoveNodes{IDs: ids})
}

// DeleteSelection removes every selected node.
func (e *Engine) DeleteSelection() error {
	return e.RemoveNodes(e.selection.Slice())
}

// AddLayer appends a visible, unlocked layer on top and makes it active. An
// empty name becomes "Layer N".
func (e *Engine) AddLayer(name string) (string, error) {
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(e.scene.Layers)+1)
	}
	l := document.Layer{
		ID:      typeid.NewLayerID(),
		Name:    name,
		Visible: true,
		Order:   e.scene.NextLayerOrder(),
		Nodes:   []document.Node{},
	}
	if err := e.execute(&history.AddLayer{Index: -1, Layer: l}); err != nil {
		return "", err
	}
	e.activeLayer = l.ID
	return l.ID, nil
}

// RemoveLayer deletes a layer and its nodes.
func (e *Engine) RemoveLayer(id string) error {
	return e.execute(&history.RemoveLayer{ID: id})
}

func (e *Engine) SetLayerVisible(id string, visible bool) error {
	return e.execute(&history.SetLayerProps{ID: id, Visible: &visible})
}

func (e *Engine) SetLayerLocked(id string, locked bool) error {
	return e.execute(&history.SetLayerProps{ID: id, Locked: &locked})
}

func (e *Engine) RenameLayer(id, name string) error {
	return e.execute(&history.SetLayerProps{ID: id, Title: &name})
}

// SetActiveLayer chooses the layer new drawings go to.
func (e *Engine) SetActiveLayer(id string) error {
	if _, ok := e.scene.Layer(id); !ok {
		return fmt.Errorf("%w: %s", document.ErrLayerNotFound, id)
	}
	e.activeLayer = id
	return nil
}

// Undo reverts the most recent change.
func (e *Engine) Undo() error {
	e.input.Cancel()
	prev, err := e.history.Undo(e.scene)
	if err != nil {
		return err
	}
	e.commit(prev)
	return nil
}

// Redo re-applies the most recently undone change.
func (e *Engine) Redo() error {
	e.input.Cancel()
	next, err := e.history.Redo(e.scene)
	if err != nil {
		return err
	}
	e.commit(next)
	return nil
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// --- Viewport ---

// ZoomAt scales the view by factor around a screen anchor, clamped to
// [document.MinZoom, document.MaxZoom].
func (e *Engine) ZoomAt(factor, anchorX, anchorY float64) {
	e.viewport = e.viewport.ZoomAt(factor, anchorX, anchorY)
}

// Pan shifts the view by a screen delta.
func (e *Engine) Pan(dx, dy float64) {
	e.viewport = e.viewport.Pan(dx, dy)
}

// ResetView returns to 1:1 with no pan, keeping the grid.
func (e *Engine) ResetView() {
	grid := e.viewport.Grid
	e.viewport = document.Viewport{Zoom: 1, Grid: grid}
}

// SetGrid replaces the grid settings.
func (e *Engine) SetGrid(g document.GridSettings) {
	e.viewport.Grid = g
}

// SetScreenSize records the host canvas size used to anchor keyboard zoom.
func (e *Engine) SetScreenSize(w, h float64) {
	e.screenW, e.screenH = w, h
}

// --- tool.Context ---

func (e *Engine) Scene() *document.Scene           { return e.scene }
func (e *Engine) Viewport() document.Viewport      { return e.viewport }
func (e *Engine) Constraints() constraint.Settings { return e.settings }
func (e *Engine) Grid() document.GridSettings      { return e.viewport.Grid }
func (e *Engine) Units() document.Units            { return e.units }
func (e *Engine) ActiveLayerID() string            { return e.activeLayer }
func (e *Engine) Logger() *slog.Logger             { return e.logger }

func (e *Engine) Selection() document.Selection {
	return document.Selection{IDs: e.selection.Slice(), Primary: e.selection.Primary}
}

// SetSelection replaces the selection, dropping ids not in the scene.
func (e *Engine) SetSelection(sel document.Selection) {
	sel.IDs = append([]string(nil), sel.IDs...)
	sel.Prune(e.scene)
	if sel.Primary != "" && !sel.Contains(sel.Primary) {
		sel.Primary = ""
	}
	if sel.Primary == "" && len(sel.IDs) > 0 {
		sel.Primary = sel.IDs[len(sel.IDs)-1]
	}
	e.selection = sel
}

func (e *Engine) ScreenToWorld(x, y float64) (float64, float64) {
	return e.viewport.ScreenToWorld(x, y)
}

func (e *Engine) WorldToScreen(x, y float64) (float64, float64) {
	return e.viewport.WorldToScreen(x, y)
}

// --- Queries (host ← engine) ---

// HitTest returns the topmost selectable node at a world point, or "".
func (e *Engine) HitTest(x, y float64) string {
	return layout.HitTest(e.scene, x, y)
}

// SelectionBounds returns the combined bounds of the selection.
func (e *Engine) SelectionBounds() (geom.Rect, bool) {
	return layout.SelectionBounds(e.scene, e.selection.IDs)
}

// Validate checks the whole scene against the settings in force.
func (e *Engine) Validate() constraint.Result {
	return constraint.ValidateScene(e.scene, e.settings)
}

// ConstraintLimits returns the control ranges implied by the settings in force.
func (e *Engine) ConstraintLimits() constraint.Limits {
	return constraint.GetConstraintLimits(e.settings)
}

// UndoLabel and RedoLabel name the steps Undo and Redo would take.
func (e *Engine) UndoLabel() string { return e.history.UndoName() }
func (e *Engine) RedoLabel() string { return e.history.RedoName() }
