// Package tool implements the editor's gesture state machines. Exactly one
// tool is active at a time; it turns pointer and key events into validated
// scene mutations through a Context and never touches rendering or storage.
package tool

import (
	"log/slog"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
)

// ID names a tool.
type ID string

const (
	IDSelect        ID = "select"
	IDDrawBed       ID = "draw-bed"
	IDDrawPath      ID = "draw-path"
	IDDrawCurvedBed ID = "draw-curved-bed"
	IDMeasure       ID = "measure"
)

// Cursor is the pointer cursor a tool asks the host to show.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorCrosshair Cursor = "crosshair"
	CursorMove      Cursor = "move"
	CursorCell      Cursor = "cell"
)

// Modifiers are the modifier keys held during an event.
type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Alt   bool `json:"alt"`
	Meta  bool `json:"meta"`
}

// Mod reports the platform command modifier: Ctrl or Cmd.
func (m Modifiers) Mod() bool { return m.Ctrl || m.Meta }

// PointerEvent carries a pointer sample in both screen and world space.
type PointerEvent struct {
	ScreenX  float64 `json:"screenX"`
	ScreenY  float64 `json:"screenY"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Button   int     `json:"button"`
	Pressure float64 `json:"pressure"`
	Modifiers
}

// World returns the world-space position.
func (e PointerEvent) World() geom.Point { return geom.Point{X: e.X, Y: e.Y} }

// KeyEvent is a normalized key press or release. Key follows the DOM key names
// ("a", "Escape", "Delete").
type KeyEvent struct {
	Key    string `json:"key"`
	Code   string `json:"code,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`
	Modifiers
}

// Context is everything a tool may see and touch.
type Context interface {
	Scene() *document.Scene
	Viewport() document.Viewport
	Selection() document.Selection
	Constraints() constraint.Settings
	Grid() document.GridSettings
	Units() document.Units
	ActiveLayerID() string

	ScreenToWorld(x, y float64) (float64, float64)
	WorldToScreen(x, y float64) (float64, float64)

	AddNode(layerID string, n document.Node) error
	// UpdateNodes replaces nodes by id. Calls sharing a non-empty key form
	// one undo step.
	UpdateNodes(nodes []document.Node, key string) error
	// CancelGesture reverts every update made under key and leaves no undo
	// step behind.
	CancelGesture(key string) error
	RemoveNodes(ids []string) error
	SetSelection(sel document.Selection)

	Logger() *slog.Logger
}

// Tool is the capability set every tool implements. Key handlers report
// whether they consumed the event.
type Tool interface {
	ID() ID
	Name() string
	Icon() string
	Cursor() Cursor

	Activate()
	Deactivate()

	OnPointerDown(e PointerEvent)
	OnPointerMove(e PointerEvent)
	OnPointerUp(e PointerEvent)
	OnKeyDown(e KeyEvent) bool
	OnKeyUp(e KeyEvent) bool
}

// DoubleClicker is implemented by tools that react to double clicks.
type DoubleClicker interface {
	OnDoubleClick(e PointerEvent)
}

// Previewer is implemented by tools that have transient state to draw.
type Previewer interface {
	Preview() *Preview
}

// Measurement is a live Measure reading.
type Measurement struct {
	From   geom.Point `json:"from"`
	To     geom.Point `json:"to"`
	Length float64    `json:"length"`
	Area   float64    `json:"area,omitempty"`
	Label  string     `json:"label"`
	Frozen bool       `json:"frozen"`
}

// Preview is a tool's transient overlay. It is never part of the scene.
type Preview struct {
	Tool         ID             `json:"tool"`
	Draft        *document.Node `json:"draft,omitempty"`
	Marquee      *geom.Rect     `json:"marquee,omitempty"`
	Centerline   []geom.Point   `json:"centerline,omitempty"`
	OutlineLeft  []geom.Point   `json:"outlineLeft,omitempty"`
	OutlineRight []geom.Point   `json:"outlineRight,omitempty"`
	Measurement  *Measurement   `json:"measurement,omitempty"`
}

// snap hard-snaps a world point to the grid when the grid is enabled.
func snap(ctx Context, p geom.Point) geom.Point {
	g := ctx.Grid()
	if !g.Enabled || g.Spacing <= 0 {
		return p
	}
	return geom.SnapPoint(p, g.Spacing)
}

func selectionOf(ids ...string) document.Selection {
	var sel document.Selection
	sel.Set(ids)
	return sel
}

// All returns one instance of every tool bound to ctx, Select first.
func All(ctx Context) []Tool {
	return []Tool{
		NewSelect(ctx),
		NewDrawBed(ctx),
		NewDrawPath(ctx),
		NewDrawCurvedBed(ctx),
		NewMeasure(ctx),
	}
}
