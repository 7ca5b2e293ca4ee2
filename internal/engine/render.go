package engine

import (
	"encoding/json"
	"math"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
	"github.com/verdant/verdant/editor-go/internal/layout"
	"github.com/verdant/verdant/editor-go/internal/tool"
)

// DrawCommand represents a single drawing operation for the host to execute
// on a Canvas2D context. Coordinates are world units; the host applies the
// viewport matrix.
type DrawCommand struct {
	Op           string            `json:"op"`                     // "path", "line", "text", "image"
	ObjectID     string            `json:"objectId,omitempty"`     // For hit correlation
	Kind         document.NodeKind `json:"kind,omitempty"`         // Node variant, when drawn from a node
	Layer        string            `json:"layer,omitempty"`        // "scene", "selection", "preview"
	Transform    []float64         `json:"transform,omitempty"`    // [a, b, c, d, e, f] affine matrix
	Path         []PathCommand     `json:"path,omitempty"`         // Path data for "path" and "line" ops
	Text         string            `json:"text,omitempty"`         // Text for "text" ops
	FontSize     float64           `json:"fontSize,omitempty"`     // Font size for "text" ops
	Fill         string            `json:"fill,omitempty"`         // Fill color
	Stroke       string            `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64           `json:"strokeWidth,omitempty"`  // Stroke width
	Dash         []float64         `json:"dash,omitempty"`         // Line dash pattern
	Opacity      float64           `json:"opacity,omitempty"`      // Global alpha
	ImageAssetID string            `json:"imageAssetId,omitempty"` // Asset ID for image lookup
	ImageWidth   float64           `json:"imageWidth,omitempty"`   // Image draw width
	ImageHeight  float64           `json:"imageHeight,omitempty"`  // Image draw height
	Bounds       *geom.Rect        `json:"bounds,omitempty"`       // World-space bounds
}

// PathCommand is a single path segment. Format matches Canvas2D:
// ["M", x, y], ["L", x, y], ["Q", cx, cy, x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

// Draw list layers, painted in this order.
const (
	LayerScene     = "scene"
	LayerSelection = "selection"
	LayerPreview   = "preview"
)

const (
	selectionStroke = "#1e88e5"
	previewOpacity  = 0.5
	// k = 4 * (sqrt(2) - 1) / 3, bezier approximation of a quarter circle
	ellipseK = 0.5522847498
)

// defaultStyle is the look of each variant when the node sets no style.
var defaultStyle = map[document.NodeKind]document.Style{
	document.KindBed:        {Fill: "#8d6e63", Stroke: "#4e342e", StrokeWidth: 2, Opacity: 1},
	document.KindPath:       {Fill: "#d7ccc8", Stroke: "#a1887f", StrokeWidth: 1, Opacity: 1},
	document.KindLabel:      {Fill: "#212121", Opacity: 1},
	document.KindGuide:      {Stroke: "#e91e63", StrokeWidth: 1, Opacity: 0.8},
	document.KindImage:      {Opacity: 1},
	document.KindPlant:      {Fill: "#66bb6a", Stroke: "#2e7d32", StrokeWidth: 1, Opacity: 0.9},
	document.KindIrrigation: {Fill: "#bbdefb", Stroke: "#1565c0", StrokeWidth: 1, Opacity: 0.6},
	document.KindStructure:  {Fill: "#bdbdbd", Stroke: "#616161", StrokeWidth: 2, Opacity: 1},
	document.KindCompost:    {Fill: "#6d4c41", Stroke: "#3e2723", StrokeWidth: 2, Opacity: 1},
}

func styleOf(n document.Node) document.Style {
	s := defaultStyle[n.Kind]
	if n.Style == nil {
		return s
	}
	if n.Style.Fill != "" {
		s.Fill = n.Style.Fill
	}
	if n.Style.Stroke != "" {
		s.Stroke = n.Style.Stroke
	}
	if n.Style.StrokeWidth > 0 {
		s.StrokeWidth = n.Style.StrokeWidth
	}
	if n.Style.Opacity > 0 {
		s.Opacity = n.Style.Opacity
	}
	return s
}

// RenderState is everything a renderer needs for one frame.
type RenderState struct {
	Revision        uint64                 `json:"revision"`
	Scene           *document.Scene        `json:"scene"`
	Viewport        document.Viewport      `json:"viewport"`
	Selection       document.Selection     `json:"selection"`
	SelectionBounds *geom.Rect             `json:"selectionBounds,omitempty"`
	ActiveLayer     string                 `json:"activeLayer"`
	Tool            tool.ID                `json:"tool"`
	Cursor          tool.Cursor            `json:"cursor"`
	Preview         *tool.Preview          `json:"preview,omitempty"`
	Commands        []DrawCommand          `json:"commands"`
	Violations      []constraint.Violation `json:"violations"`
	CanUndo         bool                   `json:"canUndo"`
	CanRedo         bool                   `json:"canRedo"`
	UndoLabel       string                 `json:"undoLabel,omitempty"`
	RedoLabel       string                 `json:"redoLabel,omitempty"`
}

// RenderState snapshots the engine for the renderer. The scene is shared, not
// copied; committed scenes are never mutated.
func (e *Engine) RenderState() RenderState {
	var preview *tool.Preview
	if p, ok := e.input.Active().(tool.Previewer); ok {
		preview = p.Preview()
	}
	rs := RenderState{
		Revision:    e.revision,
		Scene:       e.scene,
		Viewport:    e.viewport,
		Selection:   e.Selection(),
		ActiveLayer: e.activeLayer,
		Tool:        e.ActiveTool(),
		Cursor:      e.cursor,
		Preview:     preview,
		Commands:    CompileDrawCommands(e.scene, e.selection.IDs, preview),
		Violations:  e.Validate().Violations,
		CanUndo:     e.CanUndo(),
		CanRedo:     e.CanRedo(),
		UndoLabel:   e.UndoLabel(),
		RedoLabel:   e.RedoLabel(),
	}
	if b, ok := e.SelectionBounds(); ok {
		rs.SelectionBounds = &b
	}
	return rs
}

// RenderStateJSON serializes RenderState for hosts that exchange strings.
func (e *Engine) RenderStateJSON() string {
	data, err := json.Marshal(e.RenderState())
	if err != nil {
		e.logger.Error("encode render state", "error", err)
		return "{}"
	}
	return string(data)
}

// CompileDrawCommands generates the draw list for a scene in painter's order:
// visible layers back to front, then the selection outlines, then the tool
// preview.
func CompileDrawCommands(scene *document.Scene, selected []string, preview *tool.Preview) []DrawCommand {
	if scene == nil {
		return nil
	}
	var commands []DrawCommand
	for _, li := range scene.OrderedLayers() {
		l := &scene.Layers[li]
		if !l.Visible {
			continue
		}
		for _, n := range l.Nodes {
			compileNode(n, scene, LayerScene, &commands)
		}
	}

	for _, id := range selected {
		n, ok := scene.Node(id)
		if !ok {
			continue
		}
		b := layout.Bounds(n)
		if n.Kind == document.KindGuide {
			b = guideExtent(n, scene)
		}
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    id,
			Layer:       LayerSelection,
			Path:        rectPath(b),
			Stroke:      selectionStroke,
			StrokeWidth: 1,
			Dash:        []float64{4, 4},
			Opacity:     1,
			Bounds:      &b,
		})
	}

	if preview != nil {
		compilePreview(preview, scene, &commands)
	}
	return commands
}

// compileNode emits the draw command for one node.
func compileNode(n document.Node, scene *document.Scene, layer string, commands *[]DrawCommand) {
	style := styleOf(n)
	world := geom.Translate(n.Transform.X, n.Transform.Y).Multiply(geom.RotateDegrees(n.Transform.Rotation))
	cmd := DrawCommand{
		ObjectID:    n.ID,
		Kind:        n.Kind,
		Layer:       layer,
		Transform:   world.ToSlice(),
		Fill:        style.Fill,
		Stroke:      style.Stroke,
		StrokeWidth: style.StrokeWidth,
		Opacity:     style.Opacity,
	}

	switch n.Kind {
	case document.KindBed:
		if n.Bed != nil && n.Bed.Curve != nil && len(n.Bed.Curve.EditPoints) > 1 {
			// A curved bed is its centerline stroked at the bed width.
			cmd.Path = curvePath(n.Bed.Curve.EditPoints)
			cmd.Stroke = style.Fill
			cmd.StrokeWidth = n.Bed.Curve.BedWidth
			cmd.Fill = ""
		} else {
			cmd.Path = centeredRectPath(n.Width, n.Height)
		}
	case document.KindPath, document.KindStructure, document.KindCompost:
		cmd.Path = centeredRectPath(n.Width, n.Height)
	case document.KindIrrigation:
		if n.Irrigation.AreaBased() {
			cmd.Path = centeredRectPath(n.Width, n.Height)
		} else {
			r := 0.0
			if n.Irrigation != nil {
				r = n.Irrigation.Coverage / 2
			}
			cmd.Path = ellipsePath(r, r)
		}
	case document.KindPlant:
		b := layout.Bounds(n)
		cmd.Path = ellipsePath(b.Width()/2, b.Height()/2)
	case document.KindImage:
		cmd.Op = "image"
		cmd.ImageWidth, cmd.ImageHeight = n.Width, n.Height
		if n.Image != nil {
			cmd.ImageAssetID = n.Image.AssetID
		}
		b := layout.Bounds(n)
		cmd.Bounds = &b
		*commands = append(*commands, cmd)
		return
	case document.KindLabel:
		cmd.Op = "text"
		cmd.FontSize = layout.DefaultFontSize
		if n.Label != nil {
			cmd.Text = n.Label.Text
			if n.Label.FontSize > 0 {
				cmd.FontSize = n.Label.FontSize
			}
		}
		b := layout.Bounds(n)
		cmd.Bounds = &b
		*commands = append(*commands, cmd)
		return
	case document.KindGuide:
		b := guideExtent(n, scene)
		cmd.Op = "line"
		cmd.Transform = nil
		cmd.Fill = ""
		cmd.Dash = []float64{6, 4}
		if n.Guide != nil && n.Guide.Axis == document.GuideVertical {
			cmd.Path = []PathCommand{{"M", n.Guide.Offset, b.MinY}, {"L", n.Guide.Offset, b.MaxY}}
		} else {
			cmd.Path = []PathCommand{{"M", b.MinX, b.MinY}, {"L", b.MaxX, b.MinY}}
		}
		cmd.Bounds = &b
		*commands = append(*commands, cmd)
		return
	}

	if len(cmd.Path) == 0 {
		return
	}
	cmd.Op = "path"
	if b, ok := computePathBounds(cmd.Path, world); ok {
		if cmd.StrokeWidth > 0 && cmd.Fill == "" {
			b = b.Expand(cmd.StrokeWidth / 2)
		}
		cmd.Bounds = &b
	}
	*commands = append(*commands, cmd)
}

// compilePreview emits the tool overlay.
func compilePreview(p *tool.Preview, scene *document.Scene, commands *[]DrawCommand) {
	if p.Draft != nil {
		start := len(*commands)
		compileNode(*p.Draft, scene, LayerPreview, commands)
		for i := start; i < len(*commands); i++ {
			(*commands)[i].Opacity = previewOpacity
			(*commands)[i].Dash = []float64{4, 2}
		}
	}
	if p.Marquee != nil {
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			Layer:       LayerPreview,
			Path:        rectPath(*p.Marquee),
			Fill:        "rgba(30, 136, 229, 0.08)",
			Stroke:      selectionStroke,
			StrokeWidth: 1,
			Dash:        []float64{3, 3},
			Opacity:     1,
		})
	}
	for _, line := range [][]geom.Point{p.OutlineLeft, p.OutlineRight} {
		if len(line) > 1 {
			*commands = append(*commands, polyline(line, "#4e342e", 1, nil))
		}
	}
	if len(p.Centerline) > 1 {
		*commands = append(*commands, polyline(p.Centerline, selectionStroke, 1, []float64{4, 4}))
	}
	if m := p.Measurement; m != nil {
		*commands = append(*commands, polyline([]geom.Point{m.From, m.To}, "#ff6f00", 1.5, nil))
		*commands = append(*commands, DrawCommand{
			Op:        "text",
			Layer:     LayerPreview,
			Transform: geom.Translate((m.From.X+m.To.X)/2, (m.From.Y+m.To.Y)/2).ToSlice(),
			Text:      m.Label,
			FontSize:  layout.DefaultFontSize,
			Fill:      "#ff6f00",
			Opacity:   1,
		})
	}
}

func polyline(pts []geom.Point, stroke string, width float64, dash []float64) DrawCommand {
	path := make([]PathCommand, len(pts))
	for i, p := range pts {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path[i] = PathCommand{op, p.X, p.Y}
	}
	return DrawCommand{Op: "line", Layer: LayerPreview, Path: path, Stroke: stroke, StrokeWidth: width, Dash: dash, Opacity: 1}
}

// guideExtent clips an infinite guide to the canvas for drawing.
func guideExtent(n document.Node, scene *document.Scene) geom.Rect {
	off := 0.0
	vertical := false
	if n.Guide != nil {
		off = n.Guide.Offset
		vertical = n.Guide.Axis == document.GuideVertical
	}
	if vertical {
		return geom.Rect{MinX: off, MinY: 0, MaxX: off, MaxY: scene.Height}
	}
	return geom.Rect{MinX: 0, MinY: off, MaxX: scene.Width, MaxY: off}
}

// centeredRectPath generates path commands for a w×h rectangle centered on
// the local origin.
func centeredRectPath(w, h float64) []PathCommand {
	x, y := -w/2, -h/2
	return []PathCommand{
		{"M", x, y},
		{"L", x + w, y},
		{"L", x + w, y + h},
		{"L", x, y + h},
		{"Z"},
	}
}

func rectPath(r geom.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.MinX, r.MinY},
		{"L", r.MaxX, r.MinY},
		{"L", r.MaxX, r.MaxY},
		{"L", r.MinX, r.MaxY},
		{"Z"},
	}
}

// ellipsePath generates path commands for an ellipse using bezier curves.
func ellipsePath(rx, ry float64) []PathCommand {
	if rx <= 0 || ry <= 0 {
		return nil
	}
	kx, ky := rx*ellipseK, ry*ellipseK
	return []PathCommand{
		{"M", rx, 0.0},
		{"C", rx, ky, kx, ry, 0.0, ry},
		{"C", -kx, ry, -rx, ky, -rx, 0.0},
		{"C", -rx, -ky, -kx, -ry, 0.0, -ry},
		{"C", kx, -ry, rx, -ky, rx, 0.0},
		{"Z"},
	}
}

// curvePath converts centerline edit points, relative to the node center,
// into path commands.
func curvePath(pts []document.CurvePoint) []PathCommand {
	path := make([]PathCommand, 0, len(pts))
	for i, p := range pts {
		switch {
		case i == 0:
			path = append(path, PathCommand{"M", p.X, p.Y})
		case p.Control != nil:
			path = append(path, PathCommand{"Q", p.Control.X, p.Control.Y, p.X, p.Y})
		default:
			path = append(path, PathCommand{"L", p.X, p.Y})
		}
	}
	return path
}

// computePathBounds computes the axis-aligned bounding box of a path in world
// space. Curve control points are included, so curved bounds may be loose.
func computePathBounds(path []PathCommand, world geom.Matrix2D) (geom.Rect, bool) {
	var pts []geom.Point
	for _, cmd := range path {
		if len(cmd) == 0 {
			continue
		}
		op, ok := cmd[0].(string)
		if !ok {
			continue
		}
		var n int
		switch op {
		case "M", "L":
			n = 1
		case "Q":
			n = 2
		case "C":
			n = 3
		default:
			continue
		}
		if len(cmd) < 1+2*n {
			continue
		}
		for i := 0; i < n; i++ {
			x, y := world.TransformPoint(toFloat64(cmd[1+2*i]), toFloat64(cmd[2+2*i]))
			pts = append(pts, geom.Point{X: x, Y: y})
		}
	}
	return geom.BoundsOf(pts)
}

// toFloat64 converts a path operand to float64.
func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return math.NaN()
	}
}
