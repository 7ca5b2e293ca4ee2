package layout

import (
	"slices"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
)

// Edge names the alignment target.
type Edge string

const (
	EdgeLeft    Edge = "left"
	EdgeRight   Edge = "right"
	EdgeTop     Edge = "top"
	EdgeBottom  Edge = "bottom"
	EdgeCenterX Edge = "center"
	EdgeCenterY Edge = "middle"
)

// Axis selects the horizontal or vertical direction.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// DefaultDuplicateOffset keeps duplicates from landing exactly on their source.
const DefaultDuplicateOffset = 24.0

func cloneAll(nodes []document.Node) []document.Node {
	out := make([]document.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// translate moves a node. Guides move their offset along the perpendicular axis.
func translate(n *document.Node, dx, dy float64) {
	if n.Kind == document.KindGuide && n.Guide != nil {
		if n.Guide.Axis == document.GuideVertical {
			n.Guide.Offset += dx
		} else {
			n.Guide.Offset += dy
		}
		return
	}
	n.Transform.X += dx
	n.Transform.Y += dy
}

// Translate returns a copy of n moved by (dx, dy).
func Translate(n document.Node, dx, dy float64) document.Node {
	out := n.Clone()
	translate(&out, dx, dy)
	return out
}

func edgeValue(b geom.Rect, edge Edge) float64 {
	switch edge {
	case EdgeLeft:
		return b.MinX
	case EdgeRight:
		return b.MaxX
	case EdgeTop:
		return b.MinY
	case EdgeBottom:
		return b.MaxY
	case EdgeCenterX:
		cx, _ := b.Center()
		return cx
	case EdgeCenterY:
		_, cy := b.Center()
		return cy
	}
	return 0
}

func horizontal(edge Edge) bool {
	return edge == EdgeLeft || edge == EdgeRight || edge == EdgeCenterX
}

// Align moves every node so the chosen edge lines up with a shared target: the
// minimum for left/top, the maximum for right/bottom and the middle of the
// overall extent for the centers. Guides are returned unchanged.
func Align(nodes []document.Node, edge Edge) []document.Node {
	out := cloneAll(nodes)
	if len(out) < 2 {
		return out
	}

	var extent geom.Rect
	first := true
	for _, n := range out {
		if n.Kind == document.KindGuide {
			continue
		}
		b := Bounds(n)
		if first {
			extent, first = b, false
		} else {
			extent = extent.Union(b)
		}
	}
	if first {
		return out
	}
	target := edgeValue(extent, edge)

	for i := range out {
		if out[i].Kind == document.KindGuide {
			continue
		}
		delta := target - edgeValue(Bounds(out[i]), edge)
		if horizontal(edge) {
			translate(&out[i], delta, 0)
		} else {
			translate(&out[i], 0, delta)
		}
	}
	return out
}

func axisMin(b geom.Rect, axis Axis) float64 {
	if axis == AxisY {
		return b.MinY
	}
	return b.MinX
}

func axisMax(b geom.Rect, axis Axis) float64 {
	if axis == AxisY {
		return b.MaxY
	}
	return b.MaxX
}

func axisCenter(b geom.Rect, axis Axis) float64 {
	cx, cy := b.Center()
	if axis == AxisY {
		return cy
	}
	return cx
}

func shift(n *document.Node, axis Axis, d float64) {
	if axis == AxisY {
		translate(n, 0, d)
	} else {
		translate(n, d, 0)
	}
}

// Distribute orders nodes along axis by their center. With a spacing, each node
// after the first is placed spacing past the previous node's far edge. Without
// one, centers are spread evenly between the first and last node, which needs
// at least three nodes. The result keeps the input order.
func Distribute(nodes []document.Node, axis Axis, spacing *float64) []document.Node {
	out := cloneAll(nodes)
	var idx []int
	for i, n := range out {
		if n.Kind != document.KindGuide {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		ca, cb := axisCenter(Bounds(out[a]), axis), axisCenter(Bounds(out[b]), axis)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})

	if spacing != nil {
		if len(idx) < 2 {
			return out
		}
		cursor := axisMax(Bounds(out[idx[0]]), axis)
		for _, i := range idx[1:] {
			b := Bounds(out[i])
			shift(&out[i], axis, cursor+*spacing-axisMin(b, axis))
			cursor = axisMax(Bounds(out[i]), axis)
		}
		return out
	}

	if len(idx) < 3 {
		return out
	}
	start := axisCenter(Bounds(out[idx[0]]), axis)
	end := axisCenter(Bounds(out[idx[len(idx)-1]]), axis)
	step := (end - start) / float64(len(idx)-1)
	for k, i := range idx[1 : len(idx)-1] {
		want := start + step*float64(k+1)
		shift(&out[i], axis, want-axisCenter(Bounds(out[i]), axis))
	}
	return out
}

// Duplicate clones nodes with fresh ids, offset by (dx, dy).
func Duplicate(nodes []document.Node, dx, dy float64) []document.Node {
	out := cloneAll(nodes)
	for i := range out {
		out[i].ID = document.NewNodeID(out[i].Kind)
		translate(&out[i], dx, dy)
	}
	return out
}

// Flip mirrors node positions across a line on the given axis. AxisX mirrors
// left-right around a vertical line at center; AxisY mirrors top-bottom. When
// center is nil the middle of the nodes' combined bounds is used. Rotation is
// negated; the shapes themselves are not mirrored.
func Flip(nodes []document.Node, axis Axis, center *float64) []document.Node {
	out := cloneAll(nodes)
	if len(out) == 0 {
		return out
	}

	var c float64
	if center != nil {
		c = *center
	} else {
		extent, ok := SceneBounds(out)
		if !ok {
			return out
		}
		c = axisCenter(extent, axis)
	}

	for i := range out {
		n := &out[i]
		if n.Kind == document.KindGuide && n.Guide != nil {
			if (axis == AxisX) == (n.Guide.Axis == document.GuideVertical) {
				n.Guide.Offset = 2*c - n.Guide.Offset
			}
			continue
		}
		if axis == AxisY {
			n.Transform.Y = 2*c - n.Transform.Y
		} else {
			n.Transform.X = 2*c - n.Transform.X
		}
		n.Transform.Rotation = geom.NormalizeDegrees(-n.Transform.Rotation)
	}
	return out
}

// ArrangeInGrid lays nodes out row-major in the given number of columns,
// starting at the top-left of their combined bounds. Each cell uses the node's
// own size and rows are as tall as their tallest member.
func ArrangeInGrid(nodes []document.Node, columns int, spacing float64) []document.Node {
	out := cloneAll(nodes)
	if columns < 1 {
		columns = 1
	}
	extent, ok := SceneBounds(out)
	if !ok {
		return out
	}

	x, y := extent.MinX, extent.MinY
	rowHeight := 0.0
	col := 0
	for i := range out {
		if out[i].Kind == document.KindGuide {
			continue
		}
		bw, bh := DefaultNodeSize, DefaultNodeSize
		if out[i].IsSized() {
			b := Bounds(out[i])
			bw, bh = b.Width(), b.Height()
		}
		out[i].Transform.X = x + bw/2
		out[i].Transform.Y = y + bh/2
		x += bw + spacing
		rowHeight = max(rowHeight, bh)
		col++
		if col == columns {
			col = 0
			x = extent.MinX
			y += rowHeight + spacing
			rowHeight = 0
		}
	}
	return out
}
