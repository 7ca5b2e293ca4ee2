package constraint

import (
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/layout"
)

// AutoFixViolations returns a copy of n with every fixable violation remedied:
// widths are clamped to the nearest legal bound, trellised beds are turned
// north-south and, when scene is given, out-of-bounds elements are pushed back
// onto the canvas. Overlaps have no deterministic fix and are left alone.
func AutoFixViolations(n document.Node, violations []Violation, s Settings, scene *document.Scene) document.Node {
	out := n.Clone()
	for _, v := range violations {
		if v.NodeID != n.ID {
			continue
		}
		switch v.Code {
		case CodeBedWidthExceedsMax:
			limit := s.EffectiveMaxBedWidth()
			if out.Bed != nil && out.Bed.Curve != nil && out.Bed.Curve.BedWidth > 0 {
				out.Bed.Curve.BedWidth = min(out.Bed.Curve.BedWidth, limit)
			} else if out.Width <= out.Height {
				out.Width = min(out.Width, limit)
			} else {
				out.Height = min(out.Height, limit)
			}
		case CodePathWidthBelowMin:
			limit := s.EffectiveMinPathWidth()
			if out.Width <= out.Height {
				out.Width = max(out.Width, limit)
			} else {
				out.Height = max(out.Height, limit)
			}
		case CodeTrellisNotNorth:
			if out.Bed != nil {
				out.Bed.Orientation = document.OrientationNS
			}
		case CodeOutOfBounds:
			pullInside(&out, scene)
		}
	}
	// A width fix can push the node off the canvas edge it was touching.
	if scene != nil && len(violations) > 0 {
		if ValidateNode(out, s, scene).Has(CodeOutOfBounds) {
			pullInside(&out, scene)
		}
	}
	return out
}

// pullInside translates n the shortest distance that puts its bounds inside
// the canvas. Nodes larger than the canvas are pinned to its top-left corner.
func pullInside(n *document.Node, scene *document.Scene) {
	area, ok := canvas(scene)
	if !ok {
		return
	}
	b := layout.Bounds(*n)
	dx, dy := 0.0, 0.0
	switch {
	case b.MinX < area.MinX || b.Width() > area.Width():
		dx = area.MinX - b.MinX
	case b.MaxX > area.MaxX:
		dx = area.MaxX - b.MaxX
	}
	switch {
	case b.MinY < area.MinY || b.Height() > area.Height():
		dy = area.MinY - b.MinY
	case b.MaxY > area.MaxY:
		dy = area.MaxY - b.MaxY
	}
	n.Transform.X += dx
	n.Transform.Y += dy
}
