// Package layout implements the pure geometric operations over garden nodes:
// bounds, alignment, distribution, duplication, flipping, grid arrangement,
// rectangle membership and hit testing. Every function returns new values and
// leaves its inputs untouched.
package layout

import (
	"math"
	"unicode/utf8"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
)

const (
	// DefaultNodeSize stands in for the extent of unsized nodes when arranging.
	DefaultNodeSize = 24.0
	// DefaultFontSize is used for labels that do not set one.
	DefaultFontSize = 12.0
	// DefaultPlantSpread is used for plants that do not set a spread.
	DefaultPlantSpread = 12.0

	rightAngleEps = 1e-9
)

// Bounds returns the axis-aligned bounding box of a node.
//
// Sized nodes use their center ± half extent. Quarter-turn rotations swap width
// and height exactly; any other angle yields the AABB of the rotated rectangle.
// Guides are infinite along their axis.
func Bounds(n document.Node) geom.Rect {
	x, y := n.Transform.X, n.Transform.Y

	switch n.Kind {
	case document.KindGuide:
		return guideBounds(n)
	case document.KindLabel:
		size := DefaultFontSize
		text := ""
		if n.Label != nil {
			text = n.Label.Text
			if n.Label.FontSize > 0 {
				size = n.Label.FontSize
			}
		}
		w := float64(utf8.RuneCountInString(text)) * size
		return rotatedBounds(x, y, w, size, n.Transform.Rotation)
	case document.KindPlant:
		spread := DefaultPlantSpread
		if n.Plant != nil && n.Plant.Spread > 0 {
			spread = n.Plant.Spread
		}
		return geom.RectFromCenter(x, y, spread, spread)
	case document.KindIrrigation:
		if !n.Irrigation.AreaBased() {
			d := 0.0
			if n.Irrigation != nil {
				d = n.Irrigation.Coverage
			}
			return geom.RectFromCenter(x, y, d, d)
		}
	}

	return rotatedBounds(x, y, n.Width, n.Height, n.Transform.Rotation)
}

// Size returns the unrotated width and height of a sized node, or
// DefaultNodeSize for the other variants.
func Size(n document.Node) (float64, float64) {
	if n.IsSized() {
		return n.Width, n.Height
	}
	return DefaultNodeSize, DefaultNodeSize
}

func rotatedBounds(cx, cy, w, h, rotation float64) geom.Rect {
	rot := geom.NormalizeDegrees(rotation)
	quarter := math.Round(rot / 90)
	if math.Abs(rot-quarter*90) < rightAngleEps {
		if int(quarter)%2 == 1 {
			w, h = h, w
		}
		return geom.RectFromCenter(cx, cy, w, h)
	}
	local := geom.RectFromCenter(0, 0, w, h)
	m := geom.Translate(cx, cy).Multiply(geom.RotateDegrees(rot))
	return m.TransformRect(local)
}

func guideBounds(n document.Node) geom.Rect {
	inf := math.Inf(1)
	if n.Guide == nil {
		return geom.Rect{MinX: -inf, MinY: -inf, MaxX: inf, MaxY: inf}
	}
	if n.Guide.Axis == document.GuideVertical {
		return geom.Rect{MinX: n.Guide.Offset, MaxX: n.Guide.Offset, MinY: -inf, MaxY: inf}
	}
	return geom.Rect{MinX: -inf, MaxX: inf, MinY: n.Guide.Offset, MaxY: n.Guide.Offset}
}

// BoundsOverlap reports whether two nodes' bounds overlap.
func BoundsOverlap(a, b document.Node) bool {
	return geom.Overlaps(Bounds(a), Bounds(b))
}

// ContainsPoint reports whether the world point lies on the node. Sized nodes
// are tested in their rotated local frame.
func ContainsPoint(n document.Node, x, y float64) bool {
	switch n.Kind {
	case document.KindGuide:
		return false
	case document.KindBed, document.KindPath, document.KindImage,
		document.KindStructure, document.KindCompost, document.KindIrrigation:
		if n.IsSized() {
			m := geom.Translate(n.Transform.X, n.Transform.Y).Multiply(geom.RotateDegrees(n.Transform.Rotation))
			lx, ly := m.Invert().TransformPoint(x, y)
			return math.Abs(lx) <= n.Width/2+rightAngleEps && math.Abs(ly) <= n.Height/2+rightAngleEps
		}
	}
	return Bounds(n).Contains(x, y)
}

// TotalArea sums the footprint of every sized node.
func TotalArea(nodes []document.Node) float64 {
	total := 0.0
	for _, n := range nodes {
		if n.IsSized() {
			total += math.Abs(n.Width * n.Height)
		}
	}
	return total
}

// SceneBounds returns the union of every finite node bounds. ok is false when
// no node contributes.
func SceneBounds(nodes []document.Node) (r geom.Rect, ok bool) {
	for _, n := range nodes {
		b := Bounds(n)
		if !b.IsFinite() {
			continue
		}
		if !ok {
			r, ok = b, true
			continue
		}
		r = r.Union(b)
	}
	return r, ok
}
