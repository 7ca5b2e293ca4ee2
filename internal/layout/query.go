package layout

import (
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
)

// RectMode selects how a selection rectangle claims nodes.
type RectMode string

const (
	// RectIntersect claims any node whose bounds touch the rectangle.
	RectIntersect RectMode = "intersect"
	// RectContain claims only nodes fully inside the rectangle.
	RectContain RectMode = "contain"
)

func touches(a, b geom.Rect) bool {
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX && a.MinY <= b.MaxY && b.MinY <= a.MaxY
}

// FindNodesInRect returns the ids of nodes matched by rect under mode, in input order.
func FindNodesInRect(rect geom.Rect, nodes []document.Node, mode RectMode) []string {
	var ids []string
	for _, n := range nodes {
		b := Bounds(n)
		var hit bool
		if mode == RectContain {
			hit = rect.ContainsRect(b)
		} else {
			hit = touches(rect, b)
		}
		if hit {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// HitTest returns the id of the topmost selectable node under (x, y) on a
// visible, unlocked layer, or "" if there is none.
func HitTest(scene *document.Scene, x, y float64) string {
	if scene == nil {
		return ""
	}
	order := scene.OrderedLayers()
	// Front to back: highest layer first, last node first.
	for i := len(order) - 1; i >= 0; i-- {
		l := &scene.Layers[order[i]]
		if !l.Visible || l.Locked {
			continue
		}
		for j := len(l.Nodes) - 1; j >= 0; j-- {
			n := l.Nodes[j]
			if n.Selectable() && ContainsPoint(n, x, y) {
				return n.ID
			}
		}
	}
	return ""
}

// SelectionBounds returns the combined bounds of the given node ids.
func SelectionBounds(scene *document.Scene, ids []string) (geom.Rect, bool) {
	if scene == nil {
		return geom.Rect{}, false
	}
	return SceneBounds(NodesByID(scene, ids))
}

// NodesByID fetches copies of the nodes with the given ids, skipping missing ones.
func NodesByID(scene *document.Scene, ids []string) []document.Node {
	out := make([]document.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := scene.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}
