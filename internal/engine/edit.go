package engine

import (
	"fmt"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/history"
	"github.com/verdant/verdant/editor-go/internal/layout"
)

// editableSelection returns the selected nodes that sit on unlocked layers,
// in selection order.
func (e *Engine) editableSelection() []document.Node {
	out := make([]document.Node, 0, e.selection.Len())
	for _, id := range e.selection.IDs {
		ref, ok := e.scene.Find(id)
		if !ok || e.scene.Layers[ref.Layer].Locked {
			continue
		}
		out = append(out, e.scene.Layers[ref.Layer].Nodes[ref.Index])
	}
	return out
}

func (e *Engine) updateSelection(label string, nodes []document.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return e.execute(&history.UpdateNodes{Label: label, Nodes: nodes})
}

// AlignSelection lines the selected nodes up on an edge or center line.
func (e *Engine) AlignSelection(edge layout.Edge) error {
	nodes := e.editableSelection()
	if len(nodes) < 2 {
		return nil
	}
	return e.updateSelection("Align", layout.Align(nodes, edge))
}

// DistributeSelection spaces the selected nodes along axis. A nil spacing
// spreads centers evenly between the outermost nodes.
func (e *Engine) DistributeSelection(axis layout.Axis, spacing *float64) error {
	nodes := e.editableSelection()
	if len(nodes) < 2 {
		return nil
	}
	return e.updateSelection("Distribute", layout.Distribute(nodes, axis, spacing))
}

// FlipSelection mirrors the selection across its own center line.
func (e *Engine) FlipSelection(axis layout.Axis) error {
	return e.updateSelection("Flip", layout.Flip(e.editableSelection(), axis, nil))
}

// ArrangeSelection lays the selection out in a grid of the given columns.
func (e *Engine) ArrangeSelection(columns int, spacing float64) error {
	return e.updateSelection("Arrange", layout.ArrangeInGrid(e.editableSelection(), columns, spacing))
}

// DuplicateSelection copies the selection into the layers of the originals,
// offset by (dx, dy), and selects the copies.
func (e *Engine) DuplicateSelection(dx, dy float64) error {
	nodes := e.editableSelection()
	if len(nodes) == 0 {
		return nil
	}
	copies := layout.Duplicate(nodes, dx, dy)
	batch := &history.Batch{Label: "Duplicate"}
	ids := make([]string, len(copies))
	for i, c := range copies {
		ref, _ := e.scene.Find(nodes[i].ID)
		batch.Commands = append(batch.Commands, history.NewAddNode(ref.LayerID, c))
		ids[i] = c.ID
	}
	if err := e.execute(batch); err != nil {
		return err
	}
	e.Select(ids)
	return nil
}

// AutoFixSelection repairs the fixable violations of the selected nodes, or
// of every editable node when nothing is selected. Overlaps are left for the
// user to resolve.
func (e *Engine) AutoFixSelection() error {
	nodes := e.editableSelection()
	if e.selection.Empty() {
		nodes = e.scene.EditableNodes()
	}
	var fixed []document.Node
	for _, n := range nodes {
		res := constraint.ValidateNode(n, e.settings, e.scene)
		if res.OK || res.Count(constraint.CodeOverlap) == len(res.Violations) {
			continue
		}
		fixed = append(fixed, constraint.AutoFixViolations(n, res.Violations, e.settings, e.scene))
	}
	if len(fixed) > 0 {
		e.logger.Info("auto-fixed nodes", "count", len(fixed))
	}
	return e.updateSelection("Auto-fix", fixed)
}

// PlaceNode moves a node's center to (x, y) when its footprint fits the
// canvas and clears every other bed. Otherwise it returns ErrInvalidPosition
// and nothing changes.
func (e *Engine) PlaceNode(id string, x, y float64) error {
	n, ok := e.scene.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrNodeNotFound, id)
	}
	b := layout.Bounds(n)
	var s *constraint.Settings
	if n.Kind == document.KindBed {
		s = &e.settings
	}
	if !constraint.IsValidPosition(x, y, b.Width(), b.Height(), e.scene, id, s) {
		return fmt.Errorf("%w: %s at (%g, %g)", ErrInvalidPosition, id, x, y)
	}
	return e.execute(&history.UpdateNodes{Label: "Place", Nodes: []document.Node{layout.Translate(n, x-n.Transform.X, y-n.Transform.Y)}})
}
