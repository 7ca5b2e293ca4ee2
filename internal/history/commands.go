package history

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/verdant/verdant/editor-go/internal/document"
)

// NewGestureKey returns a key that groups the updates of one gesture.
func NewGestureKey() string {
	return uuid.NewString()
}

// AddNode appends Node to a layer, or inserts it at Index when Index >= 0.
// Appending honours the layer lock; inserting at an index restores removed
// nodes and does not.
type AddNode struct {
	LayerID string
	Index   int
	Node    document.Node
}

// NewAddNode returns a command appending n to the layer. n gets an id if it
// has none so the command can be inverted.
func NewAddNode(layerID string, n document.Node) *AddNode {
	if n.ID == "" {
		n.ID = document.NewNodeID(n.Kind)
	}
	return &AddNode{LayerID: layerID, Index: -1, Node: n}
}

func (c *AddNode) Name() string { return "Add " + string(c.Node.Kind) }

func (c *AddNode) Apply(scene *document.Scene) (*document.Scene, error) {
	next := scene.Clone()
	var err error
	if c.Index < 0 {
		err = next.AddNode(c.LayerID, c.Node.Clone())
	} else {
		err = next.InsertNode(c.LayerID, c.Index, c.Node.Clone())
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (c *AddNode) Invert(_, _ *document.Scene) Command {
	return &RemoveNodes{IDs: []string{c.Node.ID}}
}

// placed is a node together with the slot it occupied.
type placed struct {
	layerID string
	index   int
	node    document.Node
}

// RemoveNodes deletes nodes by id. A missing id fails the whole command.
type RemoveNodes struct {
	IDs []string
}

func (c *RemoveNodes) Name() string {
	if len(c.IDs) == 1 {
		return "Delete"
	}
	return fmt.Sprintf("Delete %d items", len(c.IDs))
}

func (c *RemoveNodes) Apply(scene *document.Scene) (*document.Scene, error) {
	next := scene.Clone()
	for _, id := range c.IDs {
		if _, _, err := next.RemoveNode(id); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Invert restores every node into its original layer and index. Slots are
// refilled in ascending index order so earlier inserts do not shift later ones.
func (c *RemoveNodes) Invert(prev, _ *document.Scene) Command {
	var items []placed
	for _, id := range c.IDs {
		ref, ok := prev.Find(id)
		if !ok {
			continue
		}
		items = append(items, placed{layerID: ref.LayerID, index: ref.Index, node: prev.Layers[ref.Layer].Nodes[ref.Index].Clone()})
	}
	slices.SortFunc(items, func(a, b placed) int {
		if c := cmp.Compare(a.layerID, b.layerID); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	batch := &Batch{Label: "Restore"}
	for _, it := range items {
		batch.Commands = append(batch.Commands, &AddNode{LayerID: it.layerID, Index: it.index, Node: it.node})
	}
	return batch
}

// UpdateNodes replaces nodes by id. Consecutive updates sharing a non-empty
// Key and the same id set merge into one history entry.
type UpdateNodes struct {
	Label string
	Key   string
	Nodes []document.Node
}

func (c *UpdateNodes) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return "Edit"
}

func (c *UpdateNodes) Apply(scene *document.Scene) (*document.Scene, error) {
	next := scene.Clone()
	for _, n := range c.Nodes {
		if err := next.UpdateNode(n.Clone()); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func (c *UpdateNodes) Invert(prev, _ *document.Scene) Command {
	inv := &UpdateNodes{Label: c.Label}
	for _, n := range c.Nodes {
		if old, ok := prev.Node(n.ID); ok {
			inv.Nodes = append(inv.Nodes, old)
		}
	}
	return inv
}

func (c *UpdateNodes) ids() []string {
	ids := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		ids[i] = n.ID
	}
	slices.Sort(ids)
	return ids
}

func (c *UpdateNodes) Merge(next Command) (Command, bool) {
	u, ok := next.(*UpdateNodes)
	if !ok || c.Key == "" || u.Key != c.Key || !slices.Equal(c.ids(), u.ids()) {
		return nil, false
	}
	return u, true
}

// AddLayer inserts a layer at Index, or appends it when Index < 0.
type AddLayer struct {
	Index int
	Layer document.Layer
}

func (c *AddLayer) Name() string { return "Add layer" }

func (c *AddLayer) Apply(scene *document.Scene) (*document.Scene, error) {
	next := scene.Clone()
	idx := c.Index
	if idx < 0 {
		idx = len(next.Layers)
	}
	if err := next.InsertLayer(idx, c.Layer.Clone()); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *AddLayer) Invert(_, _ *document.Scene) Command {
	return &RemoveLayer{ID: c.Layer.ID}
}

// RemoveLayer deletes a layer with all its nodes. The last layer cannot be removed.
type RemoveLayer struct {
	ID string
}

func (c *RemoveLayer) Name() string { return "Delete layer" }

func (c *RemoveLayer) Apply(scene *document.Scene) (*document.Scene, error) {
	next := scene.Clone()
	if _, _, err := next.RemoveLayer(c.ID); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *RemoveLayer) Invert(prev, _ *document.Scene) Command {
	for i, l := range prev.Layers {
		if l.ID == c.ID {
			return &AddLayer{Index: i, Layer: l.Clone()}
		}
	}
	return &Batch{Label: c.Name()}
}

// SetLayerProps changes layer flags. Nil fields are left alone.
type SetLayerProps struct {
	ID      string
	Title   *string
	Visible *bool
	Locked  *bool
}

func (c *SetLayerProps) Name() string { return "Layer settings" }

func (c *SetLayerProps) Apply(scene *document.Scene) (*document.Scene, error) {
	next := scene.Clone()
	l, ok := next.Layer(c.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrLayerNotFound, c.ID)
	}
	if c.Title != nil {
		l.Name = *c.Title
	}
	if c.Visible != nil {
		l.Visible = *c.Visible
	}
	if c.Locked != nil {
		l.Locked = *c.Locked
	}
	return next, nil
}

func (c *SetLayerProps) Invert(prev, _ *document.Scene) Command {
	l, ok := prev.Layer(c.ID)
	if !ok {
		return &Batch{Label: c.Name()}
	}
	inv := &SetLayerProps{ID: c.ID}
	if c.Title != nil {
		name := l.Name
		inv.Title = &name
	}
	if c.Visible != nil {
		v := l.Visible
		inv.Visible = &v
	}
	if c.Locked != nil {
		lk := l.Locked
		inv.Locked = &lk
	}
	return inv
}

// Batch applies several commands as one history entry. If any command fails
// the scene is left as it was.
type Batch struct {
	Label    string
	Commands []Command
}

func (c *Batch) Name() string { return c.Label }

func (c *Batch) Apply(scene *document.Scene) (*document.Scene, error) {
	cur := scene
	for _, cmd := range c.Commands {
		next, err := cmd.Apply(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if cur == scene {
		cur = scene.Clone()
	}
	return cur, nil
}

// Invert replays the batch from prev to capture each intermediate state and
// returns the per-step inverses in reverse order.
func (c *Batch) Invert(prev, _ *document.Scene) Command {
	inv := &Batch{Label: c.Label, Commands: make([]Command, 0, len(c.Commands))}
	cur := prev
	for _, cmd := range c.Commands {
		next, err := cmd.Apply(cur)
		if err != nil {
			break
		}
		inv.Commands = append(inv.Commands, cmd.Invert(cur, next))
		cur = next
	}
	slices.Reverse(inv.Commands)
	return inv
}
