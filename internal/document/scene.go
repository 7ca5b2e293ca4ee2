package document

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrLayerNotFound = errors.New("layer not found")
	ErrLayerLocked   = errors.New("layer is locked")
	ErrLastLayer     = errors.New("cannot remove the last layer")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrInvalidKind   = errors.New("invalid node kind")
)

// NodeRef locates a node inside a scene.
type NodeRef struct {
	LayerID string
	Layer   int
	Index   int
}

// Find returns the location of the node with the given id.
func (s *Scene) Find(id string) (NodeRef, bool) {
	for li := range s.Layers {
		for ni := range s.Layers[li].Nodes {
			if s.Layers[li].Nodes[ni].ID == id {
				return NodeRef{LayerID: s.Layers[li].ID, Layer: li, Index: ni}, true
			}
		}
	}
	return NodeRef{}, false
}

// Node returns a copy of the node with the given id.
func (s *Scene) Node(id string) (Node, bool) {
	ref, ok := s.Find(id)
	if !ok {
		return Node{}, false
	}
	return s.Layers[ref.Layer].Nodes[ref.Index].Clone(), true
}

// Has reports whether a node with the given id exists.
func (s *Scene) Has(id string) bool {
	_, ok := s.Find(id)
	return ok
}

// Layer returns the layer with the given id.
func (s *Scene) Layer(id string) (*Layer, bool) {
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			return &s.Layers[i], true
		}
	}
	return nil, false
}

func (s *Scene) layerIndex(id string) int {
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			return i
		}
	}
	return -1
}

// OrderedLayers returns layer indices sorted by ascending Order (painter's order).
// Layers with equal order keep their slice order.
func (s *Scene) OrderedLayers() []int {
	idx := make([]int, len(s.Layers))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return s.Layers[a].Order - s.Layers[b].Order
	})
	return idx
}

// Nodes returns every node in painter's order.
func (s *Scene) Nodes() []Node {
	var out []Node
	for _, li := range s.OrderedLayers() {
		out = append(out, s.Layers[li].Nodes...)
	}
	return out
}

// EditableNodes returns the nodes on visible, unlocked layers in painter's order.
func (s *Scene) EditableNodes() []Node {
	var out []Node
	for _, li := range s.OrderedLayers() {
		l := &s.Layers[li]
		if !l.Visible || l.Locked {
			continue
		}
		out = append(out, l.Nodes...)
	}
	return out
}

// NodeCount returns the number of nodes across all layers.
func (s *Scene) NodeCount() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Nodes)
	}
	return n
}

// AddNode appends a node to the given layer.
func (s *Scene) AddNode(layerID string, n Node) error {
	li := s.layerIndex(layerID)
	if li < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	if s.Layers[li].Locked {
		return fmt.Errorf("%w: %s", ErrLayerLocked, layerID)
	}
	return s.InsertNode(layerID, len(s.Layers[li].Nodes), n)
}

// InsertNode places a node at index within a layer regardless of the lock flag.
// Out of range indices append.
func (s *Scene) InsertNode(layerID string, index int, n Node) error {
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, n.Kind)
	}
	if n.ID == "" {
		n.ID = NewNodeID(n.Kind)
	}
	if s.Has(n.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	li := s.layerIndex(layerID)
	if li < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	nodes := s.Layers[li].Nodes
	if index < 0 || index > len(nodes) {
		index = len(nodes)
	}
	s.Layers[li].Nodes = slices.Insert(nodes, index, n)
	return nil
}

// UpdateNode replaces the stored node that has n's id.
func (s *Scene) UpdateNode(n Node) error {
	ref, ok := s.Find(n.ID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.ID)
	}
	s.Layers[ref.Layer].Nodes[ref.Index] = n
	return nil
}

// RemoveNode deletes a node and returns it with its former location.
func (s *Scene) RemoveNode(id string) (Node, NodeRef, error) {
	ref, ok := s.Find(id)
	if !ok {
		return Node{}, NodeRef{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	l := &s.Layers[ref.Layer]
	n := l.Nodes[ref.Index]
	l.Nodes = slices.Delete(l.Nodes, ref.Index, ref.Index+1)
	return n, ref, nil
}

// AddLayer appends a layer on top of the existing ones.
func (s *Scene) AddLayer(l Layer) error {
	return s.InsertLayer(len(s.Layers), l)
}

// InsertLayer places a layer at index in the layer slice.
func (s *Scene) InsertLayer(index int, l Layer) error {
	if s.layerIndex(l.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, l.ID)
	}
	for _, n := range l.Nodes {
		if s.Has(n.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
	}
	if l.Nodes == nil {
		l.Nodes = []Node{}
	}
	if index < 0 || index > len(s.Layers) {
		index = len(s.Layers)
	}
	s.Layers = slices.Insert(s.Layers, index, l)
	return nil
}

// RemoveLayer deletes a layer and its nodes. The last layer cannot be removed.
func (s *Scene) RemoveLayer(id string) (Layer, int, error) {
	li := s.layerIndex(id)
	if li < 0 {
		return Layer{}, -1, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	if len(s.Layers) == 1 {
		return Layer{}, -1, ErrLastLayer
	}
	l := s.Layers[li]
	s.Layers = slices.Delete(s.Layers, li, li+1)
	return l, li, nil
}

// NextLayerOrder returns an order value above every existing layer.
func (s *Scene) NextLayerOrder() int {
	next := 0
	for _, l := range s.Layers {
		if l.Order >= next {
			next = l.Order + 1
		}
	}
	return next
}

// Check verifies structural invariants: at least one layer, known node kinds
// and ids unique across the scene.
func (s *Scene) Check() error {
	if len(s.Layers) == 0 {
		return errors.New("scene has no layers")
	}
	seen := make(map[string]bool)
	for _, l := range s.Layers {
		if seen[l.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, l.ID)
		}
		seen[l.ID] = true
		for _, n := range l.Nodes {
			if !n.Kind.Valid() {
				return fmt.Errorf("%w: %q on %s", ErrInvalidKind, n.Kind, n.ID)
			}
			if seen[n.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
			}
			seen[n.ID] = true
		}
	}
	return nil
}
