package document

import "slices"

// Selection is the ephemeral ordered set of selected node ids. It is never
// persisted and must not reference nodes that no longer exist.
type Selection struct {
	IDs     []string `json:"ids"`
	Primary string   `json:"primary,omitempty"`
}

// Set replaces the selection. Duplicates are dropped; the first id becomes primary.
func (s *Selection) Set(ids []string) {
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.IDs = next
	s.Primary = ""
	if len(s.IDs) > 0 {
		s.Primary = s.IDs[0]
	}
}

// Toggle adds id if absent (making it primary) or removes it if present.
func (s *Selection) Toggle(id string) {
	if s.Contains(id) {
		s.Remove(id)
		return
	}
	s.IDs = append(s.IDs, id)
	s.Primary = id
}

// Remove drops ids from the selection, repairing the primary.
func (s *Selection) Remove(ids ...string) {
	s.IDs = slices.DeleteFunc(s.IDs, func(id string) bool {
		return slices.Contains(ids, id)
	})
	if slices.Contains(ids, s.Primary) {
		s.Primary = ""
		if len(s.IDs) > 0 {
			s.Primary = s.IDs[len(s.IDs)-1]
		}
	}
}

func (s *Selection) Clear() {
	s.IDs = nil
	s.Primary = ""
}

func (s Selection) Contains(id string) bool { return slices.Contains(s.IDs, id) }
func (s Selection) Len() int                { return len(s.IDs) }
func (s Selection) Empty() bool             { return len(s.IDs) == 0 }

// Slice returns a copy of the selected ids.
func (s Selection) Slice() []string { return slices.Clone(s.IDs) }

// Prune removes every id whose node is missing from the scene.
func (s *Selection) Prune(scene *Scene) {
	var gone []string
	for _, id := range s.IDs {
		if scene == nil || !scene.Has(id) {
			gone = append(gone, id)
		}
	}
	if len(gone) > 0 {
		s.Remove(gone...)
	}
}
