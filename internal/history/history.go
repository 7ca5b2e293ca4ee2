// Package history implements linear undo/redo over scene mutations using the
// command pattern. Commands never mutate the scene they are given: Apply
// returns a new scene, so every state on either stack stays intact.
package history

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/verdant/verdant/editor-go/internal/document"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultCapacity bounds the undo stack when no capacity is configured.
const DefaultCapacity = 100

// Command is one undoable scene mutation.
type Command interface {
	// Name is a short label for menus ("Move", "Add bed").
	Name() string
	// Apply returns the scene after the mutation. The input scene is untouched.
	Apply(scene *document.Scene) (*document.Scene, error)
	// Invert returns the command that turns next back into prev.
	Invert(prev, next *document.Scene) Command
}

// Merger is implemented by commands that can fold a follow-up command into
// themselves, so a continuous gesture leaves a single history entry.
type Merger interface {
	Merge(next Command) (Command, bool)
}

type entry struct {
	label   string
	key     string
	cmd     Command
	inverse Command
}

// gesture remembers the redo entries cleared when the newest keyed entry was
// recorded, so Rollback can put them back.
type gesture struct {
	key  string
	redo []entry
}

// History holds the undo and redo stacks.
type History struct {
	capacity int
	undo     []entry
	redo     []entry
	open     gesture
	logger   *slog.Logger
}

// gestureKey is the merge key a command was issued under, if any.
func gestureKey(c Command) string {
	if u, ok := c.(*UpdateNodes); ok {
		return u.Key
	}
	return ""
}

// New returns a History holding at most capacity undo entries. Values below 1
// use DefaultCapacity.
func New(capacity int, logger *slog.Logger) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{capacity: capacity, logger: logger}
}

// Execute applies cmd to scene, records it and clears the redo stack.
// On error the scene is returned unchanged and nothing is recorded.
func (h *History) Execute(scene *document.Scene, cmd Command) (*document.Scene, error) {
	next, err := cmd.Apply(scene)
	if err != nil {
		return scene, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	inv := cmd.Invert(scene, next)
	cleared := h.redo
	h.redo = nil

	if n := len(h.undo); n > 0 {
		if m, ok := h.undo[n-1].cmd.(Merger); ok {
			if merged, ok := m.Merge(cmd); ok {
				// The earlier inverse still restores the pre-gesture state.
				h.undo[n-1].cmd = merged
				return next, nil
			}
		}
	}

	key := gestureKey(cmd)
	h.open = gesture{}
	if key != "" {
		h.open = gesture{key: key, redo: cleared}
	}
	h.undo = append(h.undo, entry{label: cmd.Name(), key: key, cmd: cmd, inverse: inv})
	if len(h.undo) > h.capacity {
		evicted := len(h.undo) - h.capacity
		h.undo = append(h.undo[:0], h.undo[evicted:]...)
		h.logger.Debug("history capacity reached", "evicted", evicted)
	}
	return next, nil
}

// Undo reverts the most recent command. Its inverse is applied and the
// inverse's own inverse is pushed onto the redo stack.
func (h *History) Undo(scene *document.Scene) (*document.Scene, error) {
	n := len(h.undo)
	if n == 0 {
		return scene, ErrNothingToUndo
	}
	e := h.undo[n-1]

	prev, err := e.inverse.Apply(scene)
	if err != nil {
		return scene, fmt.Errorf("undo %s: %w", e.label, err)
	}
	h.undo = h.undo[:n-1]
	h.open = gesture{}
	h.redo = append(h.redo, entry{label: e.label, cmd: e.inverse.Invert(scene, prev), inverse: e.inverse})
	h.logger.Debug("undo", "command", e.label)
	return prev, nil
}

// Redo re-applies the most recently undone command.
func (h *History) Redo(scene *document.Scene) (*document.Scene, error) {
	n := len(h.redo)
	if n == 0 {
		return scene, ErrNothingToRedo
	}
	e := h.redo[n-1]

	next, err := e.cmd.Apply(scene)
	if err != nil {
		return scene, fmt.Errorf("redo %s: %w", e.label, err)
	}
	h.redo = h.redo[:n-1]
	h.open = gesture{}
	h.undo = append(h.undo, entry{label: e.label, cmd: e.cmd, inverse: e.cmd.Invert(scene, next)})
	h.logger.Debug("redo", "command", e.label)
	return next, nil
}

// Rollback abandons an unfinished gesture. If the newest undo entry was
// recorded under key, its inverse is applied, the entry is dropped and the
// redo entries the gesture cleared are restored. The bool reports whether
// anything was reverted.
func (h *History) Rollback(scene *document.Scene, key string) (*document.Scene, bool, error) {
	n := len(h.undo)
	if key == "" || n == 0 || h.undo[n-1].key != key {
		return scene, false, nil
	}
	e := h.undo[n-1]

	prev, err := e.inverse.Apply(scene)
	if err != nil {
		return scene, false, fmt.Errorf("rollback %s: %w", e.label, err)
	}
	h.undo = h.undo[:n-1]
	if h.open.key == key {
		h.redo = h.open.redo
	}
	h.open = gesture{}
	h.logger.Debug("rollback", "command", e.label)
	return prev, true, nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoName returns the label of the command Undo would revert.
func (h *History) UndoName() string {
	if n := len(h.undo); n > 0 {
		return h.undo[n-1].label
	}
	return ""
}

// RedoName returns the label of the command Redo would re-apply.
func (h *History) RedoName() string {
	if n := len(h.redo); n > 0 {
		return h.redo[n-1].label
	}
	return ""
}

// Len returns the number of undo and redo entries.
func (h *History) Len() (undo, redo int) { return len(h.undo), len(h.redo) }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.open = gesture{}
}
