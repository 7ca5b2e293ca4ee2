package engine

import (
	"errors"

	"github.com/verdant/verdant/editor-go/internal/history"
	"github.com/verdant/verdant/editor-go/internal/layout"
	"github.com/verdant/verdant/editor-go/internal/tool"
)

// KeyZoomStep is the zoom factor of one keyboard zoom step.
const KeyZoomStep = 1.25

// toolKeys are the single-key tool switches.
var toolKeys = map[string]tool.ID{
	"v": tool.IDSelect,
	"b": tool.IDDrawBed,
	"p": tool.IDDrawPath,
	"c": tool.IDDrawCurvedBed,
	"m": tool.IDMeasure,
}

func (e *Engine) registerShortcuts() {
	bind := func(combo string, fn func()) {
		if err := e.input.Bind(combo, fn); err != nil {
			e.logger.Error("bind shortcut", "combo", combo, "error", err)
		}
	}

	undo := func() { e.quiet("undo", e.Undo()) }
	redo := func() { e.quiet("redo", e.Redo()) }
	bind("Mod+z", undo)
	bind("Mod+Shift+z", redo)
	bind("Mod+y", redo)

	bind("Mod+s", func() {
		if e.opts.Hooks.Save != nil {
			e.opts.Hooks.Save(e.Plan())
		}
	})
	bind("Mod+o", func() {
		if e.opts.Hooks.Open != nil {
			e.opts.Hooks.Open()
		}
	})
	bind("Mod+e", func() {
		if e.opts.Hooks.Export != nil {
			e.opts.Hooks.Export(e.Plan())
		}
	})

	zoomIn := func() { e.ZoomAt(KeyZoomStep, e.screenW/2, e.screenH/2) }
	zoomOut := func() { e.ZoomAt(1/KeyZoomStep, e.screenW/2, e.screenH/2) }
	bind("Mod+=", zoomIn)
	bind("Mod++", zoomIn)
	bind("Mod+Shift++", zoomIn)
	bind("Mod+-", zoomOut)
	bind("Mod+0", e.ResetView)

	for key, id := range toolKeys {
		bind(key, func() { e.quiet("set tool", e.SetTool(id)) })
	}

	bind("Mod+d", func() {
		e.quiet("duplicate", e.DuplicateSelection(layout.DefaultDuplicateOffset, layout.DefaultDuplicateOffset))
	})
}

// quiet logs a failed shortcut action. Empty history stacks are expected and
// not logged.
func (e *Engine) quiet(action string, err error) {
	if err == nil || errors.Is(err, history.ErrNothingToUndo) || errors.Is(err, history.ErrNothingToRedo) {
		return
	}
	e.logger.Warn("shortcut failed", "action", action, "error", err)
}
