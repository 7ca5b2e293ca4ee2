//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/engine"
	"github.com/verdant/verdant/editor-go/internal/input"
	"github.com/verdant/verdant/editor-go/internal/layout"
	"github.com/verdant/verdant/editor-go/internal/tool"
)

var (
	eng *engine.Engine
	api js.Value
)

var errMissingArg = errors.New("missing argument")

func main() {
	opts := engine.DefaultOptions()
	opts.Hooks = engine.Hooks{
		Save:   func(p *document.Plan) { emitPlan("onSave", p) },
		Open:   func() { emit("onOpen") },
		Export: func(p *document.Plan) { emitPlan("onExport", p) },
		Cursor: func(c tool.Cursor) { emit("onCursor", string(c)) },
		Change: func(rev uint64) { emit("onChange", float64(rev)) },
	}
	eng = engine.New(opts)

	// Create the engine API object
	api = js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadPlan", js.FuncOf(loadPlan))
	api.Set("loadSamplePlan", js.FuncOf(loadSamplePlan))
	api.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	api.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	api.Set("doubleClick", js.FuncOf(pointer(eng.DoubleClick)))
	api.Set("keyDown", js.FuncOf(key(eng.KeyDown)))
	api.Set("keyUp", js.FuncOf(key(eng.KeyUp)))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("undo", js.FuncOf(func(js.Value, []js.Value) interface{} { return result(eng.Undo()) }))
	api.Set("redo", js.FuncOf(func(js.Value, []js.Value) interface{} { return result(eng.Redo()) }))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("deleteSelection", js.FuncOf(func(js.Value, []js.Value) interface{} { return result(eng.DeleteSelection()) }))
	api.Set("alignSelection", js.FuncOf(alignSelection))
	api.Set("distributeSelection", js.FuncOf(distributeSelection))
	api.Set("duplicateSelection", js.FuncOf(duplicateSelection))
	api.Set("flipSelection", js.FuncOf(flipSelection))
	api.Set("arrangeSelection", js.FuncOf(arrangeSelection))
	api.Set("autoFix", js.FuncOf(func(js.Value, []js.Value) interface{} { return result(eng.AutoFixSelection()) }))
	api.Set("placeNode", js.FuncOf(placeNode))
	api.Set("addLayer", js.FuncOf(addLayer))
	api.Set("removeLayer", js.FuncOf(layerCall(eng.RemoveLayer)))
	api.Set("setActiveLayer", js.FuncOf(layerCall(eng.SetActiveLayer)))
	api.Set("setLayerVisible", js.FuncOf(layerFlag(eng.SetLayerVisible)))
	api.Set("setLayerLocked", js.FuncOf(layerFlag(eng.SetLayerLocked)))
	api.Set("setConstraints", js.FuncOf(setConstraints))
	api.Set("setUnits", js.FuncOf(setUnits))
	api.Set("setGrid", js.FuncOf(setGrid))
	api.Set("setScreenSize", js.FuncOf(setScreenSize))
	api.Set("zoomAt", js.FuncOf(zoomAt))
	api.Set("pan", js.FuncOf(pan))
	api.Set("resetView", js.FuncOf(func(js.Value, []js.Value) interface{} { eng.ResetView(); return nil }))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.RenderStateJSON()) }))
	api.Set("getPlan", js.FuncOf(getPlan))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("validate", js.FuncOf(func(js.Value, []js.Value) interface{} { return toJSON(eng.Validate()) }))
	api.Set("getConstraintLimits", js.FuncOf(func(js.Value, []js.Value) interface{} { return toJSON(eng.ConstraintLimits()) }))
	api.Set("getConstraints", js.FuncOf(func(js.Value, []js.Value) interface{} { return toJSON(eng.Constraints()) }))
	api.Set("canUndo", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.CanUndo()) }))
	api.Set("canRedo", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.CanRedo()) }))
	api.Set("getActiveTool", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(string(eng.ActiveTool())) }))

	// Register on global scope
	js.Global().Set("verdantEngine", api)

	// Signal that WASM is ready
	js.Global().Set("verdantWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Helpers ---

// emit calls api[name] when the host has installed a function there.
func emit(name string, args ...interface{}) {
	if api.IsUndefined() {
		return
	}
	fn := api.Get(name)
	if fn.Type() == js.TypeFunction {
		fn.Invoke(args...)
	}
}

func emitPlan(name string, p *document.Plan) {
	data, err := json.Marshal(p)
	if err != nil {
		eng.Logger().Error("encode plan", "error", err)
		return
	}
	emit(name, string(data))
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func toJSON(v any) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

// decodeArg unmarshals the JSON string in args[0].
func decodeArg(args []js.Value, v any) error {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return errMissingArg
	}
	return json.Unmarshal([]byte(args[0].String()), v)
}

func floatArgs(args []js.Value, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = args[i].Float()
	}
	return out, true
}

// --- Command Handlers ---

func loadPlan(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	return result(eng.LoadPlanJSON([]byte(args[0].String())))
}

func loadSamplePlan(this js.Value, args []js.Value) interface{} {
	return result(eng.LoadSamplePlan())
}

func pointer(fn func(input.RawPointer)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		var raw input.RawPointer
		if err := decodeArg(args, &raw); err != nil {
			return result(err)
		}
		fn(raw)
		return nil
	}
}

func key(fn func(input.RawKey) bool) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		var raw input.RawKey
		if err := decodeArg(args, &raw); err != nil {
			return js.ValueOf(false)
		}
		return js.ValueOf(fn(raw))
	}
}

func wheel(this js.Value, args []js.Value) interface{} {
	var raw input.RawWheel
	if err := decodeArg(args, &raw); err != nil {
		return result(err)
	}
	eng.Wheel(raw)
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	return result(eng.SetTool(tool.ID(args[0].String())))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.ClearSelection()
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.Select(ids)
	return nil
}

func alignSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	return result(eng.AlignSelection(layout.Edge(args[0].String())))
}

func distributeSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	var spacing *float64
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		s := args[1].Float()
		spacing = &s
	}
	return result(eng.DistributeSelection(layout.Axis(args[0].String()), spacing))
}

func duplicateSelection(this js.Value, args []js.Value) interface{} {
	dx, dy := layout.DefaultDuplicateOffset, layout.DefaultDuplicateOffset
	if v, ok := floatArgs(args, 2); ok {
		dx, dy = v[0], v[1]
	}
	return result(eng.DuplicateSelection(dx, dy))
}

func flipSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	return result(eng.FlipSelection(layout.Axis(args[0].String())))
}

func arrangeSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errMissingArg)
	}
	return result(eng.ArrangeSelection(args[0].Int(), args[1].Float()))
}

func placeNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return result(errMissingArg)
	}
	return result(eng.PlaceNode(args[0].String(), args[1].Float(), args[2].Float()))
}

func addLayer(this js.Value, args []js.Value) interface{} {
	name := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	id, err := eng.AddLayer(name)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func layerCall(fn func(string) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return result(errMissingArg)
		}
		return result(fn(args[0].String()))
	}
}

func layerFlag(fn func(string, bool) error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return result(errMissingArg)
		}
		return result(fn(args[0].String(), args[1].Bool()))
	}
}

func setConstraints(this js.Value, args []js.Value) interface{} {
	var s constraint.Settings
	if err := decodeArg(args, &s); err != nil {
		return result(err)
	}
	eng.SetConstraints(s)
	return result(nil)
}

func setUnits(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errMissingArg)
	}
	u := document.Units(args[0].String())
	if u != document.UnitsImperial && u != document.UnitsMetric {
		return result(errors.New("units must be imperial or metric"))
	}
	eng.SetUnits(u)
	return result(nil)
}

func setGrid(this js.Value, args []js.Value) interface{} {
	var g document.GridSettings
	if err := decodeArg(args, &g); err != nil {
		return result(err)
	}
	eng.SetGrid(g)
	return result(nil)
}

func setScreenSize(this js.Value, args []js.Value) interface{} {
	if v, ok := floatArgs(args, 2); ok {
		eng.SetScreenSize(v[0], v[1])
	}
	return nil
}

func zoomAt(this js.Value, args []js.Value) interface{} {
	if v, ok := floatArgs(args, 3); ok {
		eng.ZoomAt(v[0], v[1], v[2])
	}
	return nil
}

func pan(this js.Value, args []js.Value) interface{} {
	if v, ok := floatArgs(args, 2); ok {
		eng.Pan(v[0], v[1])
	}
	return nil
}

// --- Query Handlers ---

func getPlan(this js.Value, args []js.Value) interface{} {
	data, err := eng.PlanJSON()
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func hitTest(this js.Value, args []js.Value) interface{} {
	v, ok := floatArgs(args, 2)
	if !ok {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(v[0], v[1]))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	b, ok := eng.SelectionBounds()
	if !ok {
		return js.Null()
	}
	return toJSON(b)
}
