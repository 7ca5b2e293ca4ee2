package session

import (
	"encoding/json"

	"github.com/verdant/verdant/editor-go/internal/input"
	"github.com/verdant/verdant/editor-go/internal/layout"
	"github.com/verdant/verdant/editor-go/internal/tool"
)

type Message struct {
	Type     string          `json:"type"`
	PlanID   string          `json:"planId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Input
	TypePointer = "input.pointer"
	TypeKey     = "input.key"
	TypeWheel   = "input.wheel"
	TypeToolSet = "tool.set"

	// History
	TypeUndo = "history.undo"
	TypeRedo = "history.redo"

	// Plan
	TypePlanLoad     = "plan.load"
	TypePlanGet      = "plan.get"
	TypePlanDocument = "plan.document"

	// Selection
	TypeSelect     = "selection.set"
	TypeAlign      = "selection.align"
	TypeDistribute = "selection.distribute"
	TypeDuplicate  = "selection.duplicate"
	TypeFlip       = "selection.flip"
	TypeDelete     = "selection.delete"
	TypeAutoFix    = "selection.autofix"

	// Layers
	TypeLayerAdd    = "layer.add"
	TypeLayerRemove = "layer.remove"

	// View
	TypeResize = "view.resize"

	// Server state
	TypeRenderState = "render.state"
)

// Pointer phases of an input.pointer message.
const (
	PhaseDown        = "down"
	PhaseMove        = "move"
	PhaseUp          = "up"
	PhaseDoubleClick = "dblclick"
)

type WelcomePayload struct {
	ClientID string    `json:"clientId"`
	PlanID   string    `json:"planId"`
	Tools    []tool.ID `json:"tools"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
}

type PointerPayload struct {
	Phase string `json:"phase"`
	input.RawPointer
}

type KeyPayload struct {
	Phase string `json:"phase"`
	input.RawKey
}

type ToolPayload struct {
	Tool tool.ID `json:"tool"`
}

type PlanPayload struct {
	Plan json.RawMessage `json:"plan"`
}

type SelectPayload struct {
	IDs []string `json:"ids"`
}

type AlignPayload struct {
	Edge layout.Edge `json:"edge"`
}

type DistributePayload struct {
	Axis    layout.Axis `json:"axis"`
	Spacing *float64    `json:"spacing,omitempty"`
}

type DuplicatePayload struct {
	DX *float64 `json:"dx,omitempty"`
	DY *float64 `json:"dy,omitempty"`
}

type FlipPayload struct {
	Axis layout.Axis `json:"axis"`
}

type LayerPayload struct {
	LayerID string `json:"layerId,omitempty"`
	Name    string `json:"name,omitempty"`
}

type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
