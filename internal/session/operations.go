package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verdant/verdant/editor-go/internal/engine"
	"github.com/verdant/verdant/editor-go/internal/input"
	"github.com/verdant/verdant/editor-go/internal/layout"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrBadPayload  = errors.New("invalid payload")
)

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: %s needs a payload", ErrBadPayload, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

func checkEdge(e layout.Edge) error {
	switch e {
	case layout.EdgeLeft, layout.EdgeRight, layout.EdgeTop, layout.EdgeBottom, layout.EdgeCenterX, layout.EdgeCenterY:
		return nil
	}
	return fmt.Errorf("%w: unknown edge %q", ErrBadPayload, e)
}

func checkAxis(a layout.Axis) error {
	if a == layout.AxisX || a == layout.AxisY {
		return nil
	}
	return fmt.Errorf("%w: unknown axis %q", ErrBadPayload, a)
}

// apply runs one client message against the room's engine. A non-nil reply
// goes to the sender only; otherwise the caller broadcasts the new render
// state.
func apply(e *engine.Engine, msg *Message) (*Message, error) {
	switch msg.Type {
	case TypePointer:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		switch p.Phase {
		case PhaseDown:
			e.PointerDown(p.RawPointer)
		case PhaseMove:
			e.PointerMove(p.RawPointer)
		case PhaseUp:
			e.PointerUp(p.RawPointer)
		case PhaseDoubleClick:
			e.DoubleClick(p.RawPointer)
		default:
			return nil, fmt.Errorf("%w: unknown pointer phase %q", ErrBadPayload, p.Phase)
		}

	case TypeKey:
		var p KeyPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		switch p.Phase {
		case PhaseDown:
			e.KeyDown(p.RawKey)
		case PhaseUp:
			e.KeyUp(p.RawKey)
		default:
			return nil, fmt.Errorf("%w: unknown key phase %q", ErrBadPayload, p.Phase)
		}

	case TypeWheel:
		var w input.RawWheel
		if err := decode(msg, &w); err != nil {
			return nil, err
		}
		e.Wheel(w)

	case TypeToolSet:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return nil, e.SetTool(p.Tool)

	case TypeUndo:
		return nil, e.Undo()

	case TypeRedo:
		return nil, e.Redo()

	case TypePlanLoad:
		var p PlanPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return nil, e.LoadPlanJSON(p.Plan)

	case TypePlanGet:
		return planMessage(e.Plan())

	case TypeSelect:
		var p SelectPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		e.Select(p.IDs)

	case TypeAlign:
		var p AlignPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if err := checkEdge(p.Edge); err != nil {
			return nil, err
		}
		return nil, e.AlignSelection(p.Edge)

	case TypeDistribute:
		var p DistributePayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if err := checkAxis(p.Axis); err != nil {
			return nil, err
		}
		return nil, e.DistributeSelection(p.Axis, p.Spacing)

	case TypeDuplicate:
		var p DuplicatePayload
		if len(msg.Payload) > 0 {
			if err := decode(msg, &p); err != nil {
				return nil, err
			}
		}
		dx, dy := layout.DefaultDuplicateOffset, layout.DefaultDuplicateOffset
		if p.DX != nil {
			dx = *p.DX
		}
		if p.DY != nil {
			dy = *p.DY
		}
		return nil, e.DuplicateSelection(dx, dy)

	case TypeFlip:
		var p FlipPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if err := checkAxis(p.Axis); err != nil {
			return nil, err
		}
		return nil, e.FlipSelection(p.Axis)

	case TypeDelete:
		return nil, e.DeleteSelection()

	case TypeAutoFix:
		return nil, e.AutoFixSelection()

	case TypeLayerAdd:
		var p LayerPayload
		if len(msg.Payload) > 0 {
			if err := decode(msg, &p); err != nil {
				return nil, err
			}
		}
		_, err := e.AddLayer(p.Name)
		return nil, err

	case TypeLayerRemove:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return nil, e.RemoveLayer(p.LayerID)

	case TypeResize:
		var p ResizePayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		e.SetScreenSize(p.Width, p.Height)

	case typeMalformed:
		var reason string
		_ = json.Unmarshal(msg.Payload, &reason)
		return nil, fmt.Errorf("%w: %s", ErrBadPayload, reason)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return nil, nil
}
