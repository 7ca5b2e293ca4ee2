// Package input normalizes raw device events and routes them to the active
// tool. Global shortcuts are consulted before the tool sees a key, and wheel
// input is turned into zoom requests that never reach a tool.
package input

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/verdant/verdant/editor-go/internal/tool"
)

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrBadCombo    = errors.New("invalid shortcut")
)

// Wheel delta modes, as reported by DOM wheel events.
const (
	DeltaPixel = 0
	DeltaLine  = 1
	DeltaPage  = 2
)

const (
	lineHeight = 16.0
	pageHeight = 800.0
	// WheelZoomRate converts a pixel wheel delta into an exponential zoom step.
	WheelZoomRate = 0.0015
	// defaultPressure is reported for pressed devices that give no pressure.
	defaultPressure = 0.5
)

// RawPointer is a device pointer sample in screen pixels.
type RawPointer struct {
	ScreenX  float64 `json:"x"`
	ScreenY  float64 `json:"y"`
	Button   int     `json:"button"`
	Buttons  int     `json:"buttons"`
	Pressure float64 `json:"pressure"`
	tool.Modifiers
}

// RawKey is a device key sample.
type RawKey struct {
	Key    string `json:"key"`
	Code   string `json:"code"`
	Repeat bool   `json:"repeat"`
	tool.Modifiers
}

// RawWheel is a device wheel sample.
type RawWheel struct {
	ScreenX   float64 `json:"x"`
	ScreenY   float64 `json:"y"`
	DeltaX    float64 `json:"deltaX"`
	DeltaY    float64 `json:"deltaY"`
	DeltaMode int     `json:"deltaMode"`
	tool.Modifiers
}

// Pixels returns the vertical delta in pixels.
func (w RawWheel) Pixels() float64 {
	switch w.DeltaMode {
	case DeltaLine:
		return w.DeltaY * lineHeight
	case DeltaPage:
		return w.DeltaY * pageHeight
	}
	return w.DeltaY
}

// ZoomFactor is the multiplicative zoom a wheel sample asks for. Scrolling
// down zooms out.
func (w RawWheel) ZoomFactor() float64 {
	return math.Exp(-w.Pixels() * WheelZoomRate)
}

// Combo is a modifier combination plus a key. Mod matches Ctrl or Cmd.
type Combo struct {
	Key   string
	Mod   bool
	Shift bool
	Alt   bool
}

// ParseCombo reads combos like "Mod+Shift+z", "Delete" or "Mod+=".
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(s, "+")
	// "Mod++" names the plus key.
	if strings.HasSuffix(s, "++") {
		parts = append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "+")
	}
	for i, p := range parts {
		if i == len(parts)-1 {
			if p == "" {
				return Combo{}, fmt.Errorf("%w: %q", ErrBadCombo, s)
			}
			c.Key = normalizeKey(p)
			break
		}
		switch strings.ToLower(p) {
		case "mod", "ctrl", "cmd", "meta":
			c.Mod = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		default:
			return Combo{}, fmt.Errorf("%w: %q", ErrBadCombo, s)
		}
	}
	return c, nil
}

func (c Combo) String() string {
	var b strings.Builder
	if c.Mod {
		b.WriteString("Mod+")
	}
	if c.Alt {
		b.WriteString("Alt+")
	}
	if c.Shift {
		b.WriteString("Shift+")
	}
	b.WriteString(c.Key)
	return b.String()
}

func comboOf(k RawKey) Combo {
	return Combo{Key: normalizeKey(k.Key), Mod: k.Mod(), Shift: k.Shift, Alt: k.Alt}
}

// normalizeKey lowercases printable single characters so Shift+Z and z share
// one key name.
func normalizeKey(k string) string {
	if len([]rune(k)) == 1 {
		return strings.ToLower(k)
	}
	return k
}

// Options wires a Manager to its host.
type Options struct {
	// ScreenToWorld converts screen pixels to world units. Nil is identity.
	ScreenToWorld func(x, y float64) (float64, float64)
	// OnZoom receives wheel zoom requests anchored at a screen point.
	OnZoom func(factor, anchorX, anchorY float64)
	// OnCursor is told the cursor to display after a tool swap.
	OnCursor func(tool.Cursor)
	Logger   *slog.Logger
}

// Manager owns the tool registry, the active tool and the shortcut table.
type Manager struct {
	opts      Options
	tools     map[tool.ID]tool.Tool
	order     []tool.ID
	active    tool.Tool
	shortcuts map[Combo]func()
	pressed   bool
	logger    *slog.Logger
}

func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		opts:      opts,
		tools:     map[tool.ID]tool.Tool{},
		shortcuts: map[Combo]func(){},
		logger:    logger,
	}
}

// Register adds tools. The first registered tool becomes active.
func (m *Manager) Register(tools ...tool.Tool) {
	for _, t := range tools {
		if _, ok := m.tools[t.ID()]; !ok {
			m.order = append(m.order, t.ID())
		}
		m.tools[t.ID()] = t
		if m.active == nil {
			m.active = t
			t.Activate()
			m.cursor(t.Cursor())
		}
	}
}

// Tools returns the registered tools in registration order.
func (m *Manager) Tools() []tool.Tool {
	out := make([]tool.Tool, len(m.order))
	for i, id := range m.order {
		out[i] = m.tools[id]
	}
	return out
}

// Active returns the active tool, or nil before any is registered.
func (m *Manager) Active() tool.Tool { return m.active }

// ActiveID returns the active tool id, or "".
func (m *Manager) ActiveID() tool.ID {
	if m.active == nil {
		return ""
	}
	return m.active.ID()
}

// SetTool deactivates the current tool, activates id and updates the cursor.
// Selecting the active tool again is a no-op.
func (m *Manager) SetTool(id tool.ID) error {
	next, ok := m.tools[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, id)
	}
	if m.active == next {
		return nil
	}
	prev := m.ActiveID()
	if m.active != nil {
		m.active.Deactivate()
	}
	m.active = next
	m.pressed = false
	next.Activate()
	m.cursor(next.Cursor())
	m.logger.Debug("tool switched", "from", prev, "to", id)
	return nil
}

// Cancel abandons any gesture in flight on the active tool.
func (m *Manager) Cancel() {
	if m.active == nil {
		return
	}
	m.active.Deactivate()
	m.active.Activate()
	m.pressed = false
}

func (m *Manager) cursor(c tool.Cursor) {
	if m.opts.OnCursor != nil {
		m.opts.OnCursor(c)
	}
}

// Bind registers fn for combo, replacing any earlier binding.
func (m *Manager) Bind(combo string, fn func()) error {
	c, err := ParseCombo(combo)
	if err != nil {
		return err
	}
	m.shortcuts[c] = fn
	return nil
}

// Unbind removes a shortcut.
func (m *Manager) Unbind(combo string) {
	if c, err := ParseCombo(combo); err == nil {
		delete(m.shortcuts, c)
	}
}

// Shortcuts returns the bound combos.
func (m *Manager) Shortcuts() []Combo {
	out := make([]Combo, 0, len(m.shortcuts))
	for c := range m.shortcuts {
		out = append(out, c)
	}
	return out
}

// Normalize converts a raw pointer sample into a tool event.
func (m *Manager) Normalize(raw RawPointer) tool.PointerEvent {
	x, y := raw.ScreenX, raw.ScreenY
	if m.opts.ScreenToWorld != nil {
		x, y = m.opts.ScreenToWorld(raw.ScreenX, raw.ScreenY)
	}
	p := raw.Pressure
	if p == 0 && (raw.Buttons != 0 || m.pressed) {
		p = defaultPressure
	}
	return tool.PointerEvent{
		ScreenX:   raw.ScreenX,
		ScreenY:   raw.ScreenY,
		X:         x,
		Y:         y,
		Button:    raw.Button,
		Pressure:  p,
		Modifiers: raw.Modifiers,
	}
}

func (m *Manager) PointerDown(raw RawPointer) {
	if m.active == nil {
		return
	}
	m.pressed = true
	m.active.OnPointerDown(m.Normalize(raw))
}

func (m *Manager) PointerMove(raw RawPointer) {
	if m.active == nil {
		return
	}
	m.active.OnPointerMove(m.Normalize(raw))
}

func (m *Manager) PointerUp(raw RawPointer) {
	if m.active == nil {
		return
	}
	e := m.Normalize(raw)
	m.pressed = false
	e.Pressure = 0
	m.active.OnPointerUp(e)
}

// DoubleClick reaches only tools that implement tool.DoubleClicker.
func (m *Manager) DoubleClick(raw RawPointer) {
	if dc, ok := m.active.(tool.DoubleClicker); ok {
		dc.OnDoubleClick(m.Normalize(raw))
	}
}

// KeyDown runs a matching shortcut, or else offers the key to the active
// tool. It reports whether the key was handled.
func (m *Manager) KeyDown(raw RawKey) bool {
	if fn, ok := m.shortcuts[comboOf(raw)]; ok {
		fn()
		return true
	}
	if m.active == nil {
		return false
	}
	return m.active.OnKeyDown(tool.KeyEvent{Key: raw.Key, Code: raw.Code, Repeat: raw.Repeat, Modifiers: raw.Modifiers})
}

func (m *Manager) KeyUp(raw RawKey) bool {
	if m.active == nil {
		return false
	}
	return m.active.OnKeyUp(tool.KeyEvent{Key: raw.Key, Code: raw.Code, Repeat: raw.Repeat, Modifiers: raw.Modifiers})
}

// Wheel turns a wheel sample into a zoom request at the pointer.
func (m *Manager) Wheel(raw RawWheel) {
	if raw.DeltaY == 0 || m.opts.OnZoom == nil {
		return
	}
	m.opts.OnZoom(raw.ZoomFactor(), raw.ScreenX, raw.ScreenY)
}
