package document

import (
	"math"

	"github.com/verdant/verdant/editor-go/internal/geom"
)

const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// GridSettings controls the drawing grid. Spacing is in world units.
type GridSettings struct {
	Enabled    bool    `json:"enabled"`
	Spacing    float64 `json:"spacing"`
	ShowRulers bool    `json:"showRulers"`
}

// Viewport is a view concern only; it never changes stored geometry.
type Viewport struct {
	Zoom float64      `json:"zoom"`
	PanX float64      `json:"panX"`
	PanY float64      `json:"panY"`
	Grid GridSettings `json:"grid"`
}

// DefaultViewport returns a 1:1 viewport with a 12 unit grid.
func DefaultViewport() Viewport {
	return Viewport{
		Zoom: 1,
		Grid: GridSettings{Enabled: true, Spacing: 12, ShowRulers: true},
	}
}

// Matrix returns the world to screen transform.
func (v Viewport) Matrix() geom.Matrix2D {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return geom.Translate(v.PanX, v.PanY).Multiply(geom.Scale(zoom, zoom))
}

// WorldToScreen converts a world position to screen pixels.
func (v Viewport) WorldToScreen(x, y float64) (float64, float64) {
	return v.Matrix().TransformPoint(x, y)
}

// ScreenToWorld converts screen pixels to a world position.
func (v Viewport) ScreenToWorld(x, y float64) (float64, float64) {
	return v.Matrix().Invert().TransformPoint(x, y)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under the
// screen anchor fixed. The result is clamped to [MinZoom, MaxZoom].
func (v Viewport) ZoomAt(factor, anchorX, anchorY float64) Viewport {
	if factor <= 0 || math.IsNaN(factor) {
		return v
	}
	wx, wy := v.ScreenToWorld(anchorX, anchorY)
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	v.Zoom = math.Max(MinZoom, math.Min(MaxZoom, zoom*factor))
	v.PanX = anchorX - wx*v.Zoom
	v.PanY = anchorY - wy*v.Zoom
	return v
}

// Pan shifts the view by a screen-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.PanX += dx
	v.PanY += dy
	return v
}
