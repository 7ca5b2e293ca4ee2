package constraint

import (
	"fmt"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/geom"
	"github.com/verdant/verdant/editor-go/internal/layout"
)

// Code identifies the rule a violation breaks.
type Code string

const (
	CodeBedWidthExceedsMax Code = "BED_WIDTH_EXCEEDS_MAX"
	CodePathWidthBelowMin  Code = "PATH_WIDTH_BELOW_MIN"
	CodeTrellisNotNorth    Code = "TRELLIS_NOT_NORTH"
	CodeOutOfBounds        Code = "OUT_OF_BOUNDS"
	CodeOverlap            Code = "OVERLAP"
)

// Violation reports one broken rule. For OVERLAP, OtherID names the second bed.
type Violation struct {
	Code    Code   `json:"code"`
	NodeID  string `json:"nodeId"`
	OtherID string `json:"otherId,omitempty"`
	Detail  string `json:"detail"`
	Remedy  string `json:"remedy"`
}

// Result is the outcome of a validation pass. OK is true iff there are no violations.
type Result struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations"`
}

func newResult(vs []Violation) Result {
	if vs == nil {
		vs = []Violation{}
	}
	return Result{OK: len(vs) == 0, Violations: vs}
}

// Has reports whether any violation carries code.
func (r Result) Has(code Code) bool {
	for _, v := range r.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Count returns how many violations carry code.
func (r Result) Count(code Code) int {
	n := 0
	for _, v := range r.Violations {
		if v.Code == code {
			n++
		}
	}
	return n
}

// BedWidth is the reach dimension of a bed: its short axis, or the drawn
// width of a curved bed.
func BedWidth(n document.Node) float64 {
	if n.Bed != nil && n.Bed.Curve != nil && n.Bed.Curve.BedWidth > 0 {
		return n.Bed.Curve.BedWidth
	}
	return min(n.Width, n.Height)
}

// PathWidth is the walkable width of a path: its short axis.
func PathWidth(n document.Node) float64 {
	return min(n.Width, n.Height)
}

func canvas(scene *document.Scene) (geom.Rect, bool) {
	if scene == nil || scene.Width <= 0 || scene.Height <= 0 {
		return geom.Rect{}, false
	}
	return geom.Rect{MaxX: scene.Width, MaxY: scene.Height}, true
}

// checkNode runs every single-node rule.
func checkNode(n document.Node, s Settings, scene *document.Scene) []Violation {
	var vs []Violation

	switch n.Kind {
	case document.KindBed:
		if limit, w := s.EffectiveMaxBedWidth(), BedWidth(n); w > limit {
			vs = append(vs, Violation{
				Code:   CodeBedWidthExceedsMax,
				NodeID: n.ID,
				Detail: fmt.Sprintf("bed is %.1f in wide, maximum is %.1f in", w, limit),
				Remedy: fmt.Sprintf("narrow the bed to %.1f in or less so the center can be reached", limit),
			})
		}
		if n.Bed != nil && n.Bed.Trellis && n.Bed.Orientation != document.OrientationNS {
			vs = append(vs, Violation{
				Code:   CodeTrellisNotNorth,
				NodeID: n.ID,
				Detail: fmt.Sprintf("trellised bed is oriented %s", n.Bed.Orientation),
				Remedy: "orient the bed north-south so the trellis does not shade neighbours",
			})
		}
	case document.KindPath:
		if limit, w := s.EffectiveMinPathWidth(), PathWidth(n); w < limit {
			vs = append(vs, Violation{
				Code:   CodePathWidthBelowMin,
				NodeID: n.ID,
				Detail: fmt.Sprintf("path is %.1f in wide, minimum is %.1f in", w, limit),
				Remedy: fmt.Sprintf("widen the path to at least %.1f in", limit),
			})
		}
	}

	if area, ok := canvas(scene); ok && n.IsSized() {
		if b := layout.Bounds(n); !area.ContainsRect(b) {
			vs = append(vs, Violation{
				Code:   CodeOutOfBounds,
				NodeID: n.ID,
				Detail: fmt.Sprintf("extends outside the %.0f×%.0f in canvas", scene.Width, scene.Height),
				Remedy: "move the element back inside the garden",
			})
		}
	}
	return vs
}

func overlapViolation(a, b document.Node) Violation {
	return Violation{
		Code:    CodeOverlap,
		NodeID:  a.ID,
		OtherID: b.ID,
		Detail:  fmt.Sprintf("bed overlaps bed %s", b.ID),
		Remedy:  "move one of the beds so they no longer share ground",
	}
}

// ValidateNode checks n against s. When scene is non-nil the node is also
// checked against the canvas extent and, with overlap prevention on, against
// every other bed in the scene.
func ValidateNode(n document.Node, s Settings, scene *document.Scene) Result {
	vs := checkNode(n, s, scene)
	if scene != nil && s.PreventOverlap && n.Kind == document.KindBed {
		for _, other := range scene.Nodes() {
			if other.Kind != document.KindBed || other.ID == n.ID {
				continue
			}
			if layout.BoundsOverlap(n, other) {
				vs = append(vs, overlapViolation(n, other))
			}
		}
	}
	return newResult(vs)
}

// ValidateScene checks every node in painter order, then every pair of beds for
// overlap. Each overlapping pair is reported once.
func ValidateScene(scene *document.Scene, s Settings) Result {
	if scene == nil {
		return newResult(nil)
	}
	nodes := scene.Nodes()

	var vs []Violation
	var beds []document.Node
	for _, n := range nodes {
		vs = append(vs, checkNode(n, s, scene)...)
		if n.Kind == document.KindBed {
			beds = append(beds, n)
		}
	}

	if s.PreventOverlap {
		for i := 0; i < len(beds); i++ {
			for j := i + 1; j < len(beds); j++ {
				if layout.BoundsOverlap(beds[i], beds[j]) {
					vs = append(vs, overlapViolation(beds[i], beds[j]))
				}
			}
		}
	}
	return newResult(vs)
}

// IsValidPosition reports whether a w×h footprint centered at (x, y) fits the
// scene canvas and, when s is given with overlap prevention on, clears every
// bed other than excludeID.
func IsValidPosition(x, y, w, h float64, scene *document.Scene, excludeID string, s *Settings) bool {
	r := geom.RectFromCenter(x, y, w, h)
	if area, ok := canvas(scene); ok && !area.ContainsRect(r) {
		return false
	}
	if scene == nil || s == nil || !s.PreventOverlap {
		return true
	}
	for _, other := range scene.Nodes() {
		if other.Kind != document.KindBed || other.ID == excludeID {
			continue
		}
		if geom.Overlaps(r, layout.Bounds(other)) {
			return false
		}
	}
	return true
}
