// Package constraint holds the garden rules the editor enforces and the
// stateless checks that apply them to nodes and scenes.
package constraint

import (
	"github.com/verdant/verdant/editor-go/internal/document"
)

// Settings is the single source of truth for domain limits. Lengths are in inches.
type Settings struct {
	MaxBedWidth            float64 `json:"maxBedWidth"`
	AccessibleMaxBedWidth  float64 `json:"accessibleMaxBedWidth"`
	MinPathWidth           float64 `json:"minPathWidth"`
	MinAccessiblePathWidth float64 `json:"minAccessiblePathWidth"`
	SnapTolerance          float64 `json:"snapTolerance"`
	PreventOverlap         bool    `json:"preventOverlap"`
	Accessibility          bool    `json:"accessibility"`
}

const (
	// MinBedWidth is the narrowest bed a control should offer.
	MinBedWidth = 6.0
	// MaxPathWidth is the widest path a control should offer.
	MaxPathWidth = 120.0
	// MaxSnapTolerance bounds the drag snap assist.
	MaxSnapTolerance = 24.0
)

// Default returns the stock settings: a 4 ft reach bed, 18 in paths and a
// 36 in wheelchair path when accessibility is on.
func Default() Settings {
	return Settings{
		MaxBedWidth:            48,
		AccessibleMaxBedWidth:  30,
		MinPathWidth:           18,
		MinAccessiblePathWidth: 36,
		SnapTolerance:          4,
		PreventOverlap:         true,
		Accessibility:          false,
	}
}

// WithOverrides returns a copy of s with every non-nil override applied.
func (s Settings) WithOverrides(o *document.ConstraintOverrides) Settings {
	if o == nil {
		return s
	}
	if o.MaxBedWidth != nil {
		s.MaxBedWidth = *o.MaxBedWidth
	}
	if o.AccessibleMaxBedWidth != nil {
		s.AccessibleMaxBedWidth = *o.AccessibleMaxBedWidth
	}
	if o.MinPathWidth != nil {
		s.MinPathWidth = *o.MinPathWidth
	}
	if o.MinAccessiblePathWidth != nil {
		s.MinAccessiblePathWidth = *o.MinAccessiblePathWidth
	}
	if o.SnapTolerance != nil {
		s.SnapTolerance = *o.SnapTolerance
	}
	if o.PreventOverlap != nil {
		s.PreventOverlap = *o.PreventOverlap
	}
	if o.Accessibility != nil {
		s.Accessibility = *o.Accessibility
	}
	return s
}

// Overrides expresses s as a full set of overrides, for storing in a plan.
func (s Settings) Overrides() *document.ConstraintOverrides {
	return &document.ConstraintOverrides{
		MaxBedWidth:            &s.MaxBedWidth,
		AccessibleMaxBedWidth:  &s.AccessibleMaxBedWidth,
		MinPathWidth:           &s.MinPathWidth,
		MinAccessiblePathWidth: &s.MinAccessiblePathWidth,
		SnapTolerance:          &s.SnapTolerance,
		PreventOverlap:         &s.PreventOverlap,
		Accessibility:          &s.Accessibility,
	}
}

// EffectiveMaxBedWidth is the bed width limit in force. Accessibility swaps in
// the stricter limit.
func (s Settings) EffectiveMaxBedWidth() float64 {
	if s.Accessibility {
		return min(s.MaxBedWidth, s.AccessibleMaxBedWidth)
	}
	return s.MaxBedWidth
}

// EffectiveMinPathWidth is the path width minimum in force. Accessibility swaps
// in the larger wheelchair minimum.
func (s Settings) EffectiveMinPathWidth() float64 {
	if s.Accessibility {
		return max(s.MinPathWidth, s.MinAccessiblePathWidth)
	}
	return s.MinPathWidth
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp pins v into the range.
func (r Range) Clamp(v float64) float64 {
	return min(max(v, r.Min), r.Max)
}

// Limits are the thresholds UI controls must use. They come from the same
// Settings the validator reads.
type Limits struct {
	BedWidth       Range `json:"bedWidth"`
	PathWidth      Range `json:"pathWidth"`
	SnapTolerance  Range `json:"snapTolerance"`
	PreventOverlap bool  `json:"preventOverlap"`
	Accessibility  bool  `json:"accessibility"`
}

// GetConstraintLimits returns the control ranges implied by s.
func GetConstraintLimits(s Settings) Limits {
	return Limits{
		BedWidth:       Range{Min: MinBedWidth, Max: s.EffectiveMaxBedWidth()},
		PathWidth:      Range{Min: s.EffectiveMinPathWidth(), Max: max(MaxPathWidth, s.EffectiveMinPathWidth())},
		SnapTolerance:  Range{Min: 0, Max: MaxSnapTolerance},
		PreventOverlap: s.PreventOverlap,
		Accessibility:  s.Accessibility,
	}
}

// Field names a constrained numeric control.
type Field string

const (
	FieldBedWidth      Field = "bedWidth"
	FieldPathWidth     Field = "pathWidth"
	FieldSnapTolerance Field = "snapTolerance"
)

// ClampToConstraints pins value into the legal range for field. Unknown fields
// are returned unchanged.
func ClampToConstraints(field Field, value float64, s Settings) float64 {
	l := GetConstraintLimits(s)
	switch field {
	case FieldBedWidth:
		return l.BedWidth.Clamp(value)
	case FieldPathWidth:
		return l.PathWidth.Clamp(value)
	case FieldSnapTolerance:
		return l.SnapTolerance.Clamp(value)
	}
	return value
}
