// Package plan serves stateless plan checks over HTTP: validation, auto-fix,
// the sample garden and the control limits implied by the constraint settings.
package plan

import (
	"errors"
	"fmt"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/engine"
)

var (
	ErrInvalidPlan  = errors.New("invalid plan")
	ErrUnknownField = errors.New("unknown constraint field")
)

type Service struct {
	opts engine.Options
}

// NewService creates a service whose checks start from opts.Constraints.
func NewService(opts engine.Options) *Service {
	return &Service{opts: opts}
}

// AutoFixResult reports what an auto-fix pass changed.
type AutoFixResult struct {
	Plan   *document.Plan    `json:"plan"`
	Before int               `json:"before"`
	Result constraint.Result `json:"result"`
}

func (s *Service) settings(accessibility *bool) constraint.Settings {
	settings := s.opts.Constraints
	if accessibility != nil {
		settings.Accessibility = *accessibility
	}
	return settings
}

// Validate checks a plan.v1 document against the process settings with the
// plan's own overrides applied.
func (s *Service) Validate(data []byte) (constraint.Result, error) {
	p, err := document.ParsePlan(data)
	if err != nil {
		return constraint.Result{}, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	settings := s.opts.Constraints.WithOverrides(p.Meta.Constraints)
	return constraint.ValidateScene(p.Scene, settings), nil
}

// AutoFix repairs every fixable violation of a plan.v1 document. Overlaps are
// reported but left in place.
func (s *Service) AutoFix(data []byte) (*AutoFixResult, error) {
	e := engine.New(s.opts)
	if err := e.LoadPlanJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	before := e.Validate()
	if err := e.AutoFixSelection(); err != nil {
		return nil, fmt.Errorf("auto-fix: %w", err)
	}
	return &AutoFixResult{
		Plan:   e.Plan(),
		Before: len(before.Violations),
		Result: e.Validate(),
	}, nil
}

func (s *Service) Sample() *document.Plan {
	return document.NewSamplePlan()
}

// Limits returns the control ranges, optionally with accessibility forced on
// or off.
func (s *Service) Limits(accessibility *bool) constraint.Limits {
	return constraint.GetConstraintLimits(s.settings(accessibility))
}

// Clamp pins value into the legal range of a constrained control.
func (s *Service) Clamp(field constraint.Field, value float64, accessibility *bool) (float64, error) {
	switch field {
	case constraint.FieldBedWidth, constraint.FieldPathWidth, constraint.FieldSnapTolerance:
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return constraint.ClampToConstraints(field, value, s.settings(accessibility)), nil
}
