package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verdant/verdant/editor-go/internal/typeid"
)

// PlanVersion is the only document version this package reads and writes.
const PlanVersion = "plan.v1"

var ErrUnsupportedVersion = errors.New("unsupported plan version")

// Plan is the versioned boundary artifact exchanged with storage.
type Plan struct {
	Version   string    `json:"version"`
	ID        string    `json:"id,omitempty"`
	Scene     *Scene    `json:"scene"`
	Viewport  *Viewport `json:"viewport,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Meta      PlanMeta  `json:"meta"`
}

type PlanMeta struct {
	Units       Units                `json:"units"`
	HardSurface bool                 `json:"hardSurface"`
	Constraints *ConstraintOverrides `json:"constraints,omitempty"`
}

// ConstraintOverrides carries per-plan replacements for the process-wide
// constraint settings. Nil fields keep the process default.
type ConstraintOverrides struct {
	MaxBedWidth            *float64 `json:"maxBedWidth,omitempty"`
	AccessibleMaxBedWidth  *float64 `json:"accessibleMaxBedWidth,omitempty"`
	MinPathWidth           *float64 `json:"minPathWidth,omitempty"`
	MinAccessiblePathWidth *float64 `json:"minAccessiblePathWidth,omitempty"`
	SnapTolerance          *float64 `json:"snapTolerance,omitempty"`
	PreventOverlap         *bool    `json:"preventOverlap,omitempty"`
	Accessibility          *bool    `json:"accessibility,omitempty"`
}

// NewPlan wraps a scene into a fresh plan document.
func NewPlan(scene *Scene, units Units) *Plan {
	now := time.Now().UTC()
	return &Plan{
		Version:   PlanVersion,
		ID:        typeid.NewPlanID(),
		Scene:     scene,
		CreatedAt: now,
		UpdatedAt: now,
		Meta:      PlanMeta{Units: units},
	}
}

// ParsePlan decodes and checks a plan document.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Check verifies the version and scene invariants.
func (p *Plan) Check() error {
	if p.Version != PlanVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, p.Version)
	}
	if p.Scene == nil {
		return errors.New("plan has no scene")
	}
	if err := p.Scene.Check(); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}
	if p.Meta.Units == "" {
		p.Meta.Units = UnitsImperial
	}
	return nil
}
