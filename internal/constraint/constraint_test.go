package constraint

import (
	"testing"

	"github.com/verdant/verdant/editor-go/internal/document"
)

func sceneWith(nodes ...document.Node) *document.Scene {
	s := document.NewScene("Test", 480, 360)
	for _, n := range nodes {
		if err := s.AddNode(s.Layers[0].ID, n); err != nil {
			panic(err)
		}
	}
	return s
}

func settingsMatrix() []Settings {
	base := Default()
	acc := base
	acc.Accessibility = true
	noOverlap := base
	noOverlap.PreventOverlap = false
	custom := Settings{MaxBedWidth: 36, AccessibleMaxBedWidth: 24, MinPathWidth: 24, MinAccessiblePathWidth: 48, PreventOverlap: true}
	customAcc := custom
	customAcc.Accessibility = true
	return []Settings{base, acc, noOverlap, custom, customAcc}
}

func TestBedWithinLimitIsOK(t *testing.T) {
	for _, s := range settingsMatrix() {
		bed := document.NewBed(100, 100, s.EffectiveMaxBedWidth(), 60)
		if r := ValidateNode(bed, s, sceneWith()); !r.OK {
			t.Errorf("settings %+v: %v", s, r.Violations)
		}
	}
}

func TestWideBedHasExactlyOneWidthViolation(t *testing.T) {
	for _, s := range settingsMatrix() {
		bed := document.NewBed(100, 100, s.EffectiveMaxBedWidth()+1, 60)
		r := ValidateNode(bed, s, nil)
		if r.OK || r.Count(CodeBedWidthExceedsMax) != 1 || len(r.Violations) != 1 {
			t.Errorf("settings %+v: %v", s, r.Violations)
		}
	}
}

// Reach is measured across a bed, so a long narrow bed is fine however long
// its Width field is.
func TestBedWidthIsTheShortSide(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		reach         float64
		ok            bool
	}{
		{"long east-west", 96, 24, 24, true},
		{"long north-south", 24, 96, 24, true},
		{"at the limit", 192, 48, 48, true},
		{"too wide both ways", 96, 60, 60, false},
	}
	s := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bed := document.NewBed(200, 150, tt.width, tt.height)
			if got := BedWidth(bed); got != tt.reach {
				t.Errorf("BedWidth = %v, want %v", got, tt.reach)
			}
			r := ValidateNode(bed, s, sceneWith())
			if r.OK != tt.ok {
				t.Errorf("%vx%v: ok = %v, violations %v", tt.width, tt.height, r.OK, r.Violations)
			}
		})
	}
}

func TestAccessibilitySwapsLimits(t *testing.T) {
	s := Default()
	bed := document.NewBed(100, 100, 40, 80)
	path := document.NewPath(100, 200, 120, 24, document.SurfaceMulch)

	if r := ValidateNode(bed, s, nil); !r.OK {
		t.Errorf("40 in bed without accessibility: %v", r.Violations)
	}
	if r := ValidateNode(path, s, nil); !r.OK {
		t.Errorf("24 in path without accessibility: %v", r.Violations)
	}

	s.Accessibility = true
	if r := ValidateNode(bed, s, nil); !r.Has(CodeBedWidthExceedsMax) {
		t.Errorf("40 in bed with accessibility: %v", r.Violations)
	}
	if r := ValidateNode(path, s, nil); !r.Has(CodePathWidthBelowMin) {
		t.Errorf("24 in path with accessibility: %v", r.Violations)
	}
}

func TestTrellisOrientation(t *testing.T) {
	bed := document.NewBed(100, 100, 24, 48)
	bed.Bed.Trellis = true
	bed.Bed.Orientation = document.OrientationEW
	r := ValidateNode(bed, Default(), nil)
	if r.Count(CodeTrellisNotNorth) != 1 || r.Violations[0].Remedy == "" {
		t.Fatalf("violations = %v", r.Violations)
	}

	fixed := AutoFixViolations(bed, r.Violations, Default(), nil)
	if fixed.Bed.Orientation != document.OrientationNS {
		t.Errorf("orientation after fix = %s", fixed.Bed.Orientation)
	}
	if bed.Bed.Orientation != document.OrientationEW {
		t.Error("AutoFixViolations mutated its input")
	}
}

func TestOutOfBounds(t *testing.T) {
	scene := sceneWith()
	tests := []struct {
		name string
		node document.Node
		want bool
	}{
		{"inside", document.NewBed(24, 24, 48, 48), false},
		{"touching edge", document.NewBed(456, 336, 48, 48), false},
		{"past right", document.NewBed(470, 100, 24, 24), true},
		{"past top", document.NewBed(100, 5, 24, 24), true},
		{"label ignored", document.Node{ID: "label_1", Kind: document.KindLabel, Transform: document.Transform{X: -50}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateNode(tt.node, Default(), scene)
			if got := r.Has(CodeOutOfBounds); got != tt.want {
				t.Errorf("OUT_OF_BOUNDS = %v, want %v (%v)", got, tt.want, r.Violations)
			}
		})
	}
}

func TestIdenticalBedsOverlapOnce(t *testing.T) {
	a := document.NewBed(100, 100, 48, 48)
	b := document.NewBed(100, 100, 48, 48)
	scene := sceneWith(a, b)

	r := ValidateScene(scene, Default())
	if r.Count(CodeOverlap) != 1 {
		t.Fatalf("OVERLAP count = %d, want 1 (%v)", r.Count(CodeOverlap), r.Violations)
	}

	s := Default()
	s.PreventOverlap = false
	if r := ValidateScene(scene, s); !r.OK {
		t.Errorf("overlap prevention off: %v", r.Violations)
	}
}

func TestOverlapOnlyBetweenBeds(t *testing.T) {
	bed := document.NewBed(100, 100, 48, 48)
	path := document.NewPath(100, 100, 48, 48, document.SurfaceGravel)
	touching := document.NewBed(148, 100, 48, 48)
	scene := sceneWith(bed, path, touching)

	if r := ValidateScene(scene, Default()); r.Has(CodeOverlap) {
		t.Errorf("violations = %v", r.Violations)
	}
	if r := ValidateNode(bed, Default(), scene); r.Has(CodeOverlap) {
		t.Errorf("ValidateNode against itself = %v", r.Violations)
	}
}

func TestSamplePlanIsValid(t *testing.T) {
	plan := document.NewSamplePlan()
	if r := ValidateScene(plan.Scene, Default()); !r.OK {
		t.Errorf("sample plan violations = %v", r.Violations)
	}
}

func TestAutoFixWidths(t *testing.T) {
	s := Default()
	s.Accessibility = true
	scene := sceneWith()

	bed := document.NewBed(460, 100, 48, 60)
	r := ValidateNode(bed, s, scene)
	fixed := AutoFixViolations(bed, r.Violations, s, scene)
	if fixed.Width != s.EffectiveMaxBedWidth() || fixed.Height != 60 {
		t.Errorf("fixed bed width = %v, want %v", fixed.Width, s.EffectiveMaxBedWidth())
	}
	if r := ValidateNode(fixed, s, scene); !r.OK {
		t.Errorf("fixed bed still invalid: %v", r.Violations)
	}

	path := document.NewPath(200, 200, 120, 18, document.SurfaceMulch)
	r = ValidateNode(path, s, scene)
	fixed = AutoFixViolations(path, r.Violations, s, scene)
	if fixed.Height != 36 || fixed.Width != 120 {
		t.Errorf("fixed path = %vx%v, want 120x36", fixed.Width, fixed.Height)
	}
}

func TestLimitsMatchValidation(t *testing.T) {
	for _, s := range settingsMatrix() {
		l := GetConstraintLimits(s)
		widest := document.NewBed(100, 100, l.BedWidth.Max, 24)
		if r := ValidateNode(widest, s, nil); r.Has(CodeBedWidthExceedsMax) {
			t.Errorf("limit max bed %v rejected", l.BedWidth.Max)
		}
		narrowest := document.NewPath(100, 100, 96, l.PathWidth.Min, document.SurfaceGrass)
		if r := ValidateNode(narrowest, s, nil); r.Has(CodePathWidthBelowMin) {
			t.Errorf("limit min path %v rejected", l.PathWidth.Min)
		}
		if got := ClampToConstraints(FieldBedWidth, 1000, s); got != s.EffectiveMaxBedWidth() {
			t.Errorf("clamp bed = %v", got)
		}
		if got := ClampToConstraints(FieldPathWidth, 1, s); got != s.EffectiveMinPathWidth() {
			t.Errorf("clamp path = %v", got)
		}
	}
}

func TestIsValidPosition(t *testing.T) {
	existing := document.NewBed(100, 100, 48, 48)
	scene := sceneWith(existing)
	s := Default()

	tests := []struct {
		name      string
		x, y      float64
		exclude   string
		settings  *Settings
		wantValid bool
	}{
		{"clear ground", 300, 100, "", &s, true},
		{"on top of bed", 110, 110, "", &s, false},
		{"on top of itself", 110, 110, existing.ID, &s, true},
		{"no settings skips overlap", 110, 110, "", nil, true},
		{"off canvas", 470, 100, "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPosition(tt.x, tt.y, 24, 24, scene, tt.exclude, tt.settings); got != tt.wantValid {
				t.Errorf("IsValidPosition = %v, want %v", got, tt.wantValid)
			}
		})
	}
}

func TestWithOverrides(t *testing.T) {
	w := 30.0
	on := true
	s := Default().WithOverrides(&document.ConstraintOverrides{MaxBedWidth: &w, Accessibility: &on})
	if s.MaxBedWidth != 30 || !s.Accessibility || s.MinPathWidth != Default().MinPathWidth {
		t.Errorf("WithOverrides = %+v", s)
	}
	if back := Default().WithOverrides(s.Overrides()); back != s {
		t.Errorf("Overrides round trip = %+v, want %+v", back, s)
	}
}
