package config

import (
	"log/slog"
	"slices"
	"testing"

	"github.com/verdant/verdant/editor-go/internal/constraint"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if got := cfg.Constraints(); got != constraint.Default() {
		t.Errorf("constraints = %+v, want %+v", got, constraint.Default())
	}
	opts := cfg.EngineOptions(nil)
	if opts.CanvasWidth != 480 || opts.CanvasHeight != 360 || opts.GridSpacing != 12 || opts.HistoryCapacity != 100 {
		t.Errorf("engine options = %+v", opts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UNITS", "metric")
	t.Setenv("ACCESSIBILITY", "true")
	t.Setenv("MAX_BED_WIDTH", "42")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	s := cfg.Constraints()
	if !s.Accessibility || s.MaxBedWidth != 42 {
		t.Errorf("constraints = %+v", s)
	}
	if cfg.EngineOptions(nil).Units != "metric" {
		t.Errorf("units = %q", cfg.Units)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Errorf("level = %v", lvl)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"units", "UNITS", "cubits"},
		{"log level", "LOG_LEVEL", "loud"},
		{"bed width", "MAX_BED_WIDTH", "0"},
		{"path width", "MIN_PATH_WIDTH", "-1"},
		{"not a number", "GRID_SPACING", "wide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s loaded", tt.key, tt.value)
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: "http://localhost:5173, https://plans.example.com,,"}
	if got, want := cfg.Origins(), []string{"http://localhost:5173", "https://plans.example.com"}; !slices.Equal(got, want) {
		t.Errorf("origins = %v, want %v", got, want)
	}
	if got, want := cfg.OriginPatterns(), []string{"localhost:5173", "plans.example.com"}; !slices.Equal(got, want) {
		t.Errorf("patterns = %v, want %v", got, want)
	}
}
