package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/verdant/verdant/editor-go/internal/constraint"
	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/engine"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`

	// Editor defaults
	HistoryCapacity int     `envconfig:"HISTORY_CAPACITY" default:"100"`
	GridSpacing     float64 `envconfig:"GRID_SPACING" default:"12"`
	Units           string  `envconfig:"UNITS" default:"imperial"`
	CanvasWidth     float64 `envconfig:"CANVAS_WIDTH" default:"480"`
	CanvasHeight    float64 `envconfig:"CANVAS_HEIGHT" default:"360"`

	// Constraint defaults, in inches
	MaxBedWidth            float64 `envconfig:"MAX_BED_WIDTH" default:"48"`
	AccessibleMaxBedWidth  float64 `envconfig:"ACCESSIBLE_MAX_BED_WIDTH" default:"30"`
	MinPathWidth           float64 `envconfig:"MIN_PATH_WIDTH" default:"18"`
	MinAccessiblePathWidth float64 `envconfig:"MIN_ACCESSIBLE_PATH_WIDTH" default:"36"`
	SnapTolerance          float64 `envconfig:"SNAP_TOLERANCE" default:"4"`
	PreventOverlap         bool    `envconfig:"PREVENT_OVERLAP" default:"true"`
	Accessibility          bool    `envconfig:"ACCESSIBILITY" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) check() error {
	switch document.Units(c.Units) {
	case document.UnitsImperial, document.UnitsMetric:
	default:
		return fmt.Errorf("config: UNITS must be imperial or metric, got %q", c.Units)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MaxBedWidth <= 0 || c.AccessibleMaxBedWidth <= 0 {
		return fmt.Errorf("config: bed width limits must be positive")
	}
	if c.MinPathWidth <= 0 || c.MinAccessiblePathWidth <= 0 {
		return fmt.Errorf("config: path width limits must be positive")
	}
	return nil
}

// Level parses LOG_LEVEL.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns returns the allowed origins without their scheme, the form
// websocket.AcceptOptions expects.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, len(origins))
	for i, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out[i] = o
	}
	return out
}

// Constraints returns the process-wide constraint settings.
func (c *Config) Constraints() constraint.Settings {
	return constraint.Settings{
		MaxBedWidth:            c.MaxBedWidth,
		AccessibleMaxBedWidth:  c.AccessibleMaxBedWidth,
		MinPathWidth:           c.MinPathWidth,
		MinAccessiblePathWidth: c.MinAccessiblePathWidth,
		SnapTolerance:          c.SnapTolerance,
		PreventOverlap:         c.PreventOverlap,
		Accessibility:          c.Accessibility,
	}
}

// EngineOptions returns options for engines created by this process.
func (c *Config) EngineOptions(logger *slog.Logger) engine.Options {
	return engine.Options{
		Constraints:     c.Constraints(),
		Units:           document.Units(c.Units),
		HistoryCapacity: c.HistoryCapacity,
		GridSpacing:     c.GridSpacing,
		CanvasWidth:     c.CanvasWidth,
		CanvasHeight:    c.CanvasHeight,
		Logger:          logger,
	}
}
