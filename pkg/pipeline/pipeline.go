// Package pipeline provides the core generation pipeline for dungen.
//
// This package implements the complete load → generate → export → render
// flow used by the CLI, the HTTP API, and the TUI. Centralizing it keeps
// behavior consistent across entry points.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read and validate the theme (TOML file or in-memory theme)
//  2. Generate: Run the placement engine against a fresh spatial world
//  3. Export: Assemble the serializable layout from the run result
//  4. Render: Produce output artifacts (JSON, DOT, SVG, PNG)
//
// A successful run can optionally be saved to the configured store.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, logger)
//	opts := pipeline.Options{
//	    ThemePath: "themes/catacomb.toml",
//	    Seed:      42,
//	    Formats:   []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/modulab/dungen/pkg/dungeon"
	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
	"github.com/modulab/dungen/pkg/theme"
)

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for one pipeline run. This struct
// supports JSON serialization for API requests.
type Options struct {
	// ThemePath is a TOML theme file to load. Leave empty to use Theme, or
	// both empty for the built-in default theme.
	ThemePath string `json:"theme_path,omitempty"`

	// Seed for the generation run. Zero picks a random seed.
	Seed uint64 `json:"seed,omitempty"`

	// Attempts and RetryFactor tune the placement search. Zero uses the
	// engine defaults.
	Attempts    int `json:"attempts,omitempty"`
	RetryFactor int `json:"retry_factor,omitempty"`

	// Formats selects the artifacts to render.
	Formats []string `json:"formats,omitempty"`

	// Detailed includes categories and world poses in DOT node labels.
	Detailed bool `json:"detailed,omitempty"`

	// Save persists the layout to the runner's store after a successful run.
	Save bool `json:"save,omitempty"`

	// Runtime options (not serialized)
	Theme  *theme.Theme `json:"-"`
	Logger *log.Logger  `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layout is the generated, exportable dungeon.
	Layout *layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Saved reports whether the layout was persisted to the store.
	Saved bool

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Modules    int
	Links      int
	Backtracks int

	LoadTime     time.Duration
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// engineOptions translates pipeline options into engine options.
func (o *Options) engineOptions() dungeon.Options {
	return dungeon.Options{
		Seed:              o.Seed,
		PlacementAttempts: o.Attempts,
		RetryFactor:       o.RetryFactor,
		Logger:            o.Logger,
	}
}
