package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/modulab/dungen/pkg/dungeon"
	"github.com/modulab/dungen/pkg/geom"
	"github.com/modulab/dungen/pkg/layout"
	"github.com/modulab/dungen/pkg/store"
	"github.com/modulab/dungen/pkg/theme"
)

// Runner encapsulates pipeline execution against a store.
//
// The Runner is stateless except for the store and logger. Multiple
// goroutines can safely use the same Runner with different options; each
// Execute call builds its own world and generator.
type Runner struct {
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner. If st is nil, an in-memory store is used
// (saving effectively disabled across processes). If logger is nil, the
// default logger is used.
func NewRunner(st store.Store, logger *log.Logger) *Runner {
	if st == nil {
		st = store.NewMemory()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: st, Logger: logger}
}

// Execute runs the complete load → generate → export → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	th, err := r.LoadTheme(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)

	genStart := time.Now()
	l, err := r.Generate(ctx, th, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.Modules = len(l.Modules)
	result.Stats.Links = len(l.Links)
	result.Stats.Backtracks = l.Stats.Backtracks

	r.Logger.Info("generated dungeon",
		"theme", l.Theme,
		"seed", l.Seed,
		"modules", len(l.Modules),
		"links", len(l.Links),
		"backtracks", l.Stats.Backtracks,
		"duration", result.Stats.GenerateTime)

	renderStart := time.Now()
	for _, format := range opts.Formats {
		artifact, err := r.Render(ctx, l, format, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = artifact
	}
	result.Stats.RenderTime = time.Since(renderStart)

	if opts.Save {
		if err := r.Store.Save(ctx, l); err != nil {
			return nil, err
		}
		result.Saved = true
		r.Logger.Info("saved layout", "id", l.ID)
	}

	return result, nil
}

// LoadTheme resolves the theme for a run: an explicit in-memory theme wins,
// then a TOML file path, then the built-in default. The result is always
// validated.
func (r *Runner) LoadTheme(opts Options) (*theme.Theme, error) {
	switch {
	case opts.Theme != nil:
		if err := theme.ValidateStrict(opts.Theme); err != nil {
			return nil, err
		}
		return opts.Theme, nil
	case opts.ThemePath != "":
		return theme.LoadFile(opts.ThemePath)
	default:
		return theme.Default(), nil
	}
}

// Generate runs the placement engine once and exports the layout. The world
// is torn down before returning; the layout is self-contained.
func (r *Runner) Generate(ctx context.Context, th *theme.Theme, opts Options) (*layout.Layout, error) {
	world := geom.NewWorld(geom.DefaultConfig())
	gen, err := dungeon.NewGenerator(th, world, opts.engineOptions())
	if err != nil {
		return nil, err
	}
	defer gen.Reset()

	res, err := gen.Generate(ctx)
	if err != nil {
		return nil, err
	}
	return layout.New(th.Name, res, world.Placements()), nil
}

// Render produces one artifact for a layout.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, format string, opts Options) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return layout.Marshal(l)
	case FormatDOT:
		return []byte(layout.ToDOT(l, layout.DOTOptions{Detailed: opts.Detailed})), nil
	case FormatSVG:
		return layout.RenderSVG(ctx, layout.ToDOT(l, layout.DOTOptions{Detailed: opts.Detailed}))
	default:
		return layout.RenderPNG(ctx, layout.ToDOT(l, layout.DOTOptions{Detailed: opts.Detailed}))
	}
}
