package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/store"
	"github.com/modulab/dungen/pkg/theme"
)

func pipelineTheme() *theme.Theme {
	return &theme.Theme{
		Name:       "pipeline-fixture",
		MinModules: 3,
		MaxModules: 3,
		Categories: []theme.Category{
			{
				ID:     "rooms",
				Weight: 1,
				Assets: []theme.Asset{
					{
						ID:     "room",
						Weight: 1,
						Size:   [2]float64{4, 4},
						Doors: []theme.Door{
							{Pos: [2]float64{2, 0}, Facing: 0},
							{Pos: [2]float64{0, 2}, Facing: 90},
							{Pos: [2]float64{-2, 0}, Facing: 180},
							{Pos: [2]float64{0, -2}, Facing: 270},
						},
					},
				},
			},
		},
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%s): %v", f, err)
		}
	}
	err := ValidateFormat("pdf")
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Errorf("ValidateFormat(pdf) = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a silent logger")
	}
}

func TestExecute(t *testing.T) {
	st := store.NewMemory()
	runner := NewRunner(st, nil)

	res, err := runner.Execute(context.Background(), Options{
		Theme:    pipelineTheme(),
		Seed:     42,
		Formats:  []string{FormatJSON, FormatDOT},
		Detailed: true,
		Save:     true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Layout == nil || len(res.Layout.Modules) != 3 {
		t.Fatalf("layout = %+v, want 3 modules", res.Layout)
	}
	if res.Stats.Modules != 3 {
		t.Errorf("Stats.Modules = %d, want 3", res.Stats.Modules)
	}
	if !res.Saved {
		t.Error("layout should have been saved")
	}

	var decoded map[string]any
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &decoded); err != nil {
		t.Errorf("json artifact: %v", err)
	}
	dot := string(res.Artifacts[FormatDOT])
	if !strings.Contains(dot, "graph dungeon") || !strings.Contains(dot, "rooms") {
		t.Errorf("dot artifact missing expected content:\n%s", dot)
	}

	if _, err := st.Get(context.Background(), res.Layout.ID); err != nil {
		t.Errorf("saved layout not retrievable: %v", err)
	}
}

func TestExecuteSeedReproducible(t *testing.T) {
	runner := NewRunner(nil, nil)
	opts := Options{Theme: pipelineTheme(), Seed: 7, Formats: []string{FormatJSON}}

	a, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	b, err := runner.Execute(context.Background(), Options{
		Theme: pipelineTheme(), Seed: 7, Formats: []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if len(a.Layout.Modules) != len(b.Layout.Modules) {
		t.Fatalf("module counts differ: %d vs %d", len(a.Layout.Modules), len(b.Layout.Modules))
	}
	for i := range a.Layout.Modules {
		if a.Layout.Modules[i].Pos != b.Layout.Modules[i].Pos {
			t.Errorf("module %d pos differs: %v vs %v",
				i, a.Layout.Modules[i].Pos, b.Layout.Modules[i].Pos)
		}
	}
}

func TestExecuteInvalidFormat(t *testing.T) {
	runner := NewRunner(nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		Theme:   pipelineTheme(),
		Formats: []string{"gif"},
	})
	if errors.GetCode(err) != errors.ErrCodeInvalidFormat {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestLoadThemeFromFile(t *testing.T) {
	runner := NewRunner(nil, nil)
	path := filepath.Join(t.TempDir(), "theme.toml")
	content := `
name = "mini"
min_modules = 1
max_modules = 2

[[categories]]
id = "rooms"
weight = 1.0

[[categories.assets]]
id = "room"
weight = 1.0
size = [4.0, 4.0]

[[categories.assets.doors]]
pos = [2.0, 0.0]
facing = 0.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	th, err := runner.LoadTheme(Options{ThemePath: path})
	if err != nil {
		t.Fatalf("LoadTheme: %v", err)
	}
	if th.Name != "mini" {
		t.Errorf("Name = %q, want mini", th.Name)
	}
}

func TestLoadThemeDefault(t *testing.T) {
	runner := NewRunner(nil, nil)
	th, err := runner.LoadTheme(Options{})
	if err != nil {
		t.Fatalf("LoadTheme: %v", err)
	}
	if th.Name == "" || len(th.Categories) == 0 {
		t.Errorf("default theme looks empty: %+v", th)
	}
}
