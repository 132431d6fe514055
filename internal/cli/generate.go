package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/pipeline"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		save       bool
		sf         storeFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "generate [theme.toml]",
		Short: "Generate a dungeon layout from a theme",
		Long: `Generate a dungeon layout from a theme.

The generate command loads a TOML theme (or the built-in default when no
argument is given), runs the placement engine, and writes the requested
output formats. With --save the layout is also stored and can later be
listed, rendered, or fetched by ID.

The same seed with the same theme always produces the same dungeon.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.ThemePath = args[0]
			}
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Save = save
			return c.runGenerate(cmd.Context(), opts, output, sf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png (comma-separated)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVar(&opts.Attempts, "attempts", 0, "collision retries per placement (0 uses the default)")
	cmd.Flags().IntVar(&opts.RetryFactor, "retry-factor", 0, "backtrack budget factor (0 uses the default)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include categories and poses in DOT labels")
	cmd.Flags().BoolVar(&save, "save", false, "persist the layout to the store")
	sf.register(cmd)

	return cmd
}

// runGenerate executes the pipeline and writes artifacts.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, output string, sf storeFlags) error {
	st, err := sf.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	opts.Logger = c.Logger
	runner := c.newRunner(st)

	spinner := newSpinnerWithContext(ctx, "Generating dungeon...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		if errors.Terminal(err) {
			printDetail("%s", errors.UserMessage(err))
			printDetail("theme constraints and module geometry may be unsatisfiable; try another seed")
		}
		return err
	}
	spinner.Stop()

	printSuccess("Generated %s (seed %d)", StyleHighlight.Render(result.Layout.Theme), result.Layout.Seed)
	printStats(result.Stats.Modules, result.Stats.Links, result.Stats.Backtracks)

	if err := writeArtifacts(result.Artifacts, opts.Formats, output); err != nil {
		return err
	}

	if result.Saved {
		printInfo("Saved as %s", StyleValue.Render(result.Layout.ID))
		printNextStep("Render it later", fmt.Sprintf("%s render %s -f svg", appName, result.Layout.ID))
	}
	return nil
}

// writeArtifacts writes rendered artifacts to files, or JSON to stdout when
// no output path is given and only one format was requested.
func writeArtifacts(artifacts map[string][]byte, formats []string, output string) error {
	if output == "" && len(formats) == 1 {
		_, err := os.Stdout.Write(artifacts[formats[0]])
		return err
	}

	base := output
	if base == "" {
		base = "dungeon"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
