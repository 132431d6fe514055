package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/layout"
	"github.com/modulab/dungen/pkg/pipeline"
)

// renderCommand creates the render command for producing output from an
// existing layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		detailed   bool
		sf         storeFlags
	)

	cmd := &cobra.Command{
		Use:   "render <layout.json | layout-id>",
		Short: "Render output from an exported or stored layout",
		Long: `Render output from an exported or stored layout.

The argument is either a layout JSON file (produced by 'generate') or the
ID of a stored layout. The layout contains all placement information, so
no regeneration happens here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], formats, output, detailed, sf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "svg", "output format(s): json, dot, svg, png (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include categories and poses in DOT labels")
	sf.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, formats []string, output string, detailed bool, sf storeFlags) error {
	l, err := c.loadLayout(ctx, input, sf)
	if err != nil {
		return err
	}

	runner := c.newRunner(nil)
	opts := pipeline.Options{Detailed: detailed}

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		data, err := runner.Render(ctx, l, format, opts)
		if err != nil {
			return err
		}
		artifacts[format] = data
	}

	printSuccess("Rendered %s (%d modules)", StyleHighlight.Render(l.Theme), len(l.Modules))
	return writeArtifacts(artifacts, formats, output)
}

// loadLayout resolves the argument as a file path first and falls back to a
// store lookup by ID.
func (c *CLI) loadLayout(ctx context.Context, input string, sf storeFlags) (*layout.Layout, error) {
	if _, err := os.Stat(input); err == nil {
		return layout.ReadFile(input)
	}

	st, err := sf.open(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Get(ctx, input)
}
