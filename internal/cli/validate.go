package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/theme"
)

// validateCommand creates the validate command for checking theme files.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <theme.toml>",
		Short: "Check a theme file for structural problems",
		Long: `Check a theme file for structural problems.

Validation covers module count bounds, category and asset identifiers,
weights, count limits, door definitions, and whether the required
categories can fit within the theme's module budget. All violations are
reported at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := theme.LoadFile(args[0])
			if err != nil {
				return err
			}

			violations := theme.Validate(th)
			if len(violations) == 0 {
				printSuccess("%s is valid", StyleHighlight.Render(th.Name))
				printDetail("%d categories, %d to %d modules",
					len(th.Categories), th.MinModules, th.MaxModules)
				return nil
			}

			printError("%s has %d problem(s)", args[0], len(violations))
			for _, v := range violations {
				printDetail("%s: %s", v.Path, v.Message)
			}
			return fmt.Errorf("theme validation failed")
		},
	}
}
