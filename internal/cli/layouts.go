package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/layout"
)

// layoutsCommand creates the layouts command group for browsing the store.
func (c *CLI) layoutsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Browse stored layouts",
	}
	cmd.AddCommand(c.layoutsListCommand())
	cmd.AddCommand(c.layoutsShowCommand())
	cmd.AddCommand(c.layoutsDeleteCommand())
	return cmd
}

func (c *CLI) layoutsListCommand() *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored layouts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sf.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No stored layouts")
				printNextStep("Generate one", fmt.Sprintf("%s generate --save", appName))
				return nil
			}

			for _, info := range infos {
				fmt.Println(StyleValue.Render(info.ID))
				printDetail("%s · %d modules · seed %d · %s",
					info.Theme, info.Modules, info.Seed,
					info.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func (c *CLI) layoutsShowCommand() *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "show <layout-id>",
		Short: "Print a stored layout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sf.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			l, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return layout.Write(l, os.Stdout)
		},
	}
	sf.register(cmd)
	return cmd
}

func (c *CLI) layoutsDeleteCommand() *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "delete <layout-id>",
		Short: "Delete a stored layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sf.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}
