package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Print the value of one key from config.toml, or its default when the
file does not set it.

Example:
  playground config get journal.provider`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeKey(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			value, err := f.Get(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printSource(w, f)
			shown := cliui.ValueStyle.Render(value)
			if value == "" {
				shown = cliui.DimStyle.Render("<not set>")
			}
			fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render(args[0]), shown)
			return nil
		},
	}
}
