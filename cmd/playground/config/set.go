package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Validate a value and write it to config.toml, creating the file if
needed. Typed keys reject values they cannot parse: durations for
client.timeout, booleans for chat.markdown, counts for persist.*, and the
listed choices for chat.malformed_policy and journal.provider.

Examples:
  playground config set client.user_id 42
  playground config set chat.malformed_policy abort
  playground config set persist.workers 4`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			if err := f.Set(args[0], args[1]); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printSource(w, f)
			fmt.Fprintf(w, "  %s Set %s = %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(args[0]),
				cliui.ValueStyle.Render(args[1]),
			)
			return nil
		},
	}
}
