package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `Print every key with its effective file value. Values equal to the
built-in default are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := openFile(cmd)
			if err != nil {
				return err
			}
			cfg, err := f.Load()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if f.Exists() {
				fmt.Fprintf(w, "Using config file: %s\n\n", f.Path())
			} else {
				fmt.Fprint(w, "No config file yet, showing defaults.\n\n")
			}

			width := 0
			for _, name := range config.KeyNames() {
				width = max(width, len(name))
			}

			defaults := config.NewDefaultConfig()
			for _, k := range config.Keys() {
				value := k.Get(cfg)
				switch {
				case value == "":
					fmt.Fprintf(w, "%-*s = <not set>\n", width, k.Name)
				case value == k.Get(defaults):
					fmt.Fprintf(w, "%-*s = %q %s\n", width, k.Name, value, cliui.DimStyle.Render("(default)"))
				default:
					fmt.Fprintf(w, "%-*s = %q\n", width, k.Name, value)
				}
			}
			return nil
		},
	}
}
