// Package configcmder implements `playground config`, which reads and edits
// config.toml in the state directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
)

const configLongDesc string = `Manage persistent playground configuration.

Values live in config.toml in the state directory and become the defaults of
command flags. Flags and PLAYGROUND_* environment variables still win, e.g.
PLAYGROUND_CLIENT_USER_ID overrides client.user_id.

Keys are dotted section names:
  client.api_target, client.user_id, client.timeout,
  chat.markdown, chat.malformed_policy,
  persist.workers, persist.queue_size,
  journal.provider, journal.sqlite_path, journal.bolt_path,
  journal.postgres_dsn,
  devserver.listen

Examples:
  playground config set client.api_target http://localhost:8000
  playground config set journal.provider sqlite
  playground config get chat.malformed_policy
  playground config list`

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent playground configuration",
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd(), newGetCmd(), newListCmd())
	return cmd
}

func openFile(cmd *cobra.Command) (*config.File, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	f, err := config.OpenFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return f, nil
}

// printSource tells the user which file the values come from.
func printSource(w io.Writer, f *config.File) {
	if f.Exists() {
		fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(f.Path()))
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file yet, showing defaults."))
}

// completeKey completes the key name, then its fixed choices if it has any.
func completeKey(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return config.KeyNames(), cobra.ShellCompDirectiveNoFileComp
	case 1:
		if k, err := config.LookupKey(args[0]); err == nil {
			return k.Choices, cobra.ShellCompDirectiveNoFileComp
		}
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
