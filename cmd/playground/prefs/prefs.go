// Package prefscmder provides the prefs command for the playground's UI
// preferences. A running tui picks up changes made here.
package prefscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/dotdir"
	"github.com/papercomputeco/playground/pkg/prefs"
)

const prefsLongDesc string = `Manage UI preferences.

Preferences are stored as prefs.json in the .playground/ directory. A
running "playground tui" follows changes made from another terminal.

Keys:
  theme               dark or light
  sidebar_collapsed   true or false

Examples:
  playground prefs get
  playground prefs set theme light
  playground prefs toggle sidebar`

const prefsShortDesc string = "Manage UI preferences"

func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: prefsShortDesc,
		Long:  prefsLongDesc,
	}

	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newToggleCmd())

	return cmd
}

func openStore(cmd *cobra.Command) (*prefs.Store, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	s, err := prefs.Open(dotdir.NewManager(), configDir)
	if err != nil {
		return nil, fmt.Errorf("opening prefs: %w", err)
	}
	return s, nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return prefs.Keys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printPrefs(w io.Writer, p prefs.Prefs, keys ...string) error {
	if len(keys) == 0 {
		keys = prefs.Keys()
	}
	for _, k := range keys {
		v, err := p.Get(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-18s %s\n", cliui.KeyStyle.Render(k), cliui.ValueStyle.Render(v))
	}
	return nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get [key]",
		Short:             "Show preferences",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}

			p, err := s.Load()
			if err != nil {
				return err
			}
			return printPrefs(cmd.OutOrStdout(), p, args...)
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a preference",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}

			p, err := s.Set(args[0], args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "  %s ", cliui.SuccessMark)
			return printPrefs(w, p, args[0])
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "toggle <theme|sidebar>",
		Short:     "Flip the theme or the sidebar",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"theme", "sidebar"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}

			var (
				p   prefs.Prefs
				key string
			)
			if args[0] == "theme" {
				p, err = s.ToggleTheme()
				key = prefs.KeyTheme
			} else {
				p, err = s.ToggleSidebar()
				key = prefs.KeySidebarCollapsed
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "  %s ", cliui.SuccessMark)
			return printPrefs(w, p, key)
		},
	}
}
