// Package tuicmder provides the tui command, a full-screen chat playground.
package tuicmder

import (
	"context"
	"fmt"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/dotdir"
	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/prefs"
)

type tuiCommander struct {
	configDir string
	debug     bool

	apiTarget       string
	userID          string
	timeout         string
	markdown        bool
	malformed       string
	persistWorkers  uint
	journalProvider string
	journalSQLite   string
	journalBolt     string
	journalPostgres string

	settings app.Settings
}

const tuiLongDesc string = `Open the full-screen chat playground.

The left sidebar lists your conversations, the middle pane shows the
selected transcript as it streams, and the right panel follows the
assistant's thought process. Type in the input box and press Enter to send.

Theme and sidebar state are saved as preferences. Changing them with
"playground prefs" from another terminal updates a running playground.

Logs go to playground.log in the .playground/ directory.

Examples:
  playground tui
  playground tui --api-target http://localhost:9000 --markdown`

const tuiShortDesc string = "Full-screen chat playground"

func NewTUICmd() *cobra.Command {
	cmder := &tuiCommander{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			var err error
			cmder.settings, err = app.Load(cmd, config.ClientFlags, config.ChatFlags, config.JournalFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagUserID, &cmder.userID)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.ChatFlags, config.FlagMarkdown, &cmder.markdown)
	config.AddStringFlag(cmd, config.ChatFlags, config.FlagMalformed, &cmder.malformed)
	config.AddUintFlag(cmd, config.ChatFlags, config.FlagPersistWorkers, &cmder.persistWorkers)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalProvider, &cmder.journalProvider)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalSQLite, &cmder.journalSQLite)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalBolt, &cmder.journalBolt)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalPostgres, &cmder.journalPostgres)

	return cmd
}

func (c *tuiCommander) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logFile, err := app.OpenLogFile(c.configDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// The alternate screen owns the terminal, so logs only go to the file.
	log := logger.Session(logFile, nil, c.debug)

	store, err := prefs.Open(dotdir.NewManager(), c.configDir)
	if err != nil {
		return fmt.Errorf("opening prefs: %w", err)
	}
	p, err := store.Load()
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, c.settings, log)
	if err != nil {
		return err
	}
	defer a.Close()

	m := newModel(ctx, a.Workspace(a.SessionOptions(nil)), store, p, c.settings.Markdown, log)
	if m.prefCh, err = store.Watch(ctx); err != nil {
		log.Warn("not following preference changes", "error", err)
	}

	program := bubbletea.NewProgram(m,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err = program.Run()
	return err
}
