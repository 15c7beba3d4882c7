// Package journalcmder provides the journal command for reading the local
// transcript record kept by chat and tui.
package journalcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/journal"
	"github.com/papercomputeco/playground/pkg/journal/factory"
	"github.com/papercomputeco/playground/pkg/render"
	"github.com/papercomputeco/playground/pkg/utils"
)

const journalLongDesc string = `Read the local transcript record.

Every completed exchange is journaled locally, including those of local
chats the chatbot never saw. The journal lives in the configured driver
(journal.provider): memory, sqlite, bolt or postgres. The memory journal only
lasts as long as the process that wrote it.

  playground journal list     Show journaled exchanges, newest first
  playground journal clear    Delete journaled exchanges`

const journalShortDesc string = "Read the local transcript record"

type journalCommander struct {
	provider    string
	sqlitePath  string
	boltPath    string
	postgresDSN string
	chatID      string
	limit       int

	settings app.Settings
}

func NewJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: journalShortDesc,
		Long:  journalLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

func newCommander(cmd *cobra.Command) *journalCommander {
	c := &journalCommander{}

	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalProvider, &c.provider)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalSQLite, &c.sqlitePath)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalBolt, &c.boltPath)
	config.AddStringFlag(cmd, config.JournalFlags, config.FlagJournalPostgres, &c.postgresDSN)
	cmd.Flags().StringVarP(&c.chatID, "chat", "c", "", "Only this chat")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		var err error
		c.settings, err = app.Load(cmd, config.JournalFlags)
		return err
	}

	return c
}

func (c *journalCommander) open(cmd *cobra.Command) (journal.Driver, error) {
	d, err := factory.New(cmd.Context(), c.settings.Journal)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return d, nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show journaled exchanges",
		Long: `Show journaled exchanges, newest first.

Examples:
  playground journal list --journal-provider sqlite --journal-sqlite ./journal.db
  playground journal list --chat local-2b1d... --limit 5`,
		Args: cobra.NoArgs,
	}

	cmder := newCommander(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 50, "Maximum number of entries (0 for all)")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return cmder.runList(cmd, cmd.OutOrStdout())
	}

	return cmd
}

func (c *journalCommander) runList(cmd *cobra.Command, w io.Writer) error {
	d, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.List(cmd.Context(), journal.Filter{ChatID: c.chatID, Limit: c.limit})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("The journal is empty."))
		return nil
	}

	fmt.Fprintln(w)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s %s %s\n",
			cliui.IDStyle.Render(e.ChatID),
			cliui.DimStyle.Render("("+e.Origin+")"),
			cliui.DimStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04:05")),
		)
		fmt.Fprintf(w, "    %s %s\n", cliui.UserPromptStyle.Render("you>"), utils.Truncate(e.UserMessage, 100))
		fmt.Fprintf(w, "    %s %s\n", cliui.AssistantPromptStyle.Render("assistant>"), utils.Truncate(e.AssistantContent, 100))
		if line := render.TokenMetaLine(e.Metadata); line != "" {
			fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render(line))
		}
		fmt.Fprintln(w)
	}

	return nil
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete journaled exchanges",
		Long: `Delete journaled exchanges, all of them or only those of one chat.

Examples:
  playground journal clear
  playground journal clear --chat 6f1c0a3e-...`,
		Args: cobra.NoArgs,
	}

	cmder := newCommander(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return cmder.runClear(cmd, cmd.OutOrStdout())
	}

	return cmd
}

func (c *journalCommander) runClear(cmd *cobra.Command, w io.Writer) error {
	d, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	n, err := d.Clear(cmd.Context(), c.chatID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s Deleted %d journal entries\n\n", cliui.SuccessMark, n)
	return nil
}
