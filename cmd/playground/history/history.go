// Package historycmder provides the history command for inspecting the
// exchanges the chatbot has stored for a user.
package historycmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/utils"
)

const historyLongDesc string = `Inspect the exchanges stored on the chatbot for the configured user.

Every saved question and answer is also kept in a flat history, across
conversations. Use subcommands to read or clear it:
  playground history list     Show stored exchanges, newest first
  playground history clear    Delete stored exchanges`

const historyShortDesc string = "Inspect stored chatbot history"

type historyCommander struct {
	apiTarget      string
	userID         string
	timeout        string
	conversationID string
	limit          int

	client *chatbot.Client
}

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

func newCommander(cmd *cobra.Command) *historyCommander {
	c := &historyCommander{}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &c.apiTarget)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagUserID, &c.userID)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &c.timeout)
	cmd.Flags().StringVarP(&c.conversationID, "conversation", "c", "", "Only this conversation")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		settings, err := app.Load(cmd, config.ClientFlags)
		if err != nil {
			return err
		}

		c.client, err = chatbot.NewClient(chatbot.Config{
			BaseURL: settings.APITarget,
			UserID:  settings.UserID,
			Timeout: settings.Timeout,
		})
		return err
	}

	return c
}

const listLongDesc string = `Show stored exchanges, newest first.

The limit is clamped to 1..500.

Examples:
  playground history list
  playground history list --conversation 6f1c0a3e-... --limit 10`

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored exchanges",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
	}

	cmder := newCommander(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", chatbot.DefaultHistoryLimit, "Maximum number of exchanges")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return cmder.runList(cmd, cmd.OutOrStdout())
	}

	return cmd
}

func (c *historyCommander) runList(cmd *cobra.Command, w io.Writer) error {
	entries, err := c.client.History(cmd.Context(), c.conversationID, c.limit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No stored exchanges."))
		return nil
	}

	fmt.Fprintln(w)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("#%d", e.ID)),
			cliui.IDStyle.Render(e.ConversationID),
			cliui.DimStyle.Render(e.CreatedAt.Time().Local().Format("2006-01-02 15:04:05")),
		)
		fmt.Fprintf(w, "    %s %s\n", cliui.UserPromptStyle.Render("you>"), utils.Truncate(e.UserMessage, 100))
		fmt.Fprintf(w, "    %s %s\n\n", cliui.AssistantPromptStyle.Render("assistant>"), utils.Truncate(e.AssistantContent, 100))
	}

	return nil
}

const clearLongDesc string = `Delete stored exchanges for the configured user, or only those of
one conversation. Conversations themselves are kept.

Examples:
  playground history clear
  playground history clear --conversation 6f1c0a3e-...`

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored exchanges",
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
	}

	cmder := newCommander(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return cmder.runClear(cmd, cmd.OutOrStdout())
	}

	return cmd
}

func (c *historyCommander) runClear(cmd *cobra.Command, w io.Writer) error {
	n, err := c.client.ClearHistory(cmd.Context(), c.conversationID)
	if err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	fmt.Fprintf(w, "\n  %s Deleted %d stored exchanges\n\n", cliui.SuccessMark, n)
	return nil
}
