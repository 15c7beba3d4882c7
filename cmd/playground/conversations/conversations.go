// Package conversationscmder provides the conversations command for managing
// the conversations stored on the chatbot.
package conversationscmder

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/dotdir"
)

const conversationsLongDesc string = `Manage the conversations stored on the chatbot.

Conversations are scoped to the configured user (client.user_id).

Use subcommands to work with conversations:
  playground conversations list                List conversations, newest first
  playground conversations new [title]         Create a conversation and make it active
  playground conversations show <id>           Print a conversation transcript
  playground conversations rename <id> <title> Change a conversation title
  playground conversations delete <id>         Delete a conversation`

const conversationsShortDesc string = "Manage chatbot conversations"

// conversationsCommander holds what every subcommand resolves in PreRunE.
type conversationsCommander struct {
	apiTarget string
	userID    string
	timeout   string
	configDir string

	settings app.Settings
	client   *chatbot.Client
}

func NewConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   conversationsShortDesc,
		Long:    conversationsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

// newCommander registers the client flags on cmd and returns the commander
// its PreRunE fills in.
func newCommander(cmd *cobra.Command) *conversationsCommander {
	c := &conversationsCommander{}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &c.apiTarget)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagUserID, &c.userID)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &c.timeout)

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		c.configDir, _ = cmd.Flags().GetString("config-dir")

		settings, err := app.Load(cmd, config.ClientFlags, config.ChatFlags)
		if err != nil {
			return err
		}
		c.settings = settings

		c.client, err = chatbot.NewClient(chatbot.Config{
			BaseURL: settings.APITarget,
			UserID:  settings.UserID,
			Timeout: settings.Timeout,
		})
		return err
	}

	return c
}

// setActive records id as the conversation `playground chat` resumes.
func (c *conversationsCommander) setActive(id, title string) error {
	return dotdir.NewManager().SaveActive(&dotdir.ActiveConversation{
		ID:     id,
		Title:  title,
		UserID: c.client.UserID(),
	}, c.configDir)
}

// clearActiveIf forgets the active conversation when it is id.
func (c *conversationsCommander) clearActiveIf(id string) error {
	m := dotdir.NewManager()
	active, err := m.LoadActive(c.configDir)
	if err != nil || active == nil || active.ID != id {
		return err
	}
	return m.ClearActive(c.configDir)
}

func printSummary(w io.Writer, s chatbot.ConversationSummary, active bool) {
	marker := " "
	if active {
		marker = cliui.SuccessMark
	}

	fmt.Fprintf(w, "  %s %s  %s  %s\n",
		marker,
		cliui.IDStyle.Render(s.ID),
		cliui.NameStyle.Render(s.Title),
		cliui.DimStyle.Render(formatUpdated(s.UpdatedAt)),
	)
}

func formatUpdated(t chatbot.Timestamp) string {
	if t == 0 {
		return ""
	}
	return t.Time().Local().Format(time.DateTime)
}
