package conversationscmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/cliui"
)

const newLongDesc string = `Create a conversation and make it the active one, so the next
"playground chat" continues it. The title defaults to "New Chat" and is
replaced by the first message when left at the default.

Examples:
  playground conversations new
  playground conversations new "Quarterly numbers"`

const newShortDesc string = "Create a conversation"

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: newShortDesc,
		Long:  newLongDesc,
		Args:  cobra.MaximumNArgs(1),
	}

	cmder := newCommander(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		title := chatbot.DefaultTitle
		if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
			title = strings.TrimSpace(args[0])
		}
		return cmder.runNew(cmd, cmd.OutOrStdout(), title)
	}

	return cmd
}

func (c *conversationsCommander) runNew(cmd *cobra.Command, w io.Writer, title string) error {
	conv, err := c.client.CreateConversation(cmd.Context(), title)
	if err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}

	if err := c.setActive(conv.ID, conv.Title); err != nil {
		return fmt.Errorf("saving active conversation: %w", err)
	}

	fmt.Fprintf(w, "\n  %s Created %s %s\n\n",
		cliui.SuccessMark,
		cliui.IDStyle.Render(conv.ID),
		cliui.NameStyle.Render(conv.Title),
	)
	return nil
}
