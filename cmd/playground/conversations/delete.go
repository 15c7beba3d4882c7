package conversationscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
)

const deleteLongDesc string = `Delete a conversation and its stored history. If it was the
active conversation, the next "playground chat" starts a new one.

Examples:
  playground conversations delete 6f1c0a3e-...`

const deleteShortDesc string = "Delete a conversation"

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   deleteShortDesc,
		Long:    deleteLongDesc,
		Args:    cobra.ExactArgs(1),
	}

	cmder := newCommander(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmder.runDelete(cmd, cmd.OutOrStdout(), args[0])
	}

	return cmd
}

func (c *conversationsCommander) runDelete(cmd *cobra.Command, w io.Writer, id string) error {
	if err := c.client.DeleteConversation(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	if err := c.clearActiveIf(id); err != nil {
		return fmt.Errorf("clearing active conversation: %w", err)
	}

	fmt.Fprintf(w, "\n  %s Deleted %s\n\n", cliui.SuccessMark, cliui.IDStyle.Render(id))
	return nil
}
