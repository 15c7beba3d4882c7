package conversationscmder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
)

const renameLongDesc string = `Change the title of a conversation.

Examples:
  playground conversations rename 6f1c0a3e-... "Quarterly numbers"`

const renameShortDesc string = "Rename a conversation"

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: renameShortDesc,
		Long:  renameLongDesc,
		Args:  cobra.ExactArgs(2),
	}

	cmder := newCommander(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmder.runRename(cmd, cmd.OutOrStdout(), args[0], args[1])
	}

	return cmd
}

func (c *conversationsCommander) runRename(cmd *cobra.Command, w io.Writer, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title cannot be empty")
	}

	if err := c.client.UpdateTitle(cmd.Context(), id, title); err != nil {
		return fmt.Errorf("renaming conversation: %w", err)
	}

	fmt.Fprintf(w, "\n  %s Renamed %s to %s\n\n",
		cliui.SuccessMark,
		cliui.IDStyle.Render(id),
		cliui.NameStyle.Render(title),
	)
	return nil
}
