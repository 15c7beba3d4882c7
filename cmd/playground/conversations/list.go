package conversationscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/dotdir"
)

const listLongDesc string = `List the conversations of the configured user, most recently
updated first. The active conversation is marked.

Examples:
  playground conversations list
  playground conversations list --user 42`

const listShortDesc string = "List conversations"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
	}

	cmder := newCommander(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return cmder.runList(cmd, cmd.OutOrStdout())
	}

	return cmd
}

func (c *conversationsCommander) runList(cmd *cobra.Command, w io.Writer) error {
	convs, err := c.client.ListConversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	if len(convs) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No conversations yet. Start one with \"playground chat\"."))
		return nil
	}

	active, _ := dotdir.NewManager().LoadActive(c.configDir)

	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Conversations"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d)", len(convs))),
	)
	for _, s := range convs {
		printSummary(w, s, active != nil && active.ID == s.ID && active.UserID == c.client.UserID())
	}
	fmt.Fprintln(w)

	return nil
}
