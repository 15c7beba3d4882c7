package conversationscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/render"
)

const showLongDesc string = `Print the transcript of a conversation: each question, the
reasoning summary and answer of each reply, and its token usage.

Examples:
  playground conversations show 6f1c0a3e-...
  playground conversations show 6f1c0a3e-... --markdown`

const showShortDesc string = "Print a conversation transcript"

func newShowCmd() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
	}

	cmder := newCommander(cmd)
	config.AddBoolFlag(cmd, config.ChatFlags, config.FlagMarkdown, &markdown)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmder.runShow(cmd, cmd.OutOrStdout(), args[0])
	}

	return cmd
}

func (c *conversationsCommander) runShow(cmd *cobra.Command, w io.Writer, id string) error {
	detail, err := c.client.GetConversation(cmd.Context(), id)
	if err != nil {
		if chatbot.IsNotFound(err) {
			return fmt.Errorf("conversation %s not found", id)
		}
		return fmt.Errorf("loading conversation: %w", err)
	}

	fmt.Fprintf(w, "\n  %s %s %s\n\n",
		cliui.NameStyle.Render(detail.Title),
		cliui.IDStyle.Render(detail.ID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(detail.Messages))),
	)

	r := render.New(render.Options{Markdown: c.settings.Markdown})
	fmt.Fprintln(w, r.Transcript(detail.ChatMessages()))
	fmt.Fprintln(w)
	return nil
}
