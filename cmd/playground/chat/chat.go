// Package chatcmder provides the chat command, a line-mode client that
// streams chatbot replies to the terminal as they arrive.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/dotdir"
	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/render"
	"github.com/papercomputeco/playground/pkg/session"
	"github.com/papercomputeco/playground/pkg/utils"
)

var (
	userPrompt      = cliui.UserPromptStyle.Render("you> ")
	assistantPrompt = cliui.AssistantPromptStyle.Render("assistant> ")
)

type chatCommander struct {
	conversationID string
	fresh          bool
	record         string
	configDir      string
	debug          bool

	// flag targets, resolved through viper into settings
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
	logger   *slog.Logger
}

const chatLongDesc string = `Start an interactive line-mode chat with the chatbot.

Replies are streamed as they arrive: the reasoning trace first, dimmed,
then the answer, then a line with the model and token usage.

Without --conversation the active conversation is resumed when it belongs
to the configured user, otherwise a new one is created. When the chatbot
cannot create a conversation the chat continues as a local chat that is
only kept in the journal.

Type /new to start another conversation and /exit (or Ctrl+D) to quit.

Examples:
  playground chat
  playground chat --new
  playground chat --conversation 6f1c0a3e-...
  playground chat --record ./stream.txt
  playground chat --api-target http://localhost:9000 --markdown`

const chatShortDesc string = "Interactive streaming chat"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
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

			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
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

	cmd.Flags().StringVarP(&cmder.conversationID, "conversation", "c", "", "Conversation ID to resume")
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a new conversation instead of resuming the active one")
	cmd.Flags().StringVar(&cmder.record, "record", "", "Append every raw reply stream to this file")
	cmd.MarkFlagsMutuallyExclusive("conversation", "new")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	logFile, err := app.OpenLogFile(c.configDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	var console io.Writer
	if c.debug {
		console = errOut
	}
	c.logger = logger.Session(logFile, console, c.debug)

	var recorder io.Writer
	if c.record != "" {
		f, err := os.OpenFile(c.record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening recording: %w", err)
		}
		defer f.Close()
		recorder = f
	}

	a, err := app.Open(ctx, c.settings, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	p := &printer{w: out}
	opts := a.SessionOptions(recorder)
	opts.Observer = p.observe
	ws := a.Workspace(opts)

	fmt.Fprintln(out)
	var s *session.Session
	err = cliui.Step(out, "Connecting to "+a.Client.BaseURL(), func() error {
		var err error
		s, err = c.open(ctx, a.Client, ws)
		return err
	})
	if err != nil {
		return err
	}
	c.announce(out, s)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(out)
			return nil
		case "/new":
			s = ws.NewChat(ctx)
			c.announce(out, s)
			continue
		}

		p.reset()
		outcome, err := s.Send(ctx, input)
		if err != nil {
			fmt.Fprintf(errOut, "  %s %v\n", cliui.FailMark, err)
			continue
		}
		p.finish()

		c.report(out, s, outcome)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

// open resolves the conversation to talk in: --conversation, then the
// active conversation of this user, then a new one.
func (c *chatCommander) open(ctx context.Context, client *chatbot.Client, ws *session.Workspace) (*session.Session, error) {
	if c.conversationID != "" {
		if _, err := client.GetConversation(ctx, c.conversationID); err != nil {
			if chatbot.IsNotFound(err) {
				return nil, fmt.Errorf("conversation %s not found", c.conversationID)
			}
			return nil, fmt.Errorf("loading conversation: %w", err)
		}
		return ws.Select(ctx, c.conversationID), nil
	}

	if !c.fresh {
		active, err := dotdir.NewManager().LoadActive(c.configDir)
		if err != nil {
			c.logger.Warn("failed to load active conversation", "error", err)
		}
		if active != nil && active.UserID == c.settings.UserID {
			if _, err := client.GetConversation(ctx, active.ID); err == nil {
				return ws.Select(ctx, active.ID), nil
			}
			c.logger.Info("active conversation is gone, starting a new one", "chat_id", active.ID)
		}
	}

	return ws.NewChat(ctx), nil
}

func (c *chatCommander) announce(w io.Writer, s *session.Session) {
	chat := s.Chat()
	n := len(s.Store().Snapshot())

	if chat.IsLocal() {
		fmt.Fprintf(w, "  %s %s\n", cliui.WarnStyle.Render("●"),
			cliui.DimStyle.Render("The chatbot is unreachable; this chat is only kept in the local journal"))
	} else {
		c.saveActive(s)
		if n > 0 {
			fmt.Fprintf(w, "  %s Resuming %s %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(chat.Title),
				cliui.IDStyle.Render(utils.Truncate(chat.ID, 12)),
				cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", n)),
			)
		} else {
			fmt.Fprintf(w, "  %s New conversation %s\n", cliui.DimStyle.Render("●"), cliui.IDStyle.Render(chat.ID))
		}
	}

	fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new starts over, /exit or Ctrl+D quits."))
}

func (c *chatCommander) report(w io.Writer, s *session.Session, outcome *session.Outcome) {
	if outcome.Err != nil {
		msgs := s.Store().Snapshot()
		fmt.Fprintf(w, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(msgs[len(msgs)-1].Content))
		return
	}

	if c.settings.Markdown && isTerminal(w) {
		if rendered, err := cliui.RenderMarkdown(outcome.Result.Content); err == nil {
			fmt.Fprint(w, rendered)
		} else {
			c.logger.Debug("markdown render failed", "error", err)
		}
	}

	if meta := render.TokenMetaLine(outcome.Result.Metadata); meta != "" {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(meta))
	}
	fmt.Fprintln(w)

	if outcome.FirstMessage && !s.Chat().IsLocal() {
		c.saveActive(s)
	}
}

func (c *chatCommander) saveActive(s *session.Session) {
	chat := s.Chat()
	err := dotdir.NewManager().SaveActive(&dotdir.ActiveConversation{
		ID:     chat.ID,
		Title:  chat.Title,
		UserID: c.settings.UserID,
	}, c.configDir)
	if err != nil {
		c.logger.Warn("failed to save active conversation", "error", err)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
