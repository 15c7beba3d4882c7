// Package playgroundcmder
package playgroundcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/playground/cmd/playground/chat"
	configcmder "github.com/papercomputeco/playground/cmd/playground/config"
	conversationscmder "github.com/papercomputeco/playground/cmd/playground/conversations"
	devservercmder "github.com/papercomputeco/playground/cmd/playground/devserver"
	historycmder "github.com/papercomputeco/playground/cmd/playground/history"
	journalcmder "github.com/papercomputeco/playground/cmd/playground/journal"
	prefscmder "github.com/papercomputeco/playground/cmd/playground/prefs"
	tuicmder "github.com/papercomputeco/playground/cmd/playground/tui"
	versioncmder "github.com/papercomputeco/playground/cmd/version"
)

const playgroundLongDesc string = `Playground is a terminal front-end for the chatbot.

Talk to the chatbot from the terminal, watching its reasoning and answer
stream in as they are produced:
  playground chat            Line-mode chat
  playground tui             Full-screen playground
  playground devserver       Scripted local backend for offline use

Manage stored state:
  playground conversations   List, open, rename and delete conversations
  playground history         Inspect stored exchanges on the chatbot
  playground journal         Inspect the local transcript record
  playground prefs           UI preferences
  playground config          Persistent configuration`

const playgroundShortDesc string = "Playground - chatbot terminal front-end"

func NewPlaygroundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "playground",
		Short:        playgroundShortDesc,
		Long:         playgroundLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .playground/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(conversationscmder.NewConversationsCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(journalcmder.NewJournalCmd())
	cmd.AddCommand(prefscmder.NewPrefsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(devservercmder.NewDevserverCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
