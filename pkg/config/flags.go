package config

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag describes a command-line flag that overrides a config key. chat, tui,
// conversations and history all register --api-target from the same entry.
type Flag struct {
	Name      string
	Shorthand string

	// ViperKey is the dotted config key, e.g. "client.api_target". Its
	// default becomes the flag default and its Choices feed completion.
	ViperKey string

	Description string
}

// FlagSet groups flags by registry key.
type FlagSet map[string]Flag

// Registry keys.
const (
	FlagAPITarget       = "api-target"
	FlagUserID          = "user"
	FlagTimeout         = "timeout"
	FlagMarkdown        = "markdown"
	FlagMalformed       = "malformed"
	FlagPersistWorkers  = "persist-workers"
	FlagJournalProvider = "journal-provider"
	FlagJournalSQLite   = "journal-sqlite"
	FlagJournalBolt     = "journal-bolt"
	FlagJournalPostgres = "journal-postgres"
	FlagDevserverListen = "listen"
)

// ClientFlags is the registry shared by every command that reaches the
// chatbot backend.
var ClientFlags = FlagSet{
	FlagAPITarget: {
		Name:        "api-target",
		Shorthand:   "t",
		ViperKey:    "client.api_target",
		Description: "Chatbot backend URL",
	},
	FlagUserID: {
		Name:        "user",
		ViperKey:    "client.user_id",
		Description: "User ID conversations are scoped to",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "client.timeout",
		Description: "Timeout for non-streaming requests",
	},
}

// ChatFlags is the registry for the chat and tui commands.
var ChatFlags = FlagSet{
	FlagMarkdown: {
		Name:        "markdown",
		ViperKey:    "chat.markdown",
		Description: "Render finished replies as markdown",
	},
	FlagMalformed: {
		Name:        "malformed",
		ViperKey:    "chat.malformed_policy",
		Description: "What to do with undecodable stream lines (skip, abort)",
	},
	FlagPersistWorkers: {
		Name:        "persist-workers",
		ViperKey:    "persist.workers",
		Description: "Number of background workers for save and title calls",
	},
}

// JournalFlags is the registry for commands that open the local journal.
var JournalFlags = FlagSet{
	FlagJournalProvider: {
		Name:        "journal-provider",
		ViperKey:    "journal.provider",
		Description: "Journal driver (memory, sqlite, bolt, postgres)",
	},
	FlagJournalSQLite: {
		Name:        "journal-sqlite",
		ViperKey:    "journal.sqlite_path",
		Description: "Path to the SQLite journal database",
	},
	FlagJournalBolt: {
		Name:        "journal-bolt",
		ViperKey:    "journal.bolt_path",
		Description: "Path to the bbolt journal file",
	},
	FlagJournalPostgres: {
		Name:        "journal-postgres",
		ViperKey:    "journal.postgres_dsn",
		Description: "PostgreSQL connection string for the journal",
	},
}

// DevserverFlags is the registry for the devserver command.
var DevserverFlags = FlagSet{
	FlagDevserverListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "devserver.listen",
		Description: "Address for the scripted backend to listen on",
	},
}

// AddStringFlag registers the string flag fs[key] on cmd, bound to target.
// Unknown keys are ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	if f, ok := fs[key]; ok {
		cmd.Flags().StringVarP(target, f.Name, f.Shorthand, defaults().GetString(f.ViperKey), f.Description)
		completeChoices(cmd, f)
	}
}

// AddUintFlag registers the uint flag fs[key] on cmd, bound to target.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	if f, ok := fs[key]; ok {
		cmd.Flags().UintVarP(target, f.Name, f.Shorthand, defaults().GetUint(f.ViperKey), f.Description)
	}
}

// AddBoolFlag registers the bool flag fs[key] on cmd, bound to target.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	if f, ok := fs[key]; ok {
		cmd.Flags().BoolVarP(target, f.Name, f.Shorthand, defaults().GetBool(f.ViperKey), f.Description)
	}
}

// BindFlags connects every flag of fs that cmd registered to its config key
// in v. Flags cmd does not carry are skipped.
func BindFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet) {
	for _, f := range fs {
		if pf := cmd.Flags().Lookup(f.Name); pf != nil {
			_ = v.BindPFlag(f.ViperKey, pf)
		}
	}
}

func completeChoices(cmd *cobra.Command, f Flag) {
	k, err := LookupKey(f.ViperKey)
	if err != nil || len(k.Choices) == 0 {
		return
	}
	_ = cmd.RegisterFlagCompletionFunc(f.Name, cobra.FixedCompletions(k.Choices, cobra.ShellCompDirectiveNoFileComp))
}

// defaults holds only the built-in values, for flag defaults.
var defaults = sync.OnceValue(func() *viper.Viper {
	v := viper.New()
	registerDefaults(v)
	return v
})
