// Package app wires the chatbot client, the persistence pool and the journal
// into the pieces the playground commands run on.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/playground/pkg/assembler"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/journal"
	"github.com/papercomputeco/playground/pkg/journal/factory"
	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/persist"
	"github.com/papercomputeco/playground/pkg/session"
)

// Settings is the resolved configuration of one command invocation.
type Settings struct {
	APITarget string
	UserID    string
	Timeout   time.Duration

	Markdown bool
	Policy   assembler.MalformedPolicy

	PersistWorkers uint
	QueueSize      uint

	Journal factory.Config
}

// SettingsFromViper reads Settings from v after flags, env and config.toml
// have been layered into it.
func SettingsFromViper(v *viper.Viper) (Settings, error) {
	timeout, err := time.ParseDuration(v.GetString("client.timeout"))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid client.timeout: %w", err)
	}

	policy, err := assembler.ParseMalformedPolicy(v.GetString("chat.malformed_policy"))
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		APITarget:      v.GetString("client.api_target"),
		UserID:         v.GetString("client.user_id"),
		Timeout:        timeout,
		Markdown:       v.GetBool("chat.markdown"),
		Policy:         policy,
		PersistWorkers: v.GetUint("persist.workers"),
		QueueSize:      v.GetUint("persist.queue_size"),
		Journal: factory.Config{
			Provider:    v.GetString("journal.provider"),
			SQLitePath:  v.GetString("journal.sqlite_path"),
			BoltPath:    v.GetString("journal.bolt_path"),
			PostgresDSN: v.GetString("journal.postgres_dsn"),
		},
	}, nil
}

// App owns the long-lived collaborators of a command.
type App struct {
	Settings Settings
	Client   *chatbot.Client
	Journal  journal.Driver
	Pool     *persist.Pool

	logger *slog.Logger
}

// Open builds the client, opens the journal and starts the pool.
func Open(ctx context.Context, s Settings, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	client, err := chatbot.NewClient(chatbot.Config{
		BaseURL: s.APITarget,
		UserID:  s.UserID,
		Timeout: s.Timeout,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	j, err := factory.New(ctx, s.Journal)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	pool, err := persist.NewPool(&persist.Config{
		Backend:    client,
		Journal:    j,
		NumWorkers: s.PersistWorkers,
		QueueSize:  s.QueueSize,
		Logger:     log,
	})
	if err != nil {
		j.Close()
		return nil, err
	}

	log.Debug("playground ready",
		"api_target", client.BaseURL(),
		"user_id", client.UserID(),
		"journal", s.Journal.Provider,
	)

	return &App{
		Settings: s,
		Client:   client,
		Journal:  j,
		Pool:     pool,
		logger:   log,
	}, nil
}

// SessionOptions returns the options every session of this app shares.
// recorder, when set, receives a copy of every raw reply stream.
func (a *App) SessionOptions(recorder io.Writer) session.Options {
	return session.Options{
		Logger:   a.logger,
		Persist:  a.Pool,
		Policy:   a.Settings.Policy,
		Recorder: recorder,
	}
}

// Workspace returns a workspace over the app's client.
func (a *App) Workspace(opts session.Options) *session.Workspace {
	return session.NewWorkspace(a.Client, opts)
}

// Close drains the pool, then closes the journal.
func (a *App) Close() error {
	a.Pool.Close()
	return a.Journal.Close()
}
