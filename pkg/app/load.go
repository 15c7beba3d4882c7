package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/dotdir"
)

// LogFile is the name of the command log inside the dot dir.
const LogFile = "playground.log"

// LoadViper resolves configuration for cmd: the flags registered from sets
// override PLAYGROUND_* env vars, which override config.toml and defaults.
func LoadViper(cmd *cobra.Command, sets ...config.FlagSet) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.NewViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	for _, fs := range sets {
		config.BindFlags(v, cmd, fs)
	}

	return v, nil
}

// Load is LoadViper followed by SettingsFromViper.
func Load(cmd *cobra.Command, sets ...config.FlagSet) (Settings, error) {
	v, err := LoadViper(cmd, sets...)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFromViper(v)
}

// OpenLogFile opens the append-only command log in the dot dir.
func OpenLogFile(configDir string) (*os.File, error) {
	path, err := dotdir.NewManager().File(configDir, LogFile)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
