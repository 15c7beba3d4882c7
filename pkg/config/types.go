package config

import (
	"fmt"
	"time"
)

// Config represents the persistent playground configuration stored as
// config.toml in the .playground/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Client    ClientConfig    `toml:"client"`
	Chat      ChatConfig      `toml:"chat"`
	Persist   PersistConfig   `toml:"persist"`
	Journal   JournalConfig   `toml:"journal"`
	Devserver DevserverConfig `toml:"devserver"`
}

// ClientConfig holds settings for commands that talk to the chatbot backend.
// APITarget is a full URL (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	UserID    string `toml:"user_id,omitempty"`

	// Timeout bounds non-streaming requests, e.g. "30s". Streams are unbounded.
	Timeout string `toml:"timeout,omitempty"`
}

// ChatConfig holds settings for how replies are assembled and shown.
type ChatConfig struct {
	Markdown        bool   `toml:"markdown,omitempty"`
	MalformedPolicy string `toml:"malformed_policy,omitempty"`
}

// PersistConfig sizes the background side-call pool.
type PersistConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// JournalConfig selects the local transcript driver.
type JournalConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	BoltPath    string `toml:"bolt_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// DevserverConfig holds settings for the scripted local backend.
type DevserverConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientTimeout parses Client.Timeout. An empty value yields the default.
func (c *Config) ClientTimeout() (time.Duration, error) {
	if c.Client.Timeout == "" {
		return time.ParseDuration(defaultClientTimeout)
	}
	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for client.timeout: %w", err)
	}
	return d, nil
}
