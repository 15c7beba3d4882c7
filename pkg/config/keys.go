package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Key is one dotted config.toml setting, e.g. "client.api_target".
type Key struct {
	Name string

	// Choices, when set, is the closed list of accepted values.
	Choices []string

	get func(*Config) string
	set func(*Config, string) error
}

// Get returns the value of k in cfg as a string. Unset strings and zero
// counts read as "".
func (k Key) Get(cfg *Config) string { return k.get(cfg) }

// Set parses value and stores it in cfg.
func (k Key) Set(cfg *Config, value string) error {
	if len(k.Choices) > 0 && !slices.Contains(k.Choices, value) {
		return fmt.Errorf("invalid value for %s: %q (available: %s)", k.Name, value, strings.Join(k.Choices, ", "))
	}
	return k.set(cfg, value)
}

func stringKey(name string, field func(*Config) *string, choices ...string) Key {
	return Key{
		Name:    name,
		Choices: choices,
		get:     func(c *Config) string { return *field(c) },
		set:     func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func durationKey(name string, field func(*Config) *string) Key {
	k := stringKey(name, field)
	k.set = func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		*field(c) = v
		return nil
	}
	return k
}

func boolKey(name string, field func(*Config) *bool) Key {
	return Key{
		Name: name,
		get:  func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func uintKey(name string, field func(*Config) *uint) Key {
	return Key{
		Name: name,
		get: func(c *Config) string {
			if n := *field(c); n != 0 {
				return strconv.FormatUint(uint64(n), 10)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 0)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// keys is kept in config.toml section order.
var keys = []Key{
	stringKey("client.api_target", func(c *Config) *string { return &c.Client.APITarget }),
	stringKey("client.user_id", func(c *Config) *string { return &c.Client.UserID }),
	durationKey("client.timeout", func(c *Config) *string { return &c.Client.Timeout }),

	boolKey("chat.markdown", func(c *Config) *bool { return &c.Chat.Markdown }),
	stringKey("chat.malformed_policy", func(c *Config) *string { return &c.Chat.MalformedPolicy }, "skip", "abort"),

	uintKey("persist.workers", func(c *Config) *uint { return &c.Persist.Workers }),
	uintKey("persist.queue_size", func(c *Config) *uint { return &c.Persist.QueueSize }),

	stringKey("journal.provider", func(c *Config) *string { return &c.Journal.Provider }, "memory", "sqlite", "bolt", "postgres"),
	stringKey("journal.sqlite_path", func(c *Config) *string { return &c.Journal.SQLitePath }),
	stringKey("journal.bolt_path", func(c *Config) *string { return &c.Journal.BoltPath }),
	stringKey("journal.postgres_dsn", func(c *Config) *string { return &c.Journal.PostgresDSN }),

	stringKey("devserver.listen", func(c *Config) *string { return &c.Devserver.Listen }),
}

// Keys returns every supported key in section order.
func Keys() []Key {
	return slices.Clone(keys)
}

// KeyNames returns the names of Keys.
func KeyNames() []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}
	return names
}

// LookupKey finds a key by name. Unknown names produce an error listing the
// valid ones.
func LookupKey(name string) (Key, error) {
	for _, k := range keys {
		if k.Name == name {
			return k, nil
		}
	}
	return Key{}, fmt.Errorf("unknown config key: %q\n\nValid keys: %s", name, strings.Join(KeyNames(), ", "))
}
