package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/playground/pkg/dotdir"
)

const (
	// FileName is the config file inside the state directory.
	FileName = "config.toml"

	// CurrentV is the only config layout understood so far.
	CurrentV = 0
)

// File is config.toml in a resolved state directory. The file itself need
// not exist; reads then yield the defaults and the first write creates it.
type File struct {
	path string
}

// OpenFile locates config.toml for configDir (see dotdir.Manager.Target).
func OpenFile(configDir string) (*File, error) {
	path, err := dotdir.NewManager().File(configDir, FileName)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	return &File{path: path}, nil
}

// Path is the absolute location of config.toml.
func (f *File) Path() string { return f.path }

// Exists reports whether config.toml has been written.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads the file over the defaults, so keys missing from the file keep
// their default values.
func (f *File) Load() (*Config, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Save writes cfg as TOML, owner-readable only.
func (f *File) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(f.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Get returns the current value of the named key.
func (f *File) Get(name string) (string, error) {
	k, err := LookupKey(name)
	if err != nil {
		return "", err
	}
	cfg, err := f.Load()
	if err != nil {
		return "", err
	}
	return k.Get(cfg), nil
}

// Set validates value for the named key and rewrites the file with it.
func (f *File) Set(name, value string) error {
	k, err := LookupKey(name)
	if err != nil {
		return err
	}
	cfg, err := f.Load()
	if err != nil {
		return err
	}
	if err := k.Set(cfg, value); err != nil {
		return err
	}
	return f.Save(cfg)
}

// Parse decodes config.toml contents on top of NewDefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	return cfg, nil
}
