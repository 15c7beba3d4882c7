package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every key, with dots
// turned into underscores: client.user_id is PLAYGROUND_CLIENT_USER_ID.
const EnvPrefix = "PLAYGROUND"

// NewViper layers config.toml from configDir and the PLAYGROUND_* env over
// the defaults. Flags join the chain through BindFlags, giving
// flag > env > file > default.
func NewViper(configDir string) (*viper.Viper, error) {
	f, err := OpenFile(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	registerDefaults(v)

	v.SetConfigFile(f.Path())
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func registerDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("version", d.Version)
	for _, k := range keys {
		v.SetDefault(k.Name, k.Get(d))
	}
}
