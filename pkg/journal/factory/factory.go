// Package factory opens the journal driver named in configuration.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/playground/pkg/journal"
	"github.com/papercomputeco/playground/pkg/journal/bolt"
	"github.com/papercomputeco/playground/pkg/journal/inmemory"
	"github.com/papercomputeco/playground/pkg/journal/postgres"
	"github.com/papercomputeco/playground/pkg/journal/sqlite"
)

// Supported providers.
const (
	ProviderMemory   = "memory"
	ProviderSQLite   = "sqlite"
	ProviderBolt     = "bolt"
	ProviderPostgres = "postgres"
)

// Config selects and configures a journal driver.
type Config struct {
	Provider    string
	SQLitePath  string
	BoltPath    string
	PostgresDSN string
}

// Providers lists the accepted provider names.
func Providers() []string {
	return []string{ProviderMemory, ProviderSQLite, ProviderBolt, ProviderPostgres}
}

// New opens the configured driver. An empty provider selects memory.
func New(ctx context.Context, c Config) (journal.Driver, error) {
	switch strings.ToLower(c.Provider) {
	case "", ProviderMemory:
		return inmemory.NewDriver(), nil

	case ProviderSQLite:
		if c.SQLitePath == "" {
			return nil, fmt.Errorf("journal provider %q requires journal.sqlite_path", ProviderSQLite)
		}
		return sqlite.NewDriver(ctx, c.SQLitePath)

	case ProviderBolt:
		if c.BoltPath == "" {
			return nil, fmt.Errorf("journal provider %q requires journal.bolt_path", ProviderBolt)
		}
		return bolt.NewDriver(c.BoltPath)

	case ProviderPostgres:
		if c.PostgresDSN == "" {
			return nil, fmt.Errorf("journal provider %q requires journal.postgres_dsn", ProviderPostgres)
		}
		return postgres.NewDriver(ctx, c.PostgresDSN)

	default:
		return nil, fmt.Errorf("unknown journal provider %q (available: %s)", c.Provider, strings.Join(Providers(), ", "))
	}
}
