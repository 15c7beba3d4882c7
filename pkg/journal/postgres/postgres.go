// Package postgres stores the journal in PostgreSQL through pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/papercomputeco/playground/pkg/journal/sqljournal"
)

// ApplicationName tags journal sessions in pg_stat_activity.
const ApplicationName = "playground-journal"

// Driver implements journal.Driver using PostgreSQL.
type Driver struct {
	*sqljournal.Driver
}

// NewDriver connects with dsn, in keyword form
// ("host=localhost user=playground dbname=playground sslmode=disable") or as
// a postgres:// URI, and creates the journal table when missing.
func NewDriver(ctx context.Context, dsn string) (*Driver, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = ApplicationName
	}

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return open(ctx, db)
}

func open(ctx context.Context, db *sql.DB) (*Driver, error) {
	drv, err := sqljournal.New(ctx, db, sqljournal.Postgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Driver{Driver: drv}, nil
}
