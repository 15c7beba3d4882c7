// Package sqlite provides a SQLite-backed journal driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/playground/pkg/journal/sqljournal"
)

// Driver implements journal.Driver using SQLite.
type Driver struct {
	*sqljournal.Driver
}

// NewDriver opens or creates the journal database at dbPath.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent across calls
	// and serializes writers.
	db.SetMaxOpenConns(1)

	drv, err := sqljournal.New(ctx, db, sqljournal.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Driver: drv}, nil
}
