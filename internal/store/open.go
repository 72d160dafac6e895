package store

import (
	"context"
	"fmt"
)

// Drivers understood by Open.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open returns the store for driver. Postgres drivers require a dsn.
func Open(ctx context.Context, driver, dsn string) (RecordStore, error) {
	switch driver {
	case DriverPgx:
		return NewPgxStore(ctx, dsn)
	case DriverPostgres:
		return OpenSQLStore(ctx, dsn)
	case DriverMemory, "":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
