package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LedgerSync/internal/ledger"
)

// ErrNotFound is returned by Get when no row exists for the code.
var ErrNotFound = errors.New("account not found")

// Entry is a persisted account row.
type Entry struct {
	ledger.Record
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordStore persists account records keyed by account code. Implementations
// make a single Upsert atomic per key and are safe for concurrent use.
type RecordStore interface {
	// Upsert creates the row for rec.AccountCode or overwrites its name and
	// amounts, refreshing the modification time.
	Upsert(ctx context.Context, rec ledger.Record) error
	// All returns every record ordered by account code.
	All(ctx context.Context) ([]ledger.Record, error)
	// Get returns the stored row for code.
	Get(ctx context.Context, code string) (Entry, error)
	// Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error
	Close()
}

// Error reports a persistence failure.
type Error struct {
	Op   string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store %s failed (sqlstate %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns a caller friendly description of the failure.
func (e *Error) Message() string {
	switch e.Code {
	case "":
		return "Database error while processing the request. Please try again."
	case "23505":
		return "A record with the same account code already exists."
	case "23514", "22P02", "22003":
		return "Some fields have invalid values. Please check and try again."
	case "42P01":
		return "The ledger table does not exist. Run the schema migration."
	}
	if len(e.Code) >= 2 && e.Code[:2] == "08" {
		return "Could not connect to the database."
	}
	return "Database error while processing the request. Please try again."
}
