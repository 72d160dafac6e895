package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"LedgerSync/internal/ledger"

	"github.com/lib/pq"
)

// SQLStore keeps records in Postgres through database/sql and lib/pq.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens dsn with the lib/pq driver and makes sure the table exists.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an already opened database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the ledger table when it is missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return pqError("migrate", err)
	}
	return nil
}

func (s *SQLStore) Upsert(ctx context.Context, rec ledger.Record) error {
	_, err := s.db.ExecContext(ctx, upsertSQL, rec.AccountCode, rec.AccountName, rec.Debit.String(), rec.Credit.String())
	if err != nil {
		return pqError("upsert "+rec.AccountCode, err)
	}
	return nil
}

func (s *SQLStore) All(ctx context.Context) ([]ledger.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, pqError("select", err)
	}
	defer rows.Close()

	records := make([]ledger.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, pqError("scan", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pqError("select", err)
	}
	return records, nil
}

func (s *SQLStore) Get(ctx context.Context, code string) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectOneSQL, code))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, pqError("get "+code, err)
	}
	return e, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return pqError("ping", err)
	}
	return nil
}

func (s *SQLStore) Close() {
	s.db.Close()
}

func pqError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &Error{Op: op, Code: string(pqErr.Code), Err: err}
	}
	return &Error{Op: op, Err: err}
}
